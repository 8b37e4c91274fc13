package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-aggregate-dispatcher/docs"
	"go-aggregate-dispatcher/internal/api/handler"
	"go-aggregate-dispatcher/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.RunHandler) {
	r.GET("/api/v1/runs", h.ListRuns)
	// More specific routes first
	r.GET("/api/v1/runs/*/tasks", h.GetRunTasks)
	r.GET("/api/v1/runs/*", h.GetRun)
	r.GET("/api/v1/users/*", h.GetUserHistory)

	r.Handle("/swagger/", httpSwagger.WrapHandler)
}
