package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go-aggregate-dispatcher/internal/api/handler"
	"go-aggregate-dispatcher/internal/store"
	"go-aggregate-dispatcher/pkg/router"
)

func TestRegisterRoutes(t *testing.T) {
	db, err := store.InitDB(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer db.Close()

	r := router.New()
	RegisterRoutes(r, handler.NewRunHandler(db))

	for path, want := range map[string]int{
		"/api/v1/runs":             http.StatusOK,
		"/api/v1/runs/missing":     http.StatusNotFound,
		"/api/v1/runs/x/tasks":     http.StatusNotFound,
		"/api/v1/users/alice":      http.StatusOK,
		"/swagger/doc.json":        http.StatusOK,
		"/api/v1/does-not-exist/x": http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, want, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
