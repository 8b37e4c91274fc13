package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func named(name string) HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, name)
	}
}

func serve(t *testing.T, r *Router, method, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec.Code, rec.Body.String()
}

func TestMatchWildcardRoute(t *testing.T) {
	cases := []struct {
		path, pattern string
		want          bool
	}{
		{"/api/v1/runs/abc", "/api/v1/runs/*", true},
		{"/api/v1/runs/abc/tasks", "/api/v1/runs/*/tasks", true},
		{"/api/v1/runs/abc/other", "/api/v1/runs/*/tasks", false},
		{"/api/v1/runs", "/api/v1/runs/*", false},
		{"/api/v1/runs/", "/api/v1/runs/*", false},
		{"/api/v1/users/bob", "/api/v1/runs/*", false},
		{"/static/a/b/c", "/static/*", true},
	}
	for _, c := range cases {
		require.Equal(t, c.want, matchWildcardRoute(c.path, c.pattern), "%s vs %s", c.path, c.pattern)
	}
}

func TestRouterDispatch(t *testing.T) {
	r := New()
	r.GET("/api/v1/runs", named("list"))
	r.GET("/api/v1/runs/*/tasks", named("tasks"))
	r.GET("/api/v1/runs/*", named("get"))
	r.POST("/api/v1/echo", named("echo"))

	code, body := serve(t, r, http.MethodGet, "/api/v1/runs")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "list", body)

	_, body = serve(t, r, http.MethodGet, "/api/v1/runs/r1/tasks")
	require.Equal(t, "tasks", body)

	_, body = serve(t, r, http.MethodGet, "/api/v1/runs/r1")
	require.Equal(t, "get", body)

	code, _ = serve(t, r, http.MethodGet, "/api/v1/nothing")
	require.Equal(t, http.StatusNotFound, code)

	code, _ = serve(t, r, http.MethodGet, "/api/v1/echo")
	require.Equal(t, http.StatusMethodNotAllowed, code)

	code, _ = serve(t, r, http.MethodDelete, "/api/v1/runs/r1")
	require.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestRouterHandlePrefix(t *testing.T) {
	r := New()
	r.Handle("/swagger/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, "docs:"+req.URL.Path)
	}))

	code, body := serve(t, r, http.MethodGet, "/swagger/index.html")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "docs:/swagger/index.html", body)

	code, body = serve(t, r, http.MethodPost, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, code, "mounted handlers see every method")
	require.Equal(t, "docs:/swagger/doc.json", body)
}
