package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop-api/internal/config"
)

func newRouterFixture() *application {
	return &application{
		config: &config.Config{
			Server: config.ServerConfig{Port: 8080, LogLevel: "info"},
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newRouterFixture().setupRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router := newRouterFixture().setupRouter()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/requests"},
		{http.MethodPost, "/api/requests"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodPost, "/api/ratings"},
		{http.MethodGet, "/api/users/me"},
	}
	for _, tc := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newRouterFixture().setupRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
