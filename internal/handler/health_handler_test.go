package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sport-sections-api/internal/config"
	"github.com/noah-isme/sport-sections-api/internal/handler"
)

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "service healthy", body.Message)
}

func TestHealthCheckReportsFailingProbe(t *testing.T) {
	cfg := config.Config{AppName: "Sport Sections API", AppEnv: "test", StorageProvider: config.StorageProviderMinio}
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(cfg,
		handler.HealthProbe{Name: "database", Check: func(context.Context) error { return nil }},
		handler.HealthProbe{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Equal(t, "degraded", body.Data.Status)
	require.Equal(t, "ok", body.Data.Dependencies["database"])
	require.Equal(t, "connection refused", body.Data.Dependencies["redis"])
}
