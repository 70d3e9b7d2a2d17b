package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesDomainCollectors(t *testing.T) {
	ApplicationTransitions().WithLabelValues("created").Inc()
	PriorityMutations().WithLabelValues("promote", "ok").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `application_transitions_total{status="created"}`)
	require.Contains(t, string(body), `priority_mutations_total{operation="promote",result="ok"}`)
}

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	require.NotPanics(t, func() {
		RegisterMetrics()
		RegisterMetrics()
	})
	require.Same(t, ImageUploadRejected(), ImageUploadRejected())
}
