package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sport-sections-api/internal/config"
	"github.com/noah-isme/sport-sections-api/internal/utils"
)

const probeTimeout = 2 * time.Second

// HealthProbe checks one backing dependency.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Storage      string            `json:"storage"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck reports service metadata and the state of every probe. A failing probe turns
// the response into a 503 so orchestrators stop routing traffic.
func HealthCheck(cfg config.Config, probes ...HealthProbe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Storage:     cfg.StorageProvider,
		}

		if len(probes) > 0 {
			payload.Dependencies = make(map[string]string, len(probes))
		}
		for _, probe := range probes {
			ctx, cancel := context.WithTimeout(c.UserContext(), probeTimeout)
			err := probe.Check(ctx)
			cancel()

			if err != nil {
				payload.Status = "degraded"
				payload.Dependencies[probe.Name] = err.Error()
				continue
			}
			payload.Dependencies[probe.Name] = "ok"
		}

		if payload.Status != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Data:    payload,
				Message: "service degraded",
			})
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
