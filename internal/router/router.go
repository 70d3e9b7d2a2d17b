package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sport-sections-api/internal/config"
	"github.com/noah-isme/sport-sections-api/internal/handler"
	"github.com/noah-isme/sport-sections-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler        *handler.AuthHandler
	SectionHandler     *handler.SectionHandler
	ApplicationHandler *handler.ApplicationHandler
	ActivityHandler    *handler.ActivityHandler
	HealthProbes       []handler.HealthProbe
	ExposeMetrics      bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if deps.ExposeMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	if deps.SectionHandler != nil {
		deps.SectionHandler.Register(api.Group("/sections"))
	}

	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.Register(api.Group("/applications"))
	}

	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(api.Group("/activity"))
	}
}
