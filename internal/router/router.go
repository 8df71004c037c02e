package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/mockview-api/internal/config"
	"github.com/noah-isme/mockview-api/internal/handler"
	"github.com/noah-isme/mockview-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	VapiHandler      *handler.VapiHandler
	InterviewHandler *handler.InterviewHandler
	EventHandler     *handler.EventHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	v1 := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	v1.Get("/health", handler.HealthCheck(cfg))

	if deps.VapiHandler != nil {
		deps.VapiHandler.Register(app.Group("/api/vapi"))
	}

	interviews := app.Group("/api/interviews")
	if deps.EventHandler != nil {
		deps.EventHandler.Register(interviews)
	}
	if deps.InterviewHandler != nil {
		deps.InterviewHandler.Register(interviews)
	}
}
