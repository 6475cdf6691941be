package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/media-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Procedures *handlers.ProceduresHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Get("/procedures", cfg.Procedures.List)
	api.Post("/procedures/:name", cfg.Procedures.Call)
}
