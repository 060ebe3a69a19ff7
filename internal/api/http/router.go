package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/register", cfg.Users.Register)
	app.Post("/login", cfg.Users.Login)

	protected := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireIdentity(), h}
	}
	app.Get("/user", protected(cfg.Users.Me)...)
	app.Patch("/userPatch", protected(cfg.Users.Update)...)
	app.Patch("/password", protected(cfg.Users.ChangePassword)...)
}
