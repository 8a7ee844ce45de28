package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-portal/internal/api/http/handlers"
	"github.com/spec-kit/grievance-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Grievances     *handlers.GrievancesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/oauth/url", cfg.Auth.OAuthURL)
	authGroup.Post("/oauth/callback", cfg.Auth.OAuthCallback)

	grievances := app.Group("/grievances", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	grievances.Get("/", cfg.Grievances.List)
	grievances.Get("/stats", cfg.Grievances.Stats)
	grievances.Get("/assignees", auth.RequireAdmin(), cfg.Grievances.Assignees)
	grievances.Post("/", cfg.Grievances.Create)
	grievances.Get("/:id", cfg.Grievances.Get)
	grievances.Patch("/:id", cfg.Grievances.Update)
	grievances.Get("/:id/attachments/:idx/url", cfg.Grievances.AttachmentURL)
}
