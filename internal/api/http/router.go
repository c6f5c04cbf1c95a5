package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-service/internal/api/http/handlers"
	"github.com/spec-kit/portal-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Macros         *handlers.MacrosHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	api.Get("/metrics", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), cfg.Metrics.GetMetrics)

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/stats", auth.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleAgent), cfg.Tickets.GetStats)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/replies", cfg.Tickets.CreateReply)

	replies := api.Group("/replies")
	replies.Patch("/:id", cfg.Tickets.UpdateReply)
	replies.Delete("/:id", cfg.Tickets.DeleteReply)
	replies.Post("/:id/attachments", cfg.Tickets.AddAttachment)

	attachments := api.Group("/attachments")
	attachments.Delete("/:id", cfg.Tickets.RemoveAttachment)

	macros := api.Group("/macros", auth.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleAgent))
	macros.Post("", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), cfg.Macros.CreateMacro)
	macros.Get("", cfg.Macros.ListMacros)
	macros.Post("/validate", cfg.Macros.ValidateMacro)
	macros.Get("/:id", cfg.Macros.GetMacro)
	macros.Put("/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), cfg.Macros.UpdateMacro)
	macros.Delete("/:id", auth.RequireRole(auth.RoleAdmin, auth.RoleManager), cfg.Macros.DeleteMacro)
	macros.Post("/:id/execute", cfg.Macros.ExecuteMacro)
	macros.Post("/:id/test", cfg.Macros.TestMacro)
	macros.Get("/:id/executions", cfg.Macros.ListExecutions)
}
