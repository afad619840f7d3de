package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bridge/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bridge/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	staff := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Get("/tickets", cfg.Tickets.ListTickets)
	staff.Get("/tickets/:channelId", cfg.Tickets.GetTicket)
	staff.Get("/tickets/:channelId/transcript", cfg.Tickets.GetTranscript)
	staff.Get("/users/:userId/comments", cfg.Tickets.ListComments)
	staff.Get("/users/:userId/archives", cfg.Tickets.ListArchives)
}
