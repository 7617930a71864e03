package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickethelp/repair-service/internal/api/http/handlers"
	"github.com/tickethelp/repair-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Parts          *handlers.PartsHandler
	StateRequests  *handlers.StateRequestsHandler
	Statuses       *handlers.StatusesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/auth/me", cfg.Auth.Me)

	protected.Get("/estados", cfg.Statuses.List)
	protected.Get("/estados/codigo/:code", cfg.Statuses.GetByCode)
	protected.Get("/estados/:id", cfg.Statuses.Get)

	tickets := protected.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	tickets.Get("/:id/repuestos", cfg.Parts.ListParts)
	tickets.Post("/:id/repuestos", cfg.Parts.CreatePart)
	tickets.Get("/:id/repuestos/:part_id", cfg.Parts.GetPart)
	tickets.Put("/:id/repuestos/:part_id", cfg.Parts.ReplacePart)
	tickets.Patch("/:id/repuestos/:part_id", cfg.Parts.PatchPart)
	tickets.Delete("/:id/repuestos/:part_id", cfg.Parts.DeletePart)

	tickets.Post("/:id/state-requests", cfg.StateRequests.Create)
	tickets.Get("/:id/state-requests", cfg.StateRequests.ListForTicket)

	requests := protected.Group("/state-requests")
	requests.Get("/", cfg.StateRequests.List)
	requests.Post("/:id/approve", cfg.StateRequests.Approve)
	requests.Post("/:id/reject", cfg.StateRequests.Reject)
}
