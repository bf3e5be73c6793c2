package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityhub/ticket-service/internal/api/http/handlers"
	"github.com/facilityhub/ticket-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Resolvers      *handlers.ResolversHandler
	Properties     *handlers.PropertiesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := protected.Group("/tickets")
	tickets.Post("", auth.RequireCapability(auth.CapCreateTickets), cfg.Tickets.CreateTicket)
	tickets.Get("", auth.RequireCapability(auth.CapViewTickets), cfg.Tickets.ListTickets)
	// Static collection views must register before the :id routes.
	tickets.Get("/waitlist", auth.RequireCapability(auth.CapViewTickets), cfg.Tickets.ListWaitlist)
	tickets.Get("/sla-risk", auth.RequireCapability(auth.CapViewTickets), cfg.Tickets.ListSLARisk)
	tickets.Get("/breached", auth.RequireCapability(auth.CapViewTickets), cfg.Tickets.ListBreached)
	tickets.Get("/:id", auth.RequireCapability(auth.CapViewTickets), cfg.Tickets.GetTicket)
	tickets.Patch("/:id", auth.RequireCapability(auth.CapEditTickets), cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", auth.RequireCapability(auth.CapDeleteTickets), cfg.Tickets.DeleteTicket)
	tickets.Patch("/:id/pause-sla", auth.RequireCapability(auth.CapPauseSLA), cfg.Tickets.PauseSLA)
	tickets.Post("/:id/reclassify", auth.RequireCapability(auth.CapClassifyTickets), cfg.Tickets.Reclassify)
	tickets.Patch("/:id/override-classification", auth.RequireCapability(auth.CapClassifyTickets), cfg.Tickets.OverrideClassification)
	tickets.Post("/:id/assign", auth.RequireCapability(auth.CapAssignTickets), cfg.Tickets.ForceAssign)
	tickets.Get("/:id/activity", auth.RequireCapability(auth.CapViewActivity), cfg.Tickets.ListActivity)

	protected.Get("/resolvers/workload", auth.RequireCapability(auth.CapViewWorkload), cfg.Resolvers.Workload)
	protected.Get("/properties/:id/ticket-config", auth.RequireCapability(auth.CapViewTickets), cfg.Properties.TicketConfig)
}
