package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Users    *handlers.UsersHandler
	Tickets  *handlers.TicketsHandler
	Replies  *handlers.RepliesHandler
	Bookings *handlers.BookingsHandler
	Metrics  *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Static ticket paths are registered
// before the parameterized ones so they match first.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/signup", cfg.Users.Signup)
	app.Post("/login", cfg.Users.Login)

	app.Post("/ticket", cfg.Tickets.CreateTicket)
	app.Get("/ticket/search", cfg.Tickets.SearchTickets)
	app.Get("/ticket/count/search", cfg.Tickets.CountTickets)
	app.Get("/ticket/search/:userId/:ticketId", cfg.Tickets.GetTicketDetail)
	app.Get("/ticket/:ticketId/response", cfg.Tickets.ListReplies)

	app.Post("/ticket-response/:ticketId", cfg.Replies.CreateReply)
	app.Put("/ticket-response/:ticketId/update-status", cfg.Replies.ResolveTicket)
	app.Put("/ticket-response/:ticketId/response/:responseId", cfg.Replies.UpdateReply)
	app.Delete("/ticket-response/:ticketId/response/:responseId", cfg.Replies.DeleteReply)

	app.Get("/booking/:bookingId/validate", cfg.Bookings.Validate)
}
