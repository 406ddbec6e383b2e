package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/help-queue/internal/api/http/handlers"
	"github.com/spec-kit/help-queue/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Queue          *handlers.QueueHandler
	Session        *handlers.SessionHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireUser())
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets/stream", cfg.Tickets.Stream)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Put("/tickets/:id", cfg.Tickets.UpdateTicket)
	api.Delete("/tickets/:id", cfg.Tickets.DeleteTicket)

	optional := cfg.AuthMiddleware.Optional
	app.Get("/", cfg.Queue.Home)
	app.Get("/queue", optional, cfg.Queue.Page)
	app.Get("/queue/events", optional, cfg.Queue.Events)
	app.Post("/queue/button", optional, cfg.Queue.Button)
	app.Post("/queue/select/:id", optional, cfg.Queue.Select)
	app.Post("/queue/edit", optional, cfg.Queue.Edit)
	app.Post("/queue/edit/submit", optional, cfg.Queue.SubmitEdit)
	app.Post("/queue/delete/:id", optional, cfg.Queue.Delete)
	app.Post("/queue/create", optional, cfg.Queue.Create)

	app.Get("/sign-in", optional, cfg.Session.Page)
	app.Post("/sign-in", cfg.Session.SignIn)
	app.Post("/sign-up", cfg.Session.SignUp)
	app.Post("/sign-out", optional, cfg.Session.SignOut)
}
