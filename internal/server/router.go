package server

import (
	"log/slog"
	"net/http"

	"event-ticketing-api/internal/handlers"
	"event-ticketing-api/internal/middleware"
	"event-ticketing-api/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Tickets *handlers.TicketHandler
	Events  *handlers.EventHandler
	Health  *handlers.HealthHandler
}

// RouterConfig holds the middleware dependencies of the router
type RouterConfig struct {
	Auth           *middleware.AuthMiddleware
	CORS           middleware.CORSConfig
	CheckInLimiter *middleware.AttemptLimiter
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
}

// NewRouter builds the API route table
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.ErrorHandlingMiddleware(logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeadersMiddleware)

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", h.Health.Health)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	requireManager := middleware.RequireRole(models.UserRoleOrganizer, models.UserRoleAdmin)
	requireAdmin := middleware.RequireRole(models.UserRoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Auth.OptionalAuth)

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/purchase", h.Tickets.Purchase)

			// Check-in attempts are capped per client IP
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cfg.CheckInLimiter))
				r.Get("/validate/{ticketNumber}/{validationCode}", h.Tickets.Validate)
				r.Post("/check-in", h.Tickets.CheckIn)
			})

			r.Group(func(r chi.Router) {
				r.Use(cfg.Auth.RequireAuth)

				r.Get("/my-tickets", h.Tickets.MyTickets)
				r.Get("/my-tickets/{id}", h.Tickets.MyTicket)
				r.Put("/{id}/cancel", h.Tickets.Cancel)
				r.With(requireAdmin).Put("/{id}/refund", h.Tickets.Refund)

				r.Group(func(r chi.Router) {
					r.Use(requireManager)
					r.Get("/event/{eventId}", h.Tickets.EventTickets)
					r.Get("/event/{eventId}/stats", h.Tickets.EventStats)
				})
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.Events.List)
			r.Get("/{id}", h.Events.Get)

			r.Group(func(r chi.Router) {
				r.Use(cfg.Auth.RequireAuth)
				r.Use(requireManager)
				r.Post("/", h.Events.Create)
				r.Put("/{id}/cancel", h.Events.Cancel)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(cfg.Auth.RequireAuth)
			r.Use(requireAdmin)
			r.Put("/events/{id}/validate", h.Events.Validate)
			r.Put("/events/{id}/reject", h.Events.Reject)
			r.Get("/events/{id}/audit", h.Events.AuditTrail)
		})
	})

	return r
}
