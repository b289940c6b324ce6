/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the scheduling frontend

ROUTE GROUPS:
  /api/risk/*    Risk period detection and queries
  /api/rules     Conflict rule document
  /api/leaves/*  Leave request evaluation
  /api/events/*  Domain event injection

SECURITY NOTE:
  No authentication middleware currently. The engine is meant to sit behind
  the scheduling application's gateway, not on a public edge.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Risk period routes
		r.Route("/risk", func(r chi.Router) {
			r.Post("/analyze", h.AnalyzeNow)
			r.Patch("/options", h.UpdateOptions)
			r.Route("/periods", func(r chi.Router) {
				r.Get("/", h.ListPeriods)
				r.Get("/current", h.CurrentPeriods)
				r.Get("/upcoming", h.UpcomingPeriods)
				r.Delete("/{id}", h.DeactivatePeriod)
			})
		})

		// Conflict rule routes
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.GetRules)
			r.Put("/", h.PutRules)
		})

		// Leave evaluation routes
		r.Route("/leaves", func(r chi.Router) {
			r.Post("/check", h.CheckLeave)
		})

		// Event injection routes
		r.Route("/events", func(r chi.Router) {
			r.Post("/leave", h.InjectLeaveEvent)
			r.Post("/conflict-resolved", h.InjectConflictResolved)
		})
	})

	return r
}
