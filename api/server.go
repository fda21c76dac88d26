/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the planning UI

ROUTE GROUPS:
  /api/config/*     Store selection
  /api/import/*     Roster import
  /api/plan         Plan save
  /api/records      Plan rows
  /api/compliance   Completion toggling
  /api/insights     Summary
  /api/report       LaTeX report

SECURITY NOTE:
  No authentication middleware. The server is meant to run on the
  technician's machine and binds where LISTEN_ADDR says.

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
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/config", func(r chi.Router) {
			r.Get("/", h.GetConfig)
			r.Put("/store", h.SelectStore)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/", h.ImportRoster)
			r.Get("/", h.ListImported)
			r.Get("/locations", h.ListImportedLocations)
		})

		r.Post("/plan", h.SavePlan)

		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Delete("/", h.DeleteRecords)
		})

		r.Post("/compliance", h.UpdateCompliance)
		r.Get("/insights", h.GetInsights)
		r.Post("/report", h.GenerateReport)
	})

	return r
}
