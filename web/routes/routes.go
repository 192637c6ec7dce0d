// Package routes provides HTTP route registration for the web server.
package routes

import (
	"github.com/buildboard/buildboard/web/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter returns a router with every route registered
func NewRouter(h *handlers.Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	RegisterUtilityRoutes(r, h)
	RegisterAPIRoutes(r, h)
	return r
}

// RegisterUtilityRoutes registers the health check
func RegisterUtilityRoutes(r chi.Router, h *handlers.Handlers) {
	r.Get("/health", h.Health)
}

// RegisterAPIRoutes registers the read-only JSON API
func RegisterAPIRoutes(r chi.Router, h *handlers.Handlers) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/versions", h.Versions)
		r.Get("/projects", h.ListProjects)
	})
}
