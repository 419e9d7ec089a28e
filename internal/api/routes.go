package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/list-subscriptions/internal/config"
	"github.com/ignite/list-subscriptions/internal/identity"
	"github.com/ignite/list-subscriptions/internal/pkg/httputil"
)

// SetupRoutes configures all routes. Health endpoints are public; everything
// under /api requires an identity.
func SetupRoutes(cfg config.ServerConfig, h *Handlers, health *HealthChecker, identities identity.Provider) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials so the host app's session cookie is sent
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/live", health.HandleLiveness)
		r.Get("/health/ready", health.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(identity.Middleware(identities))

		r.Route("/mail-subscriptions", func(r chi.Router) {
			r.Get("/", h.ListSubscriptions)
			r.Post("/{listID}/subscribe", h.Subscribe)
			r.Post("/{listID}/unsubscribe", h.Unsubscribe)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httputil.NotFound(w, "not found")
	})

	return r
}
