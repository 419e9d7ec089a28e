package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/list-subscriptions/internal/config"
	"github.com/ignite/list-subscriptions/internal/identity"
)

// Server represents the API server
type Server struct {
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server. Every /api route runs behind the
// identity middleware built from identities.
func NewServer(cfg config.ServerConfig, gateway Gateway, identities identity.Provider, health *HealthChecker) *Server {
	handlers := NewHandlers(gateway)

	return &Server{
		handler: SetupRoutes(cfg, handlers, health, identities),
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
