package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goalline/academy-server/internal/auth"
	"github.com/goalline/academy-server/internal/config"
)

// Server wraps the HTTP server and router.
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	server   *http.Server
	router   *chi.Mux
}

// NewServer assembles the router over the handler set. authManager and
// limiter follow the same nil semantics as SetupRoutes.
func NewServer(cfg config.ServerConfig, h *Handlers, authManager *auth.Manager, limiter *RateLimiter, allowedOrigins []string) *Server {
	router := SetupRoutes(h, authManager, limiter, allowedOrigins)

	return &Server{
		config:   cfg,
		handler:  router,
		handlers: h,
		router:   router,
	}
}

// ListenAndServe starts the HTTP server. Form bodies are small JSON, so the
// timeouts are tight.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second, // SMTP round trips happen inside the request
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
