package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/goalline/academy-server/internal/auth"
)

// SetupRoutes configures all routes. authManager and limiter may be nil:
// without an authManager the admin routes are not mounted at all, and
// without a limiter the public form routes are unthrottled.
func SetupRoutes(h *Handlers, authManager *auth.Manager, limiter *RateLimiter, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for the staff session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (no auth required)
	r.Get("/health", h.health.HandleHealth)
	r.Get("/health/ready", h.health.HandleReadiness)

	// Staff OAuth routes (no auth required)
	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	r.Route("/api", func(r chi.Router) {
		// Public form endpoints, rate limited per IP
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Post("/application", h.HandleApplication)
			r.Post("/contact", h.HandleContact)
			r.Post("/partners", h.HandlePartnership)
			r.Post("/visits", h.HandleVisit)
		})

		// Admin console, session-protected
		if authManager != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(authManager.RequireAuth)
				r.Get("/submissions", h.HandleListSubmissions)
				r.Get("/submissions/{id}", h.HandleGetSubmission)
				r.Get("/dashboard", h.HandleDashboard)
				r.Get("/rls-check", h.HandleRLSCheck)
				r.Post("/outbox/retry", h.HandleOutboxRetry)
			})
		}
	})

	return r
}
