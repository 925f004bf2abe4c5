package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/aryan-vats/tubescribe-backend/internal/config"
	"github.com/aryan-vats/tubescribe-backend/internal/handlers"
	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
	"github.com/aryan-vats/tubescribe-backend/internal/middleware"
)

// New builds the router with the full middleware stack.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	h *handlers.Handler,
	authn *middleware.Authenticator,
	limiter *middleware.SlidingWindowLimiter,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RateLimit(limiter))
	if cfg.IsProduction() {
		r.Use(middleware.LoginRateLimit)
	}

	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Get("/health-metrics", h.HealthMetrics)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(authn.RequireAuth).Get("/me", h.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.RequireAuth)
		r.Post("/generate", h.Generate)
		r.Get("/generate-page", h.GetDraft)
		r.Post("/generate-page", h.GeneratePreview)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/get-post/{id}", h.GetPost)
		r.Delete("/delete-post/{id}", h.DeletePost)
		r.Get("/download", h.Download)
		r.Get("/download-post/{id}", h.DownloadPost)
	})

	// The socket authenticates itself: browser WebSocket clients cannot set
	// an Authorization header.
	r.Get("/ws/generate", h.GenerateSocket)

	return r
}
