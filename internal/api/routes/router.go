package routes

import (
	"log/slog"
	"net/http"

	"Picfeed/internal/api/middleware"
	"Picfeed/internal/core/feed"
	"Picfeed/internal/core/likes"
	"Picfeed/internal/core/posts"
	"Picfeed/internal/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries everything the HTTP surface depends on
type RouterConfig struct {
	Feed                feed.Service
	Posts               posts.Service
	Likes               likes.Service
	Auth                *middleware.AuthMiddleware
	Media               MediaOpener
	DB                  Pinger
	Metrics             *metrics.Recorder
	Logger              *slog.Logger
	CORSOrigins         []string
	RateLimitRPM        int
	DiscloseUploadCause bool
	AccessLog           bool
}

// NewRouter builds the chi router with the shared middleware stack and all routes
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if cfg.AccessLog {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORSOrigins))
	}

	// Health and metrics stay outside the rate limit for probes and scrapers
	RegisterHealthRoutes(r, cfg.DB, cfg.Logger)
	RegisterMetricsRoutes(r, cfg.Metrics)

	r.Group(func(r chi.Router) {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPM)
		r.Use(rateLimiter.Middleware)

		RegisterPostRoutes(r, cfg.Feed, cfg.Posts, cfg.Auth, cfg.DiscloseUploadCause, cfg.Logger)
		RegisterLikeRoutes(r, cfg.Likes, cfg.Auth, cfg.Logger)
		RegisterMediaRoutes(r, cfg.Media, cfg.Logger)
	})

	return r
}

// corsMiddleware allows browser clients from the configured origins
func corsMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	})
}
