package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"Picfeed/internal/api/handlers"
	"Picfeed/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Pinger reports database reachability
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RegisterHealthRoutes registers the liveness endpoint. It reports 503 when the database is unreachable.
func RegisterHealthRoutes(r chi.Router, db Pinger, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check failed", "error", err)
			handlers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// RegisterMetricsRoutes exposes the Prometheus registry
func RegisterMetricsRoutes(r chi.Router, recorder *metrics.Recorder) {
	r.Handle("/metrics", recorder.Handler())
}
