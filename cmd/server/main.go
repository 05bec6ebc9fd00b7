package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Picfeed/internal/api/middleware"
	"Picfeed/internal/api/routes"
	"Picfeed/internal/app"
	"Picfeed/internal/auth"
	"Picfeed/internal/blobstore"
	"Picfeed/internal/config"
	"Picfeed/internal/db"
	"Picfeed/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer conn.Close()
	logger.Info("connected to database", "driver", cfg.DatabaseDriver)

	if err := db.Migrate(ctx, conn, cfg.DatabaseDriver); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	logger.Info("migrations completed")

	store, err := blobstore.NewDiskStore(cfg.BlobDir, cfg.PublicBaseURL, logger)
	if err != nil {
		log.Fatal("Failed to initialize blob store: ", err)
	}

	verifierCfg := auth.VerifierConfig{
		HS256Secret: cfg.AuthJWTSecret,
		Issuer:      cfg.AuthIssuer,
		Leeway:      30 * time.Second,
	}
	if cfg.AuthJWKSURL != "" {
		keys, err := auth.NewJWKSKeyFetcher(ctx, cfg.AuthJWKSURL, 15*time.Minute)
		if err != nil {
			log.Fatal("Failed to set up JWKS: ", err)
		}
		verifierCfg.Keys = keys
	}
	verifier, err := auth.NewVerifier(verifierCfg)
	if err != nil {
		log.Fatal("Failed to set up token verification: ", err)
	}

	recorder := metrics.NewRecorder()
	repos := app.NewRepositories(cfg.DatabaseDriver, conn)
	services := app.NewServices(repos, store, app.ServiceOptions{
		Metrics:           recorder,
		Logger:            logger,
		EnrichmentTimeout: cfg.FeedEnrichmentTimeout,
	})

	handler := routes.NewRouter(routes.RouterConfig{
		Feed:                services.Feed,
		Posts:               services.Posts,
		Likes:               services.Likes,
		Auth:                middleware.NewAuthMiddleware(verifier, logger),
		Media:               store,
		DB:                  conn,
		Metrics:             recorder,
		Logger:              logger,
		CORSOrigins:         cfg.CORSOrigins,
		RateLimitRPM:        cfg.RateLimitRPM,
		DiscloseUploadCause: cfg.UploadDiscloseCause,
		AccessLog:           true,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("picfeed starting",
		"addr", server.Addr,
		"public_base_url", cfg.PublicBaseURL,
		"blob_dir", cfg.BlobDir,
		"jwks", cfg.AuthJWKSURL != "")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server failed: ", err)
	}
	logger.Info("server stopped")
}
