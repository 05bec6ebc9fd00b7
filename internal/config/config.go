// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"Picfeed/internal/db"
)

// Config is the full service configuration
type Config struct {
	DatabaseDriver        db.Driver
	DatabaseURL           string
	BlobDir               string
	PublicBaseURL         string
	AuthJWTSecret         string
	AuthJWKSURL           string
	AuthIssuer            string
	LogFormat             string
	Port                  int
	RateLimitRPM          int
	FeedEnrichmentTimeout time.Duration
	LogLevel              slog.Level
	CORSOrigins           []string
	UploadDiscloseCause   bool
}

// Load reads configuration from the environment, after loading .env if present.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Invalid values are errors.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error
	cfg := &Config{
		DatabaseURL:   env("DATABASE_URL", ""),
		BlobDir:       env("BLOB_DIR", "./data/blobs"),
		PublicBaseURL: strings.TrimRight(env("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AuthJWTSecret: getenv("AUTH_JWT_SECRET"),
		AuthJWKSURL:   env("AUTH_JWKS_URL", ""),
		AuthIssuer:    env("AUTH_ISSUER", ""),
		CORSOrigins:   splitList(env("CORS_ORIGINS", "")),
	}

	driver, err := db.ParseDriver(getenv("DATABASE_DRIVER"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.DatabaseDriver = driver

	cfg.Port, err = strconv.Atoi(env("PORT", "8080"))
	if err != nil || cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port number"))
	}

	cfg.RateLimitRPM, err = strconv.Atoi(env("RATE_LIMIT_RPM", "100"))
	if err != nil || cfg.RateLimitRPM <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPM must be a positive integer"))
	}

	cfg.FeedEnrichmentTimeout, err = time.ParseDuration(env("FEED_ENRICHMENT_TIMEOUT", "2s"))
	if err != nil || cfg.FeedEnrichmentTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FEED_ENRICHMENT_TIMEOUT must be a positive duration"))
	}

	cfg.UploadDiscloseCause, err = strconv.ParseBool(env("UPLOAD_DISCLOSE_CAUSE", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("UPLOAD_DISCLOSE_CAUSE must be a boolean"))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error"))
	}

	cfg.LogFormat = strings.ToLower(env("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json"))
	}

	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver == db.DriverSQLite {
			cfg.DatabaseURL = "./data/picfeed.db"
		} else {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the %s driver", cfg.DatabaseDriver))
		}
	}

	if cfg.AuthJWTSecret == "" && cfg.AuthJWKSURL == "" {
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET or AUTH_JWKS_URL is required"))
	}
	if cfg.AuthJWTSecret != "" && len(cfg.AuthJWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least 32 bytes"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimRight(strings.TrimSpace(part), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
