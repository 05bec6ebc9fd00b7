package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"Picfeed/internal/auth"
)

// Context keys for storing caller information
type contextKey string

const (
	ExternalIDKey contextKey = "external_id"
	ClaimsKey     contextKey = "jwt_claims"
)

// TokenVerifier validates a bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware authenticates requests with bearer tokens from the identity provider
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier TokenVerifier, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// RequireAuth rejects requests without a valid bearer token with 401.
// On success the caller's external id and claims are injected into the context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, "Missing or malformed Authorization header")
			return
		}

		claims, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.logger.Info("auth failure",
				"type", "verification_failed",
				"ip", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
				"error", err)
			writeAuthError(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// OptionalAuth loads the caller's identity when a valid token is present but never rejects.
// An invalid token is treated as anonymous.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.logger.Debug("optional auth failed", "path", r.URL.Path, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, ExternalIDKey, claims.Subject)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetExternalID extracts the caller's external id from the request context
// Returns empty string if not authenticated
func GetExternalID(r *http.Request) string {
	id, _ := r.Context().Value(ExternalIDKey).(string)
	return id
}

// GetClaims extracts the JWT claims from the request context
// Returns nil if not authenticated
func GetClaims(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(ClaimsKey).(*auth.Claims)
	return claims
}

// SetTestExternalID sets the external id in the context for testing purposes
// This function should ONLY be used in tests to mock authenticated callers
func SetTestExternalID(ctx context.Context, externalID string) context.Context {
	return context.WithValue(ctx, ExternalIDKey, externalID)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   "AuthenticationRequired",
		"message": message,
	}); err != nil {
		slog.Error("failed to write auth error response", "error", err)
	}
}
