package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a per-client token bucket limiter.
// Buckets live in memory and are evicted after a period of inactivity.
type RateLimiter struct {
	clients   map[string]*clientLimit
	lastSweep time.Time
	now       func() time.Time
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	mu        sync.Mutex
}

type clientLimit struct {
	lastSeen time.Time
	limiter  *rate.Limiter
}

// NewRateLimiter creates a limiter allowing requestsPerMinute per client, with the
// full minute's quota available as burst.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 100
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimit),
		limit:   rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:   requestsPerMinute,
		idleTTL: 3 * time.Minute,
		now:     time.Now,
	}
}

// Middleware returns a rate limiting middleware
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Runs ahead of per-route auth, so the IP is the only client key
		clientID := getClientIP(r)

		if !rl.allow(clientID) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"RateLimitExceeded","message":"Rate limit exceeded. Please try again later."}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow checks if a client is allowed to make a request
func (rl *RateLimiter) allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evictIdle(now)

	client, exists := rl.clients[clientID]
	if !exists {
		client = &clientLimit{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientID] = client
	}
	client.lastSeen = now

	return client.limiter.AllowN(now, 1)
}

// evictIdle drops buckets that have not been used within idleTTL. Caller holds mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idleTTL {
		return
	}
	rl.lastSweep = now
	for clientID, client := range rl.clients {
		if now.Sub(client.lastSeen) > rl.idleTTL {
			delete(rl.clients, clientID)
		}
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (if behind proxy); the first hop is the client
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
