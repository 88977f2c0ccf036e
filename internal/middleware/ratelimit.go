package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TooManyRequestsMessage is the error body returned when a client is throttled.
const TooManyRequestsMessage = "too many requests, please try again later"

// visitorIdleTimeout is how long an idle client keeps its limiter.
const visitorIdleTimeout = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
// A RateLimiter with a non-positive rate allows every request.
type RateLimiter struct {
	perMinute int
	mu        sync.Mutex
	visitors  map[string]*visitor
	now       func() time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per client,
// with a burst of the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		visitors:  make(map[string]*visitor),
		now:       time.Now,
	}
}

// Enabled reports whether the limiter throttles at all.
func (l *RateLimiter) Enabled() bool {
	return l != nil && l.perMinute > 0
}

// Allow reports whether a request from ip may proceed.
func (l *RateLimiter) Allow(ip string) bool {
	if !l.Enabled() {
		return true
	}

	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		limit := rate.Limit(float64(l.perMinute) / 60.0)
		v = &visitor{limiter: rate.NewLimiter(limit, l.perMinute)}
		l.visitors[ip] = v
	}
	now := l.now()
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Cleanup drops limiters for clients idle longer than visitorIdleTimeout.
func (l *RateLimiter) Cleanup() {
	if !l.Enabled() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-visitorIdleTimeout)
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Run calls Cleanup every interval until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	if !l.Enabled() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Middleware rejects requests over the per-client rate with 429.
// The client is identified by the host part of RemoteAddr, so chi's RealIP
// middleware should run first when the server sits behind a proxy.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": TooManyRequestsMessage}) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
