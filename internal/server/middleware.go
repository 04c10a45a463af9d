// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// =============================================================================
// MIDDLEWARE CHAIN
// =============================================================================

// Chain composes middleware functions into one. Middlewares execute in the
// order provided.
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// =============================================================================
// RECOVERY
// =============================================================================

// RecoveryMiddleware catches panics in downstream handlers, logs the stack
// trace, and returns a 500 instead of killing the server.
func RecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Printf("PANIC_RECOVERED | method=%s path=%s error=%v\n%s",
						r.Method, r.URL.Path, err, debug.Stack())
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// SECURITY HEADERS
// =============================================================================

// SecurityHeadersMiddleware adds standard hardening headers. Handlers can
// override individual headers before writing; the SSE handler replaces
// Cache-Control with no-cache.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Content-Security-Policy", "default-src 'self'")
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// REQUEST IDS
// =============================================================================

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDMiddleware tags every request with a UUID, exposed on the
// X-Request-Id response header and through RequestID for log correlation.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set("X-Request-Id", id)
			ctx := context.WithValue(r.Context(), requestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID returns the request's ID, or "" when the middleware did not run.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// =============================================================================
// REQUEST LOGGING
// =============================================================================

// responseWriter captures the status code for the request log.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the underlying writer so SSE streaming keeps working
// behind the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingMiddleware logs one line per request.
//
// Format: "2024-01-15 14:30:45 | POST /api/ask | 200 | 1.234s | id=..."
func LoggingMiddleware(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			id := RequestID(r.Context())
			if id == "" {
				id = "-"
			}
			logger.Printf("%s | %s %s | %d | %.3fs | id=%s",
				start.Format("2006-01-02 15:04:05"),
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				time.Since(start).Seconds(),
				id,
			)
		})
	}
}

// =============================================================================
// RATE LIMITING
// =============================================================================

const (
	// DefaultRequestsPerMinute is the per-IP request budget.
	DefaultRequestsPerMinute = 100

	// DefaultBurst is how far a client may run ahead of its budget.
	DefaultBurst = 20

	limiterCleanupInterval = 3 * time.Minute
	limiterClientTTL       = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client IP. Buckets for idle clients
// are evicted by a background sweep; call Stop to end it.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	perMinute int
	burst     int
	stop      chan struct{}
	stopOnce  sync.Once
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client IP with the given
// burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients:   make(map[string]*clientBucket),
		perMinute: perMinute,
		burst:     burst,
		stop:      make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// DefaultRateLimiter returns a limiter with the default budget.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(DefaultRequestsPerMinute, DefaultBurst)
}

// Allow reports whether a request from ip fits in its budget.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[ip]
	if !ok {
		b = &clientBucket{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.burst),
		}
		rl.clients[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

// Stop ends the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.clients {
				if time.Since(b.lastSeen) > limiterClientTTL {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// RateLimitMiddleware rejects clients that exceed their per-IP budget with a
// 429 and a Retry-After hint.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := GetClientIP(r)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
			if !rl.Allow(ip) {
				w.Header().Set("Retry-After", "60")
				log.Printf("RATE_LIMITED | ip=%s path=%s limit=%d", ip, r.URL.Path, rl.perMinute)
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// CLIENT IP
// =============================================================================

// trustedProxies are the sources whose X-Forwarded-For and X-Real-IP headers
// are honored. Anything else gets its connection address, so a direct caller
// cannot dodge rate limiting by faking headers.
var trustedProxies = []string{
	"127.0.0.1/32",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fc00::/7",
}

var (
	parsedTrustedProxies []*net.IPNet
	trustedProxiesOnce   sync.Once
)

func parseTrustedProxies() {
	trustedProxiesOnce.Do(func() {
		parsedTrustedProxies = make([]*net.IPNet, 0, len(trustedProxies))
		for _, cidr := range trustedProxies {
			_, ipNet, err := net.ParseCIDR(cidr)
			if err != nil {
				log.Printf("TRUSTED_PROXIES | invalid_cidr=%s", cidr)
				continue
			}
			parsedTrustedProxies = append(parsedTrustedProxies, ipNet)
		}
	})
}

func isTrustedProxy(ipStr string) bool {
	parseTrustedProxies()
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, cidr := range parsedTrustedProxies {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// getRemoteIP strips the port from r.RemoteAddr ("IP:port" or "[IPv6]:port").
func getRemoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// GetClientIP extracts the client IP for a request. Forwarded headers are
// honored only when the connection itself comes from a trusted proxy, and a
// header value must parse as an IP to count.
func GetClientIP(r *http.Request) string {
	connIP := getRemoteIP(r.RemoteAddr)
	if !isTrustedProxy(connIP) {
		return connIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	return connIP
}
