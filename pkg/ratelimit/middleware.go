package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"

	"github.com/go-chi/render"
	apperrors "github.com/tendant/simple-authz/pkg/errors"
)

// Middleware limits requests per client IP
type Middleware struct {
	limiter *RateLimiter
}

// NewMiddleware creates a per-IP rate limiting middleware around limiter
func NewMiddleware(limiter *RateLimiter) *Middleware {
	return &Middleware{limiter: limiter}
}

// Handler returns the rate limiting middleware handler
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !m.limiter.Allow(ip) {
			m.rateLimitExceeded(w, r, ip)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) rateLimitExceeded(w http.ResponseWriter, r *http.Request, ip string) {
	slog.Warn("Rate limit exceeded",
		"ip", ip,
		"path", r.URL.Path,
		"method", r.Method,
	)

	retryAfter := 1
	if m.limiter.limit > 0 {
		retryAfter = int(math.Ceil(1 / float64(m.limiter.limit)))
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	render.Status(r, http.StatusTooManyRequests)
	render.JSON(w, r, apperrors.New(apperrors.ErrCodeTemporarilyUnavailable, "too many requests, please try again later").Response())
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers are not
// read here; behind a trusted proxy, mount chi's middleware.RealIP first so
// RemoteAddr already holds the original client address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
