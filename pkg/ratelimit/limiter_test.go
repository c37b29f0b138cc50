package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedLimiter(perSecond float64, burst int, idle time.Duration) (*RateLimiter, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(perSecond, burst, idle)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_BurstAndRefill(t *testing.T) {
	rl, now := newClockedLimiter(1, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "keys are independent")

	*now = now.Add(2 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiter_IdleBucketsExpire(t *testing.T) {
	rl, now := newClockedLimiter(1, 1, time.Minute)

	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.Len())

	*now = now.Add(2 * time.Minute)
	rl.Allow("c")
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiter_Reset(t *testing.T) {
	rl, _ := newClockedLimiter(1, 1, 0)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	rl.Reset("a")
	assert.True(t, rl.Allow("a"))
}

func TestMiddleware(t *testing.T) {
	rl, _ := newClockedLimiter(0.5, 1, time.Minute)
	handler := NewMiddleware(rl).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/token", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "temporarily_unavailable", body["error"])
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:1234", "2001:db8::1"},
		{"forwarded for ignored", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:1", "10.0.0.1"},
		{"real ip ignored", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.1:1", "10.0.0.1"},
		{"no port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}

func TestMiddleware_IgnoresForwardedFor(t *testing.T) {
	mw := NewMiddleware(NewRateLimiter(0.001, 1, time.Minute))
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}

	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, mw.limiter.Len())
}
