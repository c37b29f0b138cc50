package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key, typically a client IP.
// Buckets idle for longer than the idle expiry are dropped.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	idleExpiry time.Duration
	now        func() time.Time

	mu      sync.Mutex
	buckets map[string]*keyedLimiter
}

// NewRateLimiter creates a rate limiter.
// perSecond: sustained requests per second per key
// burst: maximum requests allowed at once per key
// idleExpiry: how long an unused bucket is kept (0 = forever)
func NewRateLimiter(perSecond float64, burst int, idleExpiry time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:      rate.Limit(perSecond),
		burst:      burst,
		idleExpiry: idleExpiry,
		now:        time.Now,
		buckets:    make(map[string]*keyedLimiter),
	}
}

// Allow reports whether a request for key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	return rl.get(key, now).AllowN(now, 1)
}

func (rl *RateLimiter) get(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.buckets[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	rl.cleanupLocked(now)
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.buckets[key] = &keyedLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

func (rl *RateLimiter) cleanupLocked(now time.Time) {
	if rl.idleExpiry <= 0 {
		return
	}
	for key, entry := range rl.buckets {
		if now.Sub(entry.lastSeen) > rl.idleExpiry {
			delete(rl.buckets, key)
		}
	}
}

// Reset drops the bucket for key
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

// Len returns the number of tracked keys
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
