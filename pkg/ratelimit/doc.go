// Package ratelimit throttles requests per client IP using token buckets
// from golang.org/x/time/rate.
//
//	limiter := ratelimit.NewRateLimiter(1, 20, 10*time.Minute)
//	r.With(ratelimit.NewMiddleware(limiter).Handler).Post("/token", h.Token)
package ratelimit
