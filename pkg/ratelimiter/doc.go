// Package ratelimiter provides token bucket rate limiting with in-memory and
// Redis storage plus net/http middleware.
//
// A bucket holds up to Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each request spends one token; a request that drives the
// balance negative is denied.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: 6 * time.Second,
//	})
//
//	r.With(ratelimiter.Middleware(limiter, ratelimiter.ByClientIP("login"))).
//		Post("/auth/login", login)
//
// Use NewRedisStore when several instances must share one budget.
package ratelimiter
