package ratelimiter

import "time"

// Result is the outcome of one limiter check.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time // next refill
}

// Allowed reports whether the request fit in the bucket.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long a denied caller should wait, relative to now.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Config describes a token bucket.
type Config struct {
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"10"`
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"6s"`
}

func (c Config) validate() error {
	switch {
	case c.Capacity <= 0:
		return ErrInvalidConfig
	case c.RefillRate <= 0:
		return ErrInvalidConfig
	case c.RefillInterval <= 0:
		return ErrInvalidConfig
	}
	return nil
}

// refill returns the balance after the intervals elapsed since last, and the
// new refill mark.
func (c Config) refill(tokens int, last, now time.Time) (int, time.Time) {
	if now.Before(last) {
		return tokens, last
	}
	// Capping the interval count keeps the multiplication in range.
	maxIntervals := int64(c.Capacity/c.RefillRate + 1)
	n := min(int64(now.Sub(last)/c.RefillInterval), maxIntervals)
	if n <= 0 {
		return tokens, last
	}
	return min(tokens+int(n)*c.RefillRate, c.Capacity), last.Add(time.Duration(n) * c.RefillInterval)
}
