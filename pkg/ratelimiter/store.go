package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket balances.
type Store interface {
	// ConsumeTokens spends tokens from key at now. A negative remaining means
	// the request must be denied; the balance is not driven below -1.
	ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config, now time.Time) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}
