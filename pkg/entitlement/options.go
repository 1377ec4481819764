package entitlement

import (
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultMaxAttempts = 3
	defaultInviteTTL   = 24 * time.Hour
)

// Option configures the engine.
type Option func(*service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for infrastructure failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithLocker replaces the process-local Locker, typically with one shared by
// every instance of the service.
func WithLocker(l Locker) Option {
	return func(s *service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithMaxAttempts bounds optimistic retries on version conflicts.
func WithMaxAttempts(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithInviteTTL sets how long an invite stays acceptable.
func WithInviteTTL(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.inviteTTL = d
		}
	}
}

// WithPasswordCost sets the bcrypt cost. Out of range values are ignored.
func WithPasswordCost(cost int) Option {
	return func(s *service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.passwordCost = cost
		}
	}
}
