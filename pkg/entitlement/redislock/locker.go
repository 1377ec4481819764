// Package redislock implements entitlement.Locker with Redis SET NX PX.
//
// Each lock carries a random owner token; release deletes the key only while
// the token still matches, so an expired holder cannot free a lock taken over
// by someone else.
package redislock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/logger"
	"github.com/dmitrymomot/lessonkit/pkg/token"
)

var (
	ErrLockTimeout = errors.New("redislock: timed out waiting for lock")
	ErrNilClient   = errors.New("redislock: nil redis client")
)

var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config tunes lock acquisition.
type Config struct {
	Prefix string        `env:"LOCK_PREFIX" envDefault:"lessonkit:lock:"`
	TTL    time.Duration `env:"LOCK_TTL" envDefault:"5s"`
	Wait   time.Duration `env:"LOCK_WAIT" envDefault:"2s"`
	Retry  time.Duration `env:"LOCK_RETRY_INTERVAL" envDefault:"25ms"`
}

// Locker is a distributed mutex keyed by account or team lock key.
type Locker struct {
	client redis.UniversalClient
	cfg    Config
	log    *slog.Logger
}

var _ entitlement.Locker = (*Locker)(nil)

// New returns a Locker. A nil log discards release failures.
func New(client redis.UniversalClient, cfg Config, log *slog.Logger) (*Locker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Second
	}
	if cfg.Retry <= 0 {
		cfg.Retry = 25 * time.Millisecond
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Locker{client: client, cfg: cfg, log: log}, nil
}

// Lock blocks until key is acquired, ctx ends or cfg.Wait elapses.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	owner, err := token.Random(16)
	if err != nil {
		return nil, err
	}
	name := l.cfg.Prefix + key

	waitCtx := ctx
	if l.cfg.Wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.cfg.Wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.cfg.Retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, name, owner, l.cfg.TTL).Result()
		if err != nil && waitCtx.Err() == nil {
			return nil, err
		}
		if ok {
			return l.unlocker(ctx, name, owner), nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlocker(ctx context.Context, name, owner string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := release.Run(ctx, l.client, []string{name}, owner).Err(); err != nil {
			l.log.WarnContext(ctx, "failed to release lock",
				logger.Component("redislock"),
				slog.String("key", name),
				logger.Error(err),
			)
		}
	}
}
