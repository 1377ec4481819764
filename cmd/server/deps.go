package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	api "github.com/dmitrymomot/lessonkit/modules/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/billing"
	"github.com/dmitrymomot/lessonkit/pkg/email"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/memstore"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/mongostore"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/pgstore"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/pgstore/migrations"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/redislock"
	"github.com/dmitrymomot/lessonkit/pkg/environment"
	"github.com/dmitrymomot/lessonkit/pkg/generator"
	"github.com/dmitrymomot/lessonkit/pkg/httpserver"
	"github.com/dmitrymomot/lessonkit/pkg/logger"
	"github.com/dmitrymomot/lessonkit/pkg/mongo"
	"github.com/dmitrymomot/lessonkit/pkg/pg"
	"github.com/dmitrymomot/lessonkit/pkg/ratelimiter"
	"github.com/dmitrymomot/lessonkit/pkg/redis"
)

var (
	ErrUnknownDriver         = errors.New("unknown driver")
	ErrSimulatorInProduction = errors.New("simulated billing provider is not allowed in production")
	ErrMissingGeneratorKey   = errors.New("GEMINI_API_KEY is required in production")
	ErrInsecureSessionSecret = errors.New("SESSION_SECRET must be set to a private value of at least 32 bytes in production")
)

// readinessTimeout bounds each dependency ping of /ready.
const readinessTimeout = 2 * time.Second

func noop() {}

func openStore(ctx context.Context, cfg Config, log *slog.Logger) (entitlement.Store, []httpserver.Check, func(), error) {
	switch cfg.StorageDriver {
	case storageMemory, "":
		if environment.Normalize(cfg.AppEnv) == environment.Production {
			log.WarnContext(ctx, "in-memory storage in production, data is lost on restart")
		}
		return memstore.New(), nil, noop, nil

	case storageMongo:
		db, err := mongo.Open(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := db.Client().Disconnect(context.WithoutCancel(ctx)); err != nil {
				log.ErrorContext(ctx, "failed to disconnect mongo", logger.Error(err))
			}
		}
		store := mongostore.New(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		checks := []httpserver.Check{{Name: "mongo", Fn: mongo.Healthcheck(db.Client(), readinessTimeout)}}
		return store, checks, closeFn, nil

	case storagePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pg.Migrate(ctx, pool, cfg.Postgres, migrations.FS, ".", log); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool, readinessTimeout)}}
		return pgstore.New(pool), checks, pool.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("%w: STORAGE_DRIVER=%q", ErrUnknownDriver, cfg.StorageDriver)
}

func loadCatalog(path string) (*entitlement.Catalog, error) {
	if path == "" {
		return entitlement.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(entitlement.ErrInvalidPlanConfiguration, err)
	}
	defer f.Close()
	return entitlement.LoadCatalog(f)
}

// connectRedis returns nil when no component needs Redis.
func connectRedis(ctx context.Context, cfg Config) (*goredis.Client, error) {
	switch cfg.LockDriver {
	case lockNone, "":
		return nil, nil
	case lockRedis:
		return redis.Connect(ctx, cfg.Redis)
	}
	return nil, fmt.Errorf("%w: LOCK_DRIVER=%q", ErrUnknownDriver, cfg.LockDriver)
}

// checkSessionSecret refuses the public default secret in production. Anyone
// holding the secret can sign a session for any account.
func checkSessionSecret(ctx context.Context, cfg Config) error {
	if !environment.IsProduction(ctx) {
		return nil
	}
	secret := cfg.API.SessionSecret
	if secret == api.DevSessionSecret || len(secret) < api.MinSessionSecretLen {
		return ErrInsecureSessionSecret
	}
	return nil
}

func newService(cfg Config, store entitlement.Store, rdb *goredis.Client, log *slog.Logger) (entitlement.Service, error) {
	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	opts := []entitlement.Option{entitlement.WithLogger(log)}
	if rdb != nil {
		locker, err := redislock.New(rdb, cfg.Lock, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, entitlement.WithLocker(locker))
	} else if cfg.StorageDriver != storageMemory {
		log.Warn("team seat limits are enforced per process; set LOCK_DRIVER=redis when running more than one instance",
			logger.Component("entitlement"),
		)
	}
	return entitlement.New(store, catalog, opts...), nil
}

// newAuthLimiter shares buckets through Redis when it is available.
func newAuthLimiter(cfg Config, rdb *goredis.Client) (*ratelimiter.Bucket, func(), error) {
	if rdb != nil {
		store, err := ratelimiter.NewRedisStore(rdb, cfg.AppName+":ratelimit:")
		if err != nil {
			return nil, nil, err
		}
		b, err := ratelimiter.NewBucket(store, cfg.RateLimit)
		return b, noop, err
	}
	store := ratelimiter.NewMemoryStore()
	b, err := ratelimiter.NewBucket(store, cfg.RateLimit)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return b, store.Close, nil
}

func newProvider(ctx context.Context, cfg Config) (billing.Provider, error) {
	switch cfg.BillingDriver {
	case providerStripe:
		p, err := billing.NewStripe(cfg.Stripe)
		if err != nil {
			return nil, err
		}
		return p, nil
	case providerPaddle:
		p, err := billing.NewPaddle(cfg.Paddle)
		if err != nil {
			return nil, err
		}
		return p, nil
	case providerSimulated, "":
		if environment.IsProduction(ctx) {
			return nil, ErrSimulatorInProduction
		}
		return billing.NewSimulator(cfg.Simulator, time.Now), nil
	}
	return nil, fmt.Errorf("%w: BILLING_PROVIDER=%q", ErrUnknownDriver, cfg.BillingDriver)
}

// newGenerator falls back to the offline generator outside production when no
// API key is configured.
func newGenerator(ctx context.Context, cfg Config, log *slog.Logger) (generator.Generator, func(), error) {
	if cfg.Generator.APIKey == "" {
		if environment.IsProduction(ctx) {
			return nil, nil, ErrMissingGeneratorKey
		}
		log.WarnContext(ctx, "GEMINI_API_KEY not set, using static lesson plans")
		return generator.Static{Now: time.Now}, noop, nil
	}
	g, err := generator.NewGemini(ctx, cfg.Generator)
	if err != nil {
		return nil, nil, err
	}
	return g, func() { _ = g.Close() }, nil
}

func newMailer(ctx context.Context, cfg Config, log *slog.Logger) (email.EmailSender, error) {
	if cfg.Email.PostmarkServerToken == "" && !environment.IsProduction(ctx) {
		log.InfoContext(ctx, "postmark not configured, writing emails to disk",
			slog.String("dir", cfg.Email.DevOutputDir),
		)
		return email.NewDevSender(cfg.Email.DevOutputDir), nil
	}
	return email.NewPostmarkClient(cfg.Email)
}
