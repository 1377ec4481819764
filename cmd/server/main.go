// Command server runs the lessonkit HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/dmitrymomot/lessonkit/modules/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/clientip"
	"github.com/dmitrymomot/lessonkit/pkg/config"
	"github.com/dmitrymomot/lessonkit/pkg/environment"
	"github.com/dmitrymomot/lessonkit/pkg/httpserver"
	"github.com/dmitrymomot/lessonkit/pkg/i18n"
	"github.com/dmitrymomot/lessonkit/pkg/i18n/locales"
	"github.com/dmitrymomot/lessonkit/pkg/logger"
	"github.com/dmitrymomot/lessonkit/pkg/redis"
	"github.com/dmitrymomot/lessonkit/pkg/requestid"
)

func main() {
	cfg := config.MustLoad[Config]()

	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
		logger.WithContextExtractors(requestid.LogExtractor, clientip.LogExtractor),
	)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *cfg, log); err != nil {
		log.ErrorContext(ctx, "server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	env := environment.Normalize(cfg.AppEnv)
	ctx = environment.WithContext(ctx, env)

	if err := checkSessionSecret(ctx, cfg); err != nil {
		return err
	}

	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	store, checks, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, closeStore)

	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		cleanup = append(cleanup, func() { _ = rdb.Close() })
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb, readinessTimeout)})
	}

	svc, err := newService(cfg, store, rdb, log)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := newAuthLimiter(cfg, rdb)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, closeLimiter)

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	gen, closeGen, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, closeGen)

	mailer, err := newMailer(ctx, cfg, log)
	if err != nil {
		return err
	}

	translator, err := i18n.New(locales.FS, locales.Default)
	if err != nil {
		return err
	}

	api := entitlement.New(entitlement.Options{
		Config:      cfg.API,
		Service:     svc,
		Billing:     provider,
		Generator:   gen,
		Mailer:      mailer,
		Translator:  translator,
		AuthLimiter: limiter,
		Logger:      log,
		Now:         time.Now,
	})

	var proxy []clientip.Option
	if cfg.TrustProxy {
		proxy = append(proxy, clientip.TrustProxyHeaders())
	}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware(clientip.New(proxy...)),
		environment.Middleware(env),
		i18n.Middleware(translator),
		cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPatch,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", entitlement.AccountIDHeader, requestid.Header},
			ExposedHeaders:   []string{requestid.Header},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler,
	)
	r.Get("/health/live", httpserver.Live)
	r.Get("/health/ready", httpserver.Ready(log, checks...))
	r.Mount("/api", api.Handle())

	log.InfoContext(ctx, "starting lessonkit",
		slog.String("storage", cfg.StorageDriver),
		logger.Provider(provider.Name()),
		slog.String("lock", cfg.LockDriver),
	)

	if err := httpserver.New(cfg.HTTP, log).Run(ctx, r); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
