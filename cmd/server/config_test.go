package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/dmitrymomot/lessonkit/modules/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/config"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/environment"
	"github.com/dmitrymomot/lessonkit/pkg/generator"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse[Config](map[string]string{
		"CORS_ALLOWED_ORIGINS": "https://app.lessonkit.dev,https://lessonkit.dev",
		"ADMIN_EMAILS":         "root@lessonkit.dev",
	})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, storageMemory, cfg.StorageDriver)
	assert.Equal(t, providerSimulated, cfg.BillingDriver)
	assert.Equal(t, lockNone, cfg.LockDriver)
	assert.Equal(t, []string{"https://app.lessonkit.dev", "https://lessonkit.dev"}, cfg.AllowedOrigins)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, []string{"root@lessonkit.dev"}, cfg.API.AdminEmails)
	assert.Equal(t, 720*time.Hour, cfg.API.SessionTTL)
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	t.Run("simulator outside production", func(t *testing.T) {
		t.Parallel()
		p, err := newProvider(context.Background(), Config{BillingDriver: providerSimulated})
		require.NoError(t, err)
		assert.Equal(t, "simulated", p.Name())
	})

	t.Run("simulator refused in production", func(t *testing.T) {
		t.Parallel()
		ctx := environment.WithContext(context.Background(), environment.Production)
		_, err := newProvider(ctx, Config{BillingDriver: providerSimulated})
		assert.ErrorIs(t, err, ErrSimulatorInProduction)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		_, err := newProvider(context.Background(), Config{BillingDriver: "paypal"})
		assert.ErrorIs(t, err, ErrUnknownDriver)
	})
}

func TestCheckSessionSecret(t *testing.T) {
	t.Parallel()

	prod := environment.WithContext(context.Background(), environment.Production)
	withSecret := func(secret string) Config {
		return Config{API: api.Config{SessionSecret: secret}}
	}

	defaults, err := config.Parse[Config](map[string]string{})
	require.NoError(t, err)
	require.Equal(t, api.DevSessionSecret, defaults.API.SessionSecret)

	t.Run("default is fine outside production", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, checkSessionSecret(context.Background(), *defaults))
	})

	t.Run("default refused in production", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, checkSessionSecret(prod, *defaults), ErrInsecureSessionSecret)
	})

	t.Run("empty and short secrets refused in production", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, checkSessionSecret(prod, withSecret("")), ErrInsecureSessionSecret)
		assert.ErrorIs(t, checkSessionSecret(prod, withSecret("short-secret")), ErrInsecureSessionSecret)
	})

	t.Run("private secret accepted in production", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, checkSessionSecret(prod, withSecret("f3c1b7e09a5d4e2c8b6a1d0f9e7c5b3a")))
	})
}

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	log := discard()

	gen, closeFn, err := newGenerator(context.Background(), Config{}, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, generator.Static{}, gen)

	ctx := environment.WithContext(context.Background(), environment.Production)
	_, _, err = newGenerator(ctx, Config{}, log)
	assert.ErrorIs(t, err, ErrMissingGeneratorKey)
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	c, err := loadCatalog("")
	require.NoError(t, err)
	plan, err := c.Lookup(entitlement.PlanFree)
	require.NoError(t, err)
	assert.Equal(t, int64(2), plan.GenerationQuota)

	_, err = loadCatalog("testdata/missing.yaml")
	assert.ErrorIs(t, err, entitlement.ErrInvalidPlanConfiguration)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	t.Parallel()

	_, _, _, err := openStore(context.Background(), Config{StorageDriver: "sqlite"}, discard())
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
