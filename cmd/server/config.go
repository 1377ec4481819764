package main

import (
	"github.com/dmitrymomot/lessonkit/modules/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/billing"
	"github.com/dmitrymomot/lessonkit/pkg/email"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/redislock"
	"github.com/dmitrymomot/lessonkit/pkg/generator"
	"github.com/dmitrymomot/lessonkit/pkg/httpserver"
	"github.com/dmitrymomot/lessonkit/pkg/mongo"
	"github.com/dmitrymomot/lessonkit/pkg/pg"
	"github.com/dmitrymomot/lessonkit/pkg/ratelimiter"
	"github.com/dmitrymomot/lessonkit/pkg/redis"
)

// Storage drivers.
const (
	storageMemory   = "memory"
	storageMongo    = "mongo"
	storagePostgres = "postgres"
)

// Billing providers.
const (
	providerStripe    = "stripe"
	providerPaddle    = "paddle"
	providerSimulated = "simulated"
)

// Lock drivers.
const (
	lockNone  = "none"
	lockRedis = "redis"
)

type Config struct {
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	AppName        string   `env:"APP_NAME" envDefault:"lessonkit"`
	StorageDriver  string   `env:"STORAGE_DRIVER" envDefault:"memory"`
	BillingDriver  string   `env:"BILLING_PROVIDER" envDefault:"simulated"`
	LockDriver     string   `env:"LOCK_DRIVER" envDefault:"none"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	CatalogPath    string   `env:"PLAN_CATALOG_PATH"`
	TrustProxy     bool     `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	HTTP      httpserver.Config
	Mongo     mongo.Config
	Postgres  pg.Config
	Redis     redis.Config
	Lock      redislock.Config
	RateLimit ratelimiter.Config
	Email     email.Config
	Stripe    billing.StripeConfig
	Paddle    billing.PaddleConfig
	Simulator billing.SimulatorConfig
	Generator generator.Config
	API       entitlement.Config
}
