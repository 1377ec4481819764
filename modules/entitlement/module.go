package entitlement

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/lessonkit/handler"
	"github.com/dmitrymomot/lessonkit/pkg/billing"
	engine "github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/email"
	"github.com/dmitrymomot/lessonkit/pkg/environment"
	"github.com/dmitrymomot/lessonkit/pkg/generator"
	"github.com/dmitrymomot/lessonkit/pkg/i18n"
	"github.com/dmitrymomot/lessonkit/pkg/logger"
	"github.com/dmitrymomot/lessonkit/pkg/ratelimiter"
)

// DevSessionSecret is the SESSION_SECRET default. It is public, so a process
// running in production must be configured with its own secret.
const DevSessionSecret = "dev-session-secret-change-me"

// MinSessionSecretLen is the shortest secret accepted in production.
const MinSessionSecretLen = 32

// Config holds the API settings. SessionSecret keys the HMAC of bearer tokens.
type Config struct {
	BaseURL       string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	SessionSecret string        `env:"SESSION_SECRET" envDefault:"dev-session-secret-change-me"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	AdminEmails   []string      `env:"ADMIN_EMAILS" envSeparator:","`
}

// Options wires the module. Service, Billing and Generator are required;
// without Mailer invites are created but not emailed. AuthLimiter throttles
// register and login per client IP when set.
type Options struct {
	Config      Config
	Service     engine.Service
	Billing     billing.Provider
	Generator   generator.Generator
	Mailer      email.EmailSender
	Translator  *i18n.Translator
	AuthLimiter *ratelimiter.Bucket
	Logger      *slog.Logger
	Now         func() time.Time
}

// Module serves the entitlement HTTP surface over an engine Service.
type Module struct {
	cfg          Config
	svc          engine.Service
	billing      billing.Provider
	gen          generator.Generator
	mailer       email.EmailSender
	translator   *i18n.Translator
	limiter      *ratelimiter.Bucket
	log          *slog.Logger
	now          func() time.Time
	errorHandler handler.ErrorHandler[handler.Context]
}

// New builds the module. It panics when Service, Billing or Generator is nil.
func New(opts Options) *Module {
	if opts.Service == nil || opts.Billing == nil || opts.Generator == nil {
		panic("entitlement: Service, Billing and Generator are required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := &Module{
		cfg:        opts.Config,
		svc:        opts.Service,
		billing:    opts.Billing,
		gen:        opts.Generator,
		mailer:     opts.Mailer,
		translator: opts.Translator,
		limiter:    opts.AuthLimiter,
		log:        log.With(logger.Component("entitlement_api")),
		now:        now,
	}
	m.errorHandler = handler.NewErrorHandler(log, handler.ErrorHandlerConfig{
		Translator: opts.Translator,
		Mappers:    []handler.ErrorMapper{MapError},
	})
	return m
}

// ErrorHandler returns the handler used for every route of the module.
func (m *Module) ErrorHandler() handler.ErrorHandler[handler.Context] {
	return m.errorHandler
}

// Handle returns the module router. Mount it under a prefix such as /api.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		m.errorHandler(handler.NewContext(w, r), handler.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		m.errorHandler(handler.NewContext(w, r), handler.ErrMethodNotAllowed)
	})

	r.Group(func(r chi.Router) {
		r.Use(m.throttle("auth"))
		r.Post("/auth/register", wrap(m, m.register, jsonBody))
		r.Post("/auth/login", wrap(m, m.login, jsonBody))
	})
	r.Post("/billing/webhook", m.webhook)
	r.Get("/plans", wrap(m, m.plans))

	r.Group(func(r chi.Router) {
		r.Use(m.requireCaller)

		r.Post("/auth/refresh", wrap(m, m.refresh))
		r.Get("/me", wrap(m, m.me))
		r.Patch("/me", wrap(m, m.updateMe, jsonBody))
		r.Get("/me/usage", wrap(m, m.usage))
		r.Post("/usage/consume", wrap(m, m.consume))
		r.Post("/lesson-plans", wrap(m, m.createLessonPlan, jsonBody))

		r.Post("/teams", wrap(m, m.createTeam, jsonBody))
		r.Get("/teams/{teamID}", wrap(m, m.team, pathParams))
		r.Get("/teams/{teamID}/members", wrap(m, m.members, pathParams))
		r.Post("/teams/{teamID}/invites", wrap(m, m.createInvite, pathParams, jsonBody))
		r.Delete("/teams/{teamID}/invites/{token}", wrap(m, m.revokeInvite, pathParams))
		r.Delete("/teams/{teamID}/members/{accountID}", wrap(m, m.removeMember, pathParams))
		r.Post("/invites/accept", wrap(m, m.acceptInvite, jsonBody))

		r.Post("/billing/checkout", wrap(m, m.checkout, jsonBody))
		r.Post("/billing/pix", wrap(m, m.createPix, jsonBody))

		r.Group(func(r chi.Router) {
			r.Use(m.requireAdmin)
			r.Get("/admin/stats", wrap(m, m.stats))
			r.Get("/admin/accounts", wrap(m, m.accounts, queryParams))
		})

		r.Group(func(r chi.Router) {
			r.Use(m.devOnly)
			r.Post("/billing/pix/{chargeID}/simulate", wrap(m, m.simulatePix, pathParams))
			r.Post("/dev/expire", wrap(m, m.forceExpire, optionalJSONBody))
		})
	})

	return r
}

// devOnly hides a route in production.
func (m *Module) devOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if environment.IsProduction(r.Context()) {
			m.errorHandler(handler.NewContext(w, r), handler.ErrNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Module) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := handler.NewContext(w, r)
		acc, err := m.svc.Account(r.Context(), caller(ctx))
		if err != nil {
			m.errorHandler(ctx, err)
			return
		}
		if !acc.IsAdmin {
			m.errorHandler(ctx, handler.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// throttle limits requests per client IP when a limiter is configured.
func (m *Module) throttle(scope string) func(http.Handler) http.Handler {
	if m.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimiter.Middleware(m.limiter, ratelimiter.ByClientIP(scope),
		ratelimiter.WithErrorResponder(func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result, err error) {
			if err != nil {
				m.log.ErrorContext(r.Context(), "rate limiter unavailable", logger.Error(err))
				m.errorHandler(handler.NewContext(w, r), handler.ErrUnavailable)
				return
			}
			m.errorHandler(handler.NewContext(w, r), handler.ErrTooManyRequests)
		}),
	)
}
