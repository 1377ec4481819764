package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/lessonkit/pkg/logger"
	"github.com/dmitrymomot/lessonkit/pkg/statemachine"
)

// Service is the single entry point for every entitlement-affecting operation.
// Each operation reconciles expired grants before evaluating anything else.
type Service interface {
	// Records
	Account(ctx context.Context, accountID string) (*Account, error)
	Reconcile(ctx context.Context, accountID string) (*Account, bool, error)
	Catalog() *Catalog

	// Usage
	TryConsume(ctx context.Context, accountID string) (*Account, error)
	Usage(ctx context.Context, accountID string) (UsageReport, error)

	// Accounts
	Register(ctx context.Context, params RegisterParams) (*Account, error)
	Authenticate(ctx context.Context, email, password string) (*Account, error)
	Refresh(ctx context.Context, accountID string) (*Account, error)
	UpdateProfile(ctx context.Context, accountID, name string) (*Account, error)
	ListAccounts(ctx context.Context) ([]*Account, error)
	Stats(ctx context.Context) (Stats, error)

	// Teams
	CreateTeam(ctx context.Context, adminID, name string) (*Team, error)
	Team(ctx context.Context, teamID string) (*Team, error)
	ListMembers(ctx context.Context, teamID string) ([]*Account, error)
	CreateInvite(ctx context.Context, teamID, email string) (*Invite, error)
	AcceptInvite(ctx context.Context, token, email string) (*Account, error)
	RevokeInvite(ctx context.Context, teamID, token string) error
	RemoveMember(ctx context.Context, accountID, teamID string) (*Account, error)

	// Billing events
	CompleteCheckout(ctx context.Context, c CheckoutCompletion) (*Account, error)
	DeleteSubscription(ctx context.Context, subscriptionID string) (*Account, error)
	ForceExpire(ctx context.Context, accountID string) (*Account, error)
}

type service struct {
	store        Store
	catalog      *Catalog
	locker       Locker
	log          *slog.Logger
	now          func() time.Time
	maxAttempts  int
	inviteTTL    time.Duration
	passwordCost int
	invites      *statemachine.Machine[InviteState, inviteEvent, *inviteRun]
}

// New creates the engine. Panics if store or catalog is nil.
func New(store Store, catalog *Catalog, opts ...Option) Service {
	if store == nil {
		panic("entitlement: Store is required")
	}
	if catalog == nil {
		panic("entitlement: Catalog is required")
	}

	s := &service{
		store:        store,
		catalog:      catalog,
		locker:       NewLocalLocker(),
		log:          slog.New(slog.DiscardHandler),
		now:          time.Now,
		maxAttempts:  defaultMaxAttempts,
		inviteTTL:    defaultInviteTTL,
		passwordCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.invites = s.inviteLifecycle()
	return s
}

// Catalog returns the plans the engine was built with.
func (s *service) Catalog() *Catalog {
	return s.catalog
}

// mutation changes a freshly loaded and reconciled account in place. It must
// either fully apply its change or return an error without touching acc.
type mutation func(acc *Account, now time.Time) error

// mutate runs a versioned read-modify-write cycle on one account. A nil fn only
// reconciles, and persists only when the sweep changed something. When fn
// rejects the operation the sweep result is still saved.
func (s *service) mutate(ctx context.Context, op, accountID string, fn mutation) (*Account, bool, error) {
	unlock, err := s.locker.Lock(ctx, accountID)
	if err != nil {
		return nil, false, s.fail(ctx, op, err, logger.AccountID(accountID))
	}
	defer unlock()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		acc, err := s.store.GetAccount(ctx, accountID)
		if err != nil {
			return nil, false, s.fail(ctx, op, err, logger.AccountID(accountID))
		}

		now := s.now()
		repaired := s.repairTeamPlan(ctx, acc)
		expired := Sweep(acc, now)
		changed := repaired || expired

		var opErr error
		if fn != nil {
			opErr = fn(acc, now)
			changed = changed || opErr == nil
		}

		if changed {
			acc.UpdatedAt = now
			if err := s.store.UpdateAccount(ctx, acc); err != nil {
				if errors.Is(err, ErrConcurrencyConflict) {
					s.log.LogAttrs(ctx, slog.LevelDebug, "account version conflict, retrying",
						logger.AccountID(accountID),
						logger.Operation(op),
						logger.RetryCount(attempt),
					)
					continue
				}
				return nil, false, s.fail(ctx, op, err, logger.AccountID(accountID))
			}
		}

		if opErr != nil {
			return nil, expired, opErr
		}
		return acc.sanitized(), expired, nil
	}

	s.log.LogAttrs(ctx, slog.LevelWarn, "account update retries exhausted",
		logger.AccountID(accountID),
		logger.Operation(op),
		logger.RetryCount(s.maxAttempts),
	)
	return nil, false, ErrConcurrencyConflict
}

// repairTeamPlan drops a team reference from an account that is not on the
// team plan. Such records only come from out-of-band data edits.
func (s *service) repairTeamPlan(ctx context.Context, acc *Account) bool {
	if !acc.InTeam() || acc.PlanID == PlanSchool {
		return false
	}
	s.log.LogAttrs(ctx, slog.LevelWarn, "team member without team plan, dropping team reference",
		logger.AccountID(acc.ID),
		logger.TeamID(acc.TeamID),
		slog.String("plan_id", string(acc.PlanID)),
	)
	acc.TeamID = ""
	return true
}

// fail passes domain errors through untouched. Anything else is an
// infrastructure failure: logged with context and wrapped.
func (s *service) fail(ctx context.Context, op string, err error, attrs ...slog.Attr) error {
	if IsDomainError(err) || errors.Is(err, ErrConcurrencyConflict) {
		return err
	}
	attrs = append(attrs, logger.Operation(op), logger.Component("entitlement"), logger.Error(err))
	s.log.LogAttrs(ctx, slog.LevelError, "entitlement persistence failure", attrs...)
	return errors.Join(ErrPersistenceUnavailable, err)
}
