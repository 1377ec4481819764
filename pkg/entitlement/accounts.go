package entitlement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/lessonkit/pkg/logger"
)

const minPasswordLength = 6

// RegisterParams holds sign-up input.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

// Register creates a Free account with zero usage.
func (s *service) Register(ctx context.Context, p RegisterParams) (*Account, error) {
	name := strings.TrimSpace(p.Name)
	email := NormalizeEmail(p.Email)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(p.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.passwordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrWeakPassword
		}
		return nil, s.fail(ctx, "register", err)
	}

	now := s.now()
	acc := &Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      p.IsAdmin,
		PlanID:       PlanFree,
		UsageCount:   0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return nil, s.fail(ctx, "register", err, logger.AccountID(acc.ID))
	}
	return acc.sanitized(), nil
}

// Authenticate verifies the password and returns the reconciled account.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	acc, err := s.store.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.fail(ctx, "authenticate", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.Refresh(ctx, acc.ID)
}

// Refresh re-reads the session account, sweeping expired grants first.
func (s *service) Refresh(ctx context.Context, accountID string) (*Account, error) {
	acc, _, err := s.mutate(ctx, "refresh", accountID, nil)
	return acc, err
}

// UpdateProfile renames the account.
func (s *service) UpdateProfile(ctx context.Context, accountID, name string) (*Account, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	acc, _, err := s.mutate(ctx, "update_profile", accountID, func(acc *Account, _ time.Time) error {
		acc.Name = name
		return nil
	})
	return acc, err
}

// ListAccounts returns every account, sanitized.
func (s *service) ListAccounts(ctx context.Context) ([]*Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list_accounts", err)
	}
	out := make([]*Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.sanitized())
	}
	return out, nil
}

// Stats aggregates account counters for the admin dashboard.
func (s *service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.store.AccountStats(ctx)
	if err != nil {
		return Stats{}, s.fail(ctx, "stats", err)
	}
	return st, nil
}
