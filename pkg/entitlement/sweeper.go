package entitlement

import (
	"context"
	"time"
)

// Sweep reverts an expired time-bounded grant to the Free tier in place and
// reports whether it did. The Free quota comes from the catalog at read time,
// so only the plan reference changes. An expiring account also gives up its
// team seat, keeping team membership tied to the team plan.
func Sweep(acc *Account, now time.Time) bool {
	if acc.ExpiresAt == nil || !acc.IsActive {
		return false
	}
	if !now.After(*acc.ExpiresAt) {
		return false
	}
	acc.PlanID = PlanFree
	acc.ExpiresAt = nil
	acc.IsActive = true
	acc.TeamID = ""
	return true
}

// Reconcile loads the account, applies any pending expiration and persists it.
func (s *service) Reconcile(ctx context.Context, accountID string) (*Account, bool, error) {
	return s.mutate(ctx, "reconcile", accountID, nil)
}

// Account is the reconciled, sanitized record.
func (s *service) Account(ctx context.Context, accountID string) (*Account, error) {
	acc, _, err := s.mutate(ctx, "load", accountID, nil)
	return acc, err
}
