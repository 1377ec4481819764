package entitlement

import (
	"context"
	"time"
)

// Consume charges one generation against the plan quota. Unlimited plans
// always succeed but still count usage.
func Consume(acc *Account, plan Plan) error {
	if !plan.IsUnlimited() && acc.UsageCount >= plan.GenerationQuota {
		return ErrQuotaExceeded
	}
	acc.UsageCount++
	return nil
}

// TryConsume reconciles the account and charges one generation. Concurrent
// calls for the same account are serialized by the version check, so the
// quota is never overshot.
func (s *service) TryConsume(ctx context.Context, accountID string) (*Account, error) {
	acc, _, err := s.mutate(ctx, "try_consume", accountID, func(acc *Account, _ time.Time) error {
		plan, err := s.catalog.Lookup(acc.PlanID)
		if err != nil {
			return err
		}
		return Consume(acc, plan)
	})
	return acc, err
}

// Usage reports the remaining allowance after reconciling.
func (s *service) Usage(ctx context.Context, accountID string) (UsageReport, error) {
	acc, _, err := s.mutate(ctx, "usage", accountID, nil)
	if err != nil {
		return UsageReport{}, err
	}
	plan, err := s.catalog.Lookup(acc.PlanID)
	if err != nil {
		return UsageReport{}, err
	}
	return UsageReport{
		PlanID:    acc.PlanID,
		Used:      acc.UsageCount,
		Quota:     plan.GenerationQuota,
		Remaining: plan.Remaining(acc.UsageCount),
		ExpiresAt: acc.ExpiresAt,
	}, nil
}
