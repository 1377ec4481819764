package entitlement

import (
	"context"
	"time"
)

// CheckoutCompletion is a payment collaborator report of a verified purchase.
type CheckoutCompletion struct {
	AccountID      string
	PlanID         PlanID
	Purchase       Purchase
	SubscriptionID string // recurring purchases only
	CustomerID     string
}

// CompleteCheckout upgrades the account to the purchased plan. One-time
// purchases expire after the plan grant duration, recurring ones have no end
// until the subscription is deleted. Usage is preserved.
func (s *service) CompleteCheckout(ctx context.Context, c CheckoutCompletion) (*Account, error) {
	plan, err := s.catalog.Lookup(c.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.ID == PlanFree {
		return nil, ErrPlanNotEligible
	}

	acc, _, err := s.mutate(ctx, "complete_checkout", c.AccountID, func(acc *Account, now time.Time) error {
		if acc.InTeam() {
			return ErrAlreadyInTeam
		}
		acc.PlanID = plan.ID
		acc.IsActive = true
		if c.CustomerID != "" {
			acc.CustomerID = c.CustomerID
		}
		switch c.Purchase {
		case PurchaseRecurring:
			acc.ExpiresAt = nil
			acc.SubscriptionID = c.SubscriptionID
		default:
			expiresAt := now.Add(plan.GrantDuration)
			acc.ExpiresAt = &expiresAt
		}
		return nil
	})
	return acc, err
}

// DeleteSubscription reverts the subscriber to Free. Team members keep their
// seat and only lose the subscription reference. Events for a subscription the
// account no longer holds are ignored.
func (s *service) DeleteSubscription(ctx context.Context, subscriptionID string) (*Account, error) {
	if subscriptionID == "" {
		return nil, ErrAccountNotFound
	}
	found, err := s.store.GetAccountBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, s.fail(ctx, "delete_subscription", err)
	}

	acc, _, err := s.mutate(ctx, "delete_subscription", found.ID, func(acc *Account, _ time.Time) error {
		if acc.SubscriptionID != subscriptionID {
			return nil
		}
		acc.SubscriptionID = ""
		if acc.InTeam() {
			return nil
		}
		acc.PlanID = PlanFree
		acc.ExpiresAt = nil
		acc.IsActive = true
		return nil
	})
	return acc, err
}

// ForceExpire backdates a paid grant so the next access sweeps it. Intended
// for non-production environments only.
func (s *service) ForceExpire(ctx context.Context, accountID string) (*Account, error) {
	acc, _, err := s.mutate(ctx, "force_expire", accountID, func(acc *Account, now time.Time) error {
		if acc.PlanID == PlanFree || acc.InTeam() {
			return ErrPlanNotEligible
		}
		expiredAt := now.Add(-24 * time.Hour)
		acc.ExpiresAt = &expiredAt
		acc.IsActive = true
		return nil
	})
	return acc, err
}
