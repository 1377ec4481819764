package entitlement

import "time"

// PlanID identifies a plan tier.
type PlanID string

const (
	PlanFree     PlanID = "Free"
	PlanPersonal PlanID = "Personal"
	PlanSchool   PlanID = "School"
)

// Unlimited marks a generation quota without an upper bound.
const Unlimited int64 = -1

// Money represents a monetary amount in the smallest currency unit.
// BRL 19.90 is Amount: 1990, Currency: "BRL".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// Plan holds the entitlement parameters of a single tier.
type Plan struct {
	ID              PlanID        `json:"id" yaml:"id"`
	Name            string        `json:"name" yaml:"name"`
	GenerationQuota int64         `json:"generation_quota" yaml:"generation_quota"`
	TeamSeatLimit   *int          `json:"team_seat_limit,omitempty" yaml:"team_seat_limit,omitempty"`
	Price           Money         `json:"price" yaml:"price"`
	GrantDuration   time.Duration `json:"grant_duration" yaml:"grant_duration"` // length of a one-time purchase
}

// IsUnlimited reports whether the plan has no generation cap.
func (p Plan) IsUnlimited() bool {
	return p.GenerationQuota == Unlimited
}

// HasSeats reports whether the plan carries a team seat limit.
func (p Plan) HasSeats() bool {
	return p.TeamSeatLimit != nil
}

// SeatLimit returns the team seat limit, or 0 for plans without teams.
func (p Plan) SeatLimit() int {
	if p.TeamSeatLimit == nil {
		return 0
	}
	return *p.TeamSeatLimit
}

// Remaining returns how many generations are left for the given usage.
// Unlimited plans return Unlimited.
func (p Plan) Remaining(used int64) int64 {
	if p.IsUnlimited() {
		return Unlimited
	}
	return max(p.GenerationQuota-used, 0)
}

// Purchase distinguishes recurring subscriptions from one-time grants.
type Purchase string

const (
	PurchaseRecurring Purchase = "recurring"
	PurchaseOneTime   Purchase = "one_time"
)
