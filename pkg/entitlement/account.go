package entitlement

import (
	"net/mail"
	"strings"
	"time"
)

// Account is the persisted entitlement record of one registered user.
type Account struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	IsAdmin        bool       `json:"is_admin"`
	PlanID         PlanID     `json:"plan_id"`
	UsageCount     int64      `json:"usage_count"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	TeamID         string     `json:"team_id,omitempty"`
	SubscriptionID string     `json:"subscription_id,omitempty"`
	CustomerID     string     `json:"customer_id,omitempty"`
	Version        int64      `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// InTeam reports whether the account holds a team seat.
func (a *Account) InTeam() bool {
	return a.TeamID != ""
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.ExpiresAt != nil {
		t := *a.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// sanitized returns a copy safe to hand to callers outside the engine.
func (a *Account) sanitized() *Account {
	c := a.Clone()
	c.PasswordHash = ""
	return c
}

// Team groups School accounts under one admin.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AdminID     string    `json:"admin_id"`
	MemberLimit int       `json:"member_limit"`
	CreatedAt   time.Time `json:"created_at"`
}

// Invite is a single-use, time-bounded team membership grant.
type Invite struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the invite can no longer be accepted at now.
func (i *Invite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// UsageReport summarizes the generation allowance of an account.
type UsageReport struct {
	PlanID    PlanID     `json:"plan_id"`
	Used      int64      `json:"used"`
	Quota     int64      `json:"quota"`
	Remaining int64      `json:"remaining"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalAccounts    int64 `json:"total_accounts"`
	PremiumAccounts  int64 `json:"premium_accounts"`
	TotalGenerations int64 `json:"total_generations"`
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func validateName(name string) error {
	if len([]rune(strings.TrimSpace(name))) < 2 {
		return ErrInvalidName
	}
	return nil
}
