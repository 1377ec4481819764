package entitlement

import "context"

// AccountStore persists entitlement records.
//
// UpdateAccount is a compare-and-swap on Version: it must succeed only when the
// stored version equals acc.Version, bump acc.Version on success and return
// ErrConcurrencyConflict when another writer got there first.
type AccountStore interface {
	CreateAccount(ctx context.Context, acc *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountBySubscription(ctx context.Context, subscriptionID string) (*Account, error)
	UpdateAccount(ctx context.Context, acc *Account) error
	ListAccounts(ctx context.Context) ([]*Account, error)
	CountTeamMembers(ctx context.Context, teamID string) (int, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]*Account, error)
	AccountStats(ctx context.Context) (Stats, error)
}

// TeamStore persists teams.
type TeamStore interface {
	CreateTeam(ctx context.Context, team *Team) error
	GetTeam(ctx context.Context, id string) (*Team, error)
}

// InviteStore persists pending invites keyed by token.
//
// DeleteInvite is the single-use claim: it returns ErrInviteNotFound when the
// invite was already consumed, so at most one caller wins.
type InviteStore interface {
	CreateInvite(ctx context.Context, inv *Invite) error
	GetInvite(ctx context.Context, token string) (*Invite, error)
	FindInvite(ctx context.Context, token, email string) (*Invite, error)
	DeleteInvite(ctx context.Context, token string) error
}

// Store is the full persistence boundary of the engine.
type Store interface {
	AccountStore
	TeamStore
	InviteStore
}
