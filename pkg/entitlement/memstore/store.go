// Package memstore is an in-process entitlement.Store for development and tests.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

// Store keeps records in maps guarded by a single RWMutex. Values are copied
// on the way in and out so callers never share memory with the store.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*entitlement.Account
	teams    map[string]*entitlement.Team
	invites  map[string]*entitlement.Invite
}

var _ entitlement.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*entitlement.Account),
		teams:    make(map[string]*entitlement.Team),
		invites:  make(map[string]*entitlement.Invite),
	}
}

// CreateAccount stores a new record at version 1. A duplicate id or email
// returns entitlement.ErrEmailTaken.
func (s *Store) CreateAccount(_ context.Context, acc *entitlement.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acc.ID]; ok {
		return entitlement.ErrEmailTaken
	}
	for _, existing := range s.accounts {
		if existing.Email == acc.Email {
			return entitlement.ErrEmailTaken
		}
	}
	acc.Version = 1
	s.accounts[acc.ID] = acc.Clone()
	return nil
}

// GetAccount returns a copy of the account or entitlement.ErrAccountNotFound.
func (s *Store) GetAccount(_ context.Context, id string) (*entitlement.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, entitlement.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

// GetAccountByEmail looks an account up by its normalized email.
func (s *Store) GetAccountByEmail(_ context.Context, email string) (*entitlement.Account, error) {
	return s.findAccount(func(a *entitlement.Account) bool { return a.Email == email })
}

// GetAccountBySubscription finds the holder of a recurring subscription.
func (s *Store) GetAccountBySubscription(_ context.Context, subscriptionID string) (*entitlement.Account, error) {
	return s.findAccount(func(a *entitlement.Account) bool { return a.SubscriptionID == subscriptionID })
}

// UpdateAccount replaces the record when acc.Version matches the stored one
// and bumps acc.Version on success. A stale version returns
// entitlement.ErrConcurrencyConflict.
func (s *Store) UpdateAccount(_ context.Context, acc *entitlement.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[acc.ID]
	if !ok {
		return entitlement.ErrAccountNotFound
	}
	if current.Version != acc.Version {
		return entitlement.ErrConcurrencyConflict
	}
	acc.Version++
	s.accounts[acc.ID] = acc.Clone()
	return nil
}

// ListAccounts returns every account, oldest first.
func (s *Store) ListAccounts(_ context.Context) ([]*entitlement.Account, error) {
	out := s.filterAccounts(func(*entitlement.Account) bool { return true })
	return out, nil
}

// CountTeamMembers counts the records that reference teamID.
func (s *Store) CountTeamMembers(_ context.Context, teamID string) (int, error) {
	return len(s.filterAccounts(func(a *entitlement.Account) bool { return a.TeamID == teamID })), nil
}

// ListTeamMembers returns the records that reference teamID, oldest first.
func (s *Store) ListTeamMembers(_ context.Context, teamID string) ([]*entitlement.Account, error) {
	return s.filterAccounts(func(a *entitlement.Account) bool { return a.TeamID == teamID }), nil
}

// AccountStats aggregates the admin dashboard counters.
func (s *Store) AccountStats(_ context.Context) (entitlement.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st entitlement.Stats
	for _, a := range s.accounts {
		st.TotalAccounts++
		if a.PlanID != entitlement.PlanFree {
			st.PremiumAccounts++
		}
		st.TotalGenerations += a.UsageCount
	}
	return st, nil
}

// CreateTeam stores team, replacing a team with the same id.
func (s *Store) CreateTeam(_ context.Context, team *entitlement.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := *team
	s.teams[team.ID] = &t
	return nil
}

// GetTeam returns a copy of the team or entitlement.ErrTeamNotFound.
func (s *Store) GetTeam(_ context.Context, id string) (*entitlement.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return nil, entitlement.ErrTeamNotFound
	}
	c := *t
	return &c, nil
}

// CreateInvite stores inv keyed by its token.
func (s *Store) CreateInvite(_ context.Context, inv *entitlement.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := *inv
	s.invites[inv.Token] = &i
	return nil
}

// GetInvite returns the invite for token or entitlement.ErrInviteNotFound.
func (s *Store) GetInvite(_ context.Context, token string) (*entitlement.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invites[token]
	if !ok {
		return nil, entitlement.ErrInviteNotFound
	}
	c := *inv
	return &c, nil
}

// FindInvite matches on token and email together.
func (s *Store) FindInvite(ctx context.Context, token, email string) (*entitlement.Invite, error) {
	inv, err := s.GetInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.Email != email {
		return nil, entitlement.ErrInviteNotFound
	}
	return inv, nil
}

// DeleteInvite removes the invite. Deleting a missing invite returns
// entitlement.ErrInviteNotFound, which is how a second claim loses.
func (s *Store) DeleteInvite(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invites[token]; !ok {
		return entitlement.ErrInviteNotFound
	}
	delete(s.invites, token)
	return nil
}

func (s *Store) findAccount(match func(*entitlement.Account) bool) (*entitlement.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if match(a) {
			return a.Clone(), nil
		}
	}
	return nil, entitlement.ErrAccountNotFound
}

func (s *Store) filterAccounts(match func(*entitlement.Account) bool) []*entitlement.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entitlement.Account, 0)
	for _, a := range s.accounts {
		if match(a) {
			out = append(out, a.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *entitlement.Account) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}
