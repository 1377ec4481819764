// Package storetest holds the behavioural checks every entitlement.Store
// implementation must pass.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

// Factory returns an empty store for a single subtest.
type Factory func(t *testing.T) entitlement.Store

var epoch = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// Run exercises the store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("create and read account", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		acc := newAccount("ana@escola.br")
		acc.SubscriptionID = "sub_123"
		require.NoError(t, s.CreateAccount(ctx, acc))
		assert.Equal(t, int64(1), acc.Version)

		got, err := s.GetAccount(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.Email, got.Email)
		assert.Equal(t, entitlement.PlanFree, got.PlanID)
		assert.Equal(t, int64(1), got.Version)
		assert.True(t, got.CreatedAt.Equal(acc.CreatedAt))

		byEmail, err := s.GetAccountByEmail(ctx, acc.Email)
		require.NoError(t, err)
		assert.Equal(t, acc.ID, byEmail.ID)

		bySub, err := s.GetAccountBySubscription(ctx, "sub_123")
		require.NoError(t, err)
		assert.Equal(t, acc.ID, bySub.ID)
	})

	t.Run("missing records", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetAccount(ctx, uuid.NewString())
		assert.ErrorIs(t, err, entitlement.ErrAccountNotFound)
		_, err = s.GetAccountByEmail(ctx, "nobody@escola.br")
		assert.ErrorIs(t, err, entitlement.ErrAccountNotFound)
		_, err = s.GetAccountBySubscription(ctx, "sub_missing")
		assert.ErrorIs(t, err, entitlement.ErrAccountNotFound)
		_, err = s.GetTeam(ctx, uuid.NewString())
		assert.ErrorIs(t, err, entitlement.ErrTeamNotFound)
		_, err = s.GetInvite(ctx, "missing")
		assert.ErrorIs(t, err, entitlement.ErrInviteNotFound)

		ghost := newAccount("ghost@escola.br")
		ghost.Version = 1
		assert.ErrorIs(t, s.UpdateAccount(ctx, ghost), entitlement.ErrAccountNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.CreateAccount(ctx, newAccount("ana@escola.br")))
		err := s.CreateAccount(ctx, newAccount("ana@escola.br"))
		assert.ErrorIs(t, err, entitlement.ErrEmailTaken)
	})

	t.Run("update is compare and swap", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		acc := newAccount("ana@escola.br")
		require.NoError(t, s.CreateAccount(ctx, acc))

		first, err := s.GetAccount(ctx, acc.ID)
		require.NoError(t, err)
		second, err := s.GetAccount(ctx, acc.ID)
		require.NoError(t, err)

		expires := epoch.Add(30 * 24 * time.Hour)
		first.PlanID = entitlement.PlanPersonal
		first.ExpiresAt = &expires
		first.UsageCount = 3
		require.NoError(t, s.UpdateAccount(ctx, first))
		assert.Equal(t, int64(2), first.Version)

		second.UsageCount = 1
		assert.ErrorIs(t, s.UpdateAccount(ctx, second), entitlement.ErrConcurrencyConflict)

		got, err := s.GetAccount(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.PlanPersonal, got.PlanID)
		assert.Equal(t, int64(3), got.UsageCount)
		assert.Equal(t, int64(2), got.Version)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, got.ExpiresAt.Equal(expires))
	})

	t.Run("concurrent updates let exactly one writer win", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		acc := newAccount("ana@escola.br")
		require.NoError(t, s.CreateAccount(ctx, acc))

		const writers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		snapshots := make([]*entitlement.Account, writers)
		for i := range snapshots {
			snap, err := s.GetAccount(ctx, acc.ID)
			require.NoError(t, err)
			snapshots[i] = snap
		}
		for _, snap := range snapshots {
			wg.Add(1)
			go func() {
				defer wg.Done()
				snap.UsageCount++
				if s.UpdateAccount(ctx, snap) == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		got, err := s.GetAccount(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.UsageCount)
	})

	t.Run("team membership and stats", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		admin := newAccount("diretora@escola.br")
		admin.PlanID = entitlement.PlanSchool
		admin.UsageCount = 4
		require.NoError(t, s.CreateAccount(ctx, admin))

		team := &entitlement.Team{ID: uuid.NewString(), Name: "Escola", AdminID: admin.ID, MemberLimit: 10, CreatedAt: epoch}
		require.NoError(t, s.CreateTeam(ctx, team))

		admin.TeamID = team.ID
		require.NoError(t, s.UpdateAccount(ctx, admin))

		member := newAccount("prof@escola.br")
		member.CreatedAt = epoch.Add(time.Minute)
		member.PlanID = entitlement.PlanSchool
		member.TeamID = team.ID
		member.UsageCount = 1
		require.NoError(t, s.CreateAccount(ctx, member))
		require.NoError(t, s.CreateAccount(ctx, newAccount("solo@escola.br")))

		gotTeam, err := s.GetTeam(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, gotTeam.MemberLimit)

		n, err := s.CountTeamMembers(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		members, err := s.ListTeamMembers(ctx, team.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, admin.ID, members[0].ID)
		assert.Equal(t, member.ID, members[1].ID)

		all, err := s.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		stats, err := s.AccountStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, entitlement.Stats{TotalAccounts: 3, PremiumAccounts: 2, TotalGenerations: 5}, stats)
	})

	t.Run("invite is claimed once", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		admin := newAccount("diretora@escola.br")
		require.NoError(t, s.CreateAccount(ctx, admin))
		team := &entitlement.Team{ID: uuid.NewString(), Name: "Escola", AdminID: admin.ID, MemberLimit: 10, CreatedAt: epoch}
		require.NoError(t, s.CreateTeam(ctx, team))

		inv := &entitlement.Invite{
			ID:        uuid.NewString(),
			TeamID:    team.ID,
			Email:     "prof@escola.br",
			Token:     uuid.NewString(),
			ExpiresAt: epoch.Add(24 * time.Hour),
			CreatedAt: epoch,
		}
		require.NoError(t, s.CreateInvite(ctx, inv))

		got, err := s.FindInvite(ctx, inv.Token, "prof@escola.br")
		require.NoError(t, err)
		assert.Equal(t, team.ID, got.TeamID)

		_, err = s.FindInvite(ctx, inv.Token, "other@escola.br")
		assert.ErrorIs(t, err, entitlement.ErrInviteNotFound)

		require.NoError(t, s.DeleteInvite(ctx, inv.Token))
		assert.ErrorIs(t, s.DeleteInvite(ctx, inv.Token), entitlement.ErrInviteNotFound)
		_, err = s.GetInvite(ctx, inv.Token)
		assert.ErrorIs(t, err, entitlement.ErrInviteNotFound)
	})
}

func newAccount(email string) *entitlement.Account {
	return &entitlement.Account{
		ID:        uuid.NewString(),
		Name:      "Professora Ana",
		Email:     email,
		PlanID:    entitlement.PlanFree,
		IsActive:  true,
		CreatedAt: epoch,
		UpdatedAt: epoch,
	}
}
