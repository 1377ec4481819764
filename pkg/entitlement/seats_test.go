package entitlement_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

func TestCreateTeam(t *testing.T) {
	t.Parallel()

	t.Run("school admin opens a team and takes a seat", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		admin, team := f.schoolTeam(t, "diretora@escola.br")

		assert.Equal(t, admin.ID, team.AdminID)
		assert.Equal(t, 10, team.MemberLimit)
		assert.Equal(t, team.ID, f.stored(t, admin.ID).TeamID)

		members, err := f.svc.ListMembers(context.Background(), team.ID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, admin.ID, members[0].ID)
		assert.Empty(t, members[0].PasswordHash)
	})

	t.Run("free account cannot open a team", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		acc := f.register(t, "ana@escola.br")

		_, err := f.svc.CreateTeam(context.Background(), acc.ID, "Escola")
		assert.ErrorIs(t, err, entitlement.ErrPlanNotEligible)
	})

	t.Run("admin already in a team", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		admin, _ := f.schoolTeam(t, "diretora@escola.br")

		_, err := f.svc.CreateTeam(context.Background(), admin.ID, "Outra")
		assert.ErrorIs(t, err, entitlement.ErrAlreadyInTeam)
	})

	t.Run("name too short", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		acc := f.register(t, "ana@escola.br")

		_, err := f.svc.CreateTeam(context.Background(), acc.ID, " x ")
		assert.ErrorIs(t, err, entitlement.ErrInvalidName)
	})
}

func TestCreateInvite(t *testing.T) {
	t.Parallel()

	t.Run("issues a 24h token", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")

		inv, err := f.svc.CreateInvite(context.Background(), team.ID, "  Prof@Escola.BR ")
		require.NoError(t, err)

		assert.Equal(t, team.ID, inv.TeamID)
		assert.Equal(t, "prof@escola.br", inv.Email)
		assert.Len(t, inv.Token, 32)
		assert.Equal(t, f.clock.Now().Add(24*time.Hour), inv.ExpiresAt)
	})

	t.Run("team not found", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, err := f.svc.CreateInvite(context.Background(), "missing", "prof@escola.br")
		assert.ErrorIs(t, err, entitlement.ErrTeamNotFound)
	})

	t.Run("invalid email", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")

		_, err := f.svc.CreateInvite(context.Background(), team.ID, "not-an-email")
		assert.ErrorIs(t, err, entitlement.ErrInvalidEmail)
	})

	t.Run("already a member", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")

		_, err := f.svc.CreateInvite(context.Background(), team.ID, "diretora@escola.br")
		assert.ErrorIs(t, err, entitlement.ErrAlreadyMember)
	})

	t.Run("team at capacity", func(t *testing.T) {
		t.Parallel()

		for _, limit := range []int{0, 1, 2, 5} {
			t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
				t.Parallel()

				f := newFixture(t)
				admin, team := f.schoolTeam(t, "diretora@escola.br")
				ctx := context.Background()

				stored, err := f.store.GetTeam(ctx, team.ID)
				require.NoError(t, err)
				stored.MemberLimit = limit
				require.NoError(t, f.store.CreateTeam(ctx, stored))

				if limit == 0 {
					f.edit(t, admin.ID, func(a *entitlement.Account) { a.TeamID = "" })
				}
				for i := 1; i < limit; i++ {
					m := f.register(t, fmt.Sprintf("membro%d@escola.br", i))
					f.edit(t, m.ID, func(a *entitlement.Account) {
						a.TeamID = team.ID
						a.PlanID = entitlement.PlanSchool
					})
				}

				count, err := f.store.CountTeamMembers(ctx, team.ID)
				require.NoError(t, err)
				require.Equal(t, limit, count)

				_, err = f.svc.CreateInvite(ctx, team.ID, "nova@escola.br")
				assert.ErrorIs(t, err, entitlement.ErrSeatLimitReached)
			})
		}
	})
}

func TestAcceptInvite(t *testing.T) {
	t.Parallel()

	t.Run("joins the team on the school plan", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")
		member := f.register(t, "prof@escola.br")
		f.edit(t, member.ID, func(a *entitlement.Account) { a.UsageCount = 2 })
		ctx := context.Background()

		inv, err := f.svc.CreateInvite(ctx, team.ID, member.Email)
		require.NoError(t, err)

		got, err := f.svc.AcceptInvite(ctx, inv.Token, "PROF@escola.br")
		require.NoError(t, err)

		assert.Equal(t, team.ID, got.TeamID)
		assert.Equal(t, entitlement.PlanSchool, got.PlanID)
		assert.Nil(t, got.ExpiresAt)
		assert.Equal(t, int64(2), got.UsageCount, "usage is preserved on upgrade")

		_, err = f.store.GetInvite(ctx, inv.Token)
		assert.ErrorIs(t, err, entitlement.ErrInviteNotFound)
	})

	t.Run("second accept finds nothing", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")
		member := f.register(t, "prof@escola.br")
		ctx := context.Background()

		inv, err := f.svc.CreateInvite(ctx, team.ID, member.Email)
		require.NoError(t, err)

		_, err = f.svc.AcceptInvite(ctx, inv.Token, member.Email)
		require.NoError(t, err)

		_, err = f.svc.AcceptInvite(ctx, inv.Token, member.Email)
		assert.ErrorIs(t, err, entitlement.ErrInviteNotFound)
	})

	t.Run("token alone is not enough", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")
		f.register(t, "prof@escola.br")
		f.register(t, "intrusa@escola.br")
		ctx := context.Background()

		inv, err := f.svc.CreateInvite(ctx, team.ID, "prof@escola.br")
		require.NoError(t, err)

		_, err = f.svc.AcceptInvite(ctx, inv.Token, "intrusa@escola.br")
		assert.ErrorIs(t, err, entitlement.ErrInviteNotFound)

		_, err = f.store.GetInvite(ctx, inv.Token)
		assert.NoError(t, err, "invite survives a mismatched attempt")
	})

	t.Run("expired invite is deleted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")
		member := f.register(t, "prof@escola.br")
		ctx := context.Background()

		inv := &entitlement.Invite{
			ID:        "inv-1",
			TeamID:    team.ID,
			Email:     member.Email,
			Token:     "deadbeefdeadbeefdeadbeefdeadbeef",
			ExpiresAt: f.clock.Now().Add(-time.Hour),
			CreatedAt: f.clock.Now().Add(-25 * time.Hour),
		}
		require.NoError(t, f.store.CreateInvite(ctx, inv))

		_, err := f.svc.AcceptInvite(ctx, inv.Token, member.Email)
		assert.ErrorIs(t, err, entitlement.ErrInviteExpired)

		_, err = f.store.GetInvite(ctx, inv.Token)
		assert.ErrorIs(t, err, entitlement.ErrInviteNotFound)
		assert.Empty(t, f.stored(t, member.ID).TeamID)
	})

	t.Run("invite outlives its ttl", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")
		member := f.register(t, "prof@escola.br")
		ctx := context.Background()

		inv, err := f.svc.CreateInvite(ctx, team.ID, member.Email)
		require.NoError(t, err)

		f.clock.Advance(24*time.Hour + time.Second)
		_, err = f.svc.AcceptInvite(ctx, inv.Token, member.Email)
		assert.ErrorIs(t, err, entitlement.ErrInviteExpired)
	})

	t.Run("invitee has no account yet", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")
		ctx := context.Background()

		inv, err := f.svc.CreateInvite(ctx, team.ID, "nova@escola.br")
		require.NoError(t, err)

		_, err = f.svc.AcceptInvite(ctx, inv.Token, "nova@escola.br")
		assert.ErrorIs(t, err, entitlement.ErrAccountNotFound)

		_, err = f.store.GetInvite(ctx, inv.Token)
		assert.NoError(t, err, "invite stays usable after the invitee registers")
	})

	t.Run("member of another team", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")
		_, other := f.schoolTeam(t, "outra@escola.br")
		member := f.register(t, "prof@escola.br")
		ctx := context.Background()

		first, err := f.svc.CreateInvite(ctx, other.ID, member.Email)
		require.NoError(t, err)
		_, err = f.svc.AcceptInvite(ctx, first.Token, member.Email)
		require.NoError(t, err)

		inv, err := f.svc.CreateInvite(ctx, team.ID, member.Email)
		require.NoError(t, err)
		_, err = f.svc.AcceptInvite(ctx, inv.Token, member.Email)
		assert.ErrorIs(t, err, entitlement.ErrAlreadyInTeam)
	})
}

func TestRevokeInvite(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, team := f.schoolTeam(t, "diretora@escola.br")
	_, other := f.schoolTeam(t, "outra@escola.br")
	member := f.register(t, "prof@escola.br")
	ctx := context.Background()

	inv, err := f.svc.CreateInvite(ctx, team.ID, member.Email)
	require.NoError(t, err)

	err = f.svc.RevokeInvite(ctx, other.ID, inv.Token)
	assert.ErrorIs(t, err, entitlement.ErrInviteNotFound, "another team cannot revoke it")

	require.NoError(t, f.svc.RevokeInvite(ctx, team.ID, inv.Token))

	_, err = f.svc.AcceptInvite(ctx, inv.Token, member.Email)
	assert.ErrorIs(t, err, entitlement.ErrInviteNotFound)
}

func TestRemoveMember(t *testing.T) {
	t.Parallel()

	t.Run("member reverts to free with fresh usage", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")
		member := f.register(t, "prof@escola.br")
		ctx := context.Background()

		inv, err := f.svc.CreateInvite(ctx, team.ID, member.Email)
		require.NoError(t, err)
		_, err = f.svc.AcceptInvite(ctx, inv.Token, member.Email)
		require.NoError(t, err)
		for range 3 {
			_, err = f.svc.TryConsume(ctx, member.ID)
			require.NoError(t, err)
		}

		got, err := f.svc.RemoveMember(ctx, member.ID, team.ID)
		require.NoError(t, err)

		assert.Empty(t, got.TeamID)
		assert.Equal(t, entitlement.PlanFree, got.PlanID)
		assert.Zero(t, got.UsageCount)

		stored := f.stored(t, member.ID)
		assert.Empty(t, stored.TeamID)
		assert.Equal(t, entitlement.PlanFree, stored.PlanID)
		assert.Zero(t, stored.UsageCount)
	})

	t.Run("not in that team", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, team := f.schoolTeam(t, "diretora@escola.br")
		outsider := f.register(t, "prof@escola.br")

		_, err := f.svc.RemoveMember(context.Background(), outsider.ID, team.ID)
		assert.ErrorIs(t, err, entitlement.ErrNotInTeam)

		_, err = f.svc.RemoveMember(context.Background(), outsider.ID, "")
		assert.ErrorIs(t, err, entitlement.ErrNotInTeam)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, err := f.svc.RemoveMember(context.Background(), "missing", "team")
		assert.ErrorIs(t, err, entitlement.ErrAccountNotFound)
	})
}
