package entitlement_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/memstore"
)

// slowCountStore stretches the window between counting seats and joining.
type slowCountStore struct {
	*memstore.Store
	delay time.Duration
}

func (s *slowCountStore) CountTeamMembers(ctx context.Context, teamID string) (int, error) {
	n, err := s.Store.CountTeamMembers(ctx, teamID)
	time.Sleep(s.delay)
	return n, err
}

func (s *slowCountStore) ListTeamMembers(ctx context.Context, teamID string) ([]*entitlement.Account, error) {
	members, err := s.Store.ListTeamMembers(ctx, teamID)
	time.Sleep(s.delay)
	return members, err
}

func TestAcceptInviteSeatLimitUnderConcurrency(t *testing.T) {
	t.Parallel()

	store := &slowCountStore{Store: memstore.New(), delay: 5 * time.Millisecond}
	f := &fixture{store: store.Store, clock: newTestClock()}
	f.svc = entitlement.New(store, entitlement.DefaultCatalog(),
		entitlement.WithClock(f.clock.Now),
		entitlement.WithPasswordCost(bcrypt.MinCost),
	)
	ctx := context.Background()

	_, team := f.schoolTeam(t, "diretora@escola.br")
	stored, err := f.store.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	stored.MemberLimit = 2
	require.NoError(t, f.store.CreateTeam(ctx, stored))

	const invitees = 6
	invites := make([]*entitlement.Invite, invitees)
	for i := range invitees {
		m := f.register(t, fmt.Sprintf("prof%d@escola.br", i))
		invites[i], err = f.svc.CreateInvite(ctx, team.ID, m.Email)
		require.NoError(t, err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		joined   int
		rejected int
	)
	for _, inv := range invites {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AcceptInvite(ctx, inv.Token, inv.Email)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, entitlement.ErrSeatLimitReached):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, joined)
	assert.Equal(t, invitees-1, rejected)

	count, err := f.store.CountTeamMembers(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAcceptInviteTakesTeamLock(t *testing.T) {
	t.Parallel()

	locker := &lockerMock{}
	locker.On("Lock", mock.Anything, mock.Anything).Return(func() {}, nil)
	f := newFixture(t, entitlement.WithLocker(locker))
	ctx := context.Background()

	_, team := f.schoolTeam(t, "diretora@escola.br")
	member := f.register(t, "prof@escola.br")
	inv, err := f.svc.CreateInvite(ctx, team.ID, member.Email)
	require.NoError(t, err)

	_, err = f.svc.AcceptInvite(ctx, inv.Token, member.Email)
	require.NoError(t, err)
	locker.AssertCalled(t, "Lock", mock.Anything, "team:"+team.ID)
	locker.AssertCalled(t, "Lock", mock.Anything, member.ID)
}

func TestSeatsAfterLapsedGrant(t *testing.T) {
	t.Parallel()

	t.Run("lapsed admin can join another team", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := context.Background()

		ana := f.register(t, "ana@escola.br")
		_, err := f.svc.CompleteCheckout(ctx, entitlement.CheckoutCompletion{
			AccountID: ana.ID,
			PlanID:    entitlement.PlanSchool,
			Purchase:  entitlement.PurchaseOneTime,
		})
		require.NoError(t, err)
		_, err = f.svc.CreateTeam(ctx, ana.ID, "Escola Antiga")
		require.NoError(t, err)

		_, other := f.schoolTeam(t, "diretora@escola.br")
		f.clock.Advance(31 * 24 * time.Hour)

		inv, err := f.svc.CreateInvite(ctx, other.ID, ana.Email)
		require.NoError(t, err)
		got, err := f.svc.AcceptInvite(ctx, inv.Token, ana.Email)
		require.NoError(t, err)

		assert.Equal(t, other.ID, got.TeamID)
		assert.Equal(t, entitlement.PlanSchool, got.PlanID)
		assert.Nil(t, got.ExpiresAt)
	})

	t.Run("lapsed member frees a seat", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := context.Background()

		admin, team := f.schoolTeam(t, "diretora@escola.br")
		stored, err := f.store.GetTeam(ctx, team.ID)
		require.NoError(t, err)
		stored.MemberLimit = 2
		require.NoError(t, f.store.CreateTeam(ctx, stored))

		lapsed := f.register(t, "antiga@escola.br")
		f.edit(t, lapsed.ID, func(a *entitlement.Account) {
			a.TeamID = team.ID
			a.PlanID = entitlement.PlanSchool
			a.ExpiresAt = ptr(f.clock.Now().Add(time.Hour))
		})
		f.clock.Advance(2 * time.Hour)

		_, err = f.svc.CreateInvite(ctx, team.ID, "nova@escola.br")
		require.NoError(t, err)

		got := f.stored(t, lapsed.ID)
		assert.Empty(t, got.TeamID)
		assert.Equal(t, entitlement.PlanFree, got.PlanID)

		members, err := f.svc.ListMembers(ctx, team.ID)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, admin.ID, members[0].ID)
	})

	t.Run("lapsed member is invited again", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ctx := context.Background()

		_, team := f.schoolTeam(t, "diretora@escola.br")
		lapsed := f.register(t, "antiga@escola.br")
		f.edit(t, lapsed.ID, func(a *entitlement.Account) {
			a.TeamID = team.ID
			a.PlanID = entitlement.PlanSchool
			a.ExpiresAt = ptr(f.clock.Now().Add(time.Hour))
		})
		f.clock.Advance(2 * time.Hour)

		_, err := f.svc.CreateInvite(ctx, team.ID, lapsed.Email)
		assert.NoError(t, err)
	})
}

func TestAcceptInviteSurvivesFailedJoin(t *testing.T) {
	t.Parallel()

	store, svc, adminID := newFlaky(t)
	ctx := context.Background()

	_, err := svc.CompleteCheckout(ctx, entitlement.CheckoutCompletion{
		AccountID:      adminID,
		PlanID:         entitlement.PlanSchool,
		Purchase:       entitlement.PurchaseRecurring,
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)
	team, err := svc.CreateTeam(ctx, adminID, "Escola Municipal")
	require.NoError(t, err)

	member, err := svc.Register(ctx, entitlement.RegisterParams{
		Name: "Beto", Email: "beto@escola.br", Password: "secret123",
	})
	require.NoError(t, err)
	inv, err := svc.CreateInvite(ctx, team.ID, member.Email)
	require.NoError(t, err)

	store.failUpdate = true
	store.On("UpdateAccount", mock.Anything, mock.Anything).Return(entitlement.ErrConcurrencyConflict)

	_, err = svc.AcceptInvite(ctx, inv.Token, member.Email)
	require.ErrorIs(t, err, entitlement.ErrConcurrencyConflict)

	_, err = store.GetInvite(ctx, inv.Token)
	require.NoError(t, err, "invite is kept when the join fails")

	store.failUpdate = false
	got, err := svc.AcceptInvite(ctx, inv.Token, member.Email)
	require.NoError(t, err)
	assert.Equal(t, team.ID, got.TeamID)

	_, err = svc.AcceptInvite(ctx, inv.Token, member.Email)
	assert.ErrorIs(t, err, entitlement.ErrInviteNotFound)
}
