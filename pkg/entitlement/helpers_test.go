package entitlement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement/memstore"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   entitlement.Service
	store *memstore.Store
	clock *testClock
}

func newFixture(t *testing.T, opts ...entitlement.Option) *fixture {
	t.Helper()

	store := memstore.New()
	clock := newTestClock()
	opts = append([]entitlement.Option{
		entitlement.WithClock(clock.Now),
		entitlement.WithPasswordCost(bcrypt.MinCost),
	}, opts...)

	return &fixture{
		svc:   entitlement.New(store, entitlement.DefaultCatalog(), opts...),
		store: store,
		clock: clock,
	}
}

func (f *fixture) register(t *testing.T, email string) *entitlement.Account {
	t.Helper()

	acc, err := f.svc.Register(context.Background(), entitlement.RegisterParams{
		Name:     "Professora Ana",
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
	return acc
}

// edit applies fn to the stored record, bypassing the engine.
func (f *fixture) edit(t *testing.T, id string, fn func(*entitlement.Account)) {
	t.Helper()

	ctx := context.Background()
	acc, err := f.store.GetAccount(ctx, id)
	require.NoError(t, err)
	fn(acc)
	require.NoError(t, f.store.UpdateAccount(ctx, acc))
}

func (f *fixture) stored(t *testing.T, id string) *entitlement.Account {
	t.Helper()

	acc, err := f.store.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return acc
}

// schoolTeam registers an admin on the School plan and opens a team.
func (f *fixture) schoolTeam(t *testing.T, adminEmail string) (*entitlement.Account, *entitlement.Team) {
	t.Helper()

	ctx := context.Background()
	admin := f.register(t, adminEmail)
	_, err := f.svc.CompleteCheckout(ctx, entitlement.CheckoutCompletion{
		AccountID:      admin.ID,
		PlanID:         entitlement.PlanSchool,
		Purchase:       entitlement.PurchaseRecurring,
		SubscriptionID: "sub_" + admin.ID,
	})
	require.NoError(t, err)

	team, err := f.svc.CreateTeam(ctx, admin.ID, "Escola Municipal")
	require.NoError(t, err)
	return admin, team
}

func ptr[T any](v T) *T {
	return &v
}
