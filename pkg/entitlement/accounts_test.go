package entitlement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates a free account", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		acc, err := f.svc.Register(context.Background(), entitlement.RegisterParams{
			Name:     " Ana ",
			Email:    "Ana@Escola.BR",
			Password: "secret123",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, acc.ID)
		assert.Equal(t, "Ana", acc.Name)
		assert.Equal(t, "ana@escola.br", acc.Email)
		assert.Equal(t, entitlement.PlanFree, acc.PlanID)
		assert.Zero(t, acc.UsageCount)
		assert.True(t, acc.IsActive)
		assert.Nil(t, acc.ExpiresAt)
		assert.Empty(t, acc.PasswordHash)
		assert.NotEqual(t, "secret123", f.stored(t, acc.ID).PasswordHash)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			params entitlement.RegisterParams
			want   error
		}{
			{"short name", entitlement.RegisterParams{Name: "A", Email: "a@b.co", Password: "secret123"}, entitlement.ErrInvalidName},
			{"bad email", entitlement.RegisterParams{Name: "Ana", Email: "ana", Password: "secret123"}, entitlement.ErrInvalidEmail},
			{"short password", entitlement.RegisterParams{Name: "Ana", Email: "a@b.co", Password: "123"}, entitlement.ErrWeakPassword},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				f := newFixture(t)
				_, err := f.svc.Register(context.Background(), tt.params)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("email is unique", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.register(t, "ana@escola.br")

		_, err := f.svc.Register(context.Background(), entitlement.RegisterParams{
			Name:     "Outra Ana",
			Email:    "ANA@escola.br",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, entitlement.ErrEmailTaken)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	acc := f.register(t, "ana@escola.br")
	ctx := context.Background()

	got, err := f.svc.Authenticate(ctx, "ANA@escola.br", "secret123")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = f.svc.Authenticate(ctx, "ana@escola.br", "wrong")
	assert.ErrorIs(t, err, entitlement.ErrInvalidCredentials)

	_, err = f.svc.Authenticate(ctx, "ninguem@escola.br", "secret123")
	assert.ErrorIs(t, err, entitlement.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	acc := f.register(t, "ana@escola.br")
	ctx := context.Background()

	got, err := f.svc.UpdateProfile(ctx, acc.ID, "Ana Souza")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", got.Name)

	_, err = f.svc.UpdateProfile(ctx, acc.ID, "A")
	assert.ErrorIs(t, err, entitlement.ErrInvalidName)
}

func TestStatsAndList(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "ana@escola.br")
	f.register(t, "bia@escola.br")
	f.edit(t, a.ID, func(acc *entitlement.Account) {
		acc.PlanID = entitlement.PlanPersonal
		acc.UsageCount = 4
	})

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entitlement.Stats{TotalAccounts: 2, PremiumAccounts: 1, TotalGenerations: 4}, st)

	all, err := f.svc.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, acc := range all {
		assert.Empty(t, acc.PasswordHash)
	}
}
