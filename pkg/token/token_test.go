package token_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/pkg/token"
)

type claim struct {
	AccountID string `json:"account_id"`
	Exp       int64  `json:"exp"`
}

func TestRandom(t *testing.T) {
	t.Parallel()

	t.Run("hex encoded with requested entropy", func(t *testing.T) {
		t.Parallel()

		tok, err := token.Random(16)
		require.NoError(t, err)
		assert.Len(t, tok, 32)
	})

	t.Run("tokens differ", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]struct{}, 100)
		for range 100 {
			tok, err := token.Random(16)
			require.NoError(t, err)
			_, dup := seen[tok]
			require.False(t, dup)
			seen[tok] = struct{}{}
		}
	})

	t.Run("rejects non-positive size", func(t *testing.T) {
		t.Parallel()

		_, err := token.Random(0)
		assert.ErrorIs(t, err, token.ErrInvalidSize)
	})
}

func TestEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, token.Equal("abc", "abc"))
	assert.False(t, token.Equal("abc", "abd"))
	assert.False(t, token.Equal("abc", "ab"))
	assert.False(t, token.Equal("", "a"))
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		signed, err := token.Sign(claim{AccountID: "acc-1", Exp: 42}, "secret")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(signed, "."))

		got, err := token.Verify[claim](signed, "secret")
		require.NoError(t, err)
		assert.Equal(t, claim{AccountID: "acc-1", Exp: 42}, got)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		signed, err := token.Sign(claim{AccountID: "acc-1"}, "secret")
		require.NoError(t, err)

		_, err = token.Verify[claim](signed, "other")
		assert.ErrorIs(t, err, token.ErrSignatureInvalid)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()

		signed, err := token.Sign(claim{AccountID: "acc-1"}, "secret")
		require.NoError(t, err)
		other, err := token.Sign(claim{AccountID: "acc-2"}, "secret")
		require.NoError(t, err)

		forged := strings.Split(other, ".")[0] + "." + strings.Split(signed, ".")[1]
		_, err = token.Verify[claim](forged, "secret")
		assert.ErrorIs(t, err, token.ErrSignatureInvalid)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()

		for _, tok := range []string{"", "nodot", ".sig", "body.", "!!.??"} {
			_, err := token.Verify[claim](tok, "secret")
			assert.ErrorIs(t, err, token.ErrInvalidToken, tok)
		}
	})
}
