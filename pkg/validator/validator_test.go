package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lessonkit/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("passes", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("name", "Ana"),
			validator.MinLen("name", "Ana", 2),
			validator.Email("email", "ana@escola.br"),
		)
		assert.NoError(t, err)
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("topic", "  "),
			validator.Email("email", "not-an-email"),
			validator.OneOf("level", "Universidade", []string{"Ensino Médio"}),
		)
		require.Error(t, err)

		ve := validator.Extract(fmt.Errorf("bind: %w", err))
		require.Len(t, ve, 3)
		assert.True(t, ve.Has("topic"))
		assert.True(t, ve.Has("email"))
		assert.Equal(t, "validation.one_of", ve[2].Key)
		assert.False(t, ve.Has("name"))
	})

	t.Run("extract ignores other errors", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, validator.Extract(errors.New("boom")))
	})
}

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule validator.Rule
		ok   bool
	}{
		{"min counts runes", validator.MinLen("name", "Zé", 2), true},
		{"min trims", validator.MinLen("name", " a ", 2), false},
		{"max counts runes", validator.MaxLen("topic", "ação", 4), true},
		{"max over", validator.MaxLen("topic", "ações", 4), false},
		{"one of empty", validator.OneOf("level", "", []string{"a"}), true},
		{"email display name", validator.Email("email", "Ana <ana@escola.br>"), false},
		{"email no dot", validator.Email("email", "ana@localhost"), false},
		{"email ok", validator.Email("email", "ana.souza@escola.sp.gov.br"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.ok, tt.rule.Check())
		})
	}
}
