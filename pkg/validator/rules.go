package validator

import (
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"
)

// Required fails when value is blank.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Key: "validation.required"},
	}
}

// MinLen requires at least n runes after trimming.
func MinLen(field, value string, n int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(strings.TrimSpace(value)) >= n },
		Error: ValidationError{Field: field, Key: "validation.min_length", Params: map[string]any{"min": n}},
	}
}

// MaxLen allows at most n runes.
func MaxLen(field, value string, n int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= n },
		Error: ValidationError{Field: field, Key: "validation.max_length", Params: map[string]any{"max": n}},
	}
}

// OneOf accepts an empty value; combine with Required when needed.
func OneOf(field, value string, options []string) Rule {
	return Rule{
		Check: func() bool { return value == "" || slices.Contains(options, value) },
		Error: ValidationError{Field: field, Key: "validation.one_of", Params: map[string]any{"options": strings.Join(options, ", ")}},
	}
}

// Email checks a bare address: no display name, a dotted domain.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != strings.TrimSpace(value) {
				return false
			}
			_, domain, ok := strings.Cut(addr.Address, "@")
			return ok && strings.Contains(strings.Trim(domain, "."), ".")
		},
		Error: ValidationError{Field: field, Key: "validation.email"},
	}
}
