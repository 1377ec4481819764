package token

import "errors"

var (
	ErrInvalidToken     = errors.New("token.errors.invalid_format")
	ErrSignatureInvalid = errors.New("token.errors.signature_mismatch")
	ErrInvalidSize      = errors.New("token.errors.invalid_size")
)
