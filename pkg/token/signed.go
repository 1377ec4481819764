package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Sign encodes payload as JSON and appends its HMAC-SHA256 signature:
// base64url(payload) "." base64url(mac).
func Sign[T any](payload T, secret string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(data) + "." + enc.EncodeToString(mac(data, secret)), nil
}

// Verify checks the signature and decodes the payload.
func Verify[T any](tok, secret string) (T, error) {
	var payload T

	body, sig, ok := strings.Cut(tok, ".")
	if !ok || body == "" || sig == "" {
		return payload, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return payload, ErrInvalidToken
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return payload, ErrInvalidToken
	}
	if !hmac.Equal(got, mac(data, secret)) {
		return payload, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}
	return payload, nil
}

func mac(data []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return h.Sum(nil)
}
