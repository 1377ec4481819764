package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// Random returns size bytes from crypto/rand, hex encoded.
func Random(size int) (string, error) {
	if size <= 0 {
		return "", ErrInvalidSize
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	return hex.EncodeToString(b), nil
}

// Equal compares two tokens in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
