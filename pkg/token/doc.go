// Package token produces opaque random tokens for single-use links and
// HMAC-signed tokens carrying a small JSON payload, such as a session claim.
//
//	tok, err := token.Random(16) // 32 hex chars
//
//	signed, err := token.Sign(Session{AccountID: id}, secret)
//	s, err := token.Verify[Session](signed, secret)
//
// Comparisons go through Equal, which runs in constant time.
package token
