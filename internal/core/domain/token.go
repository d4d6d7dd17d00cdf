package domain

import (
	"crypto/rand"
	"fmt"
)

// Confirmation tokens are opaque 25-character strings drawn uniformly from
// an alphanumeric alphabet. Storage enforces a validity window from the
// generation timestamp.
const (
	TokenLength   = 25
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// maxUnbiasedByte is the largest multiple of len(tokenAlphabet) that fits
// in a byte. Random bytes at or above it are discarded; mapping them
// through the modulo would skew the draw towards the alphabet's first
// 256%62 symbols.
const maxUnbiasedByte = 256 - 256%len(tokenAlphabet)

// GenerateToken draws a fresh confirmation token from crypto/rand, one
// uniformly distributed alphabet symbol per accepted byte. A generated
// value failing its own shape check is an internal invariant violation and
// panics.
func GenerateToken() string {
	buf := make([]byte, 0, TokenLength)
	raw := make([]byte, TokenLength)
	for len(buf) < TokenLength {
		if _, err := rand.Read(raw); err != nil {
			panic(fmt.Sprintf("token generation: %v", err))
		}
		for _, b := range raw {
			if int(b) >= maxUnbiasedByte {
				continue
			}
			buf = append(buf, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(buf) == TokenLength {
				break
			}
		}
	}
	token := string(buf)
	if _, err := ParseToken(token); err != nil {
		panic(fmt.Sprintf("generated token failed validation: %v", err))
	}
	return token
}

// ParseToken checks the shape of a client-supplied token: exactly
// TokenLength characters, alphanumeric only. It says nothing about whether
// the token exists or is still valid.
func ParseToken(raw string) (string, error) {
	if len(raw) != TokenLength {
		return "", NewValidationError("subscription token has the wrong length")
	}
	for _, c := range []byte(raw) {
		if !isAlphanumeric(c) {
			return "", NewValidationError("subscription token contains invalid characters")
		}
	}
	return raw, nil
}

func isAlphanumeric(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
