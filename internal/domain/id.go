// Package domain id.go contains functions to generate, parse, and validate IDs
package domain

import (
	"crypto/rand"
	"encoding/hex"
)

// SecretID is the canonical identifier for a stored secret. It is a 128-bit
// random value encoded as 32 lowercase hex characters. The ID is the sole
// access credential for an unchallenged secret, so it must come from a
// cryptographic source.
type SecretID string

// NewID generates a new cryptographically random SecretID.
func NewID() (SecretID, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return SecretID(hex.EncodeToString(b[:])), nil
}

// ParseID validates s and returns it as a SecretID. It enforces length 32 and
// lowercase [0-9a-f] only, returning ErrInvalidID on failure.
func ParseID(s string) (SecretID, error) {
	if !isValidID(s) {
		return "", ErrInvalidID
	}
	return SecretID(s), nil
}

// String returns the string form of the SecretID.
func (id SecretID) String() string { return string(id) }

// Valid reports whether the ID satisfies the same rules as ParseID.
func (id SecretID) Valid() bool { return isValidID(string(id)) }

// isValidID performs validation without allocating errors.
func isValidID(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
