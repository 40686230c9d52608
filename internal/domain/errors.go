// Package domain errors.go contains sentinel errors
package domain

import "errors"

// Sentinel domain-level errors reused by higher layers.
var (
	// ErrInvalidID reports a malformed secret identifier.
	ErrInvalidID = errors.New("invalid secret id")
	// ErrNotFound reports that a secret is absent, expired, or already
	// consumed. Stores must not distinguish between those cases.
	ErrNotFound = errors.New("secret not found")
	// ErrChallengeFailed reports an answer that did not match the stored one.
	// The secret remains available for further attempts until expiry.
	ErrChallengeFailed = errors.New("challenge failed")
	// ErrTextInvalid reports an empty or over-length secret text.
	ErrTextInvalid = errors.New("secret text invalid")
	// ErrChallengeIncomplete reports a prompt without an answer or vice versa.
	ErrChallengeIncomplete = errors.New("challenge requires both prompt and answer")
	// ErrTTLInvalid reports a TTL outside the allowed range.
	ErrTTLInvalid = errors.New("ttl invalid")
)
