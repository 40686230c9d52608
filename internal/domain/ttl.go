// Package domain ttl.go contains TTL validation against configured bounds.
package domain

import "time"

// ValidateTTL checks that ttl is positive and no greater than max.
// Returns ErrTTLInvalid on violation.
func ValidateTTL(ttl, max time.Duration) error {
	if ttl <= 0 || ttl > max {
		return ErrTTLInvalid
	}
	return nil
}

// CapTTL returns ttl bounded above by max. Zero and negative TTLs pass
// through unchanged: a caller asking for an already-elapsed window gets a
// secret that is born expired, which access treats as not found.
func CapTTL(ttl, max time.Duration) time.Duration {
	if ttl > max {
		return max
	}
	return ttl
}
