// Package app defines the application layer "ports" (interfaces) that the
// secret lifecycle orchestrator depends upon, following a hexagonal
// (ports & adapters) design: this package declares what the core needs,
// while adapter packages (memory/SQLite/Redis stores, HTTP layer, ingest
// consumer, janitor) provide concrete implementations. No I/O, SQL, or
// network concerns belong here.
package app

import (
	"context"
	"time"

	"github.com/hushd/hush/internal/domain"
)

// Clock abstracts time to enable deterministic testing of TTL / expiry logic.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
}

// Reveal is the outcome of a successful consume attempt. Exactly one of the
// two fields is set: Text when the secret was atomically consumed, Prompt
// when a challenge must be answered before the text is released.
type Reveal struct {
	Text   string
	Prompt string
}

// SecretStore is the storage port for secrets. Implementations must provide
// the at-most-one-reveal guarantee: the existence check, expiry check, and
// deletion performed by ConsumeIfValid / ValidateAndConsume happen as one
// indivisible operation against the backing store, never as a read followed
// by a separate delete.
type SecretStore interface {
	// Create persists a new secret. The secret's ID, timestamps, and expiry
	// are already assigned by the caller.
	Create(ctx context.Context, sec *domain.Secret) error

	// ConsumeIfValid atomically checks existence and non-expiry. For an
	// unchallenged secret it deletes the record and returns the text in the
	// same step. For a challenged secret it returns the prompt only, without
	// consuming; ValidateAndConsume completes the reveal. Absent, expired,
	// and already-consumed secrets all yield domain.ErrNotFound.
	ConsumeIfValid(ctx context.Context, id domain.SecretID) (Reveal, error)

	// ValidateAndConsume atomically compares the supplied answer against the
	// stored one and, on match, deletes the record and returns the text. A
	// mismatch yields domain.ErrChallengeFailed and leaves the secret intact
	// for further attempts until expiry. Secrets without a challenge are
	// consumed regardless of the supplied answer.
	ValidateAndConsume(ctx context.Context, id domain.SecretID, answer string) (string, error)

	// DeleteExpired removes secrets whose expiry precedes or equals t and
	// returns the count removed. Access-time checks already hide expired
	// records, so this is bounded cleanup, not a correctness requirement.
	DeleteExpired(ctx context.Context, t time.Time) (int, error)

	// Ping reports backend reachability for readiness probes.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
