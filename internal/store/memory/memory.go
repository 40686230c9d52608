// Package memory provides an in-process implementation of the app.SecretStore
// port backed by a mutex-guarded map. It is the default for development and
// the reference implementation under test; the mutex makes every consume a
// single indivisible check-and-delete.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hushd/hush/internal/app"
	"github.com/hushd/hush/internal/domain"
)

var _ app.SecretStore = (*Store)(nil)

// Store holds secrets in memory. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	secrets map[domain.SecretID]*domain.Secret
	clock   app.Clock
	closed  bool
}

// New returns an empty Store using the given clock for expiry checks.
func New(clock app.Clock) *Store {
	return &Store{secrets: make(map[domain.SecretID]*domain.Secret), clock: clock}
}

// Create stores a copy of the secret keyed by its ID.
func (s *Store) Create(_ context.Context, sec *domain.Secret) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrNotFound
	}
	cp := *sec
	s.secrets[sec.ID] = &cp
	return nil
}

// ConsumeIfValid deletes and returns an unchallenged secret, or peeks the
// prompt of a challenged one. Expired entries are removed on contact and
// reported as not found.
func (s *Store) ConsumeIfValid(_ context.Context, id domain.SecretID) (app.Reveal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.live(id)
	if !ok {
		return app.Reveal{}, domain.ErrNotFound
	}
	if sec.Challenged() {
		return app.Reveal{Prompt: sec.Prompt}, nil
	}
	delete(s.secrets, id)
	return app.Reveal{Text: sec.Text}, nil
}

// ValidateAndConsume compares the answer and, on match, deletes and returns
// the secret text. A mismatch leaves the secret in place.
func (s *Store) ValidateAndConsume(_ context.Context, id domain.SecretID, answer string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.live(id)
	if !ok {
		return "", domain.ErrNotFound
	}
	if sec.Challenged() && !domain.MatchAnswer(sec.Answer, answer) {
		return "", domain.ErrChallengeFailed
	}
	delete(s.secrets, id)
	return sec.Text, nil
}

// DeleteExpired removes entries expiring at or before t.
func (s *Store) DeleteExpired(_ context.Context, t time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sec := range s.secrets {
		if sec.Expired(t) {
			delete(s.secrets, id)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds while the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrNotFound
	}
	return nil
}

// Close drops all secrets and rejects further use.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets = nil
	s.closed = true
	return nil
}

// live returns the secret if present and not expired, lazily deleting
// expired entries. Caller must hold the mutex.
func (s *Store) live(id domain.SecretID) (*domain.Secret, bool) {
	sec, ok := s.secrets[id]
	if !ok {
		return nil, false
	}
	if sec.Expired(s.clock.Now()) {
		delete(s.secrets, id)
		return nil, false
	}
	return sec, true
}
