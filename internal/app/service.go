// Package app contains the secret lifecycle orchestrator. It wires domain
// validation with the storage port without performing any I/O itself.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hushd/hush/internal/domain"
)

// Service orchestrates secret submission and one-time access using the
// injected store and clock. It is stateless and safe for concurrent use.
type Service struct {
	Store      SecretStore
	Clock      Clock
	DefaultTTL time.Duration // applied when a submission carries no TTL
	MaxTTL     time.Duration // system-wide cap on requested TTLs
}

// SubmitRequest carries one secret creation request.
type SubmitRequest struct {
	Text   string
	Prompt string
	Answer string
	// ExpireIn is the requested TTL. Nil means "use the default". A zero or
	// negative value produces a secret that is already expired, which every
	// access observes as not found.
	ExpireIn *time.Duration
}

// AccessResult is the outcome of a successful Access call.
type AccessResult struct {
	// Text is the revealed secret, set when the secret was consumed.
	Text string
	// Prompt and ChallengeRequired are set when the secret is gated by a
	// challenge and no answer was supplied. The secret is not consumed.
	Prompt            string
	ChallengeRequired bool
}

// Submit validates the request, builds a Secret, stamps its lifetime against
// the service clock, and persists it. It returns the generated identifier
// and the absolute expiry.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (domain.SecretID, time.Time, error) {
	sec, err := domain.New(req.Text, req.Prompt, req.Answer)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	ttl := s.DefaultTTL
	if req.ExpireIn != nil {
		ttl = domain.CapTTL(*req.ExpireIn, s.MaxTTL)
	}
	now := s.Clock.Now()
	sec.CreatedAt = now
	sec.ExpiresAt = now.Add(ttl)
	if err := s.Store.Create(ctx, sec); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: create: %v", ErrStorageFailure, err)
	}
	return sec.ID, sec.ExpiresAt, nil
}

// Access attempts a one-time reveal. With no answer it either consumes an
// unchallenged secret or returns the prompt of a challenged one; with an
// answer it delegates to the store's validate-and-consume step. Unknown,
// expired, and consumed secrets are indistinguishable in the result.
func (s *Service) Access(ctx context.Context, idStr, answer string) (AccessResult, error) {
	id, err := domain.ParseID(idStr)
	if err != nil {
		// A malformed ID can never name a stored secret; report it the same
		// way as any other unknown ID.
		return AccessResult{}, ErrNotFound
	}
	if answer == "" {
		rev, err := s.Store.ConsumeIfValid(ctx, id)
		if err != nil {
			return AccessResult{}, s.coalesce(err)
		}
		if rev.Prompt != "" {
			return AccessResult{Prompt: rev.Prompt, ChallengeRequired: true}, nil
		}
		return AccessResult{Text: rev.Text}, nil
	}
	text, err := s.Store.ValidateAndConsume(ctx, id, answer)
	if err != nil {
		return AccessResult{}, s.coalesce(err)
	}
	return AccessResult{Text: text}, nil
}

// coalesce maps store outcomes onto the fixed error vocabulary.
func (s *Service) coalesce(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrChallengeFailed):
		return ErrChallengeFailed
	default:
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
}
