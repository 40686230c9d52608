// Package domain holds the core value objects and invariants for hush:
// the Secret model, its identifier, TTL rules, and challenge matching.
// No I/O, logging, or storage concerns belong here.
package domain

import (
	"crypto/subtle"
	"time"
	"unicode/utf8"
)

// MaxTextChars bounds the length of a secret's text in Unicode characters.
const MaxTextChars = 10000

// Secret is one shareable secret and its access policy. It is immutable
// after creation; the consumed-state transition lives entirely inside the
// store (a consumed secret is simply gone).
type Secret struct {
	ID        SecretID
	Text      string
	Prompt    string // optional challenge hint shown before an answer is accepted
	Answer    string // present iff Prompt is present
	CreatedAt time.Time
	ExpiresAt time.Time
}

// New validates text and the optional prompt/answer pair and returns a Secret
// with a freshly generated ID. Timestamps are assigned later, when the
// orchestrator stamps the secret against its clock.
func New(text, prompt, answer string) (*Secret, error) {
	if text == "" || utf8.RuneCountInString(text) > MaxTextChars {
		return nil, ErrTextInvalid
	}
	if (prompt == "") != (answer == "") {
		return nil, ErrChallengeIncomplete
	}
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	return &Secret{ID: id, Text: text, Prompt: prompt, Answer: answer}, nil
}

// Challenged reports whether a reveal requires a matching answer.
func (s *Secret) Challenged() bool { return s.Answer != "" }

// Expired reports whether the secret's expiry precedes or equals now.
func (s *Secret) Expired(now time.Time) bool { return !s.ExpiresAt.After(now) }

// MatchAnswer compares a supplied answer against the stored one. Matching is
// exact and case-sensitive; the comparison runs in constant time so timing
// does not reveal how much of an answer was correct.
func MatchAnswer(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
