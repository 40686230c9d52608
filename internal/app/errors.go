package app

import "errors"

// The fixed error vocabulary exposed to transport adapters. The Service is
// the only place that coalesces domain and store outcomes into these values;
// adapters map them to status codes without inspecting backend errors.
var (
	// ErrValidationFailed reports malformed input: empty or over-length text,
	// or a partial prompt/answer pair. Not retryable.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNotFound reports an unknown, expired, or already-consumed secret.
	// Deliberately undifferentiated so callers cannot probe lifecycle state.
	ErrNotFound = errors.New("secret not found")
	// ErrChallengeFailed reports a non-matching answer. The secret remains
	// available for further attempts until expiry.
	ErrChallengeFailed = errors.New("challenge failed")
	// ErrStorageFailure reports an unavailable or failing backend. Safe to
	// retry at the caller's discretion; the Service never retries internally.
	ErrStorageFailure = errors.New("storage failure")
)
