package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hushd/hush/internal/domain"
)

// fixedClock implements Clock returning a fixed instant.
type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

// mockStore implements SecretStore for tests.
type mockStore struct {
	createErr   error
	consumeRev  Reveal
	consumeErr  error
	validateTxt string
	validateErr error

	// captured
	created        *domain.Secret
	consumedID     domain.SecretID
	validatedID    domain.SecretID
	validatedAns   string
	createCalled   bool
	consumeCalled  bool
	validateCalled bool
}

func (m *mockStore) Create(_ context.Context, sec *domain.Secret) error {
	m.createCalled = true
	m.created = sec
	return m.createErr
}

func (m *mockStore) ConsumeIfValid(_ context.Context, id domain.SecretID) (Reveal, error) {
	m.consumeCalled = true
	m.consumedID = id
	return m.consumeRev, m.consumeErr
}

func (m *mockStore) ValidateAndConsume(_ context.Context, id domain.SecretID, answer string) (string, error) {
	m.validateCalled = true
	m.validatedID = id
	m.validatedAns = answer
	return m.validateTxt, m.validateErr
}

func (m *mockStore) DeleteExpired(_ context.Context, _ time.Time) (int, error) { return 0, nil }
func (m *mockStore) Ping(_ context.Context) error                              { return nil }
func (m *mockStore) Close() error                                              { return nil }

func newService(st *mockStore) *Service {
	return &Service{
		Store:      st,
		Clock:      fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		DefaultTTL: 24 * time.Hour,
		MaxTTL:     7 * 24 * time.Hour,
	}
}

func TestSubmitStampsLifetime(t *testing.T) {
	st := &mockStore{}
	svc := newService(st)
	ttl := time.Hour
	id, expires, err := svc.Submit(context.Background(), SubmitRequest{Text: "hello", ExpireIn: &ttl})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !id.Valid() {
		t.Errorf("invalid id returned: %q", id)
	}
	want := svc.Clock.Now().Add(ttl)
	if !expires.Equal(want) {
		t.Errorf("expires = %v, want %v", expires, want)
	}
	if st.created == nil || st.created.CreatedAt != svc.Clock.Now() {
		t.Errorf("created_at not stamped from clock")
	}
}

func TestSubmitDefaultTTL(t *testing.T) {
	st := &mockStore{}
	svc := newService(st)
	_, expires, err := svc.Submit(context.Background(), SubmitRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if want := svc.Clock.Now().Add(svc.DefaultTTL); !expires.Equal(want) {
		t.Errorf("expires = %v, want default %v", expires, want)
	}
}

func TestSubmitCapsTTL(t *testing.T) {
	st := &mockStore{}
	svc := newService(st)
	ttl := 30 * 24 * time.Hour
	_, expires, err := svc.Submit(context.Background(), SubmitRequest{Text: "hello", ExpireIn: &ttl})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if want := svc.Clock.Now().Add(svc.MaxTTL); !expires.Equal(want) {
		t.Errorf("expires = %v, want capped %v", expires, want)
	}
}

func TestSubmitZeroTTLAllowed(t *testing.T) {
	st := &mockStore{}
	svc := newService(st)
	ttl := time.Duration(0)
	_, expires, err := svc.Submit(context.Background(), SubmitRequest{Text: "hello", ExpireIn: &ttl})
	if err != nil {
		t.Fatalf("Submit with zero TTL should create an already-expired secret: %v", err)
	}
	if !expires.Equal(svc.Clock.Now()) {
		t.Errorf("expires = %v, want %v", expires, svc.Clock.Now())
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{name: "empty_text", req: SubmitRequest{}},
		{name: "over_length", req: SubmitRequest{Text: strings.Repeat("a", domain.MaxTextChars+1)}},
		{name: "prompt_only", req: SubmitRequest{Text: "x", Prompt: "hint"}},
		{name: "answer_only", req: SubmitRequest{Text: "x", Answer: "blue"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := &mockStore{}
			_, _, err := newService(st).Submit(context.Background(), tc.req)
			if !errors.Is(err, ErrValidationFailed) {
				t.Errorf("err = %v, want ErrValidationFailed", err)
			}
			if st.createCalled {
				t.Error("store touched on validation failure")
			}
		})
	}
}

func TestSubmitStorageFailure(t *testing.T) {
	st := &mockStore{createErr: errors.New("disk on fire")}
	_, _, err := newService(st).Submit(context.Background(), SubmitRequest{Text: "x"})
	if !errors.Is(err, ErrStorageFailure) {
		t.Errorf("err = %v, want ErrStorageFailure", err)
	}
}

func TestAccessUnchallenged(t *testing.T) {
	st := &mockStore{consumeRev: Reveal{Text: "the text"}}
	res, err := newService(st).Access(context.Background(), validID(t), "")
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	if res.Text != "the text" || res.ChallengeRequired {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestAccessChallengeRequired(t *testing.T) {
	st := &mockStore{consumeRev: Reveal{Prompt: "color of the sky"}}
	res, err := newService(st).Access(context.Background(), validID(t), "")
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	if !res.ChallengeRequired || res.Prompt != "color of the sky" || res.Text != "" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestAccessWithAnswer(t *testing.T) {
	st := &mockStore{validateTxt: "launch codes"}
	res, err := newService(st).Access(context.Background(), validID(t), "blue")
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	if res.Text != "launch codes" {
		t.Errorf("text = %q", res.Text)
	}
	if st.validatedAns != "blue" {
		t.Errorf("answer not threaded through, got %q", st.validatedAns)
	}
	if st.consumeCalled {
		t.Error("ConsumeIfValid called when answer supplied")
	}
}

func TestAccessErrorCoalescing(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{name: "not_found", storeErr: domain.ErrNotFound, want: ErrNotFound},
		{name: "mismatch", storeErr: domain.ErrChallengeFailed, want: ErrChallengeFailed},
		{name: "backend", storeErr: errors.New("connection refused"), want: ErrStorageFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := &mockStore{validateErr: tc.storeErr}
			_, err := newService(st).Access(context.Background(), validID(t), "guess")
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAccessMalformedIDIsNotFound(t *testing.T) {
	st := &mockStore{}
	_, err := newService(st).Access(context.Background(), "not-a-valid-id", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if st.consumeCalled || st.validateCalled {
		t.Error("store touched for malformed id")
	}
}

func validID(t *testing.T) string {
	t.Helper()
	id, err := domain.NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	return id.String()
}
