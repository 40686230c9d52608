package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hushd/hush/internal/app"
	"github.com/hushd/hush/internal/domain"
	"github.com/hushd/hush/internal/store/memory"
)

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func newTestService() (*app.Service, *memory.Store) {
	st := memory.New(realClock{})
	svc := &app.Service{Store: st, Clock: realClock{}, DefaultTTL: time.Hour, MaxTTL: 24 * time.Hour}
	return svc, st
}

func startConsumer(t *testing.T, q Queue, svc Submitter) *Consumer {
	t.Helper()
	c := New(q, svc, nil)
	c.backoff = time.Millisecond
	c.Start(context.Background())
	t.Cleanup(c.Stop)
	return c
}

func enqueue(t *testing.T, q *MemQueue, req Request) {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(context.Background(), payload))
}

func awaitReply(t *testing.T, q *MemQueue, replyTo string, n int) []Reply {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(q.Replies(replyTo)) >= n
	}, 2*time.Second, 5*time.Millisecond, "no reply on %q", replyTo)
	raw := q.Replies(replyTo)
	out := make([]Reply, len(raw))
	for i, b := range raw {
		require.NoError(t, json.Unmarshal(b, &out[i]))
	}
	return out
}

func TestConsumerCreatesSecret(t *testing.T) {
	svc, _ := newTestService()
	q := NewMemQueue(8)
	startConsumer(t, q, svc)

	enqueue(t, q, Request{Text: "from the queue", ExpireIn: "1h", ReplyTo: "req-1"})
	reps := awaitReply(t, q, "req-1", 1)
	require.Empty(t, reps[0].Error)
	require.NotEmpty(t, reps[0].ID)

	// The reply carries a working reveal link target.
	res, err := svc.Access(context.Background(), reps[0].ID, "")
	require.NoError(t, err)
	require.Equal(t, "from the queue", res.Text)
}

func TestConsumerSurvivesMalformedMessage(t *testing.T) {
	svc, _ := newTestService()
	q := NewMemQueue(8)
	startConsumer(t, q, svc)

	require.NoError(t, q.Enqueue(context.Background(), []byte("{not json")))
	enqueue(t, q, Request{Text: "still alive", ReplyTo: "req-2"})
	reps := awaitReply(t, q, "req-2", 1)
	require.NotEmpty(t, reps[0].ID)
}

func TestConsumerReportsValidationFailure(t *testing.T) {
	svc, _ := newTestService()
	q := NewMemQueue(8)
	startConsumer(t, q, svc)

	enqueue(t, q, Request{Text: "", ReplyTo: "req-3"})
	reps := awaitReply(t, q, "req-3", 1)
	require.Equal(t, "validation failed", reps[0].Error)
	require.Empty(t, reps[0].ID)
}

func TestConsumerRejectsBadExpireIn(t *testing.T) {
	svc, _ := newTestService()
	q := NewMemQueue(8)
	startConsumer(t, q, svc)

	enqueue(t, q, Request{Text: "x", ExpireIn: "soonish", ReplyTo: "req-4"})
	reps := awaitReply(t, q, "req-4", 1)
	require.Equal(t, "invalid expire_in", reps[0].Error)
}

// flakySubmitter fails its first call and delegates afterwards, modelling a
// transient backend outage.
type flakySubmitter struct {
	mu       sync.Mutex
	failures int
	inner    Submitter
}

func (f *flakySubmitter) Submit(ctx context.Context, req app.SubmitRequest) (domain.SecretID, time.Time, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return "", time.Time{}, errors.New("backend down")
	}
	return f.inner.Submit(ctx, req)
}

func TestConsumerRequeuesOnStorageFailure(t *testing.T) {
	svc, _ := newTestService()
	q := NewMemQueue(8)
	startConsumer(t, q, &flakySubmitter{failures: 1, inner: svc})

	enqueue(t, q, Request{Text: "eventually stored", ReplyTo: "req-5"})
	reps := awaitReply(t, q, "req-5", 1)
	require.Empty(t, reps[0].Error)
	require.NotEmpty(t, reps[0].ID)
}

func TestDuplicateDeliveryMintsIndependentSecrets(t *testing.T) {
	svc, _ := newTestService()
	q := NewMemQueue(8)
	startConsumer(t, q, svc)

	req := Request{Text: "dup", ReplyTo: "req-6"}
	enqueue(t, q, req)
	enqueue(t, q, req)
	reps := awaitReply(t, q, "req-6", 2)
	require.NotEmpty(t, reps[0].ID)
	require.NotEmpty(t, reps[1].ID)
	require.NotEqual(t, reps[0].ID, reps[1].ID, "duplicate delivery must mint a fresh identifier")
}
