package ingest

import (
	"context"
	"sync"
)

var _ Queue = (*MemQueue)(nil)

// MemQueue is a channel-backed Queue for tests and single-process setups.
type MemQueue struct {
	msgs chan []byte

	mu      sync.Mutex
	replies map[string][][]byte
}

// NewMemQueue returns a MemQueue buffering up to size messages.
func NewMemQueue(size int) *MemQueue {
	return &MemQueue{
		msgs:    make(chan []byte, size),
		replies: make(map[string][][]byte),
	}
}

// Enqueue delivers a message, blocking if the buffer is full.
func (q *MemQueue) Enqueue(ctx context.Context, payload []byte) error {
	select {
	case q.msgs <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a message arrives or ctx is done.
func (q *MemQueue) Dequeue(ctx context.Context) ([]byte, error) {
	select {
	case payload := <-q.msgs:
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Requeue re-delivers a message.
func (q *MemQueue) Requeue(ctx context.Context, payload []byte) error {
	return q.Enqueue(ctx, payload)
}

// Reply records a reply under its channel name.
func (q *MemQueue) Reply(_ context.Context, replyTo string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.replies[replyTo] = append(q.replies[replyTo], payload)
	return nil
}

// Replies returns the replies posted to a channel; test helper.
func (q *MemQueue) Replies(replyTo string) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([][]byte, len(q.replies[replyTo]))
	copy(out, q.replies[replyTo])
	return out
}
