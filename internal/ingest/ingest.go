// Package ingest decouples slow or unreliable producers from the synchronous
// creation path: a Consumer drains creation requests from an at-least-once
// queue and hands them to the lifecycle service. Duplicate delivery is
// harmless here: every submission mints an independent secret with its own
// identifier, so no dedup bookkeeping is needed.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hushd/hush/internal/app"
	"github.com/hushd/hush/internal/domain"
	"github.com/hushd/hush/internal/metrics"
)

// Request is the wire form of one queued creation request.
type Request struct {
	Text   string `json:"text"`
	Prompt string `json:"prompt,omitempty"`
	Answer string `json:"answer,omitempty"`
	// ExpireIn is a Go duration string ("1h", "30m"). Empty means the
	// service default.
	ExpireIn string `json:"expire_in,omitempty"`
	// ReplyTo optionally names a reply channel for the resulting identifier.
	ReplyTo string `json:"reply_to,omitempty"`
}

// Reply is posted to a request's reply channel when one was named.
type Reply struct {
	ID        string    `json:"id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Queue is the transport port the Consumer drains. Implementations deliver
// at least once; ordering between messages is not assumed.
type Queue interface {
	// Dequeue blocks until a message is available or ctx is done.
	Dequeue(ctx context.Context) ([]byte, error)
	// Requeue returns a message to the queue after a transient failure.
	Requeue(ctx context.Context, payload []byte) error
	// Reply posts a payload to the named reply channel.
	Reply(ctx context.Context, replyTo string, payload []byte) error
}

// Submitter is the slice of the lifecycle service the Consumer needs.
type Submitter interface {
	Submit(ctx context.Context, req app.SubmitRequest) (domain.SecretID, time.Time, error)
}

// Consumer drains one queue into the service. Construct with New, run with
// Start, and shut down with Stop.
type Consumer struct {
	queue   Queue
	svc     Submitter
	log     *slog.Logger
	backoff time.Duration

	cancel context.CancelFunc
	doneCh chan struct{}
	once   sync.Once
}

// New constructs an unstarted Consumer.
func New(queue Queue, svc Submitter, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		queue:   queue,
		svc:     svc,
		log:     logger.With("domain", "ingest"),
		backoff: time.Second,
		doneCh:  make(chan struct{}),
	}
}

// Start launches the drain loop in a new goroutine.
func (c *Consumer) Start(ctx context.Context) {
	if c.cancel != nil {
		return
	} // already started
	ctx, c.cancel = context.WithCancel(ctx)
	go c.loop(ctx)
}

// Stop signals the loop to exit and waits for completion.
func (c *Consumer) Stop() {
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
	})
	<-c.doneCh
}

func (c *Consumer) loop(ctx context.Context) {
	defer close(c.doneCh)
	for {
		payload, err := c.queue.Dequeue(ctx)
		if ctx.Err() != nil {
			c.log.Info("consumer stop", "reason", "context_cancel")
			return
		}
		if err != nil {
			c.log.Error("dequeue", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}
		c.handle(ctx, payload)
	}
}

// handle processes one delivery. Malformed and invalid requests are dropped
// (redelivery cannot fix them); storage failures requeue the message so the
// at-least-once contract survives a backend outage.
func (c *Consumer) handle(ctx context.Context, payload []byte) {
	log := c.log.With("msg_id", uuid.New().String())
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Warn("drop malformed message", "error", err)
		metrics.IngestMessages.WithLabelValues(metrics.IngestOutcomeInvalid).Inc()
		return
	}
	sub := app.SubmitRequest{Text: req.Text, Prompt: req.Prompt, Answer: req.Answer}
	if req.ExpireIn != "" {
		d, err := time.ParseDuration(req.ExpireIn)
		if err != nil {
			log.Warn("drop message with bad expire_in", "error", err)
			metrics.IngestMessages.WithLabelValues(metrics.IngestOutcomeInvalid).Inc()
			c.reply(ctx, log, req.ReplyTo, Reply{Error: "invalid expire_in"})
			return
		}
		sub.ExpireIn = &d
	}
	id, expires, err := c.svc.Submit(ctx, sub)
	switch {
	case err == nil:
		metrics.IngestMessages.WithLabelValues(metrics.IngestOutcomeCreated).Inc()
		c.reply(ctx, log, req.ReplyTo, Reply{ID: id.String(), ExpiresAt: expires})
	case errors.Is(err, app.ErrValidationFailed):
		log.Warn("drop invalid request", "error", err)
		metrics.IngestMessages.WithLabelValues(metrics.IngestOutcomeInvalid).Inc()
		c.reply(ctx, log, req.ReplyTo, Reply{Error: "validation failed"})
	default:
		log.Error("submit failed, requeueing", "error", err)
		metrics.IngestMessages.WithLabelValues(metrics.IngestOutcomeRequeued).Inc()
		if rqErr := c.queue.Requeue(ctx, payload); rqErr != nil {
			log.Error("requeue", "error", rqErr)
		}
		select {
		case <-ctx.Done():
		case <-time.After(c.backoff):
		}
	}
}

func (c *Consumer) reply(ctx context.Context, log *slog.Logger, replyTo string, rep Reply) {
	if replyTo == "" {
		return
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		log.Error("marshal reply", "error", err)
		return
	}
	if err := c.queue.Reply(ctx, replyTo, payload); err != nil {
		log.Error("post reply", "error", err)
	}
}
