// Package redis provides a Redis-backed implementation of the
// app.SecretStore port. Secrets live in hashes with native key TTLs for
// expiry; the consume paths run as Lua scripts so the existence check,
// challenge comparison, and deletion execute as one atomic server-side step.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hushd/hush/internal/app"
	"github.com/hushd/hush/internal/domain"
)

var _ app.SecretStore = (*Store)(nil)

// Store implements app.SecretStore over a single Redis client.
type Store struct {
	client *redis.Client
	clock  app.Clock
}

// New connects to Redis with the given options and verifies reachability.
func New(opts *redis.Options, clock app.Clock) (*Store, error) {
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: client, clock: clock}, nil
}

// consumeScript atomically resolves an unchallenged secret: delete and
// return the text, or surface the prompt of a challenged one untouched.
var consumeScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'text', 'prompt', 'answer')
if v[1] == false then
	return {'missing'}
end
if v[3] ~= false then
	return {'prompt', v[2]}
end
redis.call('DEL', KEYS[1])
return {'ok', v[1]}
`)

// validateScript atomically compares the answer and deletes on match.
// Lua string equality is byte-exact, so matching is case-sensitive.
var validateScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'text', 'answer')
if v[1] == false then
	return {'missing'}
end
if v[2] ~= false and v[2] ~= ARGV[1] then
	return {'mismatch'}
end
redis.call('DEL', KEYS[1])
return {'ok', v[1]}
`)

// Create writes the secret hash and arms the key TTL in one transaction.
// A secret whose expiry has already passed is not written at all; it is
// observationally identical to one that expired in storage.
func (s *Store) Create(ctx context.Context, sec *domain.Secret) error {
	ttl := sec.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}
	fields := []any{
		"text", sec.Text,
		"created_at", sec.CreatedAt.UnixMilli(),
	}
	if sec.Challenged() {
		fields = append(fields, "prompt", sec.Prompt, "answer", sec.Answer)
	}
	key := secretKey(sec.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields...)
	pipe.PExpire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// ConsumeIfValid runs the consume script. Expiry needs no check here: Redis
// removes the key when its TTL lapses, and a lapsed-but-not-yet-collected
// key is already invisible to reads.
func (s *Store) ConsumeIfValid(ctx context.Context, id domain.SecretID) (app.Reveal, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{secretKey(id)}).Slice()
	if err != nil {
		return app.Reveal{}, err
	}
	status, vals, err := splitReply(res)
	if err != nil {
		return app.Reveal{}, err
	}
	switch status {
	case "ok":
		return app.Reveal{Text: vals[0]}, nil
	case "prompt":
		return app.Reveal{Prompt: vals[0]}, nil
	case "missing":
		return app.Reveal{}, domain.ErrNotFound
	default:
		return app.Reveal{}, fmt.Errorf("unexpected script status %q", status)
	}
}

// ValidateAndConsume runs the validate script.
func (s *Store) ValidateAndConsume(ctx context.Context, id domain.SecretID, answer string) (string, error) {
	res, err := validateScript.Run(ctx, s.client, []string{secretKey(id)}, answer).Slice()
	if err != nil {
		return "", err
	}
	status, vals, err := splitReply(res)
	if err != nil {
		return "", err
	}
	switch status {
	case "ok":
		return vals[0], nil
	case "mismatch":
		return "", domain.ErrChallengeFailed
	case "missing":
		return "", domain.ErrNotFound
	default:
		return "", fmt.Errorf("unexpected script status %q", status)
	}
}

// DeleteExpired is a no-op: Redis evicts expired keys itself.
func (s *Store) DeleteExpired(_ context.Context, _ time.Time) (int, error) { return 0, nil }

// Ping reports backend reachability.
func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func secretKey(id domain.SecretID) string { return "hush:secret:" + id.String() }

// splitReply unpacks a {status, values...} script reply.
func splitReply(res []any) (string, []string, error) {
	if len(res) == 0 {
		return "", nil, errors.New("empty script reply")
	}
	status, ok := res[0].(string)
	if !ok {
		return "", nil, fmt.Errorf("unexpected script reply %T", res[0])
	}
	vals := make([]string, 0, len(res)-1)
	for _, v := range res[1:] {
		sv, ok := v.(string)
		if !ok {
			return "", nil, fmt.Errorf("unexpected script value %T", v)
		}
		vals = append(vals, sv)
	}
	if (status == "ok" || status == "prompt") && len(vals) == 0 {
		return "", nil, errors.New("script reply missing value")
	}
	return status, vals, nil
}
