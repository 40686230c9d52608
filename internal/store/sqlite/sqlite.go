// Package sqlite provides a SQLite-backed implementation of the
// app.SecretStore port. The one-time-reveal guarantee rests on conditional
// single-statement DELETE ... RETURNING mutations: SQLite serializes writers,
// so at most one concurrent caller observes the deleted row.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hushd/hush/internal/app"
	"github.com/hushd/hush/internal/domain"

	// database/sql SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

var _ app.SecretStore = (*Store)(nil)

// Store implements app.SecretStore using SQLite (via database/sql). It is
// safe for concurrent use; database/sql manages connection pooling.
type Store struct {
	db    *sql.DB
	clock app.Clock
}

// New constructs a Store over db, initializing the schema if absent. The
// Store takes ownership of db; Close closes it.
func New(db *sql.DB, clock app.Clock) (*Store, error) {
	s := &Store{db: db, clock: clock}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	const schema = `CREATE TABLE IF NOT EXISTS secrets (
id TEXT PRIMARY KEY,
text TEXT NOT NULL,
prompt TEXT,
answer TEXT,
created_at INTEGER NOT NULL,
expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS secrets_expires_at ON secrets(expires_at);`
	_, err := s.db.Exec(schema)
	return err
}

// Create stores a new secret row. Absent challenges are stored as NULL so
// the consume predicates can distinguish them.
func (s *Store) Create(ctx context.Context, sec *domain.Secret) error {
	const q = `INSERT INTO secrets (id, text, prompt, answer, created_at, expires_at) VALUES (?,?,?,?,?,?)`
	var prompt, answer any
	if sec.Challenged() {
		prompt, answer = sec.Prompt, sec.Answer
	}
	_, err := s.db.ExecContext(ctx, q, sec.ID.String(), sec.Text, prompt, answer,
		sec.CreatedAt.UnixMilli(), sec.ExpiresAt.UnixMilli())
	return err
}

// ConsumeIfValid deletes and returns an unchallenged live row in a single
// statement. When the delete matches nothing, a follow-up read classifies
// the miss: a live challenged row yields its prompt, anything else is not
// found. The classification read never mutates, so a lost race still
// resolves to not found.
func (s *Store) ConsumeIfValid(ctx context.Context, id domain.SecretID) (app.Reveal, error) {
	now := s.clock.Now().UnixMilli()
	const del = `DELETE FROM secrets WHERE id=? AND answer IS NULL AND expires_at > ? RETURNING text`
	var text string
	err := s.db.QueryRowContext(ctx, del, id.String(), now).Scan(&text)
	if err == nil {
		return app.Reveal{Text: text}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return app.Reveal{}, err
	}
	const peek = `SELECT prompt FROM secrets WHERE id=? AND answer IS NOT NULL AND expires_at > ?`
	var prompt string
	err = s.db.QueryRowContext(ctx, peek, id.String(), now).Scan(&prompt)
	if errors.Is(err, sql.ErrNoRows) {
		return app.Reveal{}, domain.ErrNotFound
	}
	if err != nil {
		return app.Reveal{}, err
	}
	return app.Reveal{Prompt: prompt}, nil
}

// ValidateAndConsume deletes the row only when the stored answer matches (or
// no challenge exists), again in one statement. SQLite TEXT comparison is
// binary, so matching is exact and case-sensitive.
func (s *Store) ValidateAndConsume(ctx context.Context, id domain.SecretID, answer string) (string, error) {
	now := s.clock.Now().UnixMilli()
	const del = `DELETE FROM secrets WHERE id=? AND expires_at > ? AND (answer IS NULL OR answer = ?) RETURNING text`
	var text string
	err := s.db.QueryRowContext(ctx, del, id.String(), now, answer).Scan(&text)
	if err == nil {
		return text, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	// The row either never existed, is gone, or the answer mismatched.
	const probe = `SELECT 1 FROM secrets WHERE id=? AND expires_at > ?`
	var one int
	err = s.db.QueryRowContext(ctx, probe, id.String(), now).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return "", domain.ErrChallengeFailed
}

// DeleteExpired removes rows expiring at or before t and returns the count.
func (s *Store) DeleteExpired(ctx context.Context, t time.Time) (int, error) {
	const q = `DELETE FROM secrets WHERE expires_at <= ?`
	res, err := s.db.ExecContext(ctx, q, t.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Ping reports database reachability.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
