// Package postgres implements the conversation store on pgx. Ordering and
// create races are settled by the database: per-session sequence numbers are
// assigned with a MAX(seq)+1 insert guarded by a (session_id, seq) unique
// constraint, and explicit-id creation goes through ON CONFLICT.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PGStore implements store.Store on a pgx connection pool.
type PGStore struct {
	db         *pgxpool.Pool
	autoCreate bool
}

// Option customizes store behavior.
type Option func(*PGStore)

// WithAutoCreateMissing makes explicitly-supplied-but-absent user and session
// identifiers create a record at that identifier instead of failing fast.
func WithAutoCreateMissing() Option {
	return func(s *PGStore) { s.autoCreate = true }
}

// New wraps an existing pool. The caller owns the pool lifecycle.
func New(db *pgxpool.Pool, opts ...Option) *PGStore {
	s := &PGStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping verifies database connectivity for health checks.
func (s *PGStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CreateSchema provisions the three conversation tables if absent.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			email      TEXT UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			persona_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS messages (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq        INT NOT NULL,
			role       TEXT NOT NULL,
			text       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (session_id, seq)
		);
	`)
	if err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

// DropSchema removes all conversation tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		DROP TABLE IF EXISTS messages CASCADE;
		DROP TABLE IF EXISTS sessions CASCADE;
		DROP TABLE IF EXISTS users CASCADE;
	`)
	if err != nil {
		return fmt.Errorf("store: drop schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
