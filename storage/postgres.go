package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// DefaultQueryTimeout bounds every statement issued by PostgresStore
const DefaultQueryTimeout = 5 * time.Second

const createSlotsTable = `
CREATE TABLE IF NOT EXISTS tasklist_slots (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PostgresStore implements Store on a single Postgres table
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// OpenPostgresStore connects to dbURL, verifies the connection and
// ensures the slots table exists.
func OpenPostgresStore(dbURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	store := NewPostgresStore(db)

	ctx, cancel := store.context()
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createSlotsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create slots table: %w", err)
	}

	log.Println("Connected to Postgres slot store")
	return store, nil
}

// NewPostgresStore wraps an already open database. The caller is
// responsible for the schema.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, timeout: DefaultQueryTimeout}
}

func (s *PostgresStore) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *PostgresStore) Read(key string) (string, bool, error) {
	ctx, cancel := s.context()
	defer cancel()

	const q = `SELECT value FROM tasklist_slots WHERE key = $1;`

	var value string
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Write(key, value string) error {
	ctx, cancel := s.context()
	defer cancel()

	const q = `
INSERT INTO tasklist_slots (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = now();
`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	return nil
}

// Ping checks the database is reachable
func (s *PostgresStore) Ping() error {
	ctx, cancel := s.context()
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
