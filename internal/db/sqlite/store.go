// Package sqlite is the embedded relational backend. It owns the schema and
// bounds every statement by the configured op timeout.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/meterd/internal/db"
)

// DefaultOpTimeout bounds a single statement when Config.OpTimeout is zero.
const DefaultOpTimeout = 2 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS daily_usage (
	account_id TEXT NOT NULL,
	usage_date TEXT NOT NULL,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	total_calls INTEGER NOT NULL DEFAULT 0,
	total_duration_seconds INTEGER NOT NULL DEFAULT 0,
	api_cost_nanos INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (account_id, usage_date)
);
CREATE TABLE IF NOT EXISTS accounts (
	account_id TEXT PRIMARY KEY,
	max_agents TEXT,
	monthly_token_quota TEXT,
	subscription_tier TEXT,
	is_active TEXT
);
CREATE TABLE IF NOT EXISTS agents (
	account_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	PRIMARY KEY (account_id, agent_id)
);
`

// Config holds SQLite connection parameters.
type Config struct {
	Path      string
	OpTimeout time.Duration
}

// Store wraps a *sql.DB opened on the modernc driver.
type Store struct {
	db        *sql.DB
	opTimeout time.Duration
}

// Open opens (or creates) the database file and runs the schema migration.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer keeps upserts serialized without SQLITE_BUSY churn.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, &db.Error{Op: db.OpMigrate, Err: err}
	}

	timeout := cfg.OpTimeout
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	return &Store{db: conn, opTimeout: timeout}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Exec runs a statement that returns no rows and reports rows affected.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &db.Error{Op: db.OpExec, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &db.Error{Op: db.OpExec, Err: err}
	}
	return n, nil
}

// QueryRow scans a single row into dest. No row yields db.ErrKeyNotFound.
func (s *Store) QueryRow(ctx context.Context, query string, args []any, dest ...any) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return db.ErrKeyNotFound
	}
	if err != nil {
		return &db.Error{Op: db.OpQuery, Err: err}
	}
	return nil
}

// Query runs a query and calls scan once per row.
func (s *Store) Query(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &db.Error{Op: db.OpQuery, Err: err}
	}
	return nil
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}
