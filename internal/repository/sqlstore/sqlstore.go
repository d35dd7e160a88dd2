// Package sqlstore implements the account directory, agent directory and usage
// ledger on the embedded SQLite backend.
package sqlstore

import (
	"context"
	"database/sql"
)

// database is the consumer interface over internal/db/sqlite (ISP).
type database interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args []any, dest ...any) error
	Query(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error
}
