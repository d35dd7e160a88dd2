package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/kailas-cloud/meterd/internal/db"
	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/usage"
)

const upsertUsage = `
INSERT INTO daily_usage (account_id, usage_date, total_tokens, total_calls, total_duration_seconds, api_cost_nanos, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(account_id, usage_date) DO UPDATE SET
	total_tokens = total_tokens + excluded.total_tokens,
	total_calls = total_calls + excluded.total_calls,
	total_duration_seconds = total_duration_seconds + excluded.total_duration_seconds,
	api_cost_nanos = api_cost_nanos + excluded.api_cost_nanos,
	updated_at = excluded.updated_at`

const selectUsageColumns = `SELECT usage_date, total_tokens, total_calls, total_duration_seconds, api_cost_nanos, updated_at FROM daily_usage`

// Ledger is the SQLite-backed usage ledger.
type Ledger struct {
	db database
}

// NewLedger creates a SQLite usage ledger.
func NewLedger(d database) *Ledger {
	return &Ledger{db: d}
}

// Increment adds a clamped delta to the day's row in a single upsert statement.
func (l *Ledger) Increment(ctx context.Context, accountID string, day time.Time, d usage.Delta, at time.Time) error {
	c := d.Clamp()
	_, err := l.db.Exec(ctx, upsertUsage,
		accountID, usage.Day(day).Format(usage.DateLayout),
		c.Tokens, c.Calls, c.DurationSeconds, usage.CostToNanos(c.Cost), at.UnixMilli(),
	)
	if err != nil {
		return domain.NewStoreError("upsert usage", err)
	}
	return nil
}

// Get returns the day's record, or the zero record when none exists.
func (l *Ledger) Get(ctx context.Context, accountID string, day time.Time) (usage.Record, error) {
	var row usageRow
	err := l.db.QueryRow(ctx, selectUsageColumns+` WHERE account_id = ? AND usage_date = ?`,
		[]any{accountID, usage.Day(day).Format(usage.DateLayout)}, row.dest()...)
	if errors.Is(err, db.ErrKeyNotFound) {
		return usage.Empty(accountID, day), nil
	}
	if err != nil {
		return usage.Record{}, domain.NewStoreError("select usage", err)
	}
	return row.record(accountID)
}

// List returns the recorded days between the first and last of days, ordered by date.
func (l *Ledger) List(ctx context.Context, accountID string, days []time.Time) ([]usage.Record, error) {
	if len(days) == 0 {
		return nil, nil
	}
	from := usage.Day(days[0]).Format(usage.DateLayout)
	to := usage.Day(days[len(days)-1]).Format(usage.DateLayout)

	var out []usage.Record
	err := l.db.Query(ctx,
		selectUsageColumns+` WHERE account_id = ? AND usage_date BETWEEN ? AND ? ORDER BY usage_date`,
		[]any{accountID, from, to},
		func(rows *sql.Rows) error {
			var row usageRow
			if err := rows.Scan(row.dest()...); err != nil {
				return domain.NewStoreError("scan usage", err)
			}
			rec, err := row.record(accountID)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	if err != nil {
		var die *domain.DataIntegrityError
		if errors.As(err, &die) || errors.Is(err, domain.ErrStore) {
			return nil, err
		}
		return nil, domain.NewStoreError("select usage range", err)
	}
	return out, nil
}

type usageRow struct {
	date      string
	tokens    int64
	calls     int64
	duration  int64
	costNanos int64
	updatedAt int64
}

func (r *usageRow) dest() []any {
	return []any{&r.date, &r.tokens, &r.calls, &r.duration, &r.costNanos, &r.updatedAt}
}

func (r *usageRow) record(accountID string) (usage.Record, error) {
	day, err := time.Parse(usage.DateLayout, r.date)
	if err != nil {
		return usage.Record{}, domain.NewDataIntegrityError("usage_date", r.date, err)
	}
	for name, v := range map[string]int64{
		"total_tokens":           r.tokens,
		"total_calls":            r.calls,
		"total_duration_seconds": r.duration,
		"api_cost_nanos":         r.costNanos,
	} {
		if v < 0 {
			return usage.Record{}, domain.NewDataIntegrityError(name, strconv.FormatInt(v, 10), nil)
		}
	}
	return usage.Reconstruct(accountID, day, r.tokens, r.calls, r.duration,
		usage.CostFromNanos(r.costNanos), time.UnixMilli(r.updatedAt).UTC()), nil
}
