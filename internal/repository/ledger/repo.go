package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/usage"
)

// store is the consumer interface for the usage ledger (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HIncrAndSet(ctx context.Context, key string, incr map[string]int64, set map[string]string) error
}

// Repo is the Redis-backed usage ledger. Records have no TTL.
type Repo struct {
	store store
}

// New creates a ledger repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Increment adds a clamped delta to the day's record in one atomic script call.
func (r *Repo) Increment(ctx context.Context, accountID string, day time.Time, d usage.Delta, at time.Time) error {
	set := map[string]string{fieldUpdatedAt: strconv.FormatInt(at.UnixMilli(), 10)}
	if err := r.store.HIncrAndSet(ctx, key(accountID, day), deltaToIncr(d.Clamp()), set); err != nil {
		return domain.NewStoreError("increment usage", err)
	}
	return nil
}

// Get returns the day's record, or the zero record when none exists.
func (r *Repo) Get(ctx context.Context, accountID string, day time.Time) (usage.Record, error) {
	m, err := r.store.HGetAll(ctx, key(accountID, day))
	if err != nil {
		return usage.Record{}, domain.NewStoreError("hgetall usage", err)
	}
	if len(m) == 0 {
		return usage.Empty(accountID, day), nil
	}
	return recordFromHash(accountID, day, m)
}

// List returns the recorded days among days, in the given order.
func (r *Repo) List(ctx context.Context, accountID string, days []time.Time) ([]usage.Record, error) {
	if len(days) == 0 {
		return nil, nil
	}

	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = key(accountID, d)
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, domain.NewStoreError("hgetall usage range", err)
	}

	out := make([]usage.Record, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		rec, err := recordFromHash(accountID, days[i], m)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Key pattern: meterd:usage:{accountID}:{YYYY-MM-DD}

func key(accountID string, day time.Time) string {
	return fmt.Sprintf("%susage:%s:%s", domain.KeyPrefix, accountID, usage.Day(day).Format(usage.DateLayout))
}
