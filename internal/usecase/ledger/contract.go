package ledger

import (
	"context"
	"time"

	"github.com/kailas-cloud/meterd/internal/domain/usage"
)

// Repository is the durable per-account, per-day usage store.
type Repository interface {
	Increment(ctx context.Context, accountID string, day time.Time, d usage.Delta, at time.Time) error
	Get(ctx context.Context, accountID string, day time.Time) (usage.Record, error)
	List(ctx context.Context, accountID string, days []time.Time) ([]usage.Record, error)
}
