package llm

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/meterd/internal/domain/decision"
	"github.com/kailas-cloud/meterd/internal/domain/usage"
	"github.com/kailas-cloud/meterd/internal/usecase/pricing"
)

// TokenChecker decides whether requested tokens fit in the monthly quota.
type TokenChecker interface {
	CheckTokenLimit(ctx context.Context, accountID string, requested int64) (decision.Token, error)
}

// Recorder writes consumption to the usage ledger.
type Recorder interface {
	RecordUsage(ctx context.Context, accountID string, d usage.Delta) error
}

// Pricer prices raw usage.
type Pricer interface {
	Calculate(u pricing.Usage) decimal.Decimal
}
