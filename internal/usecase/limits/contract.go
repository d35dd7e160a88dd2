package limits

import (
	"context"

	"github.com/kailas-cloud/meterd/internal/domain/account"
)

// AccountDirectory resolves entitlements.
type AccountDirectory interface {
	Get(ctx context.Context, accountID string) (account.Entitlement, error)
}

// AgentCounter reports the live agent count of an account.
type AgentCounter interface {
	CountActiveAgents(ctx context.Context, accountID string) (int64, error)
}

// UsageReader reads current-window consumption from the usage ledger.
type UsageReader interface {
	CurrentMonthTokens(ctx context.Context, accountID string) (int64, error)
	TodayCalls(ctx context.Context, accountID string) (int64, error)
}
