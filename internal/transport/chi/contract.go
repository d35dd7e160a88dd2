package chi

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/domain/decision"
	domusage "github.com/kailas-cloud/meterd/internal/domain/usage"
	adminuc "github.com/kailas-cloud/meterd/internal/usecase/admin"
	healthuc "github.com/kailas-cloud/meterd/internal/usecase/health"
	"github.com/kailas-cloud/meterd/internal/usecase/pricing"
)

// LimitsAdmin reads and writes account entitlements.
type LimitsAdmin interface {
	GetUserLimits(ctx context.Context, accountID string) (adminuc.Limits, error)
	UpdateUserLimits(ctx context.Context, accountID string, p *account.Patch) error
	CreateAccount(ctx context.Context, e account.Entitlement) error
}

// LimitEvaluator answers limit questions.
type LimitEvaluator interface {
	CheckAgentLimit(ctx context.Context, accountID string) (decision.Agent, error)
	CheckTokenLimit(ctx context.Context, accountID string, requested int64) (decision.Token, error)
	CheckCallLimit(ctx context.Context, accountID string) (decision.Call, error)
	EnforceUserLimits(ctx context.Context, accountID string, opts *decision.Options) (decision.Combined, error)
}

// UsageLedger records and aggregates daily usage.
type UsageLedger interface {
	RecordUsage(ctx context.Context, accountID string, d domusage.Delta) error
	GetDailyUsage(ctx context.Context, accountID string, date time.Time) (domusage.Record, error)
	GetMonthlyUsage(ctx context.Context, accountID string, year, month int) (domusage.Monthly, error)
	GetUserUsageStats(ctx context.Context, accountID string, start, end time.Time) (domusage.Stats, error)
}

// ReportBuilder builds the combined usage-versus-limits view.
type ReportBuilder interface {
	GetReport(ctx context.Context, accountID string) (domusage.Report, error)
}

// AgentProvisioner registers agents against the agent quota.
type AgentProvisioner interface {
	Provision(ctx context.Context, accountID, agentID string) (decision.Agent, error)
	Retire(ctx context.Context, accountID, agentID string) (bool, error)
}

// MeteredCompleter runs a quota-checked LLM turn.
type MeteredCompleter interface {
	Complete(ctx context.Context, accountID string, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// CostCalculator prices raw usage.
type CostCalculator interface {
	Calculate(u pricing.Usage) decimal.Decimal
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
