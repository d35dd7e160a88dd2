package meter

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/domain/decision"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
	"github.com/kailas-cloud/meterd/internal/domain/tier"
	domusage "github.com/kailas-cloud/meterd/internal/domain/usage"
	adminuc "github.com/kailas-cloud/meterd/internal/usecase/admin"
	"github.com/kailas-cloud/meterd/internal/usecase/pricing"
)

// Re-exported value types.
type (
	Limit             = limit.Limit
	Tier              = tier.Tier
	Resource          = domain.Resource
	AgentDecision     = decision.Agent
	TokenDecision     = decision.Token
	CallDecision      = decision.Call
	EnforceOptions    = decision.Options
	EnforceResult     = decision.Combined
	Violation         = decision.Violation
	Limits            = adminuc.Limits
	LimitsPatch       = account.Patch
	Delta             = domusage.Delta
	MonthlyUsage      = domusage.Monthly
	Provider          = pricing.Provider
	Pricing           = pricing.Pricing
	CostUsage         = pricing.Usage
	Message           = domain.Message
	CompletionRequest = domain.CompletionRequest
	CompletionResult  = domain.CompletionResult
	// Completer is an LLM provider the client can meter.
	Completer = domain.Completer
)

// Subscription tiers.
const (
	TierFree       = tier.Free
	TierPro        = tier.Pro
	TierEnterprise = tier.Enterprise
)

// Metered resources.
const (
	ResourceAgents = domain.ResourceAgents
	ResourceTokens = domain.ResourceTokens
	ResourceCalls  = domain.ResourceCalls
)

// Billable providers.
const (
	ProviderLLM       = pricing.ProviderLLM
	ProviderSpeech    = pricing.ProviderSpeech
	ProviderTelephony = pricing.ProviderTelephony
)

// Unlimited returns a ceiling that never denies.
func Unlimited() Limit { return limit.Unlimited() }

// Limited returns a finite ceiling.
func Limited(n int64) Limit { return limit.Limited(n) }

// LimitFromSentinel decodes the boundary encoding where -1 means unlimited.
func LimitFromSentinel(v int64) (Limit, error) { return limit.FromSentinel(v) }

// DefaultPricing returns the built-in price table.
func DefaultPricing() Pricing { return pricing.DefaultPricing() }

// ParsePricing builds a price table from decimal strings. Empty strings keep the default price.
func ParsePricing(perToken, perSecond, perMinute, perCall string) (Pricing, error) {
	return pricing.Parse(perToken, perSecond, perMinute, perCall)
}

// Account seeds the account directory.
type Account struct {
	ID                string
	MaxAgents         Limit
	MonthlyTokenQuota Limit
	Tier              Tier
	Active            bool
}

// DailyUsage is one account's consumption for one UTC day.
type DailyUsage struct {
	AccountID            string
	Date                 time.Time
	TotalTokens          int64
	TotalCalls           int64
	TotalDurationSeconds int64
	APICost              decimal.Decimal
	UpdatedAt            time.Time // zero when nothing was recorded
}

// UsageStats sums an inclusive date range.
type UsageStats struct {
	Start          time.Time
	End            time.Time
	TotalTokens    int64
	TotalCalls     int64
	TotalCosts     decimal.Decimal
	DailyBreakdown []DailyUsage
}

// UsageLine is one resource's usage against its ceiling.
type UsageLine struct {
	Used        int64
	Limit       Limit
	Remaining   int64   // -1 when unlimited
	Percentage  float64 // +Inf when a zero ceiling has been consumed
	IsExhausted bool
}

// UsageReport is the combined usage-versus-limits view of an account.
type UsageReport struct {
	AccountID   string
	Tier        string
	IsActive    bool
	GeneratedAt time.Time
	Agents      UsageLine
	Tokens      UsageLine
	Calls       UsageLine
}

func dailyFromDomain(r domusage.Record) DailyUsage {
	return DailyUsage{
		AccountID:            r.AccountID(),
		Date:                 r.Date(),
		TotalTokens:          r.TotalTokens(),
		TotalCalls:           r.TotalCalls(),
		TotalDurationSeconds: r.TotalDurationSeconds(),
		APICost:              r.APICost(),
		UpdatedAt:            r.UpdatedAt(),
	}
}

func statsFromDomain(s domusage.Stats) UsageStats {
	days := make([]DailyUsage, len(s.DailyBreakdown))
	for i, r := range s.DailyBreakdown {
		days[i] = dailyFromDomain(r)
	}
	return UsageStats{
		Start:          s.Start,
		End:            s.End,
		TotalTokens:    s.TotalTokens,
		TotalCalls:     s.TotalCalls,
		TotalCosts:     s.TotalCosts,
		DailyBreakdown: days,
	}
}

func lineFromDomain(r *domusage.Report, res domain.Resource) UsageLine {
	l, ok := r.Line(res)
	if !ok {
		return UsageLine{}
	}
	return UsageLine{
		Used:        l.Used(),
		Limit:       l.Limit(),
		Remaining:   l.Remaining(),
		Percentage:  l.Percentage(),
		IsExhausted: l.IsExhausted(),
	}
}

func reportFromDomain(r *domusage.Report) UsageReport {
	return UsageReport{
		AccountID:   r.AccountID(),
		Tier:        r.Tier(),
		IsActive:    r.IsActive(),
		GeneratedAt: r.GeneratedAt(),
		Agents:      lineFromDomain(r, domain.ResourceAgents),
		Tokens:      lineFromDomain(r, domain.ResourceTokens),
		Calls:       lineFromDomain(r, domain.ResourceCalls),
	}
}
