package chi

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
	domusage "github.com/kailas-cloud/meterd/internal/domain/usage"
)

// CreateAccountRequest is the body of PUT /accounts/{id}.
type CreateAccountRequest struct {
	MaxAgents         *limit.Limit `json:"maxAgents"`
	MonthlyTokenQuota *limit.Limit `json:"monthlyTokenQuota"`
	SubscriptionTier  string       `json:"subscriptionTier,omitempty"`
	IsActive          *bool        `json:"isActive,omitempty"`
}

// RecordUsageRequest is the body of POST /accounts/{id}/usage.
// When Cost is absent and Provider is set, the cost is estimated from the price table.
type RecordUsageRequest struct {
	Tokens          int64            `json:"tokens,omitempty"`
	Calls           int64            `json:"calls,omitempty"`
	DurationSeconds int64            `json:"durationSeconds,omitempty"`
	Cost            *decimal.Decimal `json:"cost,omitempty"`
	Provider        string           `json:"provider,omitempty"`
}

// ProvisionAgentRequest is the body of POST /accounts/{id}/agents.
type ProvisionAgentRequest struct {
	AgentID string `json:"agentId"`
}

// CostEstimateResponse carries an estimated cost.
type CostEstimateResponse struct {
	Provider string          `json:"provider"`
	Cost     decimal.Decimal `json:"cost"`
}

// CompletionRequest is the body of POST /accounts/{id}/completions.
type CompletionRequest struct {
	Model     string           `json:"model,omitempty"`
	Messages  []domain.Message `json:"messages"`
	MaxTokens int              `json:"maxTokens"`
}

// CompletionUsage reports token consumption of one turn.
type CompletionUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// CompletionResponse is the result of a metered turn.
type CompletionResponse struct {
	Content      string          `json:"content"`
	Model        string          `json:"model"`
	FinishReason string          `json:"finishReason,omitempty"`
	Usage        CompletionUsage `json:"usage"`
}

// DailyUsageResponse is one day of recorded usage.
type DailyUsageResponse struct {
	AccountID            string          `json:"accountId"`
	Date                 string          `json:"date"`
	TotalTokens          int64           `json:"totalTokens"`
	TotalCalls           int64           `json:"totalCalls"`
	TotalDurationSeconds int64           `json:"totalDurationSeconds"`
	APICost              decimal.Decimal `json:"apiCost"`
	UpdatedAt            *time.Time      `json:"updatedAt,omitempty"`
}

// MonthlyUsageResponse sums one calendar month.
type MonthlyUsageResponse struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	TotalTokens int64           `json:"totalTokens"`
	TotalCalls  int64           `json:"totalCalls"`
	TotalCost   decimal.Decimal `json:"totalCost"`
}

// UsageStatsResponse sums an inclusive date range.
type UsageStatsResponse struct {
	StartDate      string               `json:"startDate"`
	EndDate        string               `json:"endDate"`
	TotalTokens    int64                `json:"totalTokens"`
	TotalCalls     int64                `json:"totalCalls"`
	TotalCosts     decimal.Decimal      `json:"totalCosts"`
	DailyBreakdown []DailyUsageResponse `json:"dailyBreakdown"`
}

// UsageLineResponse is one resource of the usage report.
// Percentage is omitted when a zero ceiling has been consumed (infinite).
type UsageLineResponse struct {
	Used        int64       `json:"used"`
	Limit       limit.Limit `json:"limit"`
	Remaining   int64       `json:"remaining"`
	Percentage  *float64    `json:"percentage,omitempty"`
	IsExhausted bool        `json:"isExhausted"`
}

// UsageReportResponse is the combined usage-versus-limits view.
type UsageReportResponse struct {
	AccountID        string            `json:"accountId"`
	SubscriptionTier string            `json:"subscriptionTier"`
	IsActive         bool              `json:"isActive"`
	GeneratedAt      time.Time         `json:"generatedAt"`
	Agents           UsageLineResponse `json:"agents"`
	Tokens           UsageLineResponse `json:"tokens"`
	Calls            UsageLineResponse `json:"calls"`
}

func dailyToResponse(r domusage.Record) DailyUsageResponse {
	resp := DailyUsageResponse{
		AccountID:            r.AccountID(),
		Date:                 r.Date().Format(domusage.DateLayout),
		TotalTokens:          r.TotalTokens(),
		TotalCalls:           r.TotalCalls(),
		TotalDurationSeconds: r.TotalDurationSeconds(),
		APICost:              r.APICost(),
	}
	if !r.UpdatedAt().IsZero() {
		u := r.UpdatedAt().UTC()
		resp.UpdatedAt = &u
	}
	return resp
}

func monthlyToResponse(m domusage.Monthly) MonthlyUsageResponse {
	return MonthlyUsageResponse{
		Year:        m.Year,
		Month:       m.Month,
		TotalTokens: m.TotalTokens,
		TotalCalls:  m.TotalCalls,
		TotalCost:   m.TotalCost,
	}
}

func statsToResponse(s domusage.Stats) UsageStatsResponse {
	days := make([]DailyUsageResponse, len(s.DailyBreakdown))
	for i, r := range s.DailyBreakdown {
		days[i] = dailyToResponse(r)
	}
	return UsageStatsResponse{
		StartDate:      s.Start.Format(domusage.DateLayout),
		EndDate:        s.End.Format(domusage.DateLayout),
		TotalTokens:    s.TotalTokens,
		TotalCalls:     s.TotalCalls,
		TotalCosts:     s.TotalCosts,
		DailyBreakdown: days,
	}
}

func lineToResponse(l domusage.Line) UsageLineResponse {
	resp := UsageLineResponse{
		Used:        l.Used(),
		Limit:       l.Limit(),
		Remaining:   l.Remaining(),
		IsExhausted: l.IsExhausted(),
	}
	if p := l.Percentage(); !math.IsInf(p, 0) {
		resp.Percentage = &p
	}
	return resp
}

func reportToResponse(r *domusage.Report) UsageReportResponse {
	resp := UsageReportResponse{
		AccountID:        r.AccountID(),
		SubscriptionTier: r.Tier(),
		IsActive:         r.IsActive(),
		GeneratedAt:      r.GeneratedAt().UTC(),
	}
	if l, ok := r.Line(domain.ResourceAgents); ok {
		resp.Agents = lineToResponse(l)
	}
	if l, ok := r.Line(domain.ResourceTokens); ok {
		resp.Tokens = lineToResponse(l)
	}
	if l, ok := r.Line(domain.ResourceCalls); ok {
		resp.Calls = lineToResponse(l)
	}
	return resp
}

func completionToResponse(res domain.CompletionResult) CompletionResponse {
	return CompletionResponse{
		Content:      res.Content,
		Model:        res.Model,
		FinishReason: res.FinishReason,
		Usage: CompletionUsage{
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokens,
			TotalTokens:      res.TotalTokens,
		},
	}
}
