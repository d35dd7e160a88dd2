package meter

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RecordUsage atomically adds a delta to today's record. Negative fields are clamped to zero.
func (c *Client) RecordUsage(ctx context.Context, accountID string, d Delta) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("record_usage", start, err) }()

	if err = c.ledger.RecordUsage(ctx, accountID, d); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// RecordPricedUsage prices raw usage with the client's table and records it.
func (c *Client) RecordPricedUsage(ctx context.Context, accountID string, u CostUsage) error {
	return c.RecordUsage(ctx, accountID, Delta{
		Tokens:          u.Tokens,
		Calls:           u.Calls,
		DurationSeconds: u.DurationSeconds,
		Cost:            c.costs.Calculate(u),
	})
}

// GetDailyUsage returns one day's record; zero-valued when nothing was recorded.
func (c *Client) GetDailyUsage(ctx context.Context, accountID string, date time.Time) (_ DailyUsage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_daily_usage", start, err) }()

	r, err := c.ledger.GetDailyUsage(ctx, accountID, date)
	if err != nil {
		return DailyUsage{}, fmt.Errorf("get daily usage: %w", err)
	}
	return dailyFromDomain(r), nil
}

// GetMonthlyUsage sums one calendar month.
func (c *Client) GetMonthlyUsage(ctx context.Context, accountID string, year, month int) (_ MonthlyUsage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_monthly_usage", start, err) }()

	m, err := c.ledger.GetMonthlyUsage(ctx, accountID, year, month)
	if err != nil {
		return MonthlyUsage{}, fmt.Errorf("get monthly usage: %w", err)
	}
	return m, nil
}

// GetUserUsageStats sums the inclusive range [from, to] with a per-day breakdown of recorded days.
func (c *Client) GetUserUsageStats(ctx context.Context, accountID string, from, to time.Time) (_ UsageStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_usage_stats", start, err) }()

	s, err := c.ledger.GetUserUsageStats(ctx, accountID, from, to)
	if err != nil {
		return UsageStats{}, fmt.Errorf("get usage stats: %w", err)
	}
	return statsFromDomain(s), nil
}

// GetReport returns agents, tokens and calls against their ceilings.
func (c *Client) GetReport(ctx context.Context, accountID string) (_ UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_report", start, err) }()

	r, err := c.reports.GetReport(ctx, accountID)
	if err != nil {
		return UsageReport{}, fmt.Errorf("get report: %w", err)
	}
	return reportFromDomain(&r), nil
}

// EstimateCost prices raw usage. Unknown providers cost zero.
func (c *Client) EstimateCost(u CostUsage) decimal.Decimal {
	return c.costs.Calculate(u)
}

// Pricing returns the active price table.
func (c *Client) Pricing() Pricing {
	return c.costs.Pricing()
}
