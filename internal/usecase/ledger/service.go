package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/usage"
	"github.com/kailas-cloud/meterd/internal/metrics"
)

// Service records consumption and aggregates it per account per window.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// New creates a ledger service.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the wall clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now returns the current UTC time from the service clock.
func (s *Service) Now() time.Time { return s.now().UTC() }

// RecordUsage adds a delta to today's record for the account.
// Negative fields are clamped to zero; an all-zero delta is rejected.
func (s *Service) RecordUsage(ctx context.Context, accountID string, d usage.Delta) error {
	if err := domain.RequireAccountID(accountID); err != nil {
		return err
	}
	if d.IsEmpty() {
		return domain.Validationf("usage delta has no non-zero field")
	}

	now := s.Now()
	clamped := d.Clamp()
	if err := s.repo.Increment(ctx, accountID, usage.Day(now), clamped, now); err != nil {
		metrics.UsageRecordErrorsTotal.Inc()
		s.logFailure("Record usage failed", accountID, err)
		return fmt.Errorf("record usage: %w", err)
	}

	observeRecorded(clamped)
	return nil
}

// GetDailyUsage returns the account's record for date, zero-valued when absent.
func (s *Service) GetDailyUsage(ctx context.Context, accountID string, date time.Time) (usage.Record, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return usage.Record{}, err
	}
	if date.IsZero() {
		return usage.Record{}, domain.Validationf("date is required")
	}

	rec, err := s.repo.Get(ctx, accountID, date)
	if err != nil {
		s.logFailure("Get daily usage failed", accountID, err)
		return usage.Record{}, fmt.Errorf("get daily usage: %w", err)
	}
	return rec, nil
}

// GetMonthlyUsage sums the account's records for a calendar month.
func (s *Service) GetMonthlyUsage(ctx context.Context, accountID string, year, month int) (usage.Monthly, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return usage.Monthly{}, err
	}
	if year <= 0 {
		return usage.Monthly{}, domain.Validationf("year must be positive, got %d", year)
	}
	if month < 1 || month > 12 {
		return usage.Monthly{}, domain.Validationf("month must be in [1,12], got %d", month)
	}

	first, last := usage.MonthBounds(year, month)
	recs, err := s.repo.List(ctx, accountID, usage.Days(first, last))
	if err != nil {
		s.logFailure("Get monthly usage failed", accountID, err)
		return usage.Monthly{}, fmt.Errorf("get monthly usage: %w", err)
	}

	tokens, calls, cost := usage.Totals(recs)
	return usage.Monthly{Year: year, Month: month, TotalTokens: tokens, TotalCalls: calls, TotalCost: cost}, nil
}

// GetUserUsageStats sums an inclusive date range. An inverted range yields zeros.
// Ranges longer than usage.MaxStatsDays are rejected.
func (s *Service) GetUserUsageStats(ctx context.Context, accountID string, start, end time.Time) (usage.Stats, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return usage.Stats{}, err
	}
	if start.IsZero() || end.IsZero() {
		return usage.Stats{}, domain.Validationf("start and end dates are required")
	}
	if n := usage.SpanDays(start, end); n > usage.MaxStatsDays {
		return usage.Stats{}, domain.Validationf("date range spans %d days, at most %d allowed", n, usage.MaxStatsDays)
	}

	stats := usage.Stats{
		Start:          usage.Day(start),
		End:            usage.Day(end),
		TotalCosts:     decimal.Zero,
		DailyBreakdown: []usage.Record{},
	}

	days := usage.Days(start, end)
	if len(days) == 0 {
		return stats, nil
	}

	recs, err := s.repo.List(ctx, accountID, days)
	if err != nil {
		s.logFailure("Get usage stats failed", accountID, err)
		return usage.Stats{}, fmt.Errorf("get usage stats: %w", err)
	}
	if len(recs) > 0 {
		stats.DailyBreakdown = recs
	}
	stats.TotalTokens, stats.TotalCalls, stats.TotalCosts = usage.Totals(recs)
	return stats, nil
}

// CurrentMonthTokens returns tokens used so far in the current UTC month.
func (s *Service) CurrentMonthTokens(ctx context.Context, accountID string) (int64, error) {
	now := s.Now()
	m, err := s.GetMonthlyUsage(ctx, accountID, now.Year(), int(now.Month()))
	if err != nil {
		return 0, err
	}
	return m.TotalTokens, nil
}

// TodayCalls returns calls placed so far on the current UTC day.
func (s *Service) TodayCalls(ctx context.Context, accountID string) (int64, error) {
	rec, err := s.GetDailyUsage(ctx, accountID, s.Now())
	if err != nil {
		return 0, err
	}
	return rec.TotalCalls(), nil
}

func (s *Service) logFailure(msg, accountID string, err error) {
	if errors.Is(err, domain.ErrDataIntegrity) {
		s.logger.Error(msg, zap.String("account_id", accountID), zap.Error(err))
		return
	}
	s.logger.Warn(msg, zap.String("account_id", accountID), zap.Error(err))
}

func observeRecorded(d usage.Delta) {
	if d.Tokens > 0 {
		metrics.UsageRecordedTotal.WithLabelValues("tokens").Add(float64(d.Tokens))
	}
	if d.Calls > 0 {
		metrics.UsageRecordedTotal.WithLabelValues("calls").Add(float64(d.Calls))
	}
	if d.DurationSeconds > 0 {
		metrics.UsageRecordedTotal.WithLabelValues("duration_seconds").Add(float64(d.DurationSeconds))
	}
	if nanos := usage.CostToNanos(d.Cost); nanos > 0 {
		metrics.UsageCostNanosTotal.Add(float64(nanos))
	}
}
