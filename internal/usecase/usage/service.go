package usage

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/account"
	domusage "github.com/kailas-cloud/meterd/internal/domain/usage"
)

// Service builds used-vs-limit reports.
type Service struct {
	accounts AccountDirectory
	agents   AgentCounter
	usage    UsageReader
	now      func() time.Time
}

// New creates a report service.
func New(accounts AccountDirectory, agents AgentCounter, usage UsageReader) *Service {
	return &Service{accounts: accounts, agents: agents, usage: usage, now: time.Now}
}

// GetReport reads the entitlement and all three usage counters concurrently.
func (s *Service) GetReport(ctx context.Context, accountID string) (domusage.Report, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return domusage.Report{}, err
	}

	var (
		ent    account.Entitlement
		agents int64
		tokens int64
		calls  int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if ent, err = s.accounts.Get(gctx, accountID); err != nil {
			return fmt.Errorf("load entitlement: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if agents, err = s.agents.CountActiveAgents(gctx, accountID); err != nil {
			return fmt.Errorf("count agents: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if tokens, err = s.usage.CurrentMonthTokens(gctx, accountID); err != nil {
			return fmt.Errorf("read monthly tokens: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if calls, err = s.usage.TodayCalls(gctx, accountID); err != nil {
			return fmt.Errorf("read daily calls: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domusage.Report{}, err
	}

	return domusage.NewReport(accountID, string(ent.Tier()), ent.IsActive(), s.now().UTC(),
		domusage.NewLine(domain.ResourceAgents, agents, ent.MaxAgents()),
		domusage.NewLine(domain.ResourceTokens, tokens, ent.MonthlyTokenQuota()),
		domusage.NewLine(domain.ResourceCalls, calls, ent.DailyCallLimit()),
	), nil
}
