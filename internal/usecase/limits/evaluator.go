package limits

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/domain/decision"
	"github.com/kailas-cloud/meterd/internal/metrics"
)

// Evaluator renders allow/deny decisions against account entitlements.
// Decisions are advisory: a caller's later write is not reserved.
type Evaluator struct {
	accounts AccountDirectory
	agents   AgentCounter
	usage    UsageReader
	logger   *zap.Logger
}

// New creates a limit evaluator.
func New(accounts AccountDirectory, agents AgentCounter, usage UsageReader, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{accounts: accounts, agents: agents, usage: usage, logger: logger}
}

// CheckAgentLimit decides whether the account may create one more agent.
func (e *Evaluator) CheckAgentLimit(ctx context.Context, accountID string) (decision.Agent, error) {
	ent, err := e.entitlement(ctx, accountID)
	if err != nil {
		return decision.Agent{}, err
	}

	count, err := e.agents.CountActiveAgents(ctx, accountID)
	if err != nil {
		e.logFailure("Count agents failed", accountID, err)
		return decision.Agent{}, fmt.Errorf("count agents: %w", err)
	}

	lim := ent.MaxAgents()
	d := decision.Agent{
		Allowed:      lim.Admits(count),
		CurrentCount: count,
		Limit:        lim,
		Remaining:    lim.Remaining(count),
	}
	switch {
	case !ent.IsActive():
		d.Allowed = false
		d.Reason = decision.ReasonInactive
	case !d.Allowed:
		d.Reason = fmt.Sprintf("agent limit reached: %d of %d in use", count, lim.Value())
	}

	observe(domain.ResourceAgents, d.Allowed)
	return d, nil
}

// CheckTokenLimit decides whether requested tokens fit in the monthly quota.
func (e *Evaluator) CheckTokenLimit(ctx context.Context, accountID string, requested int64) (decision.Token, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return decision.Token{}, err
	}
	if requested < 0 {
		return decision.Token{}, domain.Validationf("requested tokens must be >= 0, got %d", requested)
	}

	ent, err := e.entitlement(ctx, accountID)
	if err != nil {
		return decision.Token{}, err
	}

	used, err := e.usage.CurrentMonthTokens(ctx, accountID)
	if err != nil {
		e.logFailure("Read monthly tokens failed", accountID, err)
		return decision.Token{}, fmt.Errorf("read monthly tokens: %w", err)
	}

	lim := ent.MonthlyTokenQuota()
	fits := lim.Fits(used, requested)
	d := decision.Token{
		Allowed:      fits,
		CurrentUsage: used,
		Limit:        lim,
		Remaining:    lim.Remaining(used),
		WouldExceed:  !fits,
	}
	switch {
	case !ent.IsActive():
		d.Allowed = false
		d.Reason = decision.ReasonInactive
	case d.WouldExceed:
		d.Reason = fmt.Sprintf("monthly token quota would be exceeded: %d used + %d requested > %d",
			used, requested, lim.Value())
	}

	observe(domain.ResourceTokens, d.Allowed)
	return d, nil
}

// CheckCallLimit decides whether the account may place one more call today.
func (e *Evaluator) CheckCallLimit(ctx context.Context, accountID string) (decision.Call, error) {
	ent, err := e.entitlement(ctx, accountID)
	if err != nil {
		return decision.Call{}, err
	}

	calls, err := e.usage.TodayCalls(ctx, accountID)
	if err != nil {
		e.logFailure("Read daily calls failed", accountID, err)
		return decision.Call{}, fmt.Errorf("read daily calls: %w", err)
	}

	lim := ent.DailyCallLimit()
	d := decision.Call{
		Allowed:      lim.Admits(calls),
		CurrentCalls: calls,
		DailyLimit:   lim,
	}
	switch {
	case !ent.IsActive():
		d.Allowed = false
		d.Reason = decision.ReasonInactive
	case !d.Allowed:
		d.Reason = fmt.Sprintf("daily call limit reached: %d of %d for tier %s", calls, lim.Value(), ent.Tier())
	}

	observe(domain.ResourceCalls, d.Allowed)
	return d, nil
}

// EnforceUserLimits runs the requested checks in order agents, tokens, calls.
// Any failing sub-check read fails the whole operation.
func (e *Evaluator) EnforceUserLimits(ctx context.Context, accountID string, opts *decision.Options) (decision.Combined, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return decision.Combined{}, err
	}
	if opts == nil {
		return decision.Combined{}, domain.Validationf("enforcement options are required")
	}

	out := decision.Combined{
		LimitsChecked: []domain.Resource{},
		Violations:    []decision.Violation{},
	}
	tally := func(res domain.Resource, allowed bool, reason string) {
		out.LimitsChecked = append(out.LimitsChecked, res)
		if !allowed {
			out.Violations = append(out.Violations, decision.Violation{Type: res, Exceeded: true, Detail: reason})
		}
	}

	if opts.CheckAgents {
		d, err := e.CheckAgentLimit(ctx, accountID)
		if err != nil {
			return decision.Combined{}, fmt.Errorf("enforce agents: %w", err)
		}
		tally(domain.ResourceAgents, d.Allowed, d.Reason)
	}
	if opts.CheckTokens != nil {
		d, err := e.CheckTokenLimit(ctx, accountID, *opts.CheckTokens)
		if err != nil {
			return decision.Combined{}, fmt.Errorf("enforce tokens: %w", err)
		}
		tally(domain.ResourceTokens, d.Allowed, d.Reason)
	}
	if opts.CheckCalls {
		d, err := e.CheckCallLimit(ctx, accountID)
		if err != nil {
			return decision.Combined{}, fmt.Errorf("enforce calls: %w", err)
		}
		tally(domain.ResourceCalls, d.Allowed, d.Reason)
	}

	out.Allowed = len(out.Violations) == 0
	return out, nil
}

func (e *Evaluator) entitlement(ctx context.Context, accountID string) (account.Entitlement, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return account.Entitlement{}, err
	}
	ent, err := e.accounts.Get(ctx, accountID)
	if err != nil {
		e.logFailure("Load entitlement failed", accountID, err)
		return account.Entitlement{}, fmt.Errorf("load entitlement: %w", err)
	}
	return ent, nil
}

func (e *Evaluator) logFailure(msg, accountID string, err error) {
	switch {
	case errors.Is(err, domain.ErrDataIntegrity):
		e.logger.Error(msg, zap.String("account_id", accountID), zap.Error(err))
	case errors.Is(err, domain.ErrNotFound):
		e.logger.Debug(msg, zap.String("account_id", accountID), zap.Error(err))
	default:
		e.logger.Warn(msg, zap.String("account_id", accountID), zap.Error(err))
	}
}

func observe(res domain.Resource, allowed bool) {
	metrics.LimitDecisionsTotal.WithLabelValues(string(res), metrics.DecisionResult(allowed)).Inc()
}
