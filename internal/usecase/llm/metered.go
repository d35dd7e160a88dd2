package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/usage"
	"github.com/kailas-cloud/meterd/internal/metrics"
	"github.com/kailas-cloud/meterd/internal/usecase/pricing"
)

// MeteredCompleter wraps a Completer with token-limit enforcement and usage recording.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type MeteredCompleter struct {
	inner    domain.Completer
	provider string
	limits   TokenChecker
	ledger   Recorder
	pricer   Pricer
	logger   *zap.Logger
}

// NewMeteredCompleter wraps a completer with quota checks and metering.
func NewMeteredCompleter(
	inner domain.Completer, provider string,
	limits TokenChecker, ledger Recorder, pricer Pricer, logger *zap.Logger,
) *MeteredCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeteredCompleter{
		inner:    inner,
		provider: provider,
		limits:   limits,
		ledger:   ledger,
		pricer:   pricer,
		logger:   logger,
	}
}

// Complete checks the token quota, delegates to the provider, and records usage.
// A failed ledger write is logged and does not fail the turn.
func (m *MeteredCompleter) Complete(
	ctx context.Context, accountID string, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return domain.CompletionResult{}, err
	}
	if len(req.Messages) == 0 {
		return domain.CompletionResult{}, domain.Validationf("messages are required")
	}
	if req.MaxTokens <= 0 {
		return domain.CompletionResult{}, domain.Validationf("maxTokens must be positive, got %d", req.MaxTokens)
	}

	d, err := m.limits.CheckTokenLimit(ctx, accountID, int64(req.MaxTokens))
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("check token limit: %w", err)
	}
	if !d.Allowed {
		metrics.LLMQuotaDenialsTotal.Inc()
		m.logger.Info("Completion denied by token quota",
			zap.String("account_id", accountID),
			zap.String("provider", m.provider),
			zap.String("reason", d.Reason),
		)
		return domain.CompletionResult{}, fmt.Errorf("%w: %s", domain.ErrQuotaExceeded, d.Reason)
	}

	start := time.Now()

	result, err := m.inner.Complete(ctx, req)

	duration := time.Since(start)

	if err != nil {
		m.logger.Error("Completion request failed",
			zap.String("account_id", accountID),
			zap.String("provider", m.provider),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	m.record(ctx, accountID, result)

	m.logger.Debug("Completion metered",
		zap.String("account_id", accountID),
		zap.String("provider", m.provider),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

func (m *MeteredCompleter) record(ctx context.Context, accountID string, result domain.CompletionResult) {
	if result.TotalTokens <= 0 {
		return
	}
	tokens := int64(result.TotalTokens)
	cost := m.pricer.Calculate(pricing.Usage{Provider: pricing.ProviderLLM, Tokens: tokens})

	if err := m.ledger.RecordUsage(ctx, accountID, usage.Delta{Tokens: tokens, Cost: cost}); err != nil {
		m.logger.Warn("Record completion usage failed",
			zap.String("account_id", accountID),
			zap.Int64("tokens", tokens),
			zap.Error(err),
		)
	}
}
