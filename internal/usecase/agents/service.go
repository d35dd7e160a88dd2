package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/decision"
)

// Service is the "create agent" caller flow: check the agent limit, then register.
type Service struct {
	limits   LimitChecker
	registry Registry
	logger   *zap.Logger
}

// New creates an agent provisioning service.
func New(limits LimitChecker, registry Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{limits: limits, registry: registry, logger: logger}
}

// Provision registers agentID when the account is below its agent limit.
// Re-provisioning an existing agent is a no-op once the check passes.
func (s *Service) Provision(ctx context.Context, accountID, agentID string) (decision.Agent, error) {
	if err := validate(accountID, agentID); err != nil {
		return decision.Agent{}, err
	}

	d, err := s.limits.CheckAgentLimit(ctx, accountID)
	if err != nil {
		return decision.Agent{}, fmt.Errorf("check agent limit: %w", err)
	}
	if !d.Allowed {
		s.logger.Info("Agent provisioning denied",
			zap.String("account_id", accountID),
			zap.String("agent_id", agentID),
			zap.String("reason", d.Reason),
		)
		return d, fmt.Errorf("%w: %s", domain.ErrQuotaExceeded, d.Reason)
	}

	added, err := s.registry.Register(ctx, accountID, agentID)
	if err != nil {
		return decision.Agent{}, fmt.Errorf("register agent: %w", err)
	}
	if added {
		d.CurrentCount++
		if !d.Limit.IsUnlimited() {
			d.Remaining--
		}
	}
	return d, nil
}

// Retire deregisters agentID. Returns false when it was not registered.
func (s *Service) Retire(ctx context.Context, accountID, agentID string) (bool, error) {
	if err := validate(accountID, agentID); err != nil {
		return false, err
	}
	removed, err := s.registry.Deregister(ctx, accountID, agentID)
	if err != nil {
		return false, fmt.Errorf("deregister agent: %w", err)
	}
	return removed, nil
}

func validate(accountID, agentID string) error {
	if err := domain.RequireAccountID(accountID); err != nil {
		return err
	}
	if agentID == "" {
		return domain.Validationf("agent id is required")
	}
	return nil
}
