package agents

import (
	"context"

	"github.com/kailas-cloud/meterd/internal/domain/decision"
)

// LimitChecker decides whether one more agent is allowed.
type LimitChecker interface {
	CheckAgentLimit(ctx context.Context, accountID string) (decision.Agent, error)
}

// Registry registers and deregisters agents in the agent directory.
type Registry interface {
	Register(ctx context.Context, accountID, agentID string) (bool, error)
	Deregister(ctx context.Context, accountID, agentID string) (bool, error)
}
