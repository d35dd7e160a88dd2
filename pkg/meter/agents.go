package meter

import (
	"context"
	"fmt"
	"time"
)

// ProvisionAgent registers an agent when the agent limit allows it.
// A denial returns ErrQuotaExceeded.
func (c *Client) ProvisionAgent(ctx context.Context, accountID, agentID string) (_ AgentDecision, err error) {
	start := time.Now()
	defer func() { c.obs.observe("provision_agent", start, err) }()

	d, err := c.agents.Provision(ctx, accountID, agentID)
	if err != nil {
		return AgentDecision{}, fmt.Errorf("provision agent: %w", err)
	}
	return d, nil
}

// RetireAgent deregisters an agent. Reports whether it was registered.
func (c *Client) RetireAgent(ctx context.Context, accountID, agentID string) (_ bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("retire_agent", start, err) }()

	removed, err := c.agents.Retire(ctx, accountID, agentID)
	if err != nil {
		return false, fmt.Errorf("retire agent: %w", err)
	}
	return removed, nil
}
