package meter

import (
	"context"
	"fmt"
	"time"
)

// CheckAgentLimit reports whether one more agent may be created.
func (c *Client) CheckAgentLimit(ctx context.Context, accountID string) (_ AgentDecision, err error) {
	start := time.Now()
	defer func() { c.obs.observe("check_agent_limit", start, err) }()

	d, err := c.limits.CheckAgentLimit(ctx, accountID)
	if err != nil {
		return AgentDecision{}, fmt.Errorf("check agent limit: %w", err)
	}
	return d, nil
}

// CheckTokenLimit reports whether requested tokens fit in this month's quota.
func (c *Client) CheckTokenLimit(ctx context.Context, accountID string, requested int64) (_ TokenDecision, err error) {
	start := time.Now()
	defer func() { c.obs.observe("check_token_limit", start, err) }()

	d, err := c.limits.CheckTokenLimit(ctx, accountID, requested)
	if err != nil {
		return TokenDecision{}, fmt.Errorf("check token limit: %w", err)
	}
	return d, nil
}

// CheckCallLimit reports whether one more call fits in today's tier ceiling.
func (c *Client) CheckCallLimit(ctx context.Context, accountID string) (_ CallDecision, err error) {
	start := time.Now()
	defer func() { c.obs.observe("check_call_limit", start, err) }()

	d, err := c.limits.CheckCallLimit(ctx, accountID)
	if err != nil {
		return CallDecision{}, fmt.Errorf("check call limit: %w", err)
	}
	return d, nil
}

// EnforceUserLimits runs the requested checks in order agents, tokens, calls.
func (c *Client) EnforceUserLimits(ctx context.Context, accountID string, opts *EnforceOptions) (_ EnforceResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("enforce_user_limits", start, err) }()

	res, err := c.limits.EnforceUserLimits(ctx, accountID, opts)
	if err != nil {
		return EnforceResult{}, fmt.Errorf("enforce user limits: %w", err)
	}
	return res, nil
}
