package meter

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/meterd/internal/domain/account"
)

// CreateAccount stores an entitlement, replacing any existing one.
func (c *Client) CreateAccount(ctx context.Context, a Account) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("create_account", start, err) }()

	e, err := account.New(a.ID, a.MaxAgents, a.MonthlyTokenQuota, a.Tier, a.Active)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if err = c.admin.CreateAccount(ctx, e); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetUserLimits returns the account's limits and its tier's daily call ceiling.
func (c *Client) GetUserLimits(ctx context.Context, accountID string) (_ Limits, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_user_limits", start, err) }()

	l, err := c.admin.GetUserLimits(ctx, accountID)
	if err != nil {
		return Limits{}, fmt.Errorf("get user limits: %w", err)
	}
	return l, nil
}

// UpdateUserLimits persists the supplied patch fields only.
func (c *Client) UpdateUserLimits(ctx context.Context, accountID string, p *LimitsPatch) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("update_user_limits", start, err) }()

	if err = c.admin.UpdateUserLimits(ctx, accountID, p); err != nil {
		return fmt.Errorf("update user limits: %w", err)
	}
	return nil
}
