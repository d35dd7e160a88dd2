package account

import (
	"fmt"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
	"github.com/kailas-cloud/meterd/internal/domain/tier"
)

// Entitlement is the set of limits an account may consume (immutable value object).
type Entitlement struct {
	accountID         string
	maxAgents         limit.Limit
	monthlyTokenQuota limit.Limit
	tier              tier.Tier
	active            bool
}

// New validates and creates an Entitlement.
func New(accountID string, maxAgents, monthlyTokenQuota limit.Limit, t tier.Tier, active bool) (Entitlement, error) {
	if err := domain.RequireAccountID(accountID); err != nil {
		return Entitlement{}, err
	}
	t = tier.Normalize(string(t))
	if !t.IsValid() {
		return Entitlement{}, domain.Validationf("unknown subscription tier %q", t)
	}
	return Reconstruct(accountID, maxAgents, monthlyTokenQuota, t, active), nil
}

// Reconstruct restores an Entitlement from storage without validation.
// The tier is normalized so unknown stored tiers fall back to the most restrictive one.
func Reconstruct(accountID string, maxAgents, monthlyTokenQuota limit.Limit, t tier.Tier, active bool) Entitlement {
	return Entitlement{
		accountID:         accountID,
		maxAgents:         maxAgents,
		monthlyTokenQuota: monthlyTokenQuota,
		tier:              tier.Parse(string(t)),
		active:            active,
	}
}

// AccountID returns the account identifier.
func (e Entitlement) AccountID() string { return e.accountID }

// MaxAgents returns the agent ceiling.
func (e Entitlement) MaxAgents() limit.Limit { return e.maxAgents }

// MonthlyTokenQuota returns the monthly token ceiling.
func (e Entitlement) MonthlyTokenQuota() limit.Limit { return e.monthlyTokenQuota }

// Tier returns the subscription tier.
func (e Entitlement) Tier() tier.Tier { return e.tier }

// IsActive reports whether the account may consume anything.
func (e Entitlement) IsActive() bool { return e.active }

// DailyCallLimit derives the call ceiling from the tier.
func (e Entitlement) DailyCallLimit() limit.Limit { return e.tier.DailyCallLimit() }

// Patch is a partial entitlement update. Nil fields are left untouched.
type Patch struct {
	MaxAgents         *int64  `json:"maxAgents,omitempty"`
	MonthlyTokenQuota *int64  `json:"monthlyTokenQuota,omitempty"`
	SubscriptionTier  *string `json:"subscriptionTier,omitempty"`
	IsActive          *bool   `json:"isActive,omitempty"`
}

// IsEmpty reports whether the patch sets nothing.
func (p *Patch) IsEmpty() bool {
	return p == nil ||
		(p.MaxAgents == nil && p.MonthlyTokenQuota == nil && p.SubscriptionTier == nil && p.IsActive == nil)
}

// Validate checks numeric fields are >= 0 or the -1 sentinel and the tier is known.
func (p *Patch) Validate() error {
	if p.IsEmpty() {
		return domain.Validationf("patch must set at least one field")
	}
	if err := validateSentinel("maxAgents", p.MaxAgents); err != nil {
		return err
	}
	if err := validateSentinel("monthlyTokenQuota", p.MonthlyTokenQuota); err != nil {
		return err
	}
	if p.SubscriptionTier != nil && !tier.Normalize(*p.SubscriptionTier).IsValid() {
		return domain.Validationf("unknown subscription tier %q", *p.SubscriptionTier)
	}
	return nil
}

// Apply returns e with the patch fields applied. The patch must be valid.
func (p *Patch) Apply(e Entitlement) Entitlement {
	if p.MaxAgents != nil {
		e.maxAgents, _ = limit.FromSentinel(*p.MaxAgents)
	}
	if p.MonthlyTokenQuota != nil {
		e.monthlyTokenQuota, _ = limit.FromSentinel(*p.MonthlyTokenQuota)
	}
	if p.SubscriptionTier != nil {
		e.tier = tier.Parse(*p.SubscriptionTier)
	}
	if p.IsActive != nil {
		e.active = *p.IsActive
	}
	return e
}

func validateSentinel(field string, v *int64) error {
	if v == nil {
		return nil
	}
	if _, err := limit.FromSentinel(*v); err != nil {
		return domain.Validationf("%s: %s", field, err.Error())
	}
	return nil
}

// String renders the entitlement for logs.
func (e Entitlement) String() string {
	return fmt.Sprintf("account=%s tier=%s active=%t max_agents=%s monthly_tokens=%s",
		e.accountID, e.tier, e.active, e.maxAgents, e.monthlyTokenQuota)
}
