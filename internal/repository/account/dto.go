package account

import (
	"strconv"

	"github.com/kailas-cloud/meterd/internal/domain"
	domacc "github.com/kailas-cloud/meterd/internal/domain/account"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
	"github.com/kailas-cloud/meterd/internal/domain/tier"
)

// Stored field names, shared by every backend that persists entitlements as strings.
const (
	FieldMaxAgents         = "max_agents"
	FieldMonthlyTokenQuota = "monthly_token_quota"
	FieldSubscriptionTier  = "subscription_tier"
	FieldIsActive          = "is_active"
)

// ToFields converts an entitlement to its stored string form.
func ToFields(e domacc.Entitlement) map[string]string {
	return map[string]string{
		FieldMaxAgents:         strconv.FormatInt(e.MaxAgents().Sentinel(), 10),
		FieldMonthlyTokenQuota: strconv.FormatInt(e.MonthlyTokenQuota().Sentinel(), 10),
		FieldSubscriptionTier:  string(e.Tier()),
		FieldIsActive:          strconv.FormatBool(e.IsActive()),
	}
}

// PatchToFields returns only the fields a patch supplies.
func PatchToFields(p *domacc.Patch) map[string]string {
	out := make(map[string]string, 4)
	if p.MaxAgents != nil {
		out[FieldMaxAgents] = strconv.FormatInt(*p.MaxAgents, 10)
	}
	if p.MonthlyTokenQuota != nil {
		out[FieldMonthlyTokenQuota] = strconv.FormatInt(*p.MonthlyTokenQuota, 10)
	}
	if p.SubscriptionTier != nil {
		out[FieldSubscriptionTier] = string(tier.Parse(*p.SubscriptionTier))
	}
	if p.IsActive != nil {
		out[FieldIsActive] = strconv.FormatBool(*p.IsActive)
	}
	return out
}

// FromFields hydrates an entitlement. Numeric and boolean fields must be present
// and well-formed; the tier falls back to free when missing or unknown.
func FromFields(accountID string, m map[string]string) (domacc.Entitlement, error) {
	maxAgents, err := parseLimit(FieldMaxAgents, m)
	if err != nil {
		return domacc.Entitlement{}, err
	}
	quota, err := parseLimit(FieldMonthlyTokenQuota, m)
	if err != nil {
		return domacc.Entitlement{}, err
	}

	raw, ok := m[FieldIsActive]
	if !ok {
		return domacc.Entitlement{}, domain.NewDataIntegrityError(FieldIsActive, "", nil)
	}
	active, err := strconv.ParseBool(raw)
	if err != nil {
		return domacc.Entitlement{}, domain.NewDataIntegrityError(FieldIsActive, raw, err)
	}

	return domacc.Reconstruct(accountID, maxAgents, quota, tier.Parse(m[FieldSubscriptionTier]), active), nil
}

func parseLimit(field string, m map[string]string) (limit.Limit, error) {
	raw, ok := m[field]
	if !ok {
		return limit.Limit{}, domain.NewDataIntegrityError(field, "", nil)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return limit.Limit{}, domain.NewDataIntegrityError(field, raw, err)
	}
	l, err := limit.FromSentinel(v)
	if err != nil {
		return limit.Limit{}, domain.NewDataIntegrityError(field, raw, err)
	}
	return l, nil
}
