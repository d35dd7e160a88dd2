// Package tier defines subscription tiers and their daily call ceilings.
package tier

import (
	"strings"

	"github.com/kailas-cloud/meterd/internal/domain/limit"
)

// Tier is a subscription tier.
type Tier string

// Known tiers, most restrictive first.
const (
	Free       Tier = "free"
	Pro        Tier = "pro"
	Enterprise Tier = "enterprise"
)

// Daily call ceilings per tier.
const (
	FreeDailyCalls int64 = 100
	ProDailyCalls  int64 = 1000
)

// All lists the known tiers.
func All() []Tier { return []Tier{Free, Pro, Enterprise} }

// IsValid reports whether t is a known tier.
func (t Tier) IsValid() bool {
	switch t {
	case Free, Pro, Enterprise:
		return true
	}
	return false
}

// Normalize folds case and surrounding whitespace without validating.
func Normalize(s string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(s)))
}

// Parse normalizes a stored tier value. Unknown or empty values fall back to Free.
func Parse(s string) Tier {
	t := Normalize(s)
	if !t.IsValid() {
		return Free
	}
	return t
}

// DailyCallLimit returns the call ceiling for the tier.
// Unknown tiers get the most restrictive ceiling.
func (t Tier) DailyCallLimit() limit.Limit {
	switch t {
	case Enterprise:
		return limit.Unlimited()
	case Pro:
		return limit.Limited(ProDailyCalls)
	case Free:
		return limit.Limited(FreeDailyCalls)
	default:
		return limit.Limited(FreeDailyCalls)
	}
}
