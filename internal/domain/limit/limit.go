// Package limit models a resource ceiling that is either a finite count or unlimited.
// The -1 sentinel exists only at storage and wire boundaries.
package limit

import (
	"encoding/json"
	"fmt"
	"math"
)

// Sentinel is the boundary encoding of an unlimited ceiling.
const Sentinel int64 = -1

// Limit is either Limited(n) with n >= 0 or Unlimited.
type Limit struct {
	n         int64
	unlimited bool
}

// Unlimited returns a ceiling that never denies.
func Unlimited() Limit { return Limit{unlimited: true} }

// Limited returns a finite ceiling. Negative n is clamped to zero.
func Limited(n int64) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{n: n}
}

// FromSentinel decodes a boundary value: -1 is unlimited, n >= 0 is limited.
// Any other negative value is rejected.
func FromSentinel(v int64) (Limit, error) {
	switch {
	case v == Sentinel:
		return Unlimited(), nil
	case v < 0:
		return Limit{}, fmt.Errorf("limit must be >= 0 or %d, got %d", Sentinel, v)
	default:
		return Limited(v), nil
	}
}

// IsUnlimited reports whether the ceiling is unlimited.
func (l Limit) IsUnlimited() bool { return l.unlimited }

// Value returns the finite ceiling. Zero for unlimited.
func (l Limit) Value() int64 { return l.n }

// Sentinel encodes the limit for storage or the wire.
func (l Limit) Sentinel() int64 {
	if l.unlimited {
		return Sentinel
	}
	return l.n
}

// Remaining returns limit - used, which may be negative; -1 when unlimited.
func (l Limit) Remaining(used int64) int64 {
	if l.unlimited {
		return Sentinel
	}
	return l.n - used
}

// Admits reports whether one more unit fits when used units are already counted.
func (l Limit) Admits(used int64) bool {
	return l.unlimited || used < l.n
}

// Fits reports whether used+requested stays within the ceiling.
func (l Limit) Fits(used, requested int64) bool {
	return l.unlimited || used+requested <= l.n
}

// String renders the limit for logs and details.
func (l Limit) String() string {
	if l.unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", l.n)
}

// MarshalJSON encodes the limit as its sentinel integer.
func (l Limit) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Sentinel())
}

// UnmarshalJSON decodes a sentinel integer.
func (l *Limit) UnmarshalJSON(data []byte) error {
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode limit: %w", err)
	}
	parsed, err := FromSentinel(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// UsagePercentage returns used as a percentage of the limit, rounded to one decimal.
// Unlimited yields 0. A zero ceiling yields 0 when unused and +Inf otherwise.
func UsagePercentage(used int64, l Limit) float64 {
	if l.unlimited {
		return 0
	}
	if l.n == 0 {
		if used <= 0 {
			return 0
		}
		return math.Inf(1)
	}
	pct := float64(used) / float64(l.n) * 100
	return math.Round(pct*10) / 10
}
