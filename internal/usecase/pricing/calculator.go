// Package pricing estimates the monetary cost of raw usage from a per-provider table.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider identifies a billable upstream service.
type Provider string

const (
	ProviderLLM       Provider = "llm-inference"
	ProviderSpeech    Provider = "speech"
	ProviderTelephony Provider = "telephony"
)

// Default unit prices.
const (
	DefaultPerToken  = "0.0000001"
	DefaultPerSecond = "0.0001"
	DefaultPerMinute = "0.013"
	DefaultPerCall   = "0.005"
)

var sixty = decimal.NewFromInt(60)

// Pricing is the unit price table.
type Pricing struct {
	PerToken  decimal.Decimal
	PerSecond decimal.Decimal
	PerMinute decimal.Decimal
	PerCall   decimal.Decimal
}

// DefaultPricing returns the built-in price table.
func DefaultPricing() Pricing {
	return Pricing{
		PerToken:  decimal.RequireFromString(DefaultPerToken),
		PerSecond: decimal.RequireFromString(DefaultPerSecond),
		PerMinute: decimal.RequireFromString(DefaultPerMinute),
		PerCall:   decimal.RequireFromString(DefaultPerCall),
	}
}

// Parse builds a table from decimal strings. Empty strings keep the default price.
func Parse(perToken, perSecond, perMinute, perCall string) (Pricing, error) {
	p := DefaultPricing()
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"per_token", perToken, &p.PerToken},
		{"per_second", perSecond, &p.PerSecond},
		{"per_minute", perMinute, &p.PerMinute},
		{"per_call", perCall, &p.PerCall},
	} {
		if f.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Pricing{}, fmt.Errorf("pricing.%s: %w", f.name, err)
		}
		if v.IsNegative() {
			return Pricing{}, fmt.Errorf("pricing.%s must be >= 0, got %s", f.name, f.raw)
		}
		*f.dst = v
	}
	return p, nil
}

// Usage is one raw consumption sample to price.
type Usage struct {
	Provider        Provider `json:"provider"`
	Tokens          int64    `json:"tokens,omitempty"`
	DurationSeconds int64    `json:"durationSeconds,omitempty"`
	Calls           int64    `json:"calls,omitempty"`
}

// Calculator prices usage. It is pure and safe for concurrent use.
type Calculator struct {
	pricing Pricing
}

// New creates a Calculator over a price table.
func New(p Pricing) *Calculator {
	return &Calculator{pricing: p}
}

// Pricing returns the active price table.
func (c *Calculator) Pricing() Pricing { return c.pricing }

// Calculate returns the cost of u. Unknown providers cost nothing; negative
// quantities count as zero.
func (c *Calculator) Calculate(u Usage) decimal.Decimal {
	tokens := decimal.NewFromInt(max(u.Tokens, 0))
	seconds := max(u.DurationSeconds, 0)
	calls := decimal.NewFromInt(max(u.Calls, 0))

	switch u.Provider {
	case ProviderLLM:
		return tokens.Mul(c.pricing.PerToken)
	case ProviderSpeech:
		return decimal.NewFromInt(seconds).Mul(c.pricing.PerSecond)
	case ProviderTelephony:
		minutes := decimal.NewFromInt(seconds).Div(sixty).Ceil()
		return minutes.Mul(c.pricing.PerMinute).Add(calls.Mul(c.pricing.PerCall))
	default:
		return decimal.Zero
	}
}
