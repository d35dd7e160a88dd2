package usage

import "github.com/shopspring/decimal"

// Delta is one consumption event to add to a daily record.
type Delta struct {
	Tokens          int64
	Calls           int64
	DurationSeconds int64
	Cost            decimal.Decimal
}

// IsEmpty reports whether every field is zero or absent.
func (d Delta) IsEmpty() bool {
	return d.Tokens == 0 && d.Calls == 0 && d.DurationSeconds == 0 && d.Cost.IsZero()
}

// Clamp forces negative fields to zero.
func (d Delta) Clamp() Delta {
	return Delta{
		Tokens:          max(d.Tokens, 0),
		Calls:           max(d.Calls, 0),
		DurationSeconds: max(d.DurationSeconds, 0),
		Cost:            decimal.Max(d.Cost, decimal.Zero),
	}
}

// Add returns r with the clamped delta applied. Used by in-memory stores and tests.
func (r Record) Add(d Delta) Record {
	c := d.Clamp()
	r.totalTokens += c.Tokens
	r.totalCalls += c.Calls
	r.totalDurationSeconds += c.DurationSeconds
	r.apiCost = r.apiCost.Add(c.Cost)
	return r
}
