package usage

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used in keys and on the wire.
const DateLayout = "2006-01-02"

// CostScale is the number of decimal places persisted for monetary amounts.
const CostScale int32 = 9

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// CostToNanos converts a monetary amount to integer nano-units, rounding half away from zero.
func CostToNanos(d decimal.Decimal) int64 {
	return d.Shift(CostScale).Round(0).IntPart()
}

// CostFromNanos converts integer nano-units back to a decimal amount.
func CostFromNanos(n int64) decimal.Decimal {
	return decimal.New(n, -CostScale)
}

// Record is the durable aggregate of one account's consumption for one UTC day.
type Record struct {
	accountID            string
	date                 time.Time
	totalTokens          int64
	totalCalls           int64
	totalDurationSeconds int64
	apiCost              decimal.Decimal
	updatedAt            time.Time
}

// Empty returns the zero-usage record for an account and day.
func Empty(accountID string, date time.Time) Record {
	return Record{accountID: accountID, date: Day(date), apiCost: decimal.Zero}
}

// Reconstruct restores a Record from storage.
func Reconstruct(
	accountID string, date time.Time,
	tokens, calls, durationSeconds int64,
	cost decimal.Decimal, updatedAt time.Time,
) Record {
	return Record{
		accountID:            accountID,
		date:                 Day(date),
		totalTokens:          tokens,
		totalCalls:           calls,
		totalDurationSeconds: durationSeconds,
		apiCost:              cost,
		updatedAt:            updatedAt,
	}
}

// AccountID returns the owning account.
func (r Record) AccountID() string { return r.accountID }

// Date returns the UTC calendar day.
func (r Record) Date() time.Time { return r.date }

// TotalTokens returns tokens consumed that day.
func (r Record) TotalTokens() int64 { return r.totalTokens }

// TotalCalls returns calls placed that day.
func (r Record) TotalCalls() int64 { return r.totalCalls }

// TotalDurationSeconds returns call seconds that day.
func (r Record) TotalDurationSeconds() int64 { return r.totalDurationSeconds }

// APICost returns the estimated cost accumulated that day.
func (r Record) APICost() decimal.Decimal { return r.apiCost }

// UpdatedAt returns the last write time. Zero for an empty record.
func (r Record) UpdatedAt() time.Time { return r.updatedAt }

// IsZero reports whether nothing was recorded.
func (r Record) IsZero() bool {
	return r.totalTokens == 0 && r.totalCalls == 0 && r.totalDurationSeconds == 0 &&
		r.apiCost.IsZero() && r.updatedAt.IsZero()
}
