package usage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Monthly sums a month of daily records.
type Monthly struct {
	Year        int
	Month       int
	TotalTokens int64
	TotalCalls  int64
	TotalCost   decimal.Decimal
}

// Stats sums an inclusive date range of daily records.
type Stats struct {
	Start          time.Time
	End            time.Time
	TotalTokens    int64
	TotalCalls     int64
	TotalCosts     decimal.Decimal
	DailyBreakdown []Record
}

// Totals sums tokens, calls and cost over records.
func Totals(records []Record) (tokens, calls int64, cost decimal.Decimal) {
	cost = decimal.Zero
	for _, r := range records {
		tokens += r.totalTokens
		calls += r.totalCalls
		cost = cost.Add(r.apiCost)
	}
	return tokens, calls, cost
}

// MonthBounds returns the first and last UTC day of a month.
func MonthBounds(year, month int) (first, last time.Time) {
	first = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(0, 1, -1)
	return first, last
}

// MaxStatsDays bounds the inclusive range a stats query may span.
const MaxStatsDays = 366

// SpanDays counts the UTC days in [from, to]. Zero when from is after to.
func SpanDays(from, to time.Time) int64 {
	from, to = Day(from), Day(to)
	if from.After(to) {
		return 0
	}
	return int64(to.Sub(from)/(24*time.Hour)) + 1
}

// Days lists every UTC day in [from, to]. Empty when from is after to.
func Days(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	if from.After(to) {
		return nil
	}
	days := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
