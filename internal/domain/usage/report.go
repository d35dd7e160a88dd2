package usage

import (
	"time"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/limit"
)

// Line is the used-vs-limit state of one resource.
type Line struct {
	resource domain.Resource
	used     int64
	limit    limit.Limit
}

// NewLine creates a report line.
func NewLine(resource domain.Resource, used int64, l limit.Limit) Line {
	return Line{resource: resource, used: used, limit: l}
}

// Resource returns the metered resource.
func (l Line) Resource() domain.Resource { return l.resource }

// Used returns the consumed amount in the resource's window.
func (l Line) Used() int64 { return l.used }

// Limit returns the ceiling.
func (l Line) Limit() limit.Limit { return l.limit }

// Remaining returns limit - used, or -1 when unlimited.
func (l Line) Remaining() int64 { return l.limit.Remaining(l.used) }

// Percentage returns used as a percentage of the ceiling.
func (l Line) Percentage() float64 { return limit.UsagePercentage(l.used, l.limit) }

// IsExhausted reports whether no further unit would be admitted.
func (l Line) IsExhausted() bool { return !l.limit.Admits(l.used) }

// Report is a point-in-time usage summary for one account.
type Report struct {
	accountID   string
	tier        string
	active      bool
	generatedAt time.Time
	lines       []Line
}

// NewReport creates a usage report.
func NewReport(accountID, tier string, active bool, generatedAt time.Time, lines ...Line) Report {
	return Report{
		accountID:   accountID,
		tier:        tier,
		active:      active,
		generatedAt: generatedAt,
		lines:       lines,
	}
}

// AccountID returns the reported account.
func (r *Report) AccountID() string { return r.accountID }

// Tier returns the subscription tier at report time.
func (r *Report) Tier() string { return r.tier }

// IsActive reports whether the account was active.
func (r *Report) IsActive() bool { return r.active }

// GeneratedAt returns when the report was built.
func (r *Report) GeneratedAt() time.Time { return r.generatedAt }

// Lines returns the per-resource lines.
func (r *Report) Lines() []Line { return r.lines }

// Line returns the line for a resource, if present.
func (r *Report) Line(res domain.Resource) (Line, bool) {
	for _, l := range r.lines {
		if l.resource == res {
			return l, true
		}
	}
	return Line{}, false
}
