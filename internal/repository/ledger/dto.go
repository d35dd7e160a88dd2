package ledger

import (
	"strconv"
	"time"

	"github.com/kailas-cloud/meterd/internal/domain"
	"github.com/kailas-cloud/meterd/internal/domain/usage"
)

const (
	fieldTokens    = "total_tokens"
	fieldCalls     = "total_calls"
	fieldDuration  = "total_duration_seconds"
	fieldCostNanos = "api_cost_nanos"
	fieldUpdatedAt = "updated_at"
)

// deltaToIncr converts a clamped delta into per-field HINCRBY amounts.
// Zero fields are left out so the script touches only what changed.
func deltaToIncr(d usage.Delta) map[string]int64 {
	out := make(map[string]int64, 4)
	if d.Tokens > 0 {
		out[fieldTokens] = d.Tokens
	}
	if d.Calls > 0 {
		out[fieldCalls] = d.Calls
	}
	if d.DurationSeconds > 0 {
		out[fieldDuration] = d.DurationSeconds
	}
	if nanos := usage.CostToNanos(d.Cost); nanos > 0 {
		out[fieldCostNanos] = nanos
	}
	return out
}

// recordFromHash hydrates a daily record. Absent counters read as zero.
func recordFromHash(accountID string, day time.Time, m map[string]string) (usage.Record, error) {
	var vals [5]int64
	for i, f := range []string{fieldTokens, fieldCalls, fieldDuration, fieldCostNanos, fieldUpdatedAt} {
		raw, ok := m[f]
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return usage.Record{}, domain.NewDataIntegrityError(f, raw, err)
		}
		vals[i] = v
	}

	var updatedAt time.Time
	if vals[4] > 0 {
		updatedAt = time.UnixMilli(vals[4]).UTC()
	}
	return usage.Reconstruct(accountID, day, vals[0], vals[1], vals[2], usage.CostFromNanos(vals[3]), updatedAt), nil
}
