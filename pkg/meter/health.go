package meter

import (
	"context"

	healthuc "github.com/kailas-cloud/meterd/internal/usecase/health"
)

// HealthStatus is the aggregated health of the usage store and, when
// configured, the LLM provider.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded" or "error"
	Checks map[string]string `json:"checks"` // component -> "ok" or "error"
}

// Serving reports whether limit checks and recording can run. A degraded
// provider does not stop metering.
func (h HealthStatus) Serving() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// Health checks every component concurrently.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	h := HealthStatus{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}
	return h
}
