package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional dependency is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the usage store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentStore = "store"
	ComponentLLM   = "llm"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	store   StorePinger
	llm     ProviderChecker
	timeout time.Duration
}

// New creates a Service. llm can be nil when no provider is configured.
func New(store StorePinger, llm ProviderChecker) *Service {
	return &Service{store: store, llm: llm, timeout: DefaultCheckTimeout}
}

// Check pings all components concurrently. A failing store makes the report
// unhealthy; a failing LLM provider only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var storeErr, llmErr error
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		storeErr = s.store.Ping(ctx)
	}()
	if s.llm != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			llmErr = s.llm.HealthCheck(ctx)
		}()
	}
	wg.Wait()

	checks := map[string]CheckResult{ComponentStore: result(storeErr)}
	if s.llm != nil {
		checks[ComponentLLM] = result(llmErr)
	}

	status := Healthy
	switch {
	case storeErr != nil:
		status = Unhealthy
	case llmErr != nil:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
