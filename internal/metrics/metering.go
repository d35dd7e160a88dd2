package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metering Prometheus metrics.
var (
	UsageRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meterd",
			Name:      "usage_recorded_total",
			Help:      "Total units of usage recorded into the ledger",
		},
		[]string{"resource"}, // "tokens" / "calls" / "duration_seconds"
	)

	UsageCostNanosTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meterd",
			Name:      "usage_cost_nanos_total",
			Help:      "Total recorded API cost in nano-units",
		},
	)

	UsageRecordErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meterd",
			Name:      "usage_record_errors_total",
			Help:      "Total failed ledger writes",
		},
	)

	LimitDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meterd",
			Name:      "limit_decisions_total",
			Help:      "Limit evaluator decisions",
		},
		[]string{"resource", "result"}, // result: "allowed" / "denied"
	)
)

var meteringMetricsRegistered bool

// RegisterMeteringMetrics registers Prometheus metering metrics. Must be called once from main.
func RegisterMeteringMetrics() {
	if meteringMetricsRegistered {
		return
	}
	prometheus.MustRegister(MeteringCollectors()...)
	meteringMetricsRegistered = true
}

// MeteringCollectors lists the metering metrics for registration on a custom registry.
func MeteringCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		UsageRecordedTotal,
		UsageCostNanosTotal,
		UsageRecordErrorsTotal,
		LimitDecisionsTotal,
	}
}

// DecisionResult maps an allow flag to the result label.
func DecisionResult(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
