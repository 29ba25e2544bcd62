package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	invokeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raftify",
			Subsystem: "adapter",
			Name:      "invokes_total",
			Help:      "Total binding adapter invocations.",
		},
		[]string{"method", "outcome"},
	)
	invokeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "raftify",
			Subsystem: "adapter",
			Name:      "invoke_duration_seconds",
			Help:      "Binding adapter invocation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "outcome"},
	)
	vectorResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raftify",
			Subsystem: "harness",
			Name:      "vector_results_total",
			Help:      "Conformance vector results by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(invokeRequests, invokeDuration, vectorResults)
	})
}

func RecordInvoke(method, outcome string, duration time.Duration) {
	RegisterMetrics()
	invokeRequests.WithLabelValues(method, outcome).Inc()
	invokeDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

func RecordVectorResult(tier, outcome string) {
	RegisterMetrics()
	vectorResults.WithLabelValues(tier, outcome).Inc()
}
