package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the security pipeline.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	csrfFailures    prometheus.Counter
	rateLimitDenied prometheus.Counter
	cacheHits       prometheus.Counter
	sanitizedErrors *prometheus.CounterVec
	panicsRecovered prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// GetMetrics returns the process-wide pipeline metrics, registering the
// collectors on first use.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			requestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rpc_requests_total",
					Help: "Total number of RPC requests processed by the pipeline",
				},
				[]string{"procedure", "outcome"},
			),
			requestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "rpc_request_duration_seconds",
					Help:    "Duration of RPC requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"procedure"},
			),
			csrfFailures: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "rpc_csrf_failures_total",
					Help: "Total number of rejected CSRF tokens",
				},
			),
			rateLimitDenied: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "rpc_ratelimit_denied_total",
					Help: "Total number of rate limited RPC requests",
				},
			),
			cacheHits: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "rpc_conditional_cache_hits_total",
					Help: "Total number of 304 conditional cache hits",
				},
			),
			sanitizedErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rpc_sanitized_errors_total",
					Help: "Total number of sanitized handler errors by kind",
				},
				[]string{"kind"},
			),
			panicsRecovered: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "rpc_panics_recovered_total",
					Help: "Total number of panics recovered in the pipeline",
				},
			),
		}
	})
	return metricsInstance
}
