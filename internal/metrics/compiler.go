package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query compiler Prometheus metrics.
var (
	TransformsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finquery",
			Name:      "transforms_total",
			Help:      "Total number of transform calls by outcome",
		},
		[]string{"outcome"}, // "answer" / "search" / "fallback" / "rejected"
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finquery",
			Name:      "provider_requests_total",
			Help:      "Total number of model provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finquery",
			Name:      "provider_request_duration_seconds",
			Help:      "Model provider request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	TransformCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finquery",
			Name:      "transform_cache_total",
			Help:      "Transform cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var compilerMetricsRegistered bool

// RegisterCompilerMetrics registers compiler metrics. Must be called once from main.
func RegisterCompilerMetrics() {
	if compilerMetricsRegistered {
		return
	}
	prometheus.MustRegister(TransformsTotal)
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(TransformCacheTotal)
	compilerMetricsRegistered = true
}
