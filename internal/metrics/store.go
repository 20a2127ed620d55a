package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vector store Prometheus metrics.
var (
	StoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragstore",
			Name:      "store_requests_total",
			Help:      "Total number of vector store operations",
		},
		[]string{"backend", "op", "status"},
	)

	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragstore",
			Name:      "store_request_duration_seconds",
			Help:      "Vector store operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend", "op"},
	)
)

var storeMetricsRegistered bool

// RegisterStoreMetrics registers Prometheus store metrics. Must be called once from main.
func RegisterStoreMetrics() {
	if storeMetricsRegistered {
		return
	}
	prometheus.MustRegister(StoreRequestsTotal)
	prometheus.MustRegister(StoreRequestDuration)
	storeMetricsRegistered = true
}

// ObserveStoreOp records one store operation outcome.
func ObserveStoreOp(backend, op string, seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreRequestsTotal.WithLabelValues(backend, op, status).Inc()
	StoreRequestDuration.WithLabelValues(backend, op).Observe(seconds)
}
