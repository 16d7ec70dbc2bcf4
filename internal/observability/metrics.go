package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "surfsup"

// Metrics holds the Prometheus collectors for the HTTP API and dataset access.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec   // labels: route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: route
	QueryErrors         *prometheus.CounterVec   // labels: operation
	DatasetBounds       *prometheus.GaugeVec     // labels: bound={oldest,latest}; value is unix seconds
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route"}),
		QueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Failed dataset queries by operation.",
		}, []string{"operation"}),
		DatasetBounds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_bound_timestamp_seconds",
			Help:      "Oldest and latest measurement dates as unix timestamps.",
		}, []string{"bound"}),
	}
}

// NewMetrics creates all collectors and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.QueryErrors,
		m.DatasetBounds,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build as
// many instances as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// QueryFailed counts a failed dataset query. Safe on a nil receiver.
func (m *Metrics) QueryFailed(operation string) {
	if m == nil {
		return
	}
	m.QueryErrors.WithLabelValues(operation).Inc()
}

// SetDatasetBounds records the oldest and latest measurement dates as unix seconds.
func (m *Metrics) SetDatasetBounds(oldest, latest int64) {
	if m == nil {
		return
	}
	m.DatasetBounds.WithLabelValues("oldest").Set(float64(oldest))
	m.DatasetBounds.WithLabelValues("latest").Set(float64(latest))
}
