package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the gateway's platform-level metrics.
type Metrics struct {
	// HTTP surface
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge

	// Backend health
	ServiceUp *prometheus.GaugeVec

	// Passthrough and reload activity
	DBQueryDuration     *prometheus.HistogramVec
	CacheOpDuration     *prometheus.HistogramVec
	ReloadsTotal        *prometheus.CounterVec
	ReloadFailuresTotal *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all gateway metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "forge",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "forge",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "forge",
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),

		ServiceUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "forge",
				Subsystem: "service",
				Name:      "up",
				Help:      "Backend service health (0=unhealthy, 1=healthy)",
			},
			[]string{"service"},
		),

		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "forge",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "Database query latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		CacheOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "forge",
				Subsystem: "cache",
				Name:      "operation_duration_seconds",
				Help:      "Cache operation latency in seconds",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"operation"},
		),

		ReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "forge",
				Subsystem: "reload",
				Name:      "total",
				Help:      "Total number of config reloads attempted",
			},
			[]string{"kind"},
		),

		ReloadFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "forge",
				Subsystem: "reload",
				Name:      "failures_total",
				Help:      "Total number of config reloads whose signal step failed",
			},
			[]string{"kind"},
		),
	}
}

// RecordHTTPRequest records a finished HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordServiceUp sets the health gauge for a backend service.
func (m *Metrics) RecordServiceUp(service string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	m.ServiceUp.WithLabelValues(service).Set(v)
}

// RecordDBQuery records one database operation's latency.
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheOp records one cache operation's latency.
func (m *Metrics) RecordCacheOp(operation string, duration time.Duration) {
	m.CacheOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordReload records a reload attempt and whether its signal succeeded.
func (m *Metrics) RecordReload(kind string, signalOK bool) {
	m.ReloadsTotal.WithLabelValues(kind).Inc()
	if !signalOK {
		m.ReloadFailuresTotal.WithLabelValues(kind).Inc()
	}
}
