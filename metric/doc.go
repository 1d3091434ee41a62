// Package metric provides Prometheus-based metrics collection for the
// gateway.
//
// A private Registry owns the prometheus.Registry so tests and multiple
// gateway instances never collide on the global default registry. Core
// gateway metrics (HTTP request counts and latencies, backend health
// gauges, passthrough latencies, reload outcomes) are registered at
// construction; components may add their own collectors through
// Register.
//
// Expose the metrics over HTTP with Handler:
//
//	registry := metric.NewRegistry()
//	mux.Handle("/metrics", registry.Handler())
package metric
