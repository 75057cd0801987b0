// Package metrics records activity runtime metrics in a Prometheus-compatible form.
//
// Two registries implement the same interfaces:
//   - ScrapeRegistry (serve): metrics live in a Prometheus registry exposed on /metrics
//   - PushRegistry (run): every update is sent to a remote write endpoint such as VictoriaMetrics
//
// Callers depend on Registry and never on a concrete implementation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gauge is a value that can go up and down.
type Gauge interface {
	Set(float64)
}

// Counter only increases.
type Counter interface {
	Inc()
	// Add panics if v is negative.
	Add(v float64)
}

// GaugeVec is a Gauge partitioned by labels.
type GaugeVec interface {
	With(prometheus.Labels) Gauge
}

// CounterVec is a Counter partitioned by labels.
type CounterVec interface {
	With(prometheus.Labels) Counter
}

// Registry creates and registers metrics.
type Registry interface {
	NewGauge(opts prometheus.GaugeOpts) (Gauge, error)
	NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error)
	NewCounter(opts prometheus.CounterOpts) (Counter, error)
	NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error)
}
