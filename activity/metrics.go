package activity

import (
	"github.com/nomis52/golaunch/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// runtimeMetrics is nil-safe so a Runtime without a registry records nothing.
type runtimeMetrics struct {
	launches metrics.CounterVec
	outcomes metrics.CounterVec
	active   metrics.Gauge
}

func newRuntimeMetrics(reg metrics.Registry) (*runtimeMetrics, error) {
	launches, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_launches_total",
		Help: "Activities launched, by intent.",
	}, []string{"intent"})
	if err != nil {
		return nil, err
	}

	outcomes, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "activity_outcomes_total",
		Help: "Terminal activity outcomes, by intent and status.",
	}, []string{"intent", "status"})
	if err != nil {
		return nil, err
	}

	active, err := reg.NewGauge(prometheus.GaugeOpts{
		Name: "activities_active",
		Help: "Activities launched and not yet terminal.",
	})
	if err != nil {
		return nil, err
	}

	return &runtimeMetrics{
		launches: launches,
		outcomes: outcomes,
		active:   active,
	}, nil
}

func (m *runtimeMetrics) launched(intent string, active int) {
	if m == nil {
		return
	}
	m.launches.With(prometheus.Labels{"intent": intent}).Inc()
	m.active.Set(float64(active))
}

func (m *runtimeMetrics) concluded(intent string, status Status, active int) {
	if m == nil {
		return
	}
	m.outcomes.With(prometheus.Labels{"intent": intent, "status": string(status)}).Inc()
	m.active.Set(float64(active))
}
