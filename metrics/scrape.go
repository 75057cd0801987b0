package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScrapeRegistry implements Registry on top of a Prometheus registry.
type ScrapeRegistry struct {
	prom *prometheus.Registry
	reg  prometheus.Registerer
}

// ScrapeOption configures a ScrapeRegistry.
type ScrapeOption func(*ScrapeRegistry)

// WithPrefix prefixes every metric registered through the registry with
// prefix and an underscore. The Go and process collectors are not prefixed.
func WithPrefix(prefix string) ScrapeOption {
	return func(r *ScrapeRegistry) {
		if prefix != "" {
			r.reg = prometheus.WrapRegistererWithPrefix(prefix+"_", r.prom)
		}
	}
}

// NewScrapeRegistry creates a ScrapeRegistry with the standard Go and process
// collectors registered.
func NewScrapeRegistry(opts ...ScrapeOption) (*ScrapeRegistry, error) {
	prom := prometheus.NewRegistry()
	if err := prom.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("registering go collector: %w", err)
	}
	if err := prom.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("registering process collector: %w", err)
	}

	r := &ScrapeRegistry{prom: prom, reg: prom}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (r *ScrapeRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// PrometheusRegistry returns the underlying registry.
func (r *ScrapeRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prom
}

func (r *ScrapeRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	g := prometheus.NewGauge(opts)
	if err := r.reg.Register(g); err != nil {
		return nil, fmt.Errorf("registering gauge %q: %w", opts.Name, err)
	}
	return g, nil
}

func (r *ScrapeRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	g := prometheus.NewGaugeVec(opts, labels)
	if err := r.reg.Register(g); err != nil {
		return nil, fmt.Errorf("registering gauge vec %q: %w", opts.Name, err)
	}
	return gaugeVec{g}, nil
}

func (r *ScrapeRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	c := prometheus.NewCounter(opts)
	if err := r.reg.Register(c); err != nil {
		return nil, fmt.Errorf("registering counter %q: %w", opts.Name, err)
	}
	return c, nil
}

func (r *ScrapeRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	c := prometheus.NewCounterVec(opts, labels)
	if err := r.reg.Register(c); err != nil {
		return nil, fmt.Errorf("registering counter vec %q: %w", opts.Name, err)
	}
	return counterVec{c}, nil
}

// gaugeVec and counterVec narrow the return type of With.
type gaugeVec struct {
	*prometheus.GaugeVec
}

func (g gaugeVec) With(labels prometheus.Labels) Gauge {
	return g.GaugeVec.With(labels)
}

type counterVec struct {
	*prometheus.CounterVec
}

func (c counterVec) With(labels prometheus.Labels) Counter {
	return c.CounterVec.With(labels)
}
