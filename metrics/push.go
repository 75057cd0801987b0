package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
)

// DefaultTimeout bounds a single remote write request.
const DefaultTimeout = 30 * time.Second

// PushConfig configures a PushRegistry.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint, e.g. "http://localhost:8428".
	URL string
	// Prefix is prepended to every metric name, followed by an underscore.
	Prefix string
	// Job and Instance become labels on every sample.
	Job      string
	Instance string
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
	// Logger receives push failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// PushRegistry implements Registry by sending each update to a Prometheus
// remote write endpoint. A failed push is logged and otherwise ignored.
type PushRegistry struct {
	pusher *pusher
}

// NewPushRegistry creates a PushRegistry for cfg.
func NewPushRegistry(cfg PushConfig) *PushRegistry {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PushRegistry{pusher: &pusher{
		url:        strings.TrimSuffix(cfg.URL, "/") + "/api/v1/write",
		httpClient: &http.Client{Timeout: timeout},
		prefix:     cfg.Prefix,
		job:        cfg.Job,
		instance:   cfg.Instance,
		timeout:    timeout,
		logger:     logger.With("component", "metrics_push"),
	}}
}

func (r *PushRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	return &pushGauge{pusher: r.pusher, name: opts.Name}, nil
}

func (r *PushRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) (GaugeVec, error) {
	return &pushGaugeVec{pusher: r.pusher, name: opts.Name, labels: labels}, nil
}

func (r *PushRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	return &pushCounter{pusher: r.pusher, name: opts.Name}, nil
}

func (r *PushRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) (CounterVec, error) {
	return &pushCounterVec{pusher: r.pusher, name: opts.Name, labels: labels}, nil
}

type pusher struct {
	url        string
	httpClient *http.Client
	prefix     string
	job        string
	instance   string
	timeout    time.Duration
	logger     *slog.Logger
}

func (p *pusher) send(name string, value float64, labels map[string]string) {
	if err := p.push(name, value, labels); err != nil {
		p.logger.Warn("failed to push metric", "metric", name, "error", err)
	}
}

func (p *pusher) push(name string, value float64, labels map[string]string) error {
	req := &prompb.WriteRequest{
		Timeseries: []prompb.TimeSeries{p.timeSeries(name, value, labels)},
	}

	data, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(snappy.Encode(nil, data)))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (p *pusher) timeSeries(name string, value float64, labels map[string]string) prompb.TimeSeries {
	if p.prefix != "" {
		name = p.prefix + "_" + name
	}

	promLabels := make([]prompb.Label, 0, len(labels)+3)
	promLabels = append(promLabels, prompb.Label{Name: "__name__", Value: name})
	if p.job != "" {
		promLabels = append(promLabels, prompb.Label{Name: "job", Value: p.job})
	}
	if p.instance != "" {
		promLabels = append(promLabels, prompb.Label{Name: "instance", Value: p.instance})
	}
	for _, k := range sortedKeys(labels) {
		promLabels = append(promLabels, prompb.Label{Name: k, Value: labels[k]})
	}

	return prompb.TimeSeries{
		Labels:  promLabels,
		Samples: []prompb.Sample{{Value: value, Timestamp: time.Now().UnixMilli()}},
	}
}

type pushGauge struct {
	pusher *pusher
	name   string
	labels map[string]string
}

func (g *pushGauge) Set(v float64) {
	g.pusher.send(g.name, v, g.labels)
}

type pushGaugeVec struct {
	pusher *pusher
	name   string
	labels []string
}

func (g *pushGaugeVec) With(labels prometheus.Labels) Gauge {
	return &pushGauge{pusher: g.pusher, name: g.name, labels: labels}
}

// pushCounter keeps its running total locally and pushes the total.
type pushCounter struct {
	mu     sync.Mutex
	pusher *pusher
	name   string
	labels map[string]string
	value  float64
}

func (c *pushCounter) Inc() {
	c.Add(1)
}

func (c *pushCounter) Add(v float64) {
	if v < 0 {
		panic("counter cannot decrease in value")
	}
	c.mu.Lock()
	c.value += v
	value := c.value
	c.mu.Unlock()
	c.pusher.send(c.name, value, c.labels)
}

type pushCounterVec struct {
	mu       sync.Mutex
	pusher   *pusher
	name     string
	labels   []string
	counters map[string]*pushCounter
}

func (c *pushCounterVec) With(labels prometheus.Labels) Counter {
	key := labelsKey(labels)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counters == nil {
		c.counters = make(map[string]*pushCounter)
	}
	if counter, ok := c.counters[key]; ok {
		return counter
	}
	counter := &pushCounter{pusher: c.pusher, name: c.name, labels: labels}
	c.counters[key] = counter
	return counter
}

func labelsKey(labels prometheus.Labels) string {
	var b strings.Builder
	for _, k := range sortedKeys(labels) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte(',')
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
