package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics maps the Metrics key space onto Prometheus collectors. Keys
// passed to Add become counters, keys passed to Store become gauges; both
// are created lazily and registered on the provided registry.
type PromMetrics struct {
	registry  *prometheus.Registry
	namespace string

	mu       sync.Mutex
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
}

// NewPromMetrics builds a Metrics implementation backed by the registry.
func NewPromMetrics(registry *prometheus.Registry, namespace string) *PromMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &PromMetrics{
		registry:  registry,
		namespace: namespace,
		counters:  make(map[string]prometheus.Counter),
		gauges:    make(map[string]prometheus.Gauge),
	}
}

// Registry exposes the backing registry for the /metrics handler.
func (m *PromMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PromMetrics) Add(key string, delta uint64) {
	if m == nil || key == "" {
		return
	}
	m.counter(key).Add(float64(delta))
}

func (m *PromMetrics) Store(key string, value uint64) {
	if m == nil || key == "" {
		return
	}
	m.gauge(key).Set(float64(value))
}

func (m *PromMetrics) counter(key string) prometheus.Counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[key]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      sanitizeMetricName(key) + "_total",
	})
	m.registry.MustRegister(c)
	m.counters[key] = c
	return c
}

func (m *PromMetrics) gauge(key string) prometheus.Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.gauges[key]; ok {
		return g
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      sanitizeMetricName(key),
	})
	m.registry.MustRegister(g)
	m.gauges[key] = g
	return g
}

func sanitizeMetricName(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			out = append(out, c)
		case c >= '0' && c <= '9' && len(out) > 0:
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

var _ Metrics = (*PromMetrics)(nil)
