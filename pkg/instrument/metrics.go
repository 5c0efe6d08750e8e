package instrument

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/observable/pkg/observable"
)

// MetricsConfig configures the Prometheus spy.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "observable").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for span durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus spy.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "observable",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// MetricsSpy counts spy events in Prometheus metrics.
type MetricsSpy struct {
	eventsTotal  *prometheus.CounterVec
	updatesTotal *prometheus.CounterVec
	spanDuration *prometheus.HistogramVec
	cellsCreated prometheus.Counter

	// starts holds the start time of each open span, innermost last.
	starts []time.Time
}

// Metrics creates a spy that records cell activity. Each call registers a
// new set of collectors, so it panics when called twice with the same
// registry.
func Metrics(opts ...MetricsOption) *MetricsSpy {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &MetricsSpy{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of observable spy events by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		updatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_total",
			Help:        "Total number of committed cell writes by cell name",
			ConstLabels: config.ConstLabels,
		}, []string{"name"}),

		spanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "span_duration_seconds",
			Help:        "Duration of updates, actions and reactions in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"type"}),

		cellsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cells_created_total",
			Help:        "Total number of cells created",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Report counts a one-shot event and, for create events, the new cell.
func (m *MetricsSpy) Report(ev observable.SpyEvent) {
	m.eventsTotal.WithLabelValues(ev.Type).Inc()
	if ev.Type == observable.SpyCreate {
		m.cellsCreated.Inc()
	}
}

// ReportStart counts the event and starts timing it. Updates are also
// counted per cell name.
func (m *MetricsSpy) ReportStart(ev observable.SpyEvent) {
	m.eventsTotal.WithLabelValues(ev.Type).Inc()
	if ev.Type == observable.SpyUpdate {
		m.updatesTotal.WithLabelValues(ev.Name).Inc()
	}
	m.starts = append(m.starts, time.Now())
}

// ReportEnd observes the duration of the innermost open event.
func (m *MetricsSpy) ReportEnd(ev observable.SpyEvent) {
	n := len(m.starts)
	if n == 0 {
		return
	}
	start := m.starts[n-1]
	m.starts = m.starts[:n-1]
	m.spanDuration.WithLabelValues(ev.Type).Observe(time.Since(start).Seconds())
}
