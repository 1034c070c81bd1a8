package middleware

import (
	stderrors "errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/applier"
	"github.com/vango-dev/treepatch/pkg/dom"
)

// MetricsConfig configures the Prometheus instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "treepatch").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for operation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrumentation.
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
		Namespace: "treepatch",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the collectors for one registry.
type metrics struct {
	opsTotal     *prometheus.CounterVec
	opErrors     *prometheus.CounterVec
	opDuration   *prometheus.HistogramVec
	nodesMoved   prometheus.Counter
	nodesRemoved prometheus.Counter
	cursorDepth  prometheus.Gauge
}

// Collectors are shared per registry so that several instrumented appliers
// can report into the same registry without duplicate registration.
var (
	metricsMu         sync.Mutex
	metricsByRegistry = map[prometheus.Registerer]*metrics{}
)

func metricsFor(config MetricsConfig) *metrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if m, ok := metricsByRegistry[config.Registry]; ok {
		return m
	}
	m := initMetrics(config)
	metricsByRegistry[config.Registry] = m
	return m
}

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		opsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "ops_total",
			Help:        "Total number of applier operations",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "status"}),

		opErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "op_errors_total",
			Help:        "Failed applier operations by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "code"}),

		opDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "op_duration_seconds",
			Help:        "Applier operation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		nodesMoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_moved_total",
			Help:        "Total number of children relocated by move",
			ConstLabels: config.ConstLabels,
		}),

		nodesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_removed_total",
			Help:        "Total number of children detached by remove and clear",
			ConstLabels: config.ConstLabels,
		}),

		cursorDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cursor_depth",
			Help:        "Outstanding down operations after the last applied operation",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// InstrumentedApplier records Prometheus metrics for every operation of
// the applier it wraps.
type InstrumentedApplier struct {
	next    applier.Applier
	metrics *metrics
}

var _ applier.Applier = (*InstrumentedApplier)(nil)

// Instrument wraps a with Prometheus instrumentation.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	a := middleware.Instrument(applier.New(root), middleware.WithRegistry(reg))
func Instrument(a applier.Applier, opts ...MetricsOption) *InstrumentedApplier {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &InstrumentedApplier{next: a, metrics: metricsFor(config)}
}

// Unwrap returns the wrapped applier.
func (ia *InstrumentedApplier) Unwrap() applier.Applier {
	return ia.next
}

func (ia *InstrumentedApplier) Current() dom.Node { return ia.next.Current() }
func (ia *InstrumentedApplier) Depth() int        { return ia.next.Depth() }

func (ia *InstrumentedApplier) InsertTopDown(index int, node dom.Node) error {
	return ia.observe(applier.OpInsertTopDown, func() error {
		return ia.next.InsertTopDown(index, node)
	})
}

func (ia *InstrumentedApplier) InsertBottomUp(index int, node dom.Node) error {
	return ia.observe(applier.OpInsertBottomUp, func() error {
		return ia.next.InsertBottomUp(index, node)
	})
}

func (ia *InstrumentedApplier) Remove(index, count int) error {
	err := ia.observe(applier.OpRemove, func() error {
		return ia.next.Remove(index, count)
	})
	if err == nil {
		ia.metrics.nodesRemoved.Add(float64(count))
	}
	return err
}

func (ia *InstrumentedApplier) Move(from, to, count int) error {
	err := ia.observe(applier.OpMove, func() error {
		return ia.next.Move(from, to, count)
	})
	if err == nil && (to < from || to-from > count) {
		ia.metrics.nodesMoved.Add(float64(count))
	}
	return err
}

func (ia *InstrumentedApplier) Down(node dom.Node) error {
	return ia.observe(applier.OpDown, func() error {
		return ia.next.Down(node)
	})
}

func (ia *InstrumentedApplier) Up() error {
	return ia.observe(applier.OpUp, ia.next.Up)
}

func (ia *InstrumentedApplier) Clear() error {
	removed := 0
	if el, ok := ia.next.Current().(*dom.Element); ok && el != nil {
		removed = el.ChildCount()
	}
	err := ia.observe(applier.OpClear, ia.next.Clear)
	if err == nil {
		ia.metrics.nodesRemoved.Add(float64(removed))
	}
	return err
}

func (ia *InstrumentedApplier) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	ia.metrics.opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
		ia.metrics.opErrors.WithLabelValues(op, errorCode(err)).Inc()
	}
	ia.metrics.opsTotal.WithLabelValues(op, status).Inc()
	ia.metrics.cursorDepth.Set(float64(ia.next.Depth()))
	return err
}

// errorCode returns the registered code of err, which keeps label
// cardinality bounded.
func errorCode(err error) string {
	var te *errors.TreeError
	if stderrors.As(err, &te) && te.Code != "" {
		return te.Code
	}
	return "unknown"
}
