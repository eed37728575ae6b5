// Package metrics provides Prometheus metrics for the dojo training core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the training core.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Session metrics - what a training run is made of
	sessionsStarted prometheus.Counter
	sessionDuration prometheus.Histogram
	eventsRecorded  prometheus.Counter
	anomalies       *prometheus.CounterVec

	// Matching metrics - live feedback quality
	hits         prometheus.Counter
	misses       prometheus.Counter
	extras       prometheus.Counter
	matchLatency prometheus.Histogram
	openRefs     prometheus.Gauge

	// Queue metrics - merged clock/input stream health
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "dojo",
		subsystem:        "session",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_started_total",
		Help:      "Total number of training sessions started",
	})

	m.sessionDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duration_seconds",
		Help:      "Histogram of session durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	m.eventsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_recorded_total",
		Help:      "Total number of input events accepted by the recorder",
	})

	m.anomalies = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "anomalies_total",
		Help:      "Total number of non-fatal anomalies by kind (orphan_release, repeat_press, clock_regression)",
	}, []string{"kind"})

	m.hits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hits_total",
		Help:      "Total number of reference actions matched within tolerance",
	})

	m.misses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "misses_total",
		Help:      "Total number of reference actions whose tolerance window closed unmatched",
	})

	m.extras = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extras_total",
		Help:      "Total number of candidate actions that matched no reference action",
	})

	m.matchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_latency_milliseconds",
		Help:      "Histogram of per-event matching latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.openRefs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "open_references",
		Help:      "Number of reference actions still pending a match",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of items in the session queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the session queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Session queue fill ratio (0-1)",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of items rejected by the session queue",
	})
}

// Registry returns the registry all global metrics are registered on,
// suitable for serving via promhttp.
func Registry() *prometheus.Registry {
	return customRegistry
}

// Global helpers mirroring the Manager metrics.

// RecordSessionStarted increments the session counter.
func RecordSessionStarted() { globalManager.sessionsStarted.Inc() }

// ObserveSessionDuration records a finished session's duration in seconds.
func ObserveSessionDuration(seconds float64) { globalManager.sessionDuration.Observe(seconds) }

// RecordEventRecorded increments the accepted-input counter.
func RecordEventRecorded() { globalManager.eventsRecorded.Inc() }

// RecordAnomaly increments the anomaly counter for a kind.
func RecordAnomaly(kind string) { globalManager.anomalies.WithLabelValues(kind).Inc() }

// RecordHit increments the hit counter.
func RecordHit() { globalManager.hits.Inc() }

// RecordMiss increments the miss counter.
func RecordMiss() { globalManager.misses.Inc() }

// RecordExtra increments the extra counter.
func RecordExtra() { globalManager.extras.Inc() }

// RecordMatchLatency records per-event matching latency in milliseconds.
func RecordMatchLatency(ms float64) { globalManager.matchLatency.Observe(ms) }

// UpdateOpenReferences sets the pending reference gauge.
func UpdateOpenReferences(n int) { globalManager.openRefs.Set(float64(n)) }

// UpdateQueueSize sets the queue size gauge.
func UpdateQueueSize(n int) { globalManager.queueSize.Set(float64(n)) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(n int) { globalManager.queueCapacity.Set(float64(n)) }

// UpdateQueueUtilization sets the queue fill ratio gauge.
func UpdateQueueUtilization(ratio float64) { globalManager.queueUtilization.Set(ratio) }

// RecordQueueEnqueueError increments the rejected-enqueue counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }
