// Package metrics provides Prometheus metrics for the dashboard pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Pipeline stage label values.
const (
	StageLoad     = "load"
	StageAssemble = "assemble"
	StagePersist  = "persist"
)

// Manager owns every Prometheus metric of the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Pipeline runs
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	stageDuration *prometheus.HistogramVec
	lastSuccess   prometheus.Gauge

	// Input quality
	usersLoaded      prometheus.Gauge
	recordsTotal     prometheus.Gauge
	recordsExcluded  prometheus.Gauge
	analyticsPresent prometheus.Gauge

	// Persistence
	sinkWrites        *prometheus.CounterVec
	sinkWriteDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "playdash",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(m.counterOpts("runs_total", "Pipeline runs by outcome"), []string{"status"})
	m.runDuration = auto.NewHistogram(m.histogramOpts("run_duration_milliseconds",
		"Wall time of a full pipeline run in milliseconds", m.histogramBuckets))
	m.stageDuration = auto.NewHistogramVec(m.histogramOpts("stage_duration_milliseconds",
		"Wall time of one pipeline stage in milliseconds", m.histogramBuckets), []string{"stage"})
	m.lastSuccess = auto.NewGauge(m.gaugeOpts("last_success_timestamp_seconds",
		"Unix time of the last successful run"))

	m.usersLoaded = auto.NewGauge(m.gaugeOpts("users_loaded", "Users in the last loaded snapshot"))
	m.recordsTotal = auto.NewGauge(m.gaugeOpts("dated_records_total",
		"Dated events and results checked by the date filter in the last run"))
	m.recordsExcluded = auto.NewGauge(m.gaugeOpts("dated_records_excluded",
		"Dated events and results rejected by the date filter in the last run"))
	m.analyticsPresent = auto.NewGauge(m.gaugeOpts("analytics_present",
		"1 when the last run merged an analytics summary"))

	m.sinkWrites = auto.NewCounterVec(m.counterOpts("sink_writes_total",
		"Document writes by sink and outcome"), []string{"sink", "status"})
	m.sinkWriteDuration = auto.NewHistogramVec(m.histogramOpts("sink_write_duration_milliseconds",
		"Document write latency by sink in milliseconds", m.histogramBuckets), []string{"sink"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "type"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordRun counts a finished run with the given status.
func RecordRun(status string) {
	globalManager.runs.WithLabelValues(status).Inc()
}

// RecordRunDuration records the wall time of a run in milliseconds.
func RecordRunDuration(durationMs float64) {
	globalManager.runDuration.Observe(durationMs)
}

// RecordStageDuration records the wall time of one stage in milliseconds.
func RecordStageDuration(stage string, durationMs float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(durationMs)
}

// UpdateLastSuccess sets the time of the last successful run.
func UpdateLastSuccess(unixSeconds int64) {
	globalManager.lastSuccess.Set(float64(unixSeconds))
}

// UpdateUsersLoaded sets the size of the last snapshot.
func UpdateUsersLoaded(count int) {
	globalManager.usersLoaded.Set(float64(count))
}

// UpdateExcluded sets the date filter totals of the last run.
func UpdateExcluded(total, excluded int) {
	globalManager.recordsTotal.Set(float64(total))
	globalManager.recordsExcluded.Set(float64(excluded))
}

// UpdateAnalyticsPresent records whether the last run had an analytics summary.
func UpdateAnalyticsPresent(present bool) {
	v := 0.0
	if present {
		v = 1
	}
	globalManager.analyticsPresent.Set(v)
}

// RecordSinkWrite counts a document write.
func RecordSinkWrite(sink, status string) {
	globalManager.sinkWrites.WithLabelValues(sink, status).Inc()
}

// RecordSinkWriteDuration records a document write latency in milliseconds.
func RecordSinkWriteDuration(sink string, durationMs float64) {
	globalManager.sinkWriteDuration.WithLabelValues(sink).Observe(durationMs)
}

// RecordErrorByComponent counts an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
