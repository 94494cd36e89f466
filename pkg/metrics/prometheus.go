// Package metrics provides Prometheus metrics for the salary insight service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stage labels.
const (
	StageMap       = "map"
	StageTransform = "transform"
	StagePredict   = "predict"
	StageAttribute = "attribute"
	StageAggregate = "aggregate"
	StageNarrate   = "narrate"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Core business metrics
	predictions      prometheus.Counter
	recordsPredicted prometheus.Counter
	batchSize        prometheus.Histogram
	insights         prometheus.Counter
	topFeature       *prometheus.CounterVec
	stageLatency     *prometheus.HistogramVec
	pipelineErrors   *prometheus.CounterVec
	modelInfo        *prometheus.GaugeVec
	cacheLookups     *prometheus.CounterVec

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authFailures        *prometheus.CounterVec
	rateLimited         *prometheus.CounterVec

	// Error metrics
	errorRateByEndpoint *prometheus.CounterVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "salary",
		subsystem:        "insight",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
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

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Core business metrics
	m.predictions = auto.NewCounter(m.counterOpts(
		"predictions_total", "Total number of successful prediction requests"))
	m.recordsPredicted = auto.NewCounter(m.counterOpts(
		"records_predicted_total", "Total number of records scored across all prediction requests"))
	m.batchSize = auto.NewHistogram(m.histogramOpts(
		"prediction_batch_size", "Number of records per prediction request",
		[]float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
	m.insights = auto.NewCounter(m.counterOpts(
		"insights_total", "Total number of successful insight requests"))
	m.topFeature = auto.NewCounterVec(m.counterOpts(
		"top_feature_total", "Number of insights in which a feature had the largest influence"),
		[]string{"feature"})
	m.stageLatency = auto.NewHistogramVec(m.histogramOpts(
		"pipeline_stage_duration_milliseconds", "Duration of each pipeline stage in milliseconds",
		m.histogramBuckets),
		[]string{"stage"})
	m.pipelineErrors = auto.NewCounterVec(m.counterOpts(
		"pipeline_errors_total", "Total number of pipeline failures by error kind"),
		[]string{"kind"})
	m.modelInfo = auto.NewGaugeVec(m.gaugeOpts(
		"model_info", "Loaded model description; value is the encoded feature count"),
		[]string{"kind", "explainer"})
	m.cacheLookups = auto.NewCounterVec(m.counterOpts(
		"insight_cache_lookups_total", "Insight cache lookups by result (hit, miss)"),
		[]string{"result"})

	// HTTP performance metrics
	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})
	m.authFailures = auto.NewCounterVec(m.counterOpts(
		"auth_failures_total", "Requests rejected for a missing or invalid API key"),
		[]string{"endpoint"})
	m.rateLimited = auto.NewCounterVec(m.counterOpts(
		"rate_limited_total", "Requests rejected by the rate limiter"),
		[]string{"endpoint"})

	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	// System performance metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordPrediction records a successful prediction request of n records.
func RecordPrediction(n int) {
	globalManager.predictions.Inc()
	globalManager.recordsPredicted.Add(float64(n))
	globalManager.batchSize.Observe(float64(n))
}

// RecordInsight records a successful insight and the feature that led it.
func RecordInsight(topFeature string) {
	globalManager.insights.Inc()
	if topFeature != "" {
		globalManager.topFeature.WithLabelValues(topFeature).Inc()
	}
}

// RecordStageLatency records the duration of a pipeline stage in milliseconds.
func RecordStageLatency(stage string, latencyMs float64) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordPipelineError increments the pipeline failure counter for kind.
func RecordPipelineError(kind string) {
	globalManager.pipelineErrors.WithLabelValues(kind).Inc()
}

// SetModelInfo publishes the loaded model kind, explainer and width.
func SetModelInfo(kind, explainer string, features int) {
	globalManager.modelInfo.Reset()
	globalManager.modelInfo.WithLabelValues(kind, explainer).Set(float64(features))
}

// RecordInsightCacheLookup counts an insight cache hit or miss.
func RecordInsightCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordAuthFailure increments the rejected API key counter.
func RecordAuthFailure(endpoint string) {
	globalManager.authFailures.WithLabelValues(endpoint).Inc()
}

// RecordRateLimited increments the rate-limited request counter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
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
