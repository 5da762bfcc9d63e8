// Package metrics provides Prometheus metrics for the compass dashboard service.
package metrics

import (
	"maps"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the compass service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// View metrics
	viewsBuilt       *prometheus.CounterVec
	viewBuildLatency *prometheus.HistogramVec
	dialScore        prometheus.Gauge
	explanations     *prometheus.CounterVec
	seriesDropped    prometheus.Counter

	// Upstream metrics
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamShared   prometheus.Counter

	// Refresh queue metrics
	refreshQueueSize     prometheus.Gauge
	refreshQueueCapacity prometheus.Gauge
	refreshEnqueued      prometheus.Counter
	refreshEnqueueErrors *prometheus.CounterVec

	// Refresh worker metrics
	refreshJobs        *prometheus.CounterVec
	refreshJobLatency  *prometheus.HistogramVec
	refreshWorkerCount prometheus.Gauge

	// Cache metrics
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	cacheEntries *prometheus.GaugeVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "compass",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	if !m.enabled {
		// Metrics still work but are never exposed.
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before any metric is recorded.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts[:len(opts):len(opts)], WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// RefreshInterval is how often system gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: maps.Clone(m.customLabels),
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: maps.Clone(m.customLabels),
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: maps.Clone(m.customLabels),
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.viewsBuilt = auto.NewCounterVec(
		m.counterOpts("views_built_total", "Total number of view models built by view"),
		[]string{"view"},
	)
	m.viewBuildLatency = auto.NewHistogramVec(
		m.histogramOpts("view_build_duration_milliseconds", "View model build duration in milliseconds"),
		[]string{"view"},
	)
	m.dialScore = auto.NewGauge(
		m.gaugeOpts("dial_score", "Last rounded dial score served"),
	)
	m.explanations = auto.NewCounterVec(
		m.counterOpts("explanations_total", "Total number of contributor explanations by category"),
		[]string{"category"},
	)
	m.seriesDropped = auto.NewCounter(
		m.counterOpts("series_dropped_total", "Series omitted from a category view after a failed fetch"),
	)

	m.upstreamRequests = auto.NewCounterVec(
		m.counterOpts("upstream_requests_total", "Total number of upstream requests by endpoint and outcome"),
		[]string{"endpoint", "outcome"},
	)
	m.upstreamLatency = auto.NewHistogramVec(
		m.histogramOpts("upstream_request_duration_milliseconds", "Upstream request duration in milliseconds"),
		[]string{"endpoint"},
	)
	m.upstreamShared = auto.NewCounter(
		m.counterOpts("upstream_shared_total", "Upstream calls answered by an in-flight identical call"),
	)

	m.refreshQueueSize = auto.NewGauge(
		m.gaugeOpts("refresh_queue_size", "Current number of pending refresh jobs"),
	)
	m.refreshQueueCapacity = auto.NewGauge(
		m.gaugeOpts("refresh_queue_capacity", "Maximum number of pending refresh jobs"),
	)
	m.refreshEnqueued = auto.NewCounter(
		m.counterOpts("refresh_enqueued_total", "Total number of refresh jobs accepted"),
	)
	m.refreshEnqueueErrors = auto.NewCounterVec(
		m.counterOpts("refresh_enqueue_errors_total", "Refresh jobs rejected by reason"),
		[]string{"reason"},
	)
	m.refreshJobs = auto.NewCounterVec(
		m.counterOpts("refresh_jobs_total", "Refresh jobs processed by kind and outcome"),
		[]string{"kind", "outcome"},
	)
	m.refreshJobLatency = auto.NewHistogramVec(
		m.histogramOpts("refresh_job_duration_milliseconds", "Refresh job duration in milliseconds"),
		[]string{"kind"},
	)
	m.refreshWorkerCount = auto.NewGauge(
		m.gaugeOpts("refresh_workers", "Number of running refresh workers"),
	)

	m.cacheHits = auto.NewCounterVec(
		m.counterOpts("cache_hits_total", "Snapshot cache hits by cache"),
		[]string{"cache"},
	)
	m.cacheMisses = auto.NewCounterVec(
		m.counterOpts("cache_misses_total", "Snapshot cache misses by cache"),
		[]string{"cache"},
	)
	m.cacheEntries = auto.NewGaugeVec(
		m.gaugeOpts("cache_entries", "Current number of snapshot cache entries"),
		[]string{"cache"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRateLimited = auto.NewCounterVec(
		m.counterOpts("http_rate_limited_total", "Requests rejected by the rate limiter"),
		[]string{"endpoint"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_bytes", "Heap memory in use in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutines", "Current number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "GC pause time in milliseconds"),
	)
}

// View Metrics Functions.

// RecordViewBuilt records a built view model and how long it took.
func RecordViewBuilt(view string, latencyMs float64) {
	globalManager.viewsBuilt.WithLabelValues(view).Inc()
	globalManager.viewBuildLatency.WithLabelValues(view).Observe(latencyMs)
}

// UpdateDialScore sets the last served dial score.
func UpdateDialScore(score int) {
	globalManager.dialScore.Set(float64(score))
}

// RecordExplanation counts an explanation by category.
func RecordExplanation(category string) {
	globalManager.explanations.WithLabelValues(category).Inc()
}

// RecordSeriesDropped counts a series left out of a category view.
func RecordSeriesDropped() {
	globalManager.seriesDropped.Inc()
}

// Upstream Metrics Functions.

// RecordUpstreamRequest records an upstream call.
func RecordUpstreamRequest(endpoint, outcome string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordUpstreamShared counts a call served by an in-flight duplicate.
func RecordUpstreamShared() {
	globalManager.upstreamShared.Inc()
}

// Refresh Metrics Functions.

// UpdateRefreshQueue sets the refresh queue size and capacity.
func UpdateRefreshQueue(size, capacity int) {
	globalManager.refreshQueueSize.Set(float64(size))
	globalManager.refreshQueueCapacity.Set(float64(capacity))
}

// RecordRefreshEnqueued counts an accepted refresh job.
func RecordRefreshEnqueued() {
	globalManager.refreshEnqueued.Inc()
}

// RecordRefreshEnqueueError counts a rejected refresh job.
func RecordRefreshEnqueueError(reason string) {
	globalManager.refreshEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordRefreshJob records a processed refresh job.
func RecordRefreshJob(kind, outcome string, latencyMs float64) {
	globalManager.refreshJobs.WithLabelValues(kind, outcome).Inc()
	globalManager.refreshJobLatency.WithLabelValues(kind).Observe(latencyMs)
}

// UpdateRefreshWorkers sets the number of running refresh workers.
func UpdateRefreshWorkers(n int) {
	globalManager.refreshWorkerCount.Set(float64(n))
}

// Cache Metrics Functions.

// RecordCacheHit increments the hit counter for a cache.
func RecordCacheHit(cache string) {
	globalManager.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss increments the miss counter for a cache.
func RecordCacheMiss(cache string) {
	globalManager.cacheMisses.WithLabelValues(cache).Inc()
}

// UpdateCacheEntries sets the entry count for a cache.
func UpdateCacheEntries(cache string, n int) {
	globalManager.cacheEntries.WithLabelValues(cache).Set(float64(n))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) {
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Metrics Functions.

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
