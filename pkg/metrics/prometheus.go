// Package metrics provides Prometheus metrics for the scholar ledger service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Engine
	aggregations    prometheus.Counter
	quotesDiscarded *prometheus.CounterVec
	quotesAvailable prometheus.Gauge
	schemeGaps      *prometheus.CounterVec
	rowsSkipped     *prometheus.CounterVec

	// Sync pipeline
	syncJobs       *prometheus.CounterVec
	syncLatency    prometheus.Histogram
	recordsSaved   prometheus.Counter
	recordsTotal   prometheus.Gauge
	snapshotStatus *prometheus.CounterVec
	snapshotLast   prometheus.Gauge

	// Upstream feed
	feedRequests *prometheus.CounterVec
	feedDuration *prometheus.HistogramVec

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workerErrors       prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scholarledger",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.aggregations = m.counter("aggregations_total", "Season aggregations computed")
	m.quotesDiscarded = m.counterVec("quotes_discarded_total", "Price quotes dropped while building a snapshot", "reason")
	m.quotesAvailable = m.gauge("quotes_available", "Tokens priced in the latest snapshot")
	m.schemeGaps = m.counterVec("scheme_gaps_total", "Finishes no points rule covered", "scheme")
	m.rowsSkipped = m.counterVec("rows_skipped_total", "Submitted rows that failed to decode", "kind")

	m.syncJobs = m.counterVec("sync_jobs_total", "Account sync jobs by outcome", "status")
	m.syncLatency = m.histogram("sync_latency_milliseconds", "Time to sync one account")
	m.recordsSaved = m.counter("records_saved_total", "Season records written to the store")
	m.recordsTotal = m.gauge("records_total", "Season records held by the store")
	m.snapshotStatus = m.counterVec("snapshot_refresh_total", "Season and price snapshot refreshes by outcome", "status")
	m.snapshotLast = m.gauge("snapshot_last_unix", "Unix time of the last successful snapshot refresh")

	m.feedRequests = m.counterVec("feed_requests_total", "Upstream feed requests", "endpoint", "status")
	m.feedDuration = m.histogramVec("feed_request_duration_milliseconds", "Upstream feed latency", "endpoint")

	m.queueSize = m.gauge("queue_size", "Sync jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Sync queue capacity")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Rejected enqueues", "reason")
	m.workerCount = m.gauge("worker_count", "Sync workers running")
	m.workerErrors = m.counter("worker_errors_total", "Sync jobs that failed in a worker")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Goroutines running")
}

// RecordAggregation counts one season aggregation.
func RecordAggregation() { globalManager.aggregations.Inc() }

// RecordQuoteDiscarded counts a dropped price quote.
func RecordQuoteDiscarded(reason string) { globalManager.quotesDiscarded.WithLabelValues(reason).Inc() }

// UpdateQuotesAvailable sets the number of priced tokens.
func UpdateQuotesAvailable(n int) { globalManager.quotesAvailable.Set(float64(n)) }

// RecordSchemeGap counts a finish that fell through every rule of scheme.
func RecordSchemeGap(scheme string) { globalManager.schemeGaps.WithLabelValues(scheme).Inc() }

// RecordRowsSkipped counts n undecodable rows of one kind.
func RecordRowsSkipped(kind string, n int) { globalManager.rowsSkipped.WithLabelValues(kind).Add(float64(n)) }

// RecordSyncJob counts a finished sync job.
func RecordSyncJob(status string) { globalManager.syncJobs.WithLabelValues(status).Inc() }

// RecordSyncLatency observes how long a sync took.
func RecordSyncLatency(latencyMs float64) { globalManager.syncLatency.Observe(latencyMs) }

// RecordRecordSaved counts a stored season record.
func RecordRecordSaved() { globalManager.recordsSaved.Inc() }

// UpdateRecordsTotal sets the number of stored season records.
func UpdateRecordsTotal(n int) { globalManager.recordsTotal.Set(float64(n)) }

// RecordSnapshotRefresh counts a snapshot refresh attempt.
func RecordSnapshotRefresh(status string) { globalManager.snapshotStatus.WithLabelValues(status).Inc() }

// UpdateSnapshotLastUnix records when snapshots were last refreshed.
func UpdateSnapshotLastUnix(ts int64) { globalManager.snapshotLast.Set(float64(ts)) }

// RecordFeedRequest counts an upstream call and observes its latency.
func RecordFeedRequest(endpoint, status string, latencyMs float64) {
	globalManager.feedRequests.WithLabelValues(endpoint, status).Inc()
	globalManager.feedDuration.WithLabelValues(endpoint).Observe(latencyMs)
}

// UpdateQueueSize sets the queue backlog.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) { globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
