// Package metrics provides Prometheus metrics for the edulog pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by edulog.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Loading
	submissionsLoaded  prometheus.Counter
	submissionsDropped *prometheus.CounterVec
	duplicates         prometheus.Counter
	unknownDefects     prometheus.Counter

	// Computation
	partitionsProcessed prometheus.Counter
	partitionLatency    prometheus.Histogram
	rowsEmitted         *prometheus.CounterVec
	studentsTotal       prometheus.Gauge
	reportRows          prometheus.Gauge

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueEnqueueErrs prometheus.Counter

	// Workers
	workerCount  prometheus.Gauge
	workerErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "edulog",
		subsystem:        "recency",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
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

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.submissionsLoaded = auto.NewCounter(m.counterOpts("submissions_loaded_total",
		"Submissions accepted by the loader"))
	m.submissionsDropped = auto.NewCounterVec(m.counterOpts("submissions_dropped_total",
		"Submissions dropped by the loader, by reason"), []string{"reason"})
	m.duplicates = auto.NewCounter(m.counterOpts("submissions_duplicate_total",
		"Duplicate submission ids skipped"))
	m.unknownDefects = auto.NewCounter(m.counterOpts("unknown_defects_total",
		"Defect ids present in the matrix but missing from the catalog"))

	m.partitionsProcessed = auto.NewCounter(m.counterOpts("partitions_processed_total",
		"Student partitions processed by workers"))
	m.partitionLatency = auto.NewHistogram(m.histogramOpts("partition_latency_milliseconds",
		"Time to compute recency rows for one student partition"))
	m.rowsEmitted = auto.NewCounterVec(m.counterOpts("rows_emitted_total",
		"Recency rows emitted, by kind (first, since)"), []string{"kind"})
	m.studentsTotal = auto.NewGauge(m.gaugeOpts("students",
		"Number of students in the current dataset"))
	m.reportRows = auto.NewGauge(m.gaugeOpts("report_rows",
		"Number of rows held by the report store"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Current number of queued partitions"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Maximum queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total",
		"Partitions enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total",
		"Partitions dequeued"))
	m.queueEnqueueErrs = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Failed enqueue attempts"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count",
		"Number of recency workers"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Partitions that failed in a worker"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "error_type"})
}

// Loading.

// RecordSubmissionLoaded increments the accepted submission counter.
func RecordSubmissionLoaded() { globalManager.submissionsLoaded.Inc() }

// RecordSubmissionDropped increments the dropped counter for reason.
func RecordSubmissionDropped(reason string) {
	globalManager.submissionsDropped.WithLabelValues(reason).Inc()
}

// RecordDuplicate increments the duplicate submission counter.
func RecordDuplicate() { globalManager.duplicates.Inc() }

// RecordUnknownDefect increments the unknown defect counter.
func RecordUnknownDefect() { globalManager.unknownDefects.Inc() }

// Computation.

// RecordPartitionProcessed increments the processed partition counter.
func RecordPartitionProcessed() { globalManager.partitionsProcessed.Inc() }

// RecordPartitionLatency observes partition processing latency.
func RecordPartitionLatency(latencyMs float64) { globalManager.partitionLatency.Observe(latencyMs) }

// RecordRowEmitted increments the emitted rows counter for kind.
func RecordRowEmitted(kind string) { globalManager.rowsEmitted.WithLabelValues(kind).Inc() }

// UpdateStudents sets the number of students in the dataset.
func UpdateStudents(count int) { globalManager.studentsTotal.Set(float64(count)) }

// UpdateReportRows sets the number of rows in the report store.
func UpdateReportRows(count int) { globalManager.reportRows.Set(float64(count)) }

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrs.Inc() }

// Workers.

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// HTTP.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
