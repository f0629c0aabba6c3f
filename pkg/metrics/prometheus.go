// Package metrics provides Prometheus metrics for the capperchat service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Chat pipeline
	chatRequests       *prometheus.CounterVec
	chatLatency        prometheus.Histogram
	keywordMisses      prometheus.Counter
	classifierAttempts prometheus.Histogram
	classifierInvalid  *prometheus.CounterVec
	classifierErrors   prometheus.Counter
	classifierDegraded prometheus.Counter

	// Retrieval
	searchRequests   *prometheus.CounterVec
	searchLatency    *prometheus.HistogramVec
	embeddingLatency prometheus.Histogram
	embeddingCache   *prometheus.CounterVec
	vectorErrors     *prometheus.CounterVec

	// Ingestion
	ingestVectors   prometheus.Counter
	ingestBatches   prometheus.Counter
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	workerCount     prometheus.Gauge
	workerLatency   prometheus.Histogram
	workerErrors    prometheus.Counter
	datasetRecords  *prometheus.GaugeVec
	datasetRejected *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served at /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "capperchat",
		subsystem:        "",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.NewRegistry(),
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

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.chatRequests = m.counterVec("chat_requests_total", "Chat requests by resolved intent and resolution source", "intent", "source")
	m.chatLatency = m.histogram("chat_latency_milliseconds", "End-to-end chat pipeline latency in milliseconds", m.histogramBuckets)
	m.keywordMisses = m.counter("keyword_misses_total", "Messages the keyword matcher could not resolve")
	m.classifierAttempts = m.histogram("classifier_attempts", "Model classifier attempts per classification", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	m.classifierInvalid = m.counterVec("classifier_invalid_total", "Model outputs rejected by validation", "reason")
	m.classifierErrors = m.counter("classifier_provider_errors_total", "Generative provider errors seen by the classifier")
	m.classifierDegraded = m.counter("classifier_degraded_total", "Classifications that exhausted retries and degraded to general")

	m.searchRequests = m.counterVec("search_requests_total", "Semantic search requests by kind and outcome", "kind", "outcome")
	m.searchLatency = m.histogramVec("search_latency_milliseconds", "Semantic search latency in milliseconds", "kind")
	m.embeddingLatency = m.histogram("embedding_latency_milliseconds", "Embedding provider latency in milliseconds", m.histogramBuckets)
	m.embeddingCache = m.counterVec("embedding_cache_total", "Embedding cache lookups by result", "result")
	m.vectorErrors = m.counterVec("vector_errors_total", "Vector index errors by operation", "operation")

	m.ingestVectors = m.counter("ingest_vectors_total", "Vectors upserted by ingestion")
	m.ingestBatches = m.counter("ingest_batches_total", "Upsert batches sent by ingestion")
	m.queueSize = m.gauge("ingest_queue_size", "Records waiting in the ingestion queue")
	m.queueCapacity = m.gauge("ingest_queue_capacity", "Ingestion queue capacity")
	m.workerCount = m.gauge("ingest_worker_count", "Embedding workers running")
	m.workerLatency = m.histogram("ingest_worker_latency_milliseconds", "Per-record embedding latency in ingestion", m.histogramBuckets)
	m.workerErrors = m.counter("ingest_worker_errors_total", "Records that failed to embed")
	m.datasetRecords = m.gaugeVec("dataset_records", "Records loaded into the in-memory dataset", "kind")
	m.datasetRejected = m.counterVec("dataset_rejected_total", "Records dropped by load-time normalization", "kind", "reason")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100})
}

// Enabled reports whether the global manager records anything.
func Enabled() bool { return globalManager.enabled }

// RecordChatRequest counts a chat request by intent and resolution source.
func RecordChatRequest(intent, source string) {
	if !globalManager.enabled {
		return
	}
	globalManager.chatRequests.WithLabelValues(intent, source).Inc()
}

// RecordChatLatency observes end-to-end chat latency.
func RecordChatLatency(ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.chatLatency.Observe(ms)
}

// RecordKeywordMiss counts a message the keyword matcher left unresolved.
func RecordKeywordMiss() {
	if !globalManager.enabled {
		return
	}
	globalManager.keywordMisses.Inc()
}

// RecordClassifierAttempts observes the number of attempts one classification took.
func RecordClassifierAttempts(attempts int) {
	if !globalManager.enabled {
		return
	}
	globalManager.classifierAttempts.Observe(float64(attempts))
}

// RecordClassifierInvalid counts a model output that failed validation.
func RecordClassifierInvalid(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.classifierInvalid.WithLabelValues(reason).Inc()
}

// RecordClassifierError counts a provider error inside the retry loop.
func RecordClassifierError() {
	if !globalManager.enabled {
		return
	}
	globalManager.classifierErrors.Inc()
}

// RecordClassifierDegraded counts a classification that fell back to general.
func RecordClassifierDegraded() {
	if !globalManager.enabled {
		return
	}
	globalManager.classifierDegraded.Inc()
}

// RecordSearch counts a semantic search and observes its latency.
func RecordSearch(kind, outcome string, ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.searchRequests.WithLabelValues(kind, outcome).Inc()
	globalManager.searchLatency.WithLabelValues(kind).Observe(ms)
}

// RecordEmbeddingLatency observes one embedding provider call.
func RecordEmbeddingLatency(ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.embeddingLatency.Observe(ms)
}

// RecordEmbeddingCache counts an embedding cache lookup ("hit", "miss", "error").
func RecordEmbeddingCache(result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.embeddingCache.WithLabelValues(result).Inc()
}

// RecordVectorError counts a failed vector index operation.
func RecordVectorError(operation string) {
	if !globalManager.enabled {
		return
	}
	globalManager.vectorErrors.WithLabelValues(operation).Inc()
}

// RecordIngestBatch counts an upsert batch of n vectors.
func RecordIngestBatch(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.ingestBatches.Inc()
	globalManager.ingestVectors.Add(float64(n))
}

// UpdateQueueSize sets the current ingestion queue length.
func UpdateQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the ingestion queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the number of running embedding workers.
func UpdateWorkerCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerLatency observes one record's embedding time during ingestion.
func RecordWorkerLatency(ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.workerLatency.Observe(ms)
}

// RecordWorkerError counts a record that failed during ingestion.
func RecordWorkerError() {
	if !globalManager.enabled {
		return
	}
	globalManager.workerErrors.Inc()
}

// UpdateDatasetRecords sets how many records of a kind are loaded.
func UpdateDatasetRecords(kind string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.datasetRecords.WithLabelValues(kind).Set(float64(n))
}

// RecordDatasetRejected counts a record dropped at load time.
func RecordDatasetRejected(kind, reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.datasetRejected.WithLabelValues(kind, reason).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByEndpoint records an HTTP error with endpoint labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
