// Package metrics provides Prometheus metrics for the TerpTaster service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// percentageBuckets bucket score percentages by grade boundary.
var percentageBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} //nolint:gochecknoglobals // constant bucket layout

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring
	scoresComputed   *prometheus.CounterVec
	scorePercentages *prometheus.HistogramVec
	scoringLatency   prometheus.Histogram

	// Tasting pipeline
	tastingsAccepted  prometheus.Counter
	tastingsDuplicate prometheus.Counter
	tastingsProcessed prometheus.Counter

	// Leaderboard
	leaderboardUpdates prometheus.Counter
	leaderboardErrors  prometheus.Counter
	totalTasters       prometheus.Gauge
	leaderboardQuery   prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Training
	trainingSessionsStarted *prometheus.CounterVec
	trainingSessionsActive  prometheus.Gauge
	trainingGuesses         *prometheus.CounterVec
	trainingHints           prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System
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
		namespace:        "terptaster",
		subsystem:        "palate",
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

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scoresComputed = m.counterVec("scores_computed_total", "Score cards computed by formula and grade", "variant", "grade")
	m.scorePercentages = m.histogramVec("score_percentage", "Distribution of score percentages by formula", percentageBuckets, "variant")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Time spent scoring a queued tasting", m.histogramBuckets)

	m.tastingsAccepted = m.counter("tastings_accepted_total", "Tastings accepted for asynchronous scoring")
	m.tastingsDuplicate = m.counter("tastings_duplicate_total", "Tastings rejected as duplicate submissions")
	m.tastingsProcessed = m.counter("tastings_processed_total", "Tastings scored by workers")

	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Leaderboard best-score improvements")
	m.leaderboardErrors = m.counter("leaderboard_errors_total", "Failed leaderboard updates")
	m.totalTasters = m.gauge("total_tasters", "Tasters on the leaderboard")
	m.leaderboardQuery = m.histogram("leaderboard_query_latency_milliseconds", "Leaderboard read latency", m.histogramBuckets)

	m.queueSize = m.gauge("queue_size", "Current size of the tasting queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum tasting queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Tastings enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Tastings dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Failed enqueue attempts")

	m.workerCount = m.gauge("worker_count", "Running scoring workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "End-to-end worker processing latency", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Worker processing errors")

	m.trainingSessionsStarted = m.counterVec("training_sessions_started_total", "Training sessions started by difficulty", "difficulty")
	m.trainingSessionsActive = m.gauge("training_sessions_active", "Training sessions held in memory")
	m.trainingGuesses = m.counterVec("training_guesses_total", "Training guesses by difficulty and outcome", "difficulty", "outcome")
	m.trainingHints = m.counter("training_hints_total", "Training hints revealed")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations", m.histogramBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordScore counts a computed score card and observes its percentage.
func RecordScore(variant, grade string, percentage int) {
	globalManager.scoresComputed.WithLabelValues(variant, grade).Inc()
	globalManager.scorePercentages.WithLabelValues(variant).Observe(float64(percentage))
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordTastingAccepted increments the accepted tastings counter.
func RecordTastingAccepted() { globalManager.tastingsAccepted.Inc() }

// RecordTastingDuplicate increments the duplicate tastings counter.
func RecordTastingDuplicate() { globalManager.tastingsDuplicate.Inc() }

// RecordTastingProcessed increments the processed tastings counter.
func RecordTastingProcessed() { globalManager.tastingsProcessed.Inc() }

// RecordLeaderboardUpdate increments the leaderboard updates counter.
func RecordLeaderboardUpdate() { globalManager.leaderboardUpdates.Inc() }

// RecordLeaderboardError increments the leaderboard errors counter.
func RecordLeaderboardError() { globalManager.leaderboardErrors.Inc() }

// UpdateTotalTasters sets the number of ranked tasters.
func UpdateTotalTasters(count int) { globalManager.totalTasters.Set(float64(count)) }

// RecordLeaderboardQueryLatency records a leaderboard read latency.
func RecordLeaderboardQueryLatency(latencyMs float64) {
	globalManager.leaderboardQuery.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordTrainingSessionStarted counts a new training session.
func RecordTrainingSessionStarted(difficulty string) {
	globalManager.trainingSessionsStarted.WithLabelValues(difficulty).Inc()
}

// UpdateTrainingSessionsActive sets the number of stored training sessions.
func UpdateTrainingSessionsActive(count int) {
	globalManager.trainingSessionsActive.Set(float64(count))
}

// RecordTrainingGuess counts a guess; outcome is "correct" or "wrong".
func RecordTrainingGuess(difficulty, outcome string) {
	globalManager.trainingGuesses.WithLabelValues(difficulty, outcome).Inc()
}

// RecordTrainingHint counts a revealed hint.
func RecordTrainingHint() { globalManager.trainingHints.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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
