// Package metrics provides Prometheus metrics for the scramble game service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scramble service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsCreated prometheus.Counter
	sessionsActive  prometheus.Gauge
	sessionsEvicted *prometheus.CounterVec

	// Gameplay
	roundsStarted   *prometheus.CounterVec
	roundsCompleted *prometheus.CounterVec
	roundScore      prometheus.Histogram
	guesses         *prometheus.CounterVec
	hints           *prometheus.CounterVec
	ticks           prometheus.Counter
	staleTicks      prometheus.Counter
	droppedTicks    prometheus.Counter

	// Command pipeline
	commands          *prometheus.CounterVec
	commandLatency    *prometheus.HistogramVec
	queueEnqueued     prometheus.Counter
	queueRejected     *prometheus.CounterVec
	duplicateActions  prometheus.Counter
	eventsPublished   prometheus.Counter
	eventsDropped     prometheus.Counter
	wsConnections     prometheus.Gauge
	scoreStoreLatency *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "scramble",
		subsystem:        "game",
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
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_created_total",
		Help:      "Total number of game sessions created",
	})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_active",
		Help:      "Number of sessions currently held in the registry",
	})

	m.sessionsEvicted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_closed_total",
		Help:      "Total number of sessions removed from the registry",
	}, []string{"reason"})

	m.roundsStarted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rounds_started_total",
		Help:      "Total number of rounds entered, by category",
	}, []string{"category"})

	m.roundsCompleted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rounds_completed_total",
		Help:      "Total number of rounds that reached results, by category",
	}, []string{"category"})

	m.roundScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "round_score",
		Help:      "Final score of completed rounds",
		Buckets:   []float64{0, 10, 20, 40, 60, 80, 100, 150, 200, 300},
	})

	m.guesses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "guesses_total",
		Help:      "Submitted guesses by result (correct, wrong)",
	}, []string{"result"})

	m.hints = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hints_total",
		Help:      "Hint requests by result (granted, refused)",
	}, []string{"result"})

	m.ticks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ticks_total",
		Help:      "Countdown ticks applied to a playing session",
	})

	m.staleTicks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ticks_stale_total",
		Help:      "Ticks discarded because they belonged to a cancelled countdown",
	})

	m.droppedTicks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ticks_dropped_total",
		Help:      "Ticks that could not be enqueued because the command queue was full",
	})

	m.commands = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "commands_total",
		Help:      "Commands handled by session actors, by kind and outcome",
	}, []string{"kind", "outcome"})

	m.commandLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "command_latency_milliseconds",
		Help:      "Time from enqueue to reply, by command kind",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
	}, []string{"kind"})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueued_total",
		Help:      "Commands accepted onto a session queue",
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_rejected_total",
		Help:      "Commands rejected by a session queue, by reason",
	}, []string{"reason"})

	m.duplicateActions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "actions_duplicate_total",
		Help:      "Actions skipped because their idempotency key was already seen",
	})

	m.eventsPublished = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_published_total",
		Help:      "Events delivered to session subscribers",
	})

	m.eventsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Events dropped for slow subscribers",
	})

	m.wsConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "websocket_connections",
		Help:      "Open WebSocket event streams",
	})

	m.scoreStoreLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_store_latency_milliseconds",
		Help:      "Best-score store operation latency",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250},
	}, []string{"op"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total number of errors by component",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Session Metrics Functions.

// RecordSessionCreated increments the sessions created counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// UpdateSessionsActive sets the number of live sessions.
func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordSessionClosed counts a removed session (deleted, idle, shutdown).
func RecordSessionClosed(reason string) {
	globalManager.sessionsEvicted.WithLabelValues(reason).Inc()
}

// Gameplay Metrics Functions.

// RecordRoundStarted counts a round entering play.
func RecordRoundStarted(category string) {
	globalManager.roundsStarted.WithLabelValues(category).Inc()
}

// RecordRoundCompleted counts a round reaching results and observes its score.
func RecordRoundCompleted(category string, score int) {
	globalManager.roundsCompleted.WithLabelValues(category).Inc()
	globalManager.roundScore.Observe(float64(score))
}

// RecordGuess counts a submitted guess.
func RecordGuess(correct bool) {
	if correct {
		globalManager.guesses.WithLabelValues("correct").Inc()
		return
	}
	globalManager.guesses.WithLabelValues("wrong").Inc()
}

// RecordHint counts a hint request.
func RecordHint(granted bool) {
	if granted {
		globalManager.hints.WithLabelValues("granted").Inc()
		return
	}
	globalManager.hints.WithLabelValues("refused").Inc()
}

// RecordTick counts an applied tick.
func RecordTick() {
	globalManager.ticks.Inc()
}

// RecordStaleTick counts a discarded tick.
func RecordStaleTick() {
	globalManager.staleTicks.Inc()
}

// RecordDroppedTick counts a tick lost to a full queue.
func RecordDroppedTick() {
	globalManager.droppedTicks.Inc()
}

// Command Pipeline Metrics Functions.

// RecordCommand counts a handled command.
func RecordCommand(kind, outcome string) {
	globalManager.commands.WithLabelValues(kind, outcome).Inc()
}

// RecordCommandLatency records time from enqueue to reply in milliseconds.
func RecordCommandLatency(kind string, latencyMs float64) {
	globalManager.commandLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordQueueEnqueue counts an accepted command.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueRejected counts a rejected command.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// RecordDuplicateAction counts an idempotent replay.
func RecordDuplicateAction() {
	globalManager.duplicateActions.Inc()
}

// RecordEventPublished counts an event delivered to a subscriber.
func RecordEventPublished() {
	globalManager.eventsPublished.Inc()
}

// RecordEventDropped counts an event dropped for a slow subscriber.
func RecordEventDropped() {
	globalManager.eventsDropped.Inc()
}

// UpdateWebSocketConnections adjusts the open stream gauge by delta.
func UpdateWebSocketConnections(delta int) {
	globalManager.wsConnections.Add(float64(delta))
}

// RecordScoreStoreLatency records a best-score store call in milliseconds.
func RecordScoreStoreLatency(op string, latencyMs float64) {
	globalManager.scoreStoreLatency.WithLabelValues(op).Observe(latencyMs)
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

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

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
