// Package metrics provides Prometheus metrics for the skill progress engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace string
	registry  prometheus.Registerer

	// Ingestion pipeline
	eventsApplied   prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsRejected  prometheus.Counter
	applyLatency    prometheus.Histogram
	queueSize       prometheus.Gauge
	workerCount     prometheus.Gauge

	// Engine
	trackedUsers     prometheus.Gauge
	catalogCacheHits prometheus.Counter
	catalogCacheMiss prometheus.Counter
	rankIndexUpdates prometheus.Counter
	rankQueryLatency prometheus.Histogram
	badgeEvaluations prometheus.Counter
	historyQueries   prometheus.Counter
	summaryQueries   prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "ascent",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.eventsApplied = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_applied_total",
		Help:      "Skill events accepted and appended to the event store.",
	})
	m.eventsDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_duplicate_total",
		Help:      "Skill events dropped by the idempotency check.",
	})
	m.eventsRejected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_rejected_total",
		Help:      "Skill events rejected by catalog validation.",
	})
	m.applyLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "event_apply_duration_ms",
		Help:      "Latency of applying one skill event, in milliseconds.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
	})
	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "event_queue_size",
		Help:      "Current number of queued skill events.",
	})
	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "worker_count",
		Help:      "Number of event workers.",
	})

	m.trackedUsers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "tracked_users",
		Help:      "Distinct users present in the ranking indexes.",
	})
	m.catalogCacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "catalog_cache_hits_total",
		Help:      "Catalog view cache hits.",
	})
	m.catalogCacheMiss = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "catalog_cache_misses_total",
		Help:      "Catalog view cache misses.",
	})
	m.rankIndexUpdates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rank_index_updates_total",
		Help:      "Upserts into per-scope ranking indexes.",
	})
	m.rankQueryLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "rank_query_duration_ms",
		Help:      "Latency of ranking and leaderboard queries, in milliseconds.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100},
	})
	m.badgeEvaluations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "badge_evaluations_total",
		Help:      "Badge condition evaluations performed.",
	})
	m.historyQueries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "point_history_queries_total",
		Help:      "Point history series built.",
	})
	m.summaryQueries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "summary_queries_total",
		Help:      "Overall and subject summaries built.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency by endpoint, method and status.",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000},
	}, []string{"endpoint", "method", "status"})
	m.httpErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_errors_total",
		Help:      "HTTP error responses by endpoint and class.",
	}, []string{"endpoint", "class"})

	return m
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers delegating to the global manager.

func RecordEventApplied()   { globalManager.eventsApplied.Inc() }
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }
func RecordEventRejected()  { globalManager.eventsRejected.Inc() }

func RecordEventApplyDuration(ms float64) { globalManager.applyLatency.Observe(ms) }

func UpdateQueueSize(n int)    { globalManager.queueSize.Set(float64(n)) }
func UpdateWorkerCount(n int)  { globalManager.workerCount.Set(float64(n)) }
func UpdateTrackedUsers(n int) { globalManager.trackedUsers.Set(float64(n)) }

func RecordCatalogCacheHit()  { globalManager.catalogCacheHits.Inc() }
func RecordCatalogCacheMiss() { globalManager.catalogCacheMiss.Inc() }

func RecordRankIndexUpdate()             { globalManager.rankIndexUpdates.Inc() }
func RecordRankQueryDuration(ms float64) { globalManager.rankQueryLatency.Observe(ms) }

func RecordBadgeEvaluation() { globalManager.badgeEvaluations.Inc() }
func RecordHistoryQuery()    { globalManager.historyQueries.Inc() }
func RecordSummaryQuery()    { globalManager.summaryQueries.Inc() }

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records the latency of one HTTP request.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// RecordHTTPError records an error response by classification.
func RecordHTTPError(endpoint, class string) {
	globalManager.httpErrors.WithLabelValues(endpoint, class).Inc()
}
