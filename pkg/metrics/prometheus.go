// Package metrics provides Prometheus metrics for the pathwise engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric the engine emits.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingestion metrics
	eventsProcessed *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	eventLatency    prometheus.Histogram

	// Profile metrics
	profileSaves      prometheus.Counter
	profileSaveErrors prometheus.Counter
	profileLoads      prometheus.Counter
	profileCacheHits  prometheus.Counter
	profileCacheMiss  prometheus.Counter
	profilesPublished prometheus.Counter
	publishErrors     prometheus.Counter

	// Journey metrics
	transitionsTracked prometheus.Counter

	// Recommendation metrics
	recommendationsServed   prometheus.Counter
	recommendationCacheHits prometheus.Counter
	noContentAvailable      prometheus.Counter
	scoringLatency          prometheus.Histogram
	banditSelections        *prometheus.CounterVec

	// Operational metrics
	consumerWorkers prometheus.Gauge
	dedupeSize      prometheus.Gauge
	trackedProfiles prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pathwise",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_processed_total",
		Help:      "Total number of behavioral events processed, by topic",
	}, []string{"topic"})

	m.eventsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Total number of events dropped, by reason",
	}, []string{"reason"})

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of duplicate events skipped by the deduper",
	})

	m.eventLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_processing_latency_milliseconds",
		Help:      "Histogram of per-event processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.profileSaves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_saves_total",
		Help:      "Total number of profile writes to the store",
	})

	m.profileSaveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_save_errors_total",
		Help:      "Total number of failed profile writes (processing continues)",
	})

	m.profileLoads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_loads_total",
		Help:      "Total number of profile reads from the store",
	})

	m.profileCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_cache_hits_total",
		Help:      "Total number of profile cache hits",
	})

	m.profileCacheMiss = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_cache_misses_total",
		Help:      "Total number of profile cache misses",
	})

	m.profilesPublished = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_updates_published_total",
		Help:      "Total number of profile updates published downstream",
	})

	m.publishErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profile_publish_errors_total",
		Help:      "Total number of failed profile-update publishes (swallowed)",
	})

	m.transitionsTracked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "journey_transitions_total",
		Help:      "Total number of content transitions recorded",
	})

	m.recommendationsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendations_served_total",
		Help:      "Total number of recommendation lists generated",
	})

	m.recommendationCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendation_cache_hits_total",
		Help:      "Total number of recommendation lists served from cache",
	})

	m.noContentAvailable = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "no_content_available_total",
		Help:      "Total number of requests with an empty candidate set",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of candidate scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.banditSelections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bandit_selections_total",
		Help:      "Total number of bandit branch selections, by branch",
	}, []string{"branch"})

	m.consumerWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "consumer_workers",
		Help:      "Current number of consumer workers",
	})

	m.dedupeSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedupe_entries",
		Help:      "Current number of entries in the event deduper",
	})

	m.trackedProfiles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_profiles",
		Help:      "Current number of profiles held in the in-memory cache",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Ingestion metrics functions.

// RecordEventProcessed increments the processed counter for a topic.
func RecordEventProcessed(topic string) {
	globalManager.eventsProcessed.WithLabelValues(topic).Inc()
}

// RecordEventDropped increments the dropped counter for a reason.
func RecordEventDropped(reason string) {
	globalManager.eventsDropped.WithLabelValues(reason).Inc()
}

// RecordEventDuplicate increments the duplicate counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordEventLatency records per-event processing latency.
func RecordEventLatency(latencyMs float64) {
	globalManager.eventLatency.Observe(latencyMs)
}

// Profile metrics functions.

// RecordProfileSave increments the profile save counter.
func RecordProfileSave() {
	globalManager.profileSaves.Inc()
}

// RecordProfileSaveError increments the failed-save counter.
func RecordProfileSaveError() {
	globalManager.profileSaveErrors.Inc()
}

// RecordProfileLoad increments the profile load counter.
func RecordProfileLoad() {
	globalManager.profileLoads.Inc()
}

// RecordProfileCacheHit increments the profile cache hit counter.
func RecordProfileCacheHit() {
	globalManager.profileCacheHits.Inc()
}

// RecordProfileCacheMiss increments the profile cache miss counter.
func RecordProfileCacheMiss() {
	globalManager.profileCacheMiss.Inc()
}

// RecordProfilePublished increments the published-updates counter.
func RecordProfilePublished() {
	globalManager.profilesPublished.Inc()
}

// RecordPublishError increments the publish error counter.
func RecordPublishError() {
	globalManager.publishErrors.Inc()
}

// Journey metrics functions.

// RecordTransitionTracked increments the transition counter.
func RecordTransitionTracked() {
	globalManager.transitionsTracked.Inc()
}

// Recommendation metrics functions.

// RecordRecommendationsServed increments the served counter.
func RecordRecommendationsServed() {
	globalManager.recommendationsServed.Inc()
}

// RecordRecommendationCacheHit increments the cache hit counter.
func RecordRecommendationCacheHit() {
	globalManager.recommendationCacheHits.Inc()
}

// RecordNoContentAvailable increments the empty-candidate counter.
func RecordNoContentAvailable() {
	globalManager.noContentAvailable.Inc()
}

// RecordScoringLatency records candidate scoring latency.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordBanditSelection increments the counter for an explore/exploit branch.
func RecordBanditSelection(branch string) {
	globalManager.banditSelections.WithLabelValues(branch).Inc()
}

// Operational metrics functions.

// UpdateConsumerWorkers sets the current consumer worker count.
func UpdateConsumerWorkers(count int) {
	globalManager.consumerWorkers.Set(float64(count))
}

// UpdateDedupeSize sets the current deduper entry count.
func UpdateDedupeSize(size int64) {
	globalManager.dedupeSize.Set(float64(size))
}

// UpdateTrackedProfiles sets the current profile cache size.
func UpdateTrackedProfiles(count int) {
	globalManager.trackedProfiles.Set(float64(count))
}

// HTTP metrics functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by the engine.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
