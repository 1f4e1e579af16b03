package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherNames(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestManagerRegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewManager(WithPrometheusRegistry(reg), WithNamespace("pathwise"), WithSubsystem("engine"))

	names := gatherNames(t, reg)

	expected := []string{
		"pathwise_engine_events_duplicate_total",
		"pathwise_engine_event_processing_latency_milliseconds",
		"pathwise_engine_profile_saves_total",
		"pathwise_engine_profile_save_errors_total",
		"pathwise_engine_profile_loads_total",
		"pathwise_engine_profile_cache_hits_total",
		"pathwise_engine_profile_cache_misses_total",
		"pathwise_engine_profile_updates_published_total",
		"pathwise_engine_profile_publish_errors_total",
		"pathwise_engine_journey_transitions_total",
		"pathwise_engine_recommendations_served_total",
		"pathwise_engine_recommendation_cache_hits_total",
		"pathwise_engine_no_content_available_total",
		"pathwise_engine_scoring_latency_milliseconds",
		"pathwise_engine_consumer_workers",
		"pathwise_engine_dedupe_entries",
		"pathwise_engine_tracked_profiles",
	}
	for _, name := range expected {
		if _, ok := names[name]; !ok {
			t.Errorf("metric %s not registered", name)
		}
	}

	for name := range names {
		if !strings.HasPrefix(name, "pathwise_engine_") {
			t.Errorf("unexpected metric outside the engine namespace: %s", name)
		}
	}
}

func TestGlobalHelpers(t *testing.T) {
	RecordEventProcessed("content_journey")
	RecordEventDropped("malformed")
	RecordEventDuplicate()
	RecordEventLatency(12)
	RecordProfileSave()
	RecordProfileSaveError()
	RecordProfileLoad()
	RecordProfileCacheHit()
	RecordProfileCacheMiss()
	RecordProfilePublished()
	RecordPublishError()
	RecordTransitionTracked()
	RecordRecommendationsServed()
	RecordRecommendationCacheHit()
	RecordNoContentAvailable()
	RecordScoringLatency(5)
	RecordBanditSelection("exploit")
	UpdateConsumerWorkers(8)
	UpdateDedupeSize(100)
	UpdateTrackedProfiles(42)
	RecordHTTPRequest("stats", "GET", "200")
	RecordHTTPRequestDuration("stats", "GET", "200", 1.5)

	names := gatherNames(t, GetRegistry())

	// Vec metrics only appear after their first observation.
	vecs := []string{
		"pathwise_engine_events_processed_total",
		"pathwise_engine_events_dropped_total",
		"pathwise_engine_bandit_selections_total",
		"pathwise_engine_http_requests_total",
		"pathwise_engine_http_request_duration_milliseconds",
	}
	for _, name := range vecs {
		if _, ok := names[name]; !ok {
			t.Errorf("vector metric %s has no observations", name)
		}
	}

	workers := names["pathwise_engine_consumer_workers"]
	if workers == nil || len(workers.Metric) == 0 {
		t.Fatal("consumer workers gauge missing")
	}
	if got := workers.Metric[0].GetGauge().GetValue(); got != 8 {
		t.Errorf("consumer workers gauge = %v, want 8", got)
	}
}

func TestManagerOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewManager(
		WithPrometheusRegistry(reg),
		WithNamespace("custom"),
		WithSubsystem("unit"),
		WithHistogramBuckets([]float64{1, 10, 100}),
		WithMetricsEnabled(true),
	)

	names := gatherNames(t, reg)
	if _, ok := names["custom_unit_profile_saves_total"]; !ok {
		t.Error("custom namespace/subsystem not applied")
	}
}
