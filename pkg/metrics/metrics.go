package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LLMCallLatency generation backend call latency in milliseconds.
	LLMCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtriage_llm_call_latency_ms",
			Help:    "Generation service call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(50, 2, 12), // 50ms to ~100s
		},
		[]string{"provider", "status"},
	)

	// PipelineFallbackCount counts steps that substituted their default value.
	PipelineFallbackCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_pipeline_fallback_total",
			Help: "Total number of pipeline steps that fell back to their default value",
		},
		[]string{"step", "reason"},
	)

	// EmailProcessedCount counts triaged emails by final query type.
	EmailProcessedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_email_processed_total",
			Help: "Total number of emails processed",
		},
		[]string{"query_type", "urgency"},
	)

	// FollowupScheduledCount counts follow-up events, by publish status.
	FollowupScheduledCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_followup_scheduled_total",
			Help: "Total number of follow-ups scheduled",
		},
		[]string{"status"}, // status: published, failed, skipped
	)

	// CacheLookupCount counts prompt cache lookups.
	CacheLookupCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_prompt_cache_lookup_total",
			Help: "Prompt cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// HTTPRequestDuration HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtriage_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordLLMCallLatency records the latency of one generation call.
func RecordLLMCallLatency(provider, status string, duration time.Duration) {
	LLMCallLatency.WithLabelValues(provider, status).Observe(float64(duration.Milliseconds()))
}

// IncrementFallback increments the fallback counter for step and reason.
func IncrementFallback(step, reason string) {
	PipelineFallbackCount.WithLabelValues(step, reason).Inc()
}

// IncrementEmailProcessed increments the processed counter.
func IncrementEmailProcessed(queryType, urgency string) {
	EmailProcessedCount.WithLabelValues(queryType, urgency).Inc()
}

// IncrementFollowupScheduled increments the follow-up counter.
func IncrementFollowupScheduled(status string) {
	FollowupScheduledCount.WithLabelValues(status).Inc()
}

// IncrementCacheLookup increments the prompt cache counter.
func IncrementCacheLookup(result string) {
	CacheLookupCount.WithLabelValues(result).Inc()
}

// RecordHTTPRequestDuration records an HTTP request latency.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
