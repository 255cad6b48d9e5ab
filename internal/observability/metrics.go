package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the research timeline service.
// Collectors are registered with the default registry via promauto.
type Metrics struct {
	// PipelineRunsTotal counts timeline pipeline runs, labeled by outcome (completed, failed).
	PipelineRunsTotal *prometheus.CounterVec

	// PipelineDuration observes the end-to-end duration of pipeline runs in seconds.
	PipelineDuration prometheus.Histogram

	// StageDuration observes per-stage duration in seconds, labeled by stage.
	StageDuration *prometheus.HistogramVec

	// CandidatesPerRun observes the number of unique candidates acquired per run.
	CandidatesPerRun prometheus.Histogram

	// EntriesPerTimeline observes the number of entries in each produced timeline.
	EntriesPerTimeline prometheus.Histogram

	// SourceRequestsTotal counts HTTP requests to bibliographic APIs, labeled by source, endpoint and status.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestDuration observes HTTP request duration to bibliographic APIs in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// PacingWaitSeconds counts total time spent in pacing delays, labeled by reason.
	PacingWaitSeconds *prometheus.CounterVec

	// LLMRequestsTotal counts generation requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed generation requests, labeled by operation, model and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes generation latency in seconds.
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensUsed counts tokens consumed, labeled by operation, model and direction.
	LLMTokensUsed *prometheus.CounterVec

	// SelectionStrategyUsed counts which selection strategy produced the final picks.
	SelectionStrategyUsed *prometheus.CounterVec

	// FallbacksTotal counts deterministic fallbacks taken, labeled by stage and reason.
	FallbacksTotal *prometheus.CounterVec

	// EventsPublished counts lifecycle events published, labeled by event type and outcome.
	EventsPublished *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of timeline pipeline runs by outcome",
		}, []string{"outcome"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of timeline pipeline runs in seconds",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		CandidatesPerRun: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_per_run",
			Help:      "Number of unique candidates acquired per run",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2000},
		}),
		EntriesPerTimeline: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "entries_per_timeline",
			Help:      "Number of entries per produced timeline",
			Buckets:   []float64{1, 2, 5, 8, 10, 15, 20},
		}),

		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to bibliographic sources",
		}, []string{"source", "endpoint", "status"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to bibliographic sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),
		PacingWaitSeconds: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pacing_wait_seconds_total",
			Help:      "Total seconds spent in pacing delays before upstream calls",
		}, []string{"reason"}),

		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests",
		}, []string{"operation", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation", "model"}),
		LLMTokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of LLM tokens used",
		}, []string{"operation", "model", "type"}),

		SelectionStrategyUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_strategy_used_total",
			Help:      "Total number of selections produced by each strategy",
		}, []string{"strategy"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of deterministic fallbacks taken",
		}, []string{"stage", "reason"}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of lifecycle events published",
		}, []string{"event_type", "outcome"}),
	}
}

// RecordPipelineCompleted records a successful run and the size of its timeline.
func (m *Metrics) RecordPipelineCompleted(durationSeconds float64, entries int) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues("completed").Inc()
	m.PipelineDuration.Observe(durationSeconds)
	m.EntriesPerTimeline.Observe(float64(entries))
}

// RecordPipelineFailed records a failed run.
func (m *Metrics) RecordPipelineFailed(durationSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues("failed").Inc()
	m.PipelineDuration.Observe(durationSeconds)
}

// RecordStage records the duration of a pipeline stage.
func (m *Metrics) RecordStage(stage string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordCandidates records the number of unique candidates acquired.
func (m *Metrics) RecordCandidates(count int) {
	if m == nil {
		return
	}
	m.CandidatesPerRun.Observe(float64(count))
}

// RecordSourceRequest records a request to a bibliographic source.
func (m *Metrics) RecordSourceRequest(source, endpoint, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SourceRequestsTotal.WithLabelValues(source, endpoint, status).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(duration.Seconds())
}

// RecordPacingWait records a pacing delay.
func (m *Metrics) RecordPacingWait(reason string, d time.Duration) {
	if m == nil {
		return
	}
	m.PacingWaitSeconds.WithLabelValues(reason).Add(d.Seconds())
}

// RecordLLMRequest records an LLM request.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
	m.LLMTokensUsed.WithLabelValues(operation, model, "input").Add(float64(inputTokens))
	m.LLMTokensUsed.WithLabelValues(operation, model, "output").Add(float64(outputTokens))
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string) {
	if m == nil {
		return
	}
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
}

// RecordSelectionStrategy records the strategy that produced the selection.
func (m *Metrics) RecordSelectionStrategy(strategy string) {
	if m == nil {
		return
	}
	m.SelectionStrategyUsed.WithLabelValues(strategy).Inc()
}

// RecordFallback records a deterministic fallback.
func (m *Metrics) RecordFallback(stage, reason string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(stage, reason).Inc()
}

// RecordEventPublished records the outcome of publishing a lifecycle event.
func (m *Metrics) RecordEventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, outcome).Inc()
}
