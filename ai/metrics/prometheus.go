// Package metrics provides Prometheus metrics export for the coaching
// engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports coaching metrics in Prometheus format.
// All record methods are safe on a nil receiver so callers can run
// without metrics wired.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Decision agent metrics
	decisions       *prometheus.CounterVec
	decisionLatency *prometheus.HistogramVec

	// Tool call metrics
	toolCalls   *prometheus.CounterVec
	toolLatency *prometheus.HistogramVec

	// Snapshot metrics
	snapshotReads   *prometheus.CounterVec
	refreshMembers  *prometheus.CounterVec
	refreshDuration prometheus.Histogram

	// Guardrail metrics
	guardrailRejections *prometheus.CounterVec

	// Conversation threading metrics
	threadFailures *prometheus.CounterVec

	// LLM token metrics
	llmTokensUsed   *prometheus.CounterVec
	llmTokensCached *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "coach_decisions_total",
			Help:      "Total coach decisions by type and outcome",
		},
		[]string{"decision_type", "outcome"},
	)

	e.decisionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "coach_decision_latency_seconds",
			Help:      "Decision call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"outcome"},
	)

	e.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "tool_calls_total",
			Help:      "Total data tool calls",
		},
		[]string{"tool_name", "status"},
	)

	e.toolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "tool_latency_seconds",
			Help:      "Data tool latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"tool_name"},
	)

	e.snapshotReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "snapshot_reads_total",
			Help:      "Snapshot reads by freshness state",
		},
		[]string{"state"},
	)

	e.refreshMembers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "snapshot_refresh_members_total",
			Help:      "Members processed by refresh sweeps",
		},
		[]string{"result"},
	)

	e.refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "snapshot_refresh_duration_seconds",
			Help:      "Refresh sweep duration in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.guardrailRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "guardrail_rejections_total",
			Help:      "Memory notes rejected by the guardrail",
		},
		[]string{"reason"},
	)

	e.threadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "thread_failures_total",
			Help:      "Soft failures of the conversation threading provider",
		},
		[]string{"operation"},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmTokensCached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repcircle",
			Subsystem: "ai",
			Name:      "llm_tokens_cached_total",
			Help:      "LLM prompt tokens served from provider cache",
		},
		[]string{"model"},
	)

	registry.MustRegister(
		e.decisions,
		e.decisionLatency,
		e.toolCalls,
		e.toolLatency,
		e.snapshotReads,
		e.refreshMembers,
		e.refreshDuration,
		e.guardrailRejections,
		e.threadFailures,
		e.llmTokensUsed,
		e.llmTokensCached,
	)

	return e
}

// RecordDecision records one decision call.
func (e *PrometheusExporter) RecordDecision(decisionType, outcome string, latency time.Duration) {
	if e == nil {
		return
	}
	e.decisions.WithLabelValues(decisionType, outcome).Inc()
	e.decisionLatency.WithLabelValues(outcome).Observe(latency.Seconds())
}

// RecordToolCall records a data tool call.
func (e *PrometheusExporter) RecordToolCall(toolName string, latency time.Duration, success bool) {
	if e == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	e.toolCalls.WithLabelValues(toolName, status).Inc()
	e.toolLatency.WithLabelValues(toolName).Observe(latency.Seconds())
}

// RecordSnapshotRead records a snapshot read by freshness state.
func (e *PrometheusExporter) RecordSnapshotRead(state string) {
	if e == nil {
		return
	}
	e.snapshotReads.WithLabelValues(state).Inc()
}

// RecordRefreshRun records a refresh sweep's member counts and duration.
func (e *PrometheusExporter) RecordRefreshRun(updated, errored int, duration time.Duration) {
	if e == nil {
		return
	}
	e.refreshMembers.WithLabelValues("updated").Add(float64(updated))
	e.refreshMembers.WithLabelValues("errored").Add(float64(errored))
	e.refreshDuration.Observe(duration.Seconds())
}

// RecordGuardrailRejection records a rejected memory note by reason code.
func (e *PrometheusExporter) RecordGuardrailRejection(reason string) {
	if e == nil {
		return
	}
	e.guardrailRejections.WithLabelValues(reason).Inc()
}

// RecordThreadFailure records a soft threading failure.
func (e *PrometheusExporter) RecordThreadFailure(operation string) {
	if e == nil {
		return
	}
	e.threadFailures.WithLabelValues(operation).Inc()
}

// RecordLLMTokens records LLM token usage.
func (e *PrometheusExporter) RecordLLMTokens(model, tokenType string, count int) {
	if e == nil {
		return
	}
	e.llmTokensUsed.WithLabelValues(model, tokenType).Add(float64(count))
}

// RecordLLMCachedTokens records provider-cached prompt tokens.
func (e *PrometheusExporter) RecordLLMCachedTokens(model string, count int) {
	if e == nil {
		return
	}
	e.llmTokensCached.WithLabelValues(model).Add(float64(count))
}

// GetHandler returns the HTTP handler for Prometheus metrics.
func (e *PrometheusExporter) GetHandler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.GetHandler().ServeHTTP(w, r)
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
