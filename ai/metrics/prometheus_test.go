package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPrometheusExporter(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	t.Run("RecordDecision", func(t *testing.T) {
		exporter.RecordDecision("generate_workout", "ok", 800*time.Millisecond)
		exporter.RecordDecision("ask_clarification", "ok", 500*time.Millisecond)
		exporter.RecordDecision("provide_advice", "fallback", 700*time.Millisecond)
	})

	t.Run("RecordToolCall", func(t *testing.T) {
		exporter.RecordToolCall("recent_workouts", 20*time.Millisecond, true)
		exporter.RecordToolCall("save_memory", 15*time.Millisecond, false)
	})

	t.Run("RecordSnapshot", func(t *testing.T) {
		exporter.RecordSnapshotRead("fresh")
		exporter.RecordSnapshotRead("stale")
		exporter.RecordSnapshotRead("absent")
		exporter.RecordRefreshRun(48, 2, 12*time.Second)
	})

	t.Run("RecordGuardrailRejection", func(t *testing.T) {
		exporter.RecordGuardrailRejection("pii_email")
		exporter.RecordGuardrailRejection("no_meaningful_content")
	})

	t.Run("RecordThreadFailure", func(t *testing.T) {
		exporter.RecordThreadFailure("respond")
	})

	t.Run("RecordLLM", func(t *testing.T) {
		exporter.RecordLLMTokens("gpt-4o-mini", "prompt", 100)
		exporter.RecordLLMTokens("gpt-4o-mini", "completion", 50)
		exporter.RecordLLMCachedTokens("gpt-4o-mini", 80)
	})
}

func TestPrometheusExporterHandler(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	exporter.RecordDecision("generate_workout", "ok", 800*time.Millisecond)
	exporter.RecordSnapshotRead("fresh")
	exporter.RecordGuardrailRejection("pii_ssn")
	exporter.RecordLLMTokens("gpt-4o-mini", "prompt", 100)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	exporter.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "repcircle_ai_coach_decisions_total") {
		t.Error("expected coach_decisions_total metric in output")
	}
	if !strings.Contains(body, "repcircle_ai_snapshot_reads_total") {
		t.Error("expected snapshot_reads_total metric in output")
	}
	if !strings.Contains(body, "repcircle_ai_guardrail_rejections_total") {
		t.Error("expected guardrail_rejections_total metric in output")
	}
	if !strings.Contains(body, "repcircle_ai_llm_tokens_total") {
		t.Error("expected llm_tokens_total metric in output")
	}
}

func TestPrometheusExporterNilReceiver(t *testing.T) {
	var exporter *PrometheusExporter

	// None of these may panic when metrics are not wired.
	exporter.RecordDecision("provide_advice", "ok", time.Second)
	exporter.RecordToolCall("goal_progress", time.Millisecond, true)
	exporter.RecordSnapshotRead("fresh")
	exporter.RecordRefreshRun(1, 0, time.Second)
	exporter.RecordGuardrailRejection("pii_phone")
	exporter.RecordThreadFailure("create")
	exporter.RecordLLMTokens("gpt-4o-mini", "prompt", 10)
	exporter.RecordLLMCachedTokens("gpt-4o-mini", 5)
}

func BenchmarkPrometheusExporter(b *testing.B) {
	exporter := NewPrometheusExporter(DefaultConfig())

	b.Run("RecordDecision", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordDecision("generate_workout", "ok", 100*time.Millisecond)
		}
	})

	b.Run("RecordSnapshotRead", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordSnapshotRead("fresh")
		}
	})
}
