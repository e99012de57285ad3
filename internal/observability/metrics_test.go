package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// newTestMetrics builds a Metrics using fresh collectors (not promauto's
// default registry) so tests never collide with each other or with a
// real process's /metrics endpoint.
func newTestMetrics() *Metrics {
	return &Metrics{
		LLMRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "t_llm_request_duration_seconds", Buckets: []float64{0.1, 1, 10}},
			[]string{"provider", "model"},
		),
		LLMRequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "t_llm_requests_total"},
			[]string{"provider", "model", "status"},
		),
		LLMTokensUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "t_llm_tokens_total"},
			[]string{"provider", "model", "type"},
		),
		LLMCostUSD: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "t_llm_cost_usd_total"},
			[]string{"provider", "model"},
		),
		ToolExecutionCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "t_tool_executions_total"},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "t_tool_execution_duration_seconds", Buckets: []float64{0.1, 1, 10}},
			[]string{"tool_name"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "t_step_duration_seconds", Buckets: []float64{0.1, 1, 10}},
			[]string{"phase"},
		),
		StepsPerRun: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "t_steps_per_run", Buckets: []float64{1, 5, 10, 30}},
			[]string{"status"},
		),
		ErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "t_errors_total"},
			[]string{"component", "error_type"},
		),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{Name: "t_active_runs"}),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "t_runs_total"},
			[]string{"status"},
		),
		VerificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "t_verifications_total"},
			[]string{"passed"},
		),
	}
}

func TestRecordLLMRequest(t *testing.T) {
	m := newTestMetrics()
	m.RecordLLMRequest("anthropic", "claude-3-opus", "success", 1.2, 400, 120)
	m.RecordLLMRequest("anthropic", "claude-3-opus", "error", 0.5, 0, 0)

	if got := testutil.ToFloat64(m.LLMRequestCounter.WithLabelValues("anthropic", "claude-3-opus", "success")); got != 1 {
		t.Errorf("success counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LLMTokensUsed.WithLabelValues("anthropic", "claude-3-opus", "prompt")); got != 400 {
		t.Errorf("prompt tokens = %v, want 400", got)
	}
	if got := testutil.ToFloat64(m.LLMTokensUsed.WithLabelValues("anthropic", "claude-3-opus", "completion")); got != 120 {
		t.Errorf("completion tokens = %v, want 120", got)
	}
}

func TestRecordLLMCost(t *testing.T) {
	m := newTestMetrics()
	m.RecordLLMCost("openai", "gpt-4", 0.015)
	m.RecordLLMCost("openai", "gpt-4", 0.02)

	if got := testutil.ToFloat64(m.LLMCostUSD.WithLabelValues("openai", "gpt-4")); got < 0.034 || got > 0.036 {
		t.Errorf("cost = %v, want ~0.035", got)
	}
}

func TestRecordToolExecution(t *testing.T) {
	m := newTestMetrics()
	m.RecordToolExecution("click", "success", 0.08)
	m.RecordToolExecution("click", "success", 0.05)
	m.RecordToolExecution("fill", "error", 0.1)

	if got := testutil.ToFloat64(m.ToolExecutionCounter.WithLabelValues("click", "success")); got != 2 {
		t.Errorf("click success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ToolExecutionCounter.WithLabelValues("fill", "error")); got != 1 {
		t.Errorf("fill error count = %v, want 1", got)
	}
}

func TestRecordError(t *testing.T) {
	m := newTestMetrics()
	m.RecordError("step", "llm_timeout")
	m.RecordError("step", "llm_timeout")
	m.RecordError("tool", "execution_failed")

	if got := testutil.ToFloat64(m.ErrorCounter.WithLabelValues("step", "llm_timeout")); got != 2 {
		t.Errorf("step/llm_timeout count = %v, want 2", got)
	}
}

func TestRunLifecycle(t *testing.T) {
	m := newTestMetrics()
	m.RunStarted()
	m.RunStarted()
	if got := testutil.ToFloat64(m.ActiveRuns); got != 2 {
		t.Errorf("active runs = %v, want 2", got)
	}

	m.RunFinished("completed", 7)
	if got := testutil.ToFloat64(m.ActiveRuns); got != 1 {
		t.Errorf("active runs after one finish = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")); got != 1 {
		t.Errorf("completed runs = %v, want 1", got)
	}
}

func TestRecordVerification(t *testing.T) {
	m := newTestMetrics()
	m.RecordVerification(true)
	m.RecordVerification(false)
	m.RecordVerification(true)

	if got := testutil.ToFloat64(m.VerificationsTotal.WithLabelValues("true")); got != 2 {
		t.Errorf("passed=true count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.VerificationsTotal.WithLabelValues("false")); got != 1 {
		t.Errorf("passed=false count = %v, want 1", got)
	}
}
