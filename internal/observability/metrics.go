package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting agent metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - LLM request performance, token usage, and estimated cost
//   - Tool execution patterns and latencies
//   - Step Loop throughput and error rates
//   - Task Runner outcome counts for capacity planning
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.RecordLLMRequest("anthropic", "claude-3-opus", "success", 1.2, 400, 120)
//	metrics.RecordToolExecution("click", "success", 0.08)
type Metrics struct {
	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: provider (anthropic|openai|gemini|bedrock), model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by provider and model.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption.
	// Labels: provider, model, type (prompt|completion)
	LLMTokensUsed *prometheus.CounterVec

	// LLMCostUSD tracks estimated cost in USD.
	// Labels: provider, model
	LLMCostUSD *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// StepDuration measures one Step Loop round trip (observe through
	// record) in seconds.
	StepDuration *prometheus.HistogramVec

	// StepsPerRun records how many steps a Task Runner invocation took
	// before reaching a terminal state, bucketed for dashboarding.
	// Labels: status (completed|aborted|exhausted)
	StepsPerRun *prometheus.HistogramVec

	// ErrorCounter tracks errors by component and error type.
	// Labels: component (runner|verifier|step|tool|llm), error_type
	ErrorCounter *prometheus.CounterVec

	// ActiveRuns is a gauge tracking Task Runner invocations currently
	// in flight.
	ActiveRuns prometheus.Gauge

	// RunsTotal counts completed Task Runner invocations by outcome.
	// Labels: status (completed|aborted|exhausted)
	RunsTotal *prometheus.CounterVec

	// VerificationsTotal counts agent.verify(condition) calls by verdict.
	// Labels: passed (true|false)
	VerificationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
// This should be called once at application startup.
func NewMetrics() *Metrics {
	return &Metrics{
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webtask_llm_request_duration_seconds",
				Help:    "Duration of LLM API requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtask_llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtask_llm_tokens_total",
				Help: "Total number of tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),

		LLMCostUSD: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtask_llm_cost_usd_total",
				Help: "Estimated LLM API cost in USD",
			},
			[]string{"provider", "model"},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtask_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webtask_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),

		StepDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webtask_step_duration_seconds",
				Help:    "Duration of one Step Loop round trip in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"phase"},
		),

		StepsPerRun: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "webtask_steps_per_run",
				Help:    "Number of steps a Task Runner invocation took before a terminal state",
				Buckets: []float64{1, 2, 5, 10, 15, 20, 30, 50, 100},
			},
			[]string{"status"},
		),

		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtask_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),

		ActiveRuns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "webtask_active_runs",
				Help: "Current number of Task Runner invocations in flight",
			},
		),

		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtask_runs_total",
				Help: "Total number of Task Runner invocations by terminal status",
			},
			[]string{"status"},
		),

		VerificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webtask_verifications_total",
				Help: "Total number of agent.verify(condition) calls by verdict",
			},
			[]string{"passed"},
		),
	}
}

// RecordLLMRequest records metrics for one LLM API request.
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordLLMCost records estimated API cost for one LLM request.
func (m *Metrics) RecordLLMCost(provider, model string, costUSD float64) {
	m.LLMCostUSD.WithLabelValues(provider, model).Add(costUSD)
}

// RecordToolExecution records metrics for one tool execution.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordStepPhase records how long one phase of the Step Loop took
// (observe, prompt, execute, record).
func (m *Metrics) RecordStepPhase(phase string, durationSeconds float64) {
	m.StepDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordError increments the error counter for a given component and
// error type.
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorCounter.WithLabelValues(component, errorType).Inc()
}

// RunStarted increments the active-runs gauge.
func (m *Metrics) RunStarted() {
	m.ActiveRuns.Inc()
}

// RunFinished decrements the active-runs gauge and records the
// terminal status and step count of the run that just ended.
func (m *Metrics) RunFinished(status string, stepCount int) {
	m.ActiveRuns.Dec()
	m.RunsTotal.WithLabelValues(status).Inc()
	m.StepsPerRun.WithLabelValues(status).Observe(float64(stepCount))
}

// RecordVerification records the verdict of one agent.verify(condition)
// call.
func (m *Metrics) RecordVerification(passed bool) {
	label := "false"
	if passed {
		label = "true"
	}
	m.VerificationsTotal.WithLabelValues(label).Inc()
}
