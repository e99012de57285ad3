// Package observability provides monitoring and debugging capabilities for
// the Task Runner, Verifier, and Step Loop through metrics, structured
// logging, and distributed tracing.
//
// # Overview
//
// The observability package implements the three pillars of observability:
//
//  1. Metrics - Quantitative measurements using Prometheus
//  2. Logging - Structured logs with sensitive data redaction
//  3. Tracing - Distributed request tracing with OpenTelemetry
//
// # Architecture
//
// The package is designed to be:
//   - Low-overhead: Minimal performance impact during a step loop
//   - Type-safe: Strongly-typed APIs reduce configuration errors
//   - Production-ready: Built-in security (redaction) and reliability features
//   - Standards-based: Uses Prometheus, OpenTelemetry, and slog
//
// # Metrics
//
// Metrics are implemented using Prometheus client libraries and track:
//   - LLM API request latency, token usage, and estimated cost
//   - Tool execution performance
//   - Error rates by component and type
//   - Active Task Runner invocations and their outcomes
//   - agent.verify(condition) verdicts
//
// Example usage:
//
//	metrics := observability.NewMetrics()
//
//	// Track a Task Runner invocation
//	metrics.RunStarted()
//	defer metrics.RunFinished(string(run.Status), run.StepCount)
//
//	// Track LLM requests
//	start := time.Now()
//	// ... call the LLM adapter ...
//	metrics.RecordLLMRequest("anthropic", "claude-3-opus", "success",
//	    time.Since(start).Seconds(), promptTokens, completionTokens)
//
//	// Track tool execution
//	start = time.Now()
//	// ... dispatch a tool ...
//	metrics.RecordToolExecution("click", "success", time.Since(start).Seconds())
//
// # Logging
//
// Logging is built on Go's slog package with enhancements for:
//   - Automatic run ID and step index correlation from context
//   - Sensitive data redaction (API keys, passwords, tokens)
//   - JSON output for production, text for development
//   - Configurable log levels
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    AddSource: true,
//	})
//
//	// Add correlation IDs
//	ctx := observability.AddRunID(ctx, run.RunID)
//	ctx = observability.AddStepIndex(ctx, stepIndex)
//
//	// Structured logging with automatic context correlation
//	logger.Info(ctx, "dispatching tool call",
//	    "tool", call.Name,
//	    "arguments_bytes", len(call.Arguments),
//	)
//
//	// Error logging with automatic redaction
//	logger.Error(ctx, "LLM request failed",
//	    "error", err,
//	    "provider", "anthropic",
//	    "api_key", apiKey, // Automatically redacted
//	)
//
// # Tracing
//
// Distributed tracing uses OpenTelemetry to track a task across the Step
// Loop's phases:
//   - End-to-end run visualization, one span per step
//   - Performance bottleneck identification (which phase is slow)
//   - Error correlation between a step's LLM call and its tool dispatch
//
// Example usage:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName:    "webtask",
//	    ServiceVersion: "1.0.0",
//	    Environment:    "production",
//	    Endpoint:       "localhost:4317", // OTLP collector
//	    SamplingRate:   0.1,              // Sample 10% of traces
//	})
//	defer shutdown(context.Background())
//
//	// Trace one run end to end
//	ctx, runSpan := tracer.TraceRun(ctx, run.RunID, task)
//	defer runSpan.End()
//
//	// Trace one step within that run
//	ctx, stepSpan := tracer.TraceStep(ctx, run.RunID, stepIndex)
//	defer stepSpan.End()
//
//	// Trace the step's LLM call
//	ctx, llmSpan := tracer.TraceLLMRequest(ctx, "anthropic", "claude-3-opus")
//	defer llmSpan.End()
//	tracer.SetAttributes(llmSpan, "prompt_tokens", 100, "completion_tokens", 500)
//
//	// Trace a dispatched tool
//	ctx, toolSpan := tracer.TraceToolExecution(ctx, "click")
//	defer toolSpan.End()
//	if err != nil {
//	    tracer.RecordError(toolSpan, err)
//	}
//
// # Context Propagation
//
// All three components integrate with Go's context for automatic correlation:
//
//	// Add IDs to context
//	ctx = observability.AddRequestID(ctx, "req-123")
//	ctx = observability.AddRunID(ctx, run.RunID)
//	ctx = observability.AddStepIndex(ctx, stepIndex)
//
//	// IDs automatically appear in logs
//	logger.Info(ctx, "step complete") // Includes run_id, step_index
//
//	// Spans inherit context
//	ctx, span := tracer.Start(ctx, "operation")
//	// Trace context propagates to child spans
//
// # Security Considerations
//
// The logging component automatically redacts:
//   - API keys (Anthropic, OpenAI, generic)
//   - Passwords and secrets
//   - JWT tokens
//   - Bearer tokens
//   - Custom patterns via configuration
//
// Sensitive fields in maps are also redacted:
//   - password, passwd, pwd
//   - secret, api_key, apikey
//   - token, auth, authorization
//   - private_key, privatekey
//
// # Performance
//
// The observability system is designed for minimal overhead relative to
// one step's dominant cost (the LLM round trip):
//   - Metrics use lock-free counters where possible
//   - Logging with slog is highly efficient
//   - Tracing supports sampling to reduce overhead
//
// # Configuration
//
// All components support configuration via structs:
//
//	// Metrics - no configuration needed, auto-registered
//	metrics := observability.NewMetrics()
//
//	// Logging - configurable output, level, format
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:          os.Getenv("LOG_LEVEL"),
//	    Format:         "json",
//	    AddSource:      true,
//	    RedactPatterns: []string{`custom-secret-\d+`},
//	})
//
//	// Tracing - configurable sampling, endpoint, attributes
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName:    "webtask",
//	    ServiceVersion: version,
//	    Environment:    env,
//	    Endpoint:       os.Getenv("OTEL_ENDPOINT"),
//	    SamplingRate:   0.1,
//	})
//	defer shutdown(context.Background())
//
// # Testing
//
// All components provide testable interfaces:
//   - Metrics can be verified using prometheus/testutil
//   - Logging can write to bytes.Buffer for assertions
//   - Tracing works with no-op exporters in tests
//
// # Monitoring Dashboard
//
// The metrics exposed can be used to build dashboards:
//
//	# LLM request latency (95th percentile)
//	histogram_quantile(0.95, rate(webtask_llm_request_duration_seconds_bucket[5m]))
//
//	# Error rate
//	rate(webtask_errors_total[5m])
//
//	# Active runs
//	webtask_active_runs
//
//	# Tool execution time
//	rate(webtask_tool_execution_duration_seconds_sum[5m]) /
//	rate(webtask_tool_execution_duration_seconds_count[5m])
//
//	# Run outcome mix
//	rate(webtask_runs_total[1h])
//
// # Alerting
//
// Recommended alerts based on metrics:
//   - High error rate: webtask_errors_total > threshold
//   - High LLM latency: p95 latency > 10s
//   - Runs piling up: webtask_active_runs growing unbounded
//   - Low completion rate: rate(webtask_runs_total{status="aborted"}[1h]) too high
//
// # Further Reading
//
//   - Prometheus best practices: https://prometheus.io/docs/practices/naming/
//   - OpenTelemetry specification: https://opentelemetry.io/docs/specs/otel/
//   - slog documentation: https://pkg.go.dev/log/slog
package observability
