// Package extractor implements agent.extract(query, schema?) — not a
// named module in spec.md's C-numbered list, but the same restricted
// Worker shape spec.md §4.9 describes for the Verifier ("implements the
// same state machine"), grounded directly on internal/verifier: an
// observe-only toolset plus one terminal tool, here producing a value
// instead of a bool verdict.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/message"
	"github.com/steve-z-wang/webtask/internal/model"
	"github.com/steve-z-wang/webtask/internal/step"
	"github.com/steve-z-wang/webtask/internal/tool"
)

// extractSystemPrompt mirrors the Verifier's fixed-prompt approach
// (verifySystemPrompt), restated for extraction's read-then-report shape
// instead of a pass/fail verdict.
const extractSystemPrompt = "You are extracting information from the current page to answer a query. " +
	"Use the available tools to observe the page, then call extract_result exactly once with the extracted value."

// Config tunes an Extractor's Worker, the same two knobs as
// internal/verifier's Config.
type Config struct {
	UseScreenshot bool
	MaxSteps      int
}

// DefaultConfig mirrors internal/verifier's: a handful of observations
// should be enough to read a value off the page.
func DefaultConfig() Config {
	return Config{UseScreenshot: true, MaxSteps: 5}
}

// Extractor drives a restricted Worker (observation tools plus a single
// extract_result terminal tool) to a value.
type Extractor struct {
	worker   *step.Worker
	maxSteps int
}

// New builds an Extractor bound to bctx's current page. outputSchema may
// be nil, in which case extract_result accepts any JSON value (typically
// a bare string, matching spec.md's `String | T` return). Each call gets
// its own Message Log and Registry, for the same reason a Verifier does:
// an extraction run must never leave stray messages in the task's own
// conversation.
func New(bctx browser.BrowserContext, adapter llm.Adapter, outputSchema *jsonschema.Schema, cfg Config) *Extractor {
	if cfg.MaxSteps <= 0 {
		cfg = DefaultConfig()
	}

	registry := tool.NewRegistry()
	resolver := tool.NewElementResolver()
	registry.MustRegister(tool.NewObserveTool())
	registry.MustRegister(tool.NewThinkTool())
	registry.MustRegister(tool.NewWaitTool())
	registry.MustRegister(newExtractResultTool(outputSchema))

	dispatcher := tool.NewDispatcher(registry, tool.DefaultConfig())
	log := message.NewLog()

	workerCfg := step.Config{UseScreenshot: cfg.UseScreenshot, System: extractSystemPrompt}
	return &Extractor{
		worker:   step.NewWorker(bctx, registry, dispatcher, resolver, adapter, log, workerCfg),
		maxSteps: cfg.MaxSteps,
	}
}

// CompileSchema compiles a JSON Schema document for use as New's
// outputSchema argument. Thin wrapper over tool.CompileOutputSchema so
// callers outside internal/tool don't need that package's import just
// for this.
func CompileSchema(name string, schema json.RawMessage) (*jsonschema.Schema, error) {
	return tool.CompileOutputSchema(name, schema)
}

// Extract drives the restricted Worker until extract_result is called or
// maxSteps is exhausted, returning the extracted value as raw JSON (a
// quoted string when no schema was given).
func (e *Extractor) Extract(ctx context.Context, query string) (json.RawMessage, error) {
	e.worker.Log().Append(model.NewUserMessage(model.TextContent("Query: " + query)))

	var terminal *model.TerminalSignal
	for i := 0; i < e.maxSteps; i++ {
		t, err := e.worker.Step(ctx, i, nil)
		if err != nil {
			return nil, fmt.Errorf("extractor: %w", err)
		}
		if t != nil {
			terminal = t
			break
		}
	}
	if terminal == nil {
		return nil, fmt.Errorf("extractor: exhausted step budget without extracting a value")
	}
	if !terminal.Completed {
		return nil, fmt.Errorf("extractor: %s", terminal.Feedback)
	}
	return terminal.Output, nil
}

// extractResultTool is the Extractor's only terminal tool: a value plus
// feedback, grounded on internal/tool.CompleteWorkTool's
// schema-validated-output shape but always required (extraction always
// produces a value or aborts).
type extractResultTool struct {
	outputSchema *jsonschema.Schema
}

func newExtractResultTool(outputSchema *jsonschema.Schema) *extractResultTool {
	return &extractResultTool{outputSchema: outputSchema}
}

func (t *extractResultTool) Name() string { return "extract_result" }
func (t *extractResultTool) Description() string {
	return "Report the value extracted from the page in answer to the query. Call this exactly once."
}

func (t *extractResultTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"value": {"description": "The extracted value, matching the requested schema if one was given"},
			"feedback": {"type": "string", "description": "Brief note on where the value was found or why none could be extracted"}
		},
		"required": ["value", "feedback"],
		"additionalProperties": false
	}`)
}

func (t *extractResultTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		Value    json.RawMessage `json:"value"`
		Feedback string          `json:"feedback"`
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("extract_result: %w", err)
	}

	if t.outputSchema != nil {
		var v any
		if len(params.Value) == 0 {
			return nil, fmt.Errorf("extract_result: value is required by this extraction's output schema")
		}
		if err := json.Unmarshal(params.Value, &v); err != nil {
			return nil, fmt.Errorf("extract_result: value is not valid JSON: %w", err)
		}
		if err := t.outputSchema.Validate(v); err != nil {
			return nil, fmt.Errorf("extract_result: value does not match the requested schema: %w", err)
		}
	}

	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: params.Feedback,
		Terminal: &model.TerminalSignal{
			Completed: true,
			Feedback:  params.Feedback,
			Output:    params.Value,
		},
	}, nil
}
