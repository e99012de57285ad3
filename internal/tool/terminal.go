package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/steve-z-wang/webtask/internal/model"
)

// CompleteWorkTool signals that the worker finished its subtask
// successfully. When outputSchema is non-nil, the `output` argument is
// required and validated against it before the terminal signal is
// accepted — this is what scenario 6 in spec.md §8 exercises.
type CompleteWorkTool struct {
	outputSchema *jsonschema.Schema
}

// NewCompleteWorkTool builds the complete_work tool. outputSchema may be
// nil, in which case complete_work accepts (and ignores) no output
// argument, matching a plain do() call with no output_schema.
func NewCompleteWorkTool(outputSchema *jsonschema.Schema) *CompleteWorkTool {
	return &CompleteWorkTool{outputSchema: outputSchema}
}

func (t *CompleteWorkTool) Name() string { return "complete_work" }
func (t *CompleteWorkTool) Description() string {
	return "Signal that you have successfully completed the subtask"
}

func (t *CompleteWorkTool) Schema() json.RawMessage {
	if t.outputSchema != nil {
		return json.RawMessage(`{
			"type": "object",
			"properties": {
				"feedback": {"type": "string", "description": "Describe what you accomplished and provide any important context or knowledge that might be useful for future subtasks in this task"},
				"output": {"description": "The result, matching the requested output schema"}
			},
			"required": ["feedback", "output"],
			"additionalProperties": false
		}`)
	}
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"feedback": {"type": "string", "description": "Describe what you accomplished and provide any important context or knowledge that might be useful for future subtasks in this task"}
		},
		"required": ["feedback"],
		"additionalProperties": false
	}`)
}

func (t *CompleteWorkTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		Feedback string
		Output   json.RawMessage
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("complete_work: %w", err)
	}

	if t.outputSchema != nil {
		var v any
		if len(params.Output) == 0 {
			return nil, fmt.Errorf("complete_work: output is required by this task's output schema")
		}
		if err := json.Unmarshal(params.Output, &v); err != nil {
			return nil, fmt.Errorf("complete_work: output is not valid JSON: %w", err)
		}
		if err := t.outputSchema.Validate(v); err != nil {
			return nil, fmt.Errorf("complete_work: output does not match the requested schema: %w", err)
		}
	}

	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: params.Feedback,
		Terminal: &model.TerminalSignal{
			Completed: true,
			Feedback:  params.Feedback,
			Output:    params.Output,
		},
	}, nil
}

// AbortWorkTool signals that the worker cannot proceed further.
type AbortWorkTool struct{}

func NewAbortWorkTool() *AbortWorkTool { return &AbortWorkTool{} }

func (t *AbortWorkTool) Name() string { return "abort_work" }
func (t *AbortWorkTool) Description() string {
	return "Signal that you cannot proceed further with this subtask (stuck, blocked, error, or impossible to complete)"
}

func (t *AbortWorkTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"reason": {"type": "string", "description": "Explain why you cannot continue and provide any relevant context about what went wrong or what is blocking you"}
		},
		"required": ["reason"],
		"additionalProperties": false
	}`)
}

func (t *AbortWorkTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct{ Reason string }
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("abort_work: %w", err)
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: params.Reason,
		Terminal: &model.TerminalSignal{
			Completed: false,
			Feedback:  params.Reason,
		},
	}, nil
}

// CompileOutputSchema compiles a JSON Schema document for use as a
// CompleteWorkTool's outputSchema. Callers resolve this once at Task
// Runner construction time (spec.md §4.10's output_schema binding).
func CompileOutputSchema(name string, schema json.RawMessage) (*jsonschema.Schema, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	compiler := jsonschema.NewCompiler()
	url := "mem://output/" + name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("output schema %q: %w", name, err)
	}
	return compiler.Compile(url)
}
