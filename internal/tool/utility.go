package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/steve-z-wang/webtask/internal/model"
)

// maxWaitSeconds bounds the wait tool's duration, matching the reference
// WaitTool.Params field constraint (ge=0.1, le=10.0).
const (
	minWaitSeconds = 0.1
	maxWaitSeconds = 10.0
)

// WaitTool pauses for a caller-chosen duration, useful after an action
// that triggers a page change, modal, or other async content load the
// LLM wants to give time to settle before observing again.
type WaitTool struct{}

func NewWaitTool() *WaitTool { return &WaitTool{} }

func (t *WaitTool) Name() string { return "wait" }
func (t *WaitTool) Description() string {
	return "Wait for specified seconds (useful after actions that trigger page changes, modals, or dynamic content loading)"
}

func (t *WaitTool) Schema() json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"type": "object",
		"properties": {
			"seconds": {"type": "number", "description": "Seconds to wait (max %g)", "minimum": %g, "maximum": %g}
		},
		"required": ["seconds"],
		"additionalProperties": false
	}`, maxWaitSeconds, minWaitSeconds, maxWaitSeconds))
}

func (t *WaitTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		Seconds float64
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("wait: %w", err)
	}
	if params.Seconds < minWaitSeconds || params.Seconds > maxWaitSeconds {
		return nil, fmt.Errorf("wait: seconds must be between %g and %g, got %g", minWaitSeconds, maxWaitSeconds, params.Seconds)
	}

	select {
	case <-time.After(time.Duration(params.Seconds * float64(time.Second))):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Waited %g seconds", params.Seconds),
	}, nil
}

// ObserveTool records what the worker notices on the page — a meta tool
// whose only effect is to place the text on the record; nothing is
// clicked, typed, or navigated.
type ObserveTool struct{}

func NewObserveTool() *ObserveTool { return &ObserveTool{} }

func (t *ObserveTool) Name() string { return "observe" }
func (t *ObserveTool) Description() string {
	return "Record what you observe on the page (UI state, messages, errors). Use this when you need to note important observations."
}

func (t *ObserveTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"text": {"type": "string", "description": "Your observation of the current page state"}
		},
		"required": ["text"],
		"additionalProperties": false
	}`)
}

func (t *ObserveTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct{ Text string }
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	return &model.ToolResult{Status: model.StatusSuccess, Description: "Noted"}, nil
}

// ThinkTool records the worker's reasoning about what to do next — the
// same no-op-besides-acknowledgment shape as ObserveTool, kept as a
// distinct tool so the conversation log distinguishes observation from
// reasoning.
type ThinkTool struct{}

func NewThinkTool() *ThinkTool { return &ThinkTool{} }

func (t *ThinkTool) Name() string { return "think" }
func (t *ThinkTool) Description() string {
	return "Record your reasoning about what to do next and why. Use this when you need to explain your thought process."
}

func (t *ThinkTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"text": {"type": "string", "description": "Your reasoning about the next steps"}
		},
		"required": ["text"],
		"additionalProperties": false
	}`)
}

func (t *ThinkTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct{ Text string }
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("think: %w", err)
	}
	return &model.ToolResult{Status: model.StatusSuccess, Description: "Noted"}, nil
}
