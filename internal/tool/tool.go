// Package tool implements the Tool Registry & Dispatcher (C6): a unified
// Tool interface, a name-keyed registry enforcing unique names, and a
// Dispatcher that resolves an assistant's proposed ToolCalls against the
// registry with stop-on-first-error semantics.
//
// Concrete tools (pixel actions, document scrolling, element actions,
// utility/terminal meta tools, upload) live alongside this package in
// their own files, each grounded on the corresponding reference tool in
// agent/tools/ and agent/worker/tools/.
package tool

import (
	"context"
	"encoding/json"

	"github.com/steve-z-wang/webtask/internal/model"
)

// Tool merges the reference implementation's two parallel tool
// interfaces (an LLM-facing shape carrying name/description/schema, and
// an execution-facing shape carrying Execute) into one: every tool is
// simultaneously something the LLM Adapter can describe and something
// the Dispatcher can invoke.
type Tool interface {
	Name() string
	Description() string

	// Schema returns the tool's JSON Schema for its parameters object.
	// Dispatcher validation is strict: unknown top-level properties are
	// rejected unless the schema itself sets additionalProperties=true.
	Schema() json.RawMessage

	// Execute runs the tool against already-schema-validated arguments.
	// Implementations set Status/Description/Observation/Terminal on the
	// returned ToolResult; ToolCallID and Name are filled in by the
	// Dispatcher. A non-nil error is treated exactly like a returned
	// ERROR result — Execute should prefer returning an ERROR result
	// itself when the failure is expected (e.g. "element not found"),
	// reserving the error return for truly unexpected failures.
	Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error)
}
