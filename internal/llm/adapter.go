// Package llm implements the LLM Adapter contract (C8, spec.md §6):
// provider-agnostic functions taking canonical messages and tools and
// returning one assistant message, force-tool mode, $ref inlining, and
// the per-provider adapters built over the teacher's SDK choices
// (Anthropic, OpenAI, Bedrock, Gemini).
package llm

import (
	"context"
	"encoding/json"

	"github.com/steve-z-wang/webtask/internal/model"
)

// ToolSpec is the slice of a tool the LLM Adapter needs: enough to
// describe it to a provider, nothing about how to execute it. Any
// internal/tool.Tool satisfies this interface already; the adapter layer
// depends on this narrower shape instead of internal/tool directly so
// that swapping out the dispatcher never touches provider code.
type ToolSpec interface {
	Name() string
	Description() string
	Schema() json.RawMessage
}

// Adapter is the provider-facing contract: send the conversation so far
// plus the available tools, get back one assistant message. Every
// implementation MUST inline `$ref`s (see InlineRefs), MUST preserve
// tool-call order as the provider returned it, and MUST force a tool
// call whenever tools is non-empty and the caller hasn't opted into
// free-form text responses (spec.md §9 "Force-tool mode").
type Adapter interface {
	CallTools(ctx context.Context, messages []*model.Message, tools []ToolSpec, opts CallOptions) (*model.Message, error)
}

// CallOptions tunes one CallTools call.
type CallOptions struct {
	// System is the system prompt, passed separately from Messages the
	// way every one of the teacher's providers already does.
	System string

	// AllowFreeform, when true, permits the model to respond with plain
	// text and no tool call. The step loop never sets this during a
	// run — only a caller building something outside the worker/verifier
	// loop would.
	AllowFreeform bool

	// MaxTokens bounds the response length; zero uses the provider's
	// own default.
	MaxTokens int
}

// TokenUsage is reported back through a logger side-channel (spec.md:
// "SHOULD surface token counts through a logger side-channel") rather
// than on the returned message itself, so callers that don't care about
// usage accounting never have to thread it through.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// UsageFunc receives usage after a successful CallTools call. Adapters
// call it at most once per CallTools invocation; nil is a valid "don't
// care" callback.
type UsageFunc func(TokenUsage)
