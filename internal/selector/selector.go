// Package selector implements agent.select(description) (spec.md §6),
// supplemented from original_source's Natural Selector
// (src/webtask/prompts/selector_prompt.py): a one-shot LLM call, outside
// the Step Loop's tool-calling conversation, that matches a natural
// language description against the current page's indexed elements and
// resolves it to a backend DOM node id the caller can act on directly.
//
// Unlike the Task Runner and Verifier, a Selector drives no multi-step
// loop and shares no Message Log with them — it captures one fresh
// observation, asks the model to pick one element_id from it, and
// returns. The Python original's selector prompt doubles as a one-shot
// tool-forced response here since this Adapter contract has no
// freeform-JSON mode of its own; force-tool-call semantics already cover
// "return exactly this shape."
package selector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/filter"
	"github.com/steve-z-wang/webtask/internal/index"
	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/model"
	"github.com/steve-z-wang/webtask/internal/observation"
)

// systemPrompt restates original_source's Natural Selector prompt
// (who-you-are / how-to-select / response-format), translated from its
// MarkdownBuilder sections into one string since this package has no
// analogous prompt-composition helper of its own to reuse.
const systemPrompt = "You are an element selector that identifies which element on a web page " +
	"matches a natural language description.\n\n" +
	"How to select:\n" +
	"1. Review the page context showing available elements with their element_ids\n" +
	"2. Compare the description with each element's attributes and text\n" +
	"3. Identify the element_id that best matches the description\n" +
	"4. Call select_element with that element_id, or with error set if no match is found"

// Result is the outcome of a successful Select call: the matched
// element's index id, the model's reasoning, and the resolved backend
// DOM node id an action tool can target.
type Result struct {
	ElementID     string
	Reasoning     string
	BackendNodeID int64
}

// Selector resolves natural-language element descriptions against
// bctx's current page using adapter for the one-shot matching call.
type Selector struct {
	bctx         browser.BrowserContext
	adapter      llm.Adapter
	filterConfig *filter.Config
}

// New builds a Selector. filterConfig may be nil to use
// filter.DefaultConfig(), matching the Step Loop's own default.
func New(bctx browser.BrowserContext, adapter llm.Adapter, filterConfig *filter.Config) *Selector {
	if filterConfig == nil {
		filterConfig = filter.DefaultConfig()
	}
	return &Selector{bctx: bctx, adapter: adapter, filterConfig: filterConfig}
}

// Select captures a fresh observation of the current page, asks the
// model to match description against its indexed elements, and resolves
// the match to a backend DOM node id. Returns an error both when the
// page can't be observed and when the model reports no match (its
// `error` field is non-empty) — both are "no element found" from the
// caller's perspective.
func (s *Selector) Select(ctx context.Context, description string) (Result, error) {
	page := s.bctx.CurrentPage()
	if page == nil {
		return Result{}, fmt.Errorf("selector: no current page")
	}

	tree, err := page.DOMSnapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("selector: capturing DOM snapshot: %w", err)
	}

	cfg := s.filterConfig
	tree = filter.ApplyVisibility(tree, cfg)
	tree = filter.ApplySemantic(tree, cfg)

	pred := index.DefaultInteractive(cfg.InteractiveTags, cfg.InteractiveRoles)
	idx := index.Build(tree, pred)

	content := append(
		[]model.Content{model.TextContent("Description to match: " + description)},
		observation.Build(tree, idx, nil)...,
	)
	messages := []*model.Message{model.NewUserMessage(content...)}

	msg, err := s.adapter.CallTools(ctx, messages, []llm.ToolSpec{selectElementTool{}}, llm.CallOptions{System: systemPrompt})
	if err != nil {
		return Result{}, fmt.Errorf("selector: %w", err)
	}
	if len(msg.ToolCall) == 0 {
		return Result{}, fmt.Errorf("selector: model returned no selection")
	}

	var params struct {
		ElementID string `json:"element_id"`
		Reasoning string `json:"reasoning"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(msg.ToolCall[0].Arguments, &params); err != nil {
		return Result{}, fmt.Errorf("selector: invalid response: %w", err)
	}
	if params.Error != "" {
		return Result{}, fmt.Errorf("selector: %s", params.Error)
	}

	entry, ok := idx.Lookup(params.ElementID)
	if !ok {
		return Result{}, fmt.Errorf("selector: model selected unknown element %q", params.ElementID)
	}
	node := tree.Node(entry.Ref)
	if node == nil {
		return Result{}, fmt.Errorf("selector: element %q no longer resolves in the current page snapshot", params.ElementID)
	}

	return Result{ElementID: params.ElementID, Reasoning: params.Reasoning, BackendNodeID: node.BackendDOMNodeID}, nil
}

// selectElementTool is the single forced tool a Select call presents to
// the adapter — never registered with internal/tool's Registry or
// Dispatcher since it never flows through the Step Loop.
type selectElementTool struct{}

func (selectElementTool) Name() string { return "select_element" }
func (selectElementTool) Description() string {
	return "Report the element_id that best matches the description, or an error if none match."
}
func (selectElementTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"element_id": {"type": "string", "description": "The ID of the matching element, e.g. 'button-2'"},
			"reasoning": {"type": "string", "description": "Why this element matches the description"},
			"error": {"type": "string", "description": "Error message if no matching element is found; empty if matched"}
		},
		"required": ["element_id", "reasoning", "error"],
		"additionalProperties": false
	}`)
}
