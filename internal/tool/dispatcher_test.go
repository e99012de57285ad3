package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/steve-z-wang/webtask/internal/model"
)

// stubTool is a minimal Tool for dispatcher tests: it returns whatever
// result/error was configured, and records every call it receives.
type stubTool struct {
	name   string
	schema json.RawMessage
	result *model.ToolResult
	err    error
	calls  int
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "stub" }
func (s *stubTool) Schema() json.RawMessage     { return s.schema }
func (s *stubTool) Execute(_ context.Context, _ json.RawMessage) (*model.ToolResult, error) {
	s.calls++
	return s.result, s.err
}

func newRegistry(t *testing.T, tools ...Tool) *Registry {
	r := NewRegistry()
	for _, tl := range tools {
		if err := r.Register(tl); err != nil {
			t.Fatalf("Register(%q): %v", tl.Name(), err)
		}
	}
	return r
}

// TestDispatchToolNotFound covers spec.md §8's named scenario: a call
// naming a tool absent from the registry produces an ERROR result with
// a "Tool not found" message, without panicking or touching later calls
// beyond the stop-on-first-error rule.
func TestDispatchToolNotFound(t *testing.T) {
	r := newRegistry(t)
	d := NewDispatcher(r, DefaultConfig())

	results := d.Dispatch(context.Background(), []model.ToolCall{
		{ID: "c1", Name: "does_not_exist"},
	}, nil)

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Status != model.StatusError {
		t.Fatalf("Status = %v, want ERROR", results[0].Status)
	}
	if results[0].Error == "" {
		t.Error("expected a non-empty Error message")
	}
}

// TestDispatchStopsOnFirstErrorAndSkipsRest covers spec.md §8's named
// scenario: a multi-call batch where an early call fails causes every
// later call to be reported as skipped, never invoked, while preserving
// strict 1:1 positional correspondence with the input calls.
func TestDispatchStopsOnFirstErrorAndSkipsRest(t *testing.T) {
	never := &stubTool{name: "never_called", result: &model.ToolResult{Status: model.StatusSuccess}}
	r := newRegistry(t, never)
	d := NewDispatcher(r, DefaultConfig())

	calls := []model.ToolCall{
		{ID: "c1", Name: "missing_tool"},
		{ID: "c2", Name: "never_called"},
		{ID: "c3", Name: "never_called"},
	}
	results := d.Dispatch(context.Background(), calls, nil)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Status != model.StatusError {
		t.Fatalf("results[0].Status = %v, want ERROR", results[0].Status)
	}
	for i := 1; i < 3; i++ {
		if results[i].Status != model.StatusError {
			t.Errorf("results[%d].Status = %v, want ERROR (skipped)", i, results[i].Status)
		}
		if results[i].ToolCallID != calls[i].ID {
			t.Errorf("results[%d].ToolCallID = %q, want %q (positional correspondence)", i, results[i].ToolCallID, calls[i].ID)
		}
	}
	if never.calls != 0 {
		t.Errorf("expected never_called to never actually execute, got %d calls", never.calls)
	}
}

func TestDispatchSucceedsAndReportsMetrics(t *testing.T) {
	ok := &stubTool{name: "ok", result: &model.ToolResult{Status: model.StatusSuccess, Description: "did the thing"}}
	r := newRegistry(t, ok)
	d := NewDispatcher(r, DefaultConfig())

	results := d.Dispatch(context.Background(), []model.ToolCall{{ID: "c1", Name: "ok"}}, nil)

	if len(results) != 1 || results[0].Status != model.StatusSuccess {
		t.Fatalf("results = %+v, want one SUCCESS", results)
	}
	if ok.calls != 1 {
		t.Errorf("expected the tool to be invoked exactly once, got %d", ok.calls)
	}
	if d.Metrics().Succeeded != 1 {
		t.Errorf("Metrics().Succeeded = %d, want 1", d.Metrics().Succeeded)
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(panicOnExecute{name: "panicky"})
	d := NewDispatcher(r, DefaultConfig())

	results := d.Dispatch(context.Background(), []model.ToolCall{{ID: "c1", Name: "panicky"}}, nil)

	if len(results) != 1 || results[0].Status != model.StatusError {
		t.Fatalf("results = %+v, want one ERROR result recovered from the panic", results)
	}
	if d.Metrics().Panics != 1 {
		t.Errorf("Metrics().Panics = %d, want 1", d.Metrics().Panics)
	}
}

// panicOnExecute is a Tool whose Execute always panics, used to exercise
// Dispatcher's panic-recovery path.
type panicOnExecute struct {
	name string
}

func (p panicOnExecute) Name() string           { return p.name }
func (p panicOnExecute) Description() string    { return "panics" }
func (p panicOnExecute) Schema() json.RawMessage { return nil }
func (p panicOnExecute) Execute(_ context.Context, _ json.RawMessage) (*model.ToolResult, error) {
	panic("boom")
}

func TestDispatchValidatesArgumentsAgainstSchema(t *testing.T) {
	strict := &stubTool{
		name:   "strict",
		schema: json.RawMessage(`{"type":"object","properties":{"x":{"type":"integer"}},"required":["x"]}`),
		result: &model.ToolResult{Status: model.StatusSuccess},
	}
	r := newRegistry(t, strict)
	d := NewDispatcher(r, DefaultConfig())

	results := d.Dispatch(context.Background(), []model.ToolCall{
		{ID: "c1", Name: "strict", Arguments: json.RawMessage(`{}`)},
	}, nil)

	if results[0].Status != model.StatusError {
		t.Fatalf("expected missing required field to fail schema validation, got %+v", results[0])
	}
	if strict.calls != 0 {
		t.Error("Execute must not be called when schema validation fails")
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "dup"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(&stubTool{name: "dup"}); err == nil {
		t.Error("expected a second Register with the same name to fail")
	}
}

func TestRegistryAllPreservesRegistrationOrder(t *testing.T) {
	r := newRegistry(t, &stubTool{name: "b"}, &stubTool{name: "a"}, &stubTool{name: "c"})
	all := r.All()
	if len(all) != 3 || all[0].Name() != "b" || all[1].Name() != "a" || all[2].Name() != "c" {
		t.Errorf("All() order = %v, want [b a c]", names(all))
	}
}

func names(tools []Tool) []string {
	out := make([]string, len(tools))
	for i, tl := range tools {
		out[i] = tl.Name()
	}
	return out
}

func TestExecuteErrorTreatedAsToolResultError(t *testing.T) {
	failing := &stubTool{name: "failing", err: errors.New("connection reset")}
	r := newRegistry(t, failing)
	d := NewDispatcher(r, DefaultConfig())

	results := d.Dispatch(context.Background(), []model.ToolCall{{ID: "c1", Name: "failing"}}, nil)
	if results[0].Status != model.StatusError {
		t.Fatalf("expected a returned error to become an ERROR result, got %+v", results[0])
	}
}
