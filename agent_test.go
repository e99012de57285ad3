package webtask

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/steve-z-wang/webtask/internal/browsertest"
	"github.com/steve-z-wang/webtask/internal/llmtest"
	"github.com/steve-z-wang/webtask/internal/observation"
)

func TestCreateAgentRequiresAdapterAndContext(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script()

	if _, err := CreateAgent(nil, bctx, Options{}); err == nil {
		t.Error("expected an error for a nil LLM adapter")
	}
	if _, err := CreateAgent(adapter, nil, Options{}); err == nil {
		t.Error("expected an error for a nil browser context")
	}
}

func TestGotoNormalizesScheme(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script()

	a, err := CreateAgent(adapter, bctx, Options{})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if err := a.Goto(context.Background(), "example.com"); err != nil {
		t.Fatalf("Goto: %v", err)
	}
	found := false
	for _, c := range page.Calls {
		if c == "goto:https://example.com" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a normalized Goto call, got %v", page.Calls)
	}
}

func TestDoCompletes(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "complete_work", `{"feedback": "done"}`))

	a, err := CreateAgent(adapter, bctx, Options{MaxSteps: 3})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	result, err := a.Do(context.Background(), "do the thing")
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Errorf("Status = %v, want completed", result.Status)
	}
}

func TestDoAbortsReturnsTaskAbortedError(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "abort_work",
		`{"reason": "login wall blocks progress"}`))

	a, err := CreateAgent(adapter, bctx, Options{MaxSteps: 3})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	result, err := a.Do(context.Background(), "do the thing")
	if err == nil {
		t.Fatal("expected a TaskAbortedError")
	}
	var aborted *TaskAbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("got error of type %T, want *TaskAbortedError", err)
	}
	if result == nil || result.Status != StatusAborted {
		t.Errorf("expected a non-nil aborted Result alongside the error, got %v", result)
	}
}

func TestDoExhaustedDoesNotError(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script(
		llmtest.ToolCallMessage("call-1", "think", `{"text": "still working"}`),
		llmtest.ToolCallMessage("call-2", "think", `{"text": "still working"}`),
	)

	a, err := CreateAgent(adapter, bctx, Options{})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	result, err := a.Do(context.Background(), "do the thing", WithMaxSteps(2))
	if err != nil {
		t.Fatalf("expected EXHAUSTED not to be returned as an error, got %v", err)
	}
	if result.Status != StatusExhausted {
		t.Errorf("Status = %v, want exhausted", result.Status)
	}
}

func TestDoWithOutputSchema(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "complete_work",
		`{"feedback": "extracted", "output": {"total": 42}}`))

	a, err := CreateAgent(adapter, bctx, Options{MaxSteps: 3})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"total": {"type": "number"}},
		"required": ["total"]
	}`)
	result, err := a.Do(context.Background(), "sum the cart", WithOutputSchema(schema))
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	var out struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(result.Output, &out); err != nil {
		t.Fatalf("output does not match schema shape: %v", err)
	}
	if out.Total != 42 {
		t.Errorf("Total = %v, want 42", out.Total)
	}
}

func TestVerifyPassedAndFailedAreNotErrors(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "verify_result",
		`{"verified": false, "feedback": "no banner present"}`))

	a, err := CreateAgent(adapter, bctx, Options{})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	verdict, err := a.Verify(context.Background(), "a success banner is shown")
	if err != nil {
		t.Fatalf("Verify returned error for a reached-but-failed verdict: %v", err)
	}
	if verdict.Bool() {
		t.Error("expected Bool()==false")
	}
}

func TestVerifyAbortedByAdapterError(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Failing(errors.New("provider unavailable"))

	a, err := CreateAgent(adapter, bctx, Options{})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	_, err = a.Verify(context.Background(), "anything")
	var aborted *VerificationAbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("got error of type %T, want *VerificationAbortedError", err)
	}
}

func TestExtractWithoutSchema(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "extract_result",
		`{"value": "Jane Doe", "feedback": "read from the profile header"}`))

	a, err := CreateAgent(adapter, bctx, Options{})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	out, err := a.Extract(context.Background(), "what is the user's name?", nil)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	var value string
	if err := json.Unmarshal(out, &value); err != nil {
		t.Fatalf("output not a JSON string: %v", err)
	}
	if value != "Jane Doe" {
		t.Errorf("value = %q, want Jane Doe", value)
	}
}

func TestSelectResolvesElement(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "select_element",
		`{"element_id": "", "reasoning": "", "error": "no interactive elements on this empty page"}`))

	a, err := CreateAgent(adapter, bctx, Options{})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if _, err := a.Select(context.Background(), "the login button"); err == nil {
		t.Fatal("expected an error when the selector reports no match")
	}
}

func TestScreenshotWritesFile(t *testing.T) {
	page := browsertest.NewPage()
	page.Shot = &observation.Screenshot{PNG: []byte("fake-png-bytes")}
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script()

	a, err := CreateAgent(adapter, bctx, Options{})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	path := filepath.Join(t.TempDir(), "shot.png")
	data, err := a.Screenshot(context.Background(), path, false)
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if string(data) != "fake-png-bytes" {
		t.Errorf("data = %q", data)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written screenshot: %v", err)
	}
	if string(written) != "fake-png-bytes" {
		t.Errorf("written = %q", written)
	}
}

func TestPageAccessors(t *testing.T) {
	page := browsertest.NewPage()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Script()

	a, err := CreateAgent(adapter, bctx, Options{})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if a.PageCount() != len(a.GetPages()) {
		t.Errorf("PageCount() = %d, len(GetPages()) = %d", a.PageCount(), len(a.GetPages()))
	}
	a.SetPage(page)
}
