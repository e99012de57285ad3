package selector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/steve-z-wang/webtask/internal/browsertest"
	"github.com/steve-z-wang/webtask/internal/dom"
	"github.com/steve-z-wang/webtask/internal/llmtest"
)

// buildTree returns a two-button page: a submit button and a cancel
// button, both indexed as interactive elements.
func buildTree() *dom.Tree {
	return &dom.Tree{
		Root: 0,
		Nodes: []dom.Node{
			{Tag: "body", Parent: dom.NoNode, Children: []dom.NodeRef{1, 2}},
			{Tag: "button", Attributes: map[string]string{"type": "submit"}, Parent: 0, BackendDOMNodeID: 101},
			{Tag: "button", Attributes: map[string]string{"type": "button"}, Parent: 0, BackendDOMNodeID: 102},
		},
	}
}

func selectorArgs(elementID, reasoning, errMsg string) string {
	b, _ := json.Marshal(map[string]string{"element_id": elementID, "reasoning": reasoning, "error": errMsg})
	return string(b)
}

func TestSelectMatches(t *testing.T) {
	page := browsertest.NewPage()
	page.Tree = buildTree()
	bctx := browsertest.NewBrowserContext(page)

	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "select_element",
		selectorArgs("button-0", "first button is the submit control", "")))

	s := New(bctx, adapter, nil)
	result, err := s.Select(context.Background(), "the submit button")
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if result.ElementID != "button-0" {
		t.Errorf("ElementID = %q, want button-0", result.ElementID)
	}
	if result.BackendNodeID != 101 {
		t.Errorf("BackendNodeID = %d, want 101", result.BackendNodeID)
	}
	if result.Reasoning == "" {
		t.Error("expected non-empty reasoning")
	}
}

func TestSelectNoMatch(t *testing.T) {
	page := browsertest.NewPage()
	page.Tree = buildTree()
	bctx := browsertest.NewBrowserContext(page)

	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "select_element",
		selectorArgs("", "", "no element matches that description")))

	s := New(bctx, adapter, nil)
	_, err := s.Select(context.Background(), "a login link")
	if err == nil {
		t.Fatal("expected an error when the model reports no match")
	}
}

func TestSelectUnknownElementID(t *testing.T) {
	page := browsertest.NewPage()
	page.Tree = buildTree()
	bctx := browsertest.NewBrowserContext(page)

	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "select_element",
		selectorArgs("button-99", "hallucinated", "")))

	s := New(bctx, adapter, nil)
	_, err := s.Select(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected an error for an element_id outside the current index")
	}
}

func TestSelectAdapterError(t *testing.T) {
	page := browsertest.NewPage()
	page.Tree = buildTree()
	bctx := browsertest.NewBrowserContext(page)
	adapter := llmtest.Failing(errors.New("provider unavailable"))

	s := New(bctx, adapter, nil)
	_, err := s.Select(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected the adapter error to propagate")
	}
}

func TestSelectNoCurrentPage(t *testing.T) {
	bctx := browsertest.NewBrowserContext(nil)
	bctx.Page = nil
	s := New(bctx, llmtest.Script(), nil)
	_, err := s.Select(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected an error with no current page")
	}
}
