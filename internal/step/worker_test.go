package step

import (
	"context"
	"errors"
	"testing"

	"github.com/steve-z-wang/webtask/internal/browsertest"
	"github.com/steve-z-wang/webtask/internal/llmtest"
	"github.com/steve-z-wang/webtask/internal/message"
	"github.com/steve-z-wang/webtask/internal/tool"
)

func newTestWorker(adapter *llmtest.Adapter, page *browsertest.Page) *Worker {
	bctx := browsertest.NewBrowserContext(page)
	resolver := tool.NewElementResolver()
	registry := tool.NewRegistry()
	registry.MustRegister(tool.NewThinkTool())
	registry.MustRegister(tool.NewObserveTool())
	registry.MustRegister(tool.NewCompleteWorkTool(nil))
	registry.MustRegister(tool.NewAbortWorkTool())
	dispatcher := tool.NewDispatcher(registry, tool.DefaultConfig())
	log := message.NewLog()
	return NewWorker(bctx, registry, dispatcher, resolver, adapter, log, Config{UseScreenshot: false})
}

func TestStepNonTerminalContinuesLoop(t *testing.T) {
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "think", `{"text": "looking around"}`))
	w := newTestWorker(adapter, browsertest.NewPage())

	terminal, err := w.Step(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if terminal != nil {
		t.Fatal("expected a nil terminal signal for a non-terminal tool call")
	}
	if len(w.Log().Messages()) == 0 {
		t.Error("expected the step to append messages to the log")
	}
}

func TestStepCompleteWorkIsTerminal(t *testing.T) {
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "complete_work", `{"feedback": "done"}`))
	w := newTestWorker(adapter, browsertest.NewPage())

	terminal, err := w.Step(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if terminal == nil || !terminal.Completed {
		t.Fatal("expected a completed terminal signal")
	}
}

func TestStepAbortWorkIsTerminalNotCompleted(t *testing.T) {
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "abort_work", `{"reason": "stuck"}`))
	w := newTestWorker(adapter, browsertest.NewPage())

	terminal, err := w.Step(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if terminal == nil || terminal.Completed {
		t.Fatal("expected a non-completed terminal signal")
	}
}

func TestStepAdapterErrorPropagates(t *testing.T) {
	adapter := llmtest.Failing(errors.New("provider unavailable"))
	w := newTestWorker(adapter, browsertest.NewPage())

	_, err := w.Step(context.Background(), 0, nil)
	if err == nil {
		t.Fatal("expected the adapter error to propagate")
	}
}

func TestStepEmitsLifecycleEvents(t *testing.T) {
	adapter := llmtest.Script(llmtest.ToolCallMessage("call-1", "think", `{"text": "noted"}`))
	w := newTestWorker(adapter, browsertest.NewPage())

	seen := map[Phase]bool{}
	var order []Phase
	_, err := w.Step(context.Background(), 0, func(e Event) {
		if !seen[e.Phase] {
			order = append(order, e.Phase)
		}
		seen[e.Phase] = true
	})
	if err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	want := []Phase{PhaseObserving, PhasePrompting, PhaseExecuting, PhaseRecording}
	if len(order) != len(want) {
		t.Fatalf("got first-occurrence phase order %v, want %v", order, want)
	}
	for i, p := range want {
		if order[i] != p {
			t.Errorf("phase[%d] = %v, want %v", i, order[i], p)
		}
	}
}
