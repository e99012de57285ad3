// Package step implements the Step Loop / Worker (C9, spec.md §4.8): the
// S0..S5 state machine that turns one task into a bounded sequence of
// observe -> prompt -> call -> execute -> record rounds, grounded on the
// reference AgenticLoop's phase structure (streamPhase/executeToolsPhase/
// continuePhase) with every session-persistence, branching, and steering
// concern it also carried dropped — this loop drives one browser page to
// one terminal outcome, nothing more.
package step

import (
	"context"
	"fmt"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/filter"
	"github.com/steve-z-wang/webtask/internal/index"
	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/message"
	"github.com/steve-z-wang/webtask/internal/model"
	"github.com/steve-z-wang/webtask/internal/observation"
	"github.com/steve-z-wang/webtask/internal/tool"
)

// Phase names one of the state machine's six states (spec.md's S0..S5).
type Phase string

const (
	PhaseReady     Phase = "READY"
	PhaseObserving Phase = "OBSERVING"
	PhasePrompting Phase = "PROMPTING"
	PhaseExecuting Phase = "EXECUTING"
	PhaseRecording Phase = "RECORDING"
	PhaseTerminal  Phase = "TERMINAL"
)

// observationKeepLast is the purger's keep_last for the "observation" tag
// (spec.md §4.8 step 2: "keep_last=2, tags={observation}").
const observationKeepLast = 2

// Event is a non-blocking lifecycle notification emitted as a step moves
// through its phases. This replaces the reference's separate
// diagnostic/event-stream packages (action_tracker.py's concern folded
// in here, per spec.md) with one small struct scoped to what a caller
// driving a step loop actually wants to observe: which phase, which
// step, and — during PhaseExecuting — which tool.
type Event struct {
	Phase     Phase
	StepIndex int
	Tool      *tool.Event
}

// EventFunc receives step lifecycle events. Never blocks the loop.
type EventFunc func(Event)

// Config tunes a Worker's per-step behavior.
type Config struct {
	// UseScreenshot controls whether each observation includes a
	// screenshot alongside the text snapshot (spec.md's use_screenshot
	// option).
	UseScreenshot bool

	// FilterConfig tunes the Filter Pipeline stages run over each
	// DOMSnapshot before indexing. Nil uses filter.DefaultConfig().
	FilterConfig *filter.Config

	// System is the system prompt passed to every LLM call this Worker
	// makes (spec.md §4.10: the Task Runner supplies a fixed one).
	System string
}

// DefaultConfig returns a Config with screenshots on and the default
// filter pipeline.
func DefaultConfig() Config {
	return Config{UseScreenshot: true, FilterConfig: filter.DefaultConfig()}
}

// Worker drives one page through the S0..S5 state machine, one step at
// a time. It does not own the Message Log or the tool Registry — the
// Task Runner (C11) constructs those and binds a Worker to them, so a
// Verifier (C10) can reuse the same machinery with a restricted
// Registry and no change to Worker itself.
type Worker struct {
	bctx       browser.BrowserContext
	registry   *tool.Registry
	dispatcher *tool.Dispatcher
	resolver   *tool.ElementResolver
	adapter    llm.Adapter
	log        *message.Log
	config     Config
}

// NewWorker builds a Worker bound to bctx's current page, dispatching
// through registry via dispatcher, resolving element ids via resolver,
// calling adapter for each LLM turn, and recording every message to log.
func NewWorker(bctx browser.BrowserContext, registry *tool.Registry, dispatcher *tool.Dispatcher, resolver *tool.ElementResolver, adapter llm.Adapter, log *message.Log, config Config) *Worker {
	if config.FilterConfig == nil {
		config.FilterConfig = filter.DefaultConfig()
	}
	return &Worker{
		bctx:       bctx,
		registry:   registry,
		dispatcher: dispatcher,
		resolver:   resolver,
		adapter:    adapter,
		log:        log,
		config:     config,
	}
}

// Log returns the Message Log this Worker appends to, so a caller (the
// Task Runner, the Verifier) can seed the initial task/condition message
// before driving the first step and read the full history back out
// afterward.
func (w *Worker) Log() *message.Log {
	return w.log
}

// Step runs one full S1->S4 round-trip: build an observation, call the
// LLM, dispatch any tool calls it proposed, and record the results. It
// returns a non-nil TerminalSignal when one of the dispatched tool
// results was produced by complete_work or abort_work (S5); a nil
// signal and nil error means the loop should continue to the next step.
//
// Per spec.md §4.8: LLM adapter errors propagate to the caller (who
// aborts the run with status ABORTED); tool failures do not — they
// become ERROR ToolResults appended to the log like any other result,
// leaving the next LLM call free to recover.
func (w *Worker) Step(ctx context.Context, stepIndex int, emit EventFunc) (*model.TerminalSignal, error) {
	notify(emit, Event{Phase: PhaseObserving, StepIndex: stepIndex})
	content, err := w.observe(ctx)
	if err != nil {
		return nil, fmt.Errorf("step %d: building observation: %w", stepIndex, err)
	}
	w.log.Append(model.NewUserMessage(content...))

	notify(emit, Event{Phase: PhasePrompting, StepIndex: stepIndex})
	assistant, err := w.prompt(ctx)
	if err != nil {
		return nil, fmt.Errorf("step %d: calling LLM: %w", stepIndex, err)
	}
	w.log.Append(assistant)

	notify(emit, Event{Phase: PhaseExecuting, StepIndex: stepIndex})
	results := w.dispatcher.Dispatch(ctx, assistant.ToolCall, func(e tool.Event) {
		notify(emit, Event{Phase: PhaseExecuting, StepIndex: stepIndex, Tool: &e})
	})

	notify(emit, Event{Phase: PhaseRecording, StepIndex: stepIndex})
	w.log.Append(model.NewToolResultMessage(results))

	for _, r := range results {
		if r.Terminal != nil {
			notify(emit, Event{Phase: PhaseTerminal, StepIndex: stepIndex})
			return r.Terminal, nil
		}
	}
	return nil, nil
}

// observe builds one step's observation content: capture a DOMSnapshot,
// run it through the Filter Pipeline, index its interactive elements,
// bind the ElementResolver to this step's tree/index/viewport, and
// render the Observation Builder's content items (spec.md §4.8 step 1).
func (w *Worker) observe(ctx context.Context) ([]model.Content, error) {
	page := w.bctx.CurrentPage()
	if page == nil {
		return nil, fmt.Errorf("no current page")
	}

	tree, err := page.DOMSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing DOM snapshot: %w", err)
	}

	cfg := w.config.FilterConfig
	tree = filter.ApplyVisibility(tree, cfg)
	tree = filter.ApplySemantic(tree, cfg)

	pred := index.DefaultInteractive(cfg.InteractiveTags, cfg.InteractiveRoles)
	idx := index.Build(tree, pred)

	viewport, err := page.ViewportSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading viewport size: %w", err)
	}
	w.resolver.Set(tree, idx, viewport)

	var shot *observation.Screenshot
	if w.config.UseScreenshot {
		shot, err = page.Screenshot(ctx, false)
		if err != nil {
			return nil, fmt.Errorf("capturing screenshot: %w", err)
		}
	}

	return observation.Build(tree, idx, shot), nil
}

// prompt purges the log's stale observation content down to the last
// observationKeepLast carriers (spec.md §4.8 step 2), then calls the
// LLM adapter with every registered tool (spec.md §4.8 step 3).
func (w *Worker) prompt(ctx context.Context) (*model.Message, error) {
	purged := message.Purge(w.log.Messages(), []string{observation.ObservationTag}, observationKeepLast, model.RoleUser, model.RoleToolResult)

	specs := toolSpecs(w.registry.All())
	return w.adapter.CallTools(ctx, purged, specs, llm.CallOptions{System: w.config.System})
}

func toolSpecs(tools []tool.Tool) []llm.ToolSpec {
	specs := make([]llm.ToolSpec, len(tools))
	for i, t := range tools {
		specs[i] = t
	}
	return specs
}

func notify(emit EventFunc, e Event) {
	if emit != nil {
		emit(e)
	}
}
