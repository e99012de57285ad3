// Package runner implements the Task Runner (C11, spec.md §4.10): the
// outer driver that accepts one (task, max_steps, output_schema) request,
// sets up a fresh Message Log and a standard tool Registry bound to a
// Worker, and drives steps until terminal.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/message"
	"github.com/steve-z-wang/webtask/internal/model"
	"github.com/steve-z-wang/webtask/internal/step"
	"github.com/steve-z-wang/webtask/internal/tool"
)

// systemPrompt is the fixed system prompt every Task Runner's Worker
// calls the LLM with (spec.md §4.10: "one SystemMessage (fixed system
// prompt)").
const systemPrompt = "You are an autonomous agent completing a web browsing task. " +
	"Use the available tools to observe and interact with the page. " +
	"Call complete_work when you have finished the task, or abort_work if you cannot proceed."

// DefaultMaxSteps is used when a caller's max_steps is zero or negative.
const DefaultMaxSteps = 30

// Options configures one Task Runner invocation.
type Options struct {
	MaxSteps      int
	UseScreenshot bool

	// OutputSchema, when non-nil, is compiled and wired into
	// complete_work's `output` parameter (spec.md §4.10).
	OutputSchema json.RawMessage

	// FileIndexes backs the upload tool's FileManager, sourced from the
	// createAgent-level `files` option (spec.md §6).
	Files []string

	// WaitAfterAction is how long the Dispatcher sleeps after each
	// successful non-terminal tool call, letting the page settle before
	// the next observation (spec.md §6 createAgent option, §4.5 wiring).
	// Zero matches tool.DefaultConfig()'s no-wait default.
	WaitAfterAction time.Duration
}

// Runner drives one task to completion.
type Runner struct {
	bctx       browser.BrowserContext
	adapter    llm.Adapter
	registry   *tool.Registry
	dispatcher *tool.Dispatcher
	resolver   *tool.ElementResolver
	worker     *step.Worker
	log        *message.Log
	maxSteps   int
}

// New builds a Task Runner with the standard tool Registry (every pixel/
// document/element/utility/terminal tool) bound to a fresh Worker and
// Message Log.
func New(bctx browser.BrowserContext, adapter llm.Adapter, opts Options) (*Runner, error) {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	outputSchema, err := tool.CompileOutputSchema("complete_work", opts.OutputSchema)
	if err != nil {
		return nil, fmt.Errorf("runner: compiling output schema: %w", err)
	}

	resolver := tool.NewElementResolver()
	files := tool.NewFileManager(opts.Files)

	registry := tool.NewRegistry()
	registry.MustRegister(tool.NewClickAtTool(bctx, resolver))
	registry.MustRegister(tool.NewHoverAtTool(bctx, resolver))
	registry.MustRegister(tool.NewScrollAtTool(bctx, resolver))
	registry.MustRegister(tool.NewDragAndDropTool(bctx, resolver))
	registry.MustRegister(tool.NewScrollDocumentTool(bctx))
	registry.MustRegister(tool.NewClickTool(bctx, resolver))
	registry.MustRegister(tool.NewFillTool(bctx, resolver))
	registry.MustRegister(tool.NewTypeTool(bctx, resolver))
	registry.MustRegister(tool.NewUploadTool(bctx, resolver, files))
	registry.MustRegister(tool.NewWaitTool())
	registry.MustRegister(tool.NewObserveTool())
	registry.MustRegister(tool.NewThinkTool())
	registry.MustRegister(tool.NewCompleteWorkTool(outputSchema))
	registry.MustRegister(tool.NewAbortWorkTool())

	dispatcherCfg := tool.DefaultConfig()
	dispatcherCfg.WaitAfterAction = opts.WaitAfterAction
	dispatcher := tool.NewDispatcher(registry, dispatcherCfg)
	log := message.NewLog()

	workerCfg := step.DefaultConfig()
	workerCfg.UseScreenshot = opts.UseScreenshot
	workerCfg.System = systemPrompt

	worker := step.NewWorker(bctx, registry, dispatcher, resolver, adapter, log, workerCfg)

	return &Runner{
		bctx:       bctx,
		adapter:    adapter,
		registry:   registry,
		dispatcher: dispatcher,
		resolver:   resolver,
		worker:     worker,
		log:        log,
		maxSteps:   maxSteps,
	}, nil
}

// Run drives the Worker from a fresh task description to a terminal
// state: COMPLETED (complete_work called), ABORTED (abort_work called,
// or an LLM adapter error propagated up), or EXHAUSTED (max_steps
// reached with no terminal signal).
func (r *Runner) Run(ctx context.Context, task string, emit step.EventFunc) (*model.Run, error) {
	runID := uuid.NewString()
	r.log.Append(model.NewSystemMessage(systemPrompt))
	r.log.Append(model.NewUserMessage(model.TextContent(task)))

	stepCount := 0
	for ; stepCount < r.maxSteps; stepCount++ {
		select {
		case <-ctx.Done():
			return &model.Run{
				RunID:     runID,
				Status:    model.RunAborted,
				Feedback:  "cancelled",
				StepCount: stepCount,
				History:   r.log.Messages(),
			}, nil
		default:
		}

		terminal, err := r.worker.Step(ctx, stepCount, emit)
		if err != nil {
			return &model.Run{
				RunID:     runID,
				Status:    model.RunAborted,
				Feedback:  err.Error(),
				StepCount: stepCount + 1,
				History:   r.log.Messages(),
			}, nil
		}

		if terminal != nil {
			status := model.RunAborted
			if terminal.Completed {
				status = model.RunCompleted
			}
			return &model.Run{
				RunID:     runID,
				Status:    status,
				Feedback:  terminal.Feedback,
				Output:    terminal.Output,
				StepCount: stepCount + 1,
				History:   r.log.Messages(),
			}, nil
		}
	}

	return &model.Run{
		RunID:     runID,
		Status:    model.RunExhausted,
		Feedback:  fmt.Sprintf("reached max_steps (%d) without completing", r.maxSteps),
		StepCount: stepCount,
		History:   r.log.Messages(),
	}, nil
}

// Resolver exposes the Runner's ElementResolver, e.g. for the public
// agent.select(description) operation to resolve an index entry into a
// handle outside the normal step loop.
func (r *Runner) Resolver() *tool.ElementResolver {
	return r.resolver
}
