// Package verifier implements the Verifier (C10, spec.md §4.9): a
// restricted Worker variant whose toolset only lets the model look at
// the page and then render a verdict, used by agent.verify(condition).
package verifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/message"
	"github.com/steve-z-wang/webtask/internal/model"
	"github.com/steve-z-wang/webtask/internal/step"
	"github.com/steve-z-wang/webtask/internal/tool"
)

// verifySystemPrompt is the fixed system prompt a Verifier's Worker
// calls the LLM with, grounded on the reference worker's condition-check
// framing — restated here rather than imported since the teacher's
// prompt text lived alongside channel/job concerns this package drops.
const verifySystemPrompt = "You are verifying whether a condition currently holds on the page. " +
	"Use the available tools to observe the page, then call verify_result exactly once with your verdict."

// Config tunes a Verifier's Worker.
type Config struct {
	UseScreenshot bool
	MaxSteps      int
}

// DefaultConfig returns screenshots on and a conservative step budget —
// a verdict should rarely need more than a handful of observations.
func DefaultConfig() Config {
	return Config{UseScreenshot: true, MaxSteps: 5}
}

// Verifier drives a restricted Worker (observation tools plus a single
// verify_result terminal tool) to a Verdict.
type Verifier struct {
	worker   *step.Worker
	maxSteps int
}

// New builds a Verifier bound to bctx's current page. Each call gets its
// own Message Log and Registry — a Verifier run never shares state with
// the Task Runner's own Worker, so verifying a condition can't leave
// stray messages in the task's conversation.
func New(bctx browser.BrowserContext, adapter llm.Adapter, cfg Config) *Verifier {
	if cfg.MaxSteps <= 0 {
		cfg = DefaultConfig()
	}

	registry := tool.NewRegistry()
	resolver := tool.NewElementResolver()
	registry.MustRegister(tool.NewObserveTool())
	registry.MustRegister(tool.NewThinkTool())
	registry.MustRegister(tool.NewWaitTool())
	registry.MustRegister(newVerifyResultTool())

	dispatcher := tool.NewDispatcher(registry, tool.DefaultConfig())
	log := message.NewLog()

	workerCfg := step.Config{UseScreenshot: cfg.UseScreenshot, System: verifySystemPrompt}
	return &Verifier{
		worker:   step.NewWorker(bctx, registry, dispatcher, resolver, adapter, log, workerCfg),
		maxSteps: cfg.MaxSteps,
	}
}

// Verify drives the restricted Worker until verify_result is called or
// maxSteps is exhausted, and returns the resulting Verdict.
//
// Grounded on spec.md §4.9: "Implements the same state machine" — this
// is literally the same step.Worker.Step loop the Task Runner drives,
// just with a toolset that can only observe and conclude.
func (v *Verifier) Verify(ctx context.Context, condition string) (model.Verdict, error) {
	terminal, err := runToTerminal(ctx, v.worker, condition, v.maxSteps)
	if err != nil {
		return model.Verdict{}, err
	}
	if terminal == nil {
		return model.Verdict{Passed: false, Feedback: "exhausted step budget without a verdict"}, nil
	}

	var out struct {
		Verified bool `json:"verified"`
	}
	if len(terminal.Output) > 0 {
		if err := json.Unmarshal(terminal.Output, &out); err != nil {
			return model.Verdict{}, fmt.Errorf("verifier: invalid verify_result output: %w", err)
		}
	}
	return model.Verdict{Passed: out.Verified, Feedback: terminal.Feedback}, nil
}

func runToTerminal(ctx context.Context, w *step.Worker, condition string, maxSteps int) (*model.TerminalSignal, error) {
	w.Log().Append(model.NewUserMessage(model.TextContent("Condition to verify: " + condition)))

	for i := 0; i < maxSteps; i++ {
		terminal, err := w.Step(ctx, i, nil)
		if err != nil {
			return nil, err
		}
		if terminal != nil {
			return terminal, nil
		}
	}
	return nil, nil
}

// verifyResultTool is the Verifier's only terminal tool: a verified bool
// plus feedback, grounded on spec.md §4.9's
// complete_work(verified: bool, feedback) signature.
type verifyResultTool struct{}

func newVerifyResultTool() *verifyResultTool { return &verifyResultTool{} }

func (t *verifyResultTool) Name() string { return "verify_result" }
func (t *verifyResultTool) Description() string {
	return "Report whether the condition holds, with supporting feedback. Call this exactly once, when you have enough observation to decide."
}

func (t *verifyResultTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"verified": {"type": "boolean", "description": "Whether the condition holds"},
			"feedback": {"type": "string", "description": "Evidence or reasoning supporting the verdict"}
		},
		"required": ["verified", "feedback"],
		"additionalProperties": false
	}`)
}

func (t *verifyResultTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		Verified bool   `json:"verified"`
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("verify_result: %w", err)
	}
	output, err := json.Marshal(struct {
		Verified bool `json:"verified"`
	}{params.Verified})
	if err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: params.Feedback,
		Terminal: &model.TerminalSignal{
			Completed: true,
			Feedback:  params.Feedback,
			Output:    output,
		},
	}, nil
}
