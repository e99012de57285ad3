package webtask

import (
	"encoding/json"

	"github.com/steve-z-wang/webtask/internal/model"
)

// Status mirrors model.RunStatus at the public boundary so callers never
// need to import internal/model themselves.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
	StatusExhausted Status = "exhausted"
)

func statusFromRun(s model.RunStatus) Status {
	switch s {
	case model.RunCompleted:
		return StatusCompleted
	case model.RunExhausted:
		return StatusExhausted
	default:
		return StatusAborted
	}
}

// Result is what Agent.Do returns on every non-error path, including the
// EXHAUSTED case (spec.md §7: "do returns result with status flag, does
// not throw").
type Result struct {
	RunID     string
	Status    Status
	Feedback  string
	Output    json.RawMessage
	StepCount int
}

func newResult(run *model.Run) *Result {
	return &Result{
		RunID:     run.RunID,
		Status:    statusFromRun(run.Status),
		Feedback:  run.Feedback,
		Output:    run.Output,
		StepCount: run.StepCount,
	}
}

// Verdict is the boolean-coercible outcome of Agent.Verify (spec.md
// GLOSSARY: "(passed: bool, feedback: string), boolean-coercible").
type Verdict struct {
	Passed   bool
	Feedback string
}

// Bool satisfies the spec's "boolean-coercible" requirement for callers
// that want `if result.Bool() { ... }` instead of `.Passed`.
func (v Verdict) Bool() bool { return v.Passed }

func (v Verdict) String() string {
	return model.Verdict{Passed: v.Passed, Feedback: v.Feedback}.String()
}

// ElementHandle is the result of agent.select(description): a resolved
// backend DOM node id plus the model's own account of the match, for
// callers that want to act on the element directly (e.g. via a Page's
// ElementActor methods) without going through a tool-calling loop.
type ElementHandle struct {
	ElementID     string
	Reasoning     string
	BackendNodeID int64
}
