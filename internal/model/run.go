package model

import "encoding/json"

// RunStatus is the terminal (or in-flight) status of a Run.
type RunStatus string

const (
	RunCompleted RunStatus = "COMPLETED"
	RunAborted   RunStatus = "ABORTED"
	RunExhausted RunStatus = "EXHAUSTED"
)

// Run is the result of driving one Task Runner invocation (C11) to
// completion: status, human feedback, an optional schema-validated
// output payload, the number of steps taken, and the full message
// history for inspection/debugging.
type Run struct {
	RunID     string
	Status    RunStatus
	Feedback  string
	Output    json.RawMessage
	StepCount int
	History   []*Message
}

// Verdict is the boolean-coercible result of agent.verify(condition). Go
// has no operator overloading, so truthiness is exposed via Bool() and
// String() rather than an implicit bool conversion; both are provided so
// callers can write `if v.Bool() { ... }` or log `v.String()` and see
// "passed=true: <feedback>" / "passed=false: <feedback>".
type Verdict struct {
	Passed   bool
	Feedback string
}

// Bool reports whether the verdict passed.
func (v Verdict) Bool() bool {
	return v.Passed
}

// String renders the verdict as "passed=<bool>: <feedback>".
func (v Verdict) String() string {
	status := "passed=false"
	if v.Passed {
		status = "passed=true"
	}
	if v.Feedback == "" {
		return status
	}
	return status + ": " + v.Feedback
}
