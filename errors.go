package webtask

import (
	"fmt"
	"strings"
)

// ToolErrorType categorizes a failed tool call for retry logic, adapted
// from the teacher's tool-execution error taxonomy (internal/agent's
// ToolError/ToolErrorType) onto spec.md §7's error kinds.
type ToolErrorType string

const (
	ToolErrorNotFound      ToolErrorType = "not_found"
	ToolErrorInvalidInput  ToolErrorType = "invalid_input"
	ToolErrorTimeout       ToolErrorType = "timeout"
	ToolErrorBrowserFailed ToolErrorType = "browser_failure"
	ToolErrorExecution     ToolErrorType = "execution"
	ToolErrorUnknown       ToolErrorType = "unknown"
)

// IsRetryable reports whether errors of this type are generally worth
// retrying. Only timeouts, which may simply need the page more time to
// settle, qualify.
func (t ToolErrorType) IsRetryable() bool {
	return t == ToolErrorTimeout
}

// ToolError is the structured shape a caller can extract via errors.As
// from a run's Feedback-adjacent error when a tool call failed in a way
// worth distinguishing from a plain abort (spec.md §7: ToolNotFound /
// ParamValidation / ToolExecution / BrowserFailure all surface to the
// caller as ToolExecution-shaped detail, not just a feedback string).
type ToolError struct {
	Type      ToolErrorType
	ToolName  string
	Message   string
	Cause     error
	Retryable bool
}

func (e *ToolError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[tool:%s]", e.Type))
	if e.ToolName != "" {
		parts = append(parts, e.ToolName)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

func (e *ToolError) Unwrap() error { return e.Cause }

// newToolError classifies cause's text the way spec.md §7's taxonomy
// names it, without depending on any particular tool's internal error
// types (internal/tool only returns plain errors from Execute).
func newToolError(toolName, message string, cause error) *ToolError {
	t := classifyToolError(message)
	return &ToolError{
		Type:      t,
		ToolName:  toolName,
		Message:   message,
		Cause:     cause,
		Retryable: t.IsRetryable(),
	}
}

func classifyToolError(message string) ToolErrorType {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "not found"):
		return ToolErrorNotFound
	case strings.Contains(m, "timeout") || strings.Contains(m, "deadline exceeded"):
		return ToolErrorTimeout
	case strings.Contains(m, "invalid") || strings.Contains(m, "required") || strings.Contains(m, "validation"):
		return ToolErrorInvalidInput
	case strings.Contains(m, "browser") || strings.Contains(m, "detached") || strings.Contains(m, "navigation"):
		return ToolErrorBrowserFailed
	case m == "":
		return ToolErrorUnknown
	default:
		return ToolErrorExecution
	}
}

// TaskAbortedError is returned by Agent.Do when the run ends with
// status ABORTED: abort_work was called, or the LLM adapter itself
// failed (spec.md §7, §6 "throws TaskAbortedError").
type TaskAbortedError struct {
	Feedback string
	Run      *Result

	// Cause classifies why the run aborted (spec.md §7's ToolNotFound /
	// ParamValidation / ToolExecution / BrowserFailure / LLMProtocol
	// rows collapse to feedback text by the time Do sees them; Cause
	// recovers a best-effort category from that text for callers that
	// want to distinguish a retryable failure from a hard stop).
	Cause *ToolError
}

func (e *TaskAbortedError) Error() string {
	return fmt.Sprintf("task aborted: %s", e.Feedback)
}

func (e *TaskAbortedError) Unwrap() error { return e.Cause }

// VerificationAbortedError is returned by Agent.Verify when the
// Verifier's restricted loop itself aborts (adapter error, cancellation)
// rather than reaching a verdict — distinct from a reached verdict of
// Passed=false, which is not an error (spec.md §6).
type VerificationAbortedError struct {
	Feedback string
}

func (e *VerificationAbortedError) Error() string {
	return fmt.Sprintf("verification aborted: %s", e.Feedback)
}

// ExtractionAbortedError is returned by Agent.Extract when the
// Extractor's restricted loop aborts before producing a value (spec.md
// §6).
type ExtractionAbortedError struct {
	Feedback string
}

func (e *ExtractionAbortedError) Error() string {
	return fmt.Sprintf("extraction aborted: %s", e.Feedback)
}
