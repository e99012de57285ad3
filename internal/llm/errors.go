package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FailoverReason categorizes why a provider call failed, grounded on the
// reference providers/errors.go. This package only needs the subset that
// drives retry, not the richer model-failover logic the teacher's
// multi-provider gateway layered on top.
type FailoverReason string

const (
	FailoverRateLimit   FailoverReason = "rate_limit"
	FailoverTimeout     FailoverReason = "timeout"
	FailoverServerError FailoverReason = "server_error"
	FailoverAuth        FailoverReason = "auth"
	FailoverInvalid     FailoverReason = "invalid_request"
	FailoverUnknown     FailoverReason = "unknown"
)

// IsRetryable reports whether a failure of this kind is worth retrying.
func (r FailoverReason) IsRetryable() bool {
	switch r {
	case FailoverRateLimit, FailoverTimeout, FailoverServerError:
		return true
	default:
		return false
	}
}

// ProviderError wraps a provider SDK error with enough context for
// Retry to decide whether to try again, and for a caller to print
// something useful.
type ProviderError struct {
	Provider string
	Model    string
	Reason   FailoverReason
	Status   int
	Cause    error
}

func (e *ProviderError) Error() string {
	msg := e.Cause.Error()
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status=%d, reason=%s)", e.Provider, msg, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s: %s (reason=%s)", e.Provider, msg, e.Reason)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// NewProviderError classifies cause and wraps it.
func NewProviderError(provider, model string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Model: model, Cause: cause, Reason: classifyError(cause)}
}

// WithStatus reclassifies the error from an HTTP status code, the same
// status-first classification the reference ClassifyError layers on
// before falling back to string sniffing.
func (e *ProviderError) WithStatus(status int) *ProviderError {
	e.Status = status
	switch {
	case status == 429:
		e.Reason = FailoverRateLimit
	case status == 401 || status == 403:
		e.Reason = FailoverAuth
	case status == 400:
		e.Reason = FailoverInvalid
	case status >= 500:
		e.Reason = FailoverServerError
	}
	return e
}

func classifyError(err error) FailoverReason {
	if err == nil {
		return FailoverUnknown
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "timeout"), strings.Contains(s, "deadline exceeded"):
		return FailoverTimeout
	case strings.Contains(s, "rate limit"), strings.Contains(s, "429"), strings.Contains(s, "too many requests"):
		return FailoverRateLimit
	case strings.Contains(s, "unauthorized"), strings.Contains(s, "invalid api key"), strings.Contains(s, "403"):
		return FailoverAuth
	case strings.Contains(s, "500"), strings.Contains(s, "502"), strings.Contains(s, "503"), strings.Contains(s, "server error"):
		return FailoverServerError
	default:
		return FailoverUnknown
	}
}

// Retrier runs an operation with linear backoff, grounded on the
// reference BaseProvider.Retry.
type Retrier struct {
	MaxRetries int
	RetryDelay time.Duration
}

// NewRetrier returns a Retrier with the teacher's defaults (3 attempts,
// 1s base delay) when given non-positive values.
func NewRetrier(maxRetries int, retryDelay time.Duration) Retrier {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return Retrier{MaxRetries: maxRetries, RetryDelay: retryDelay}
}

// Do runs op, retrying with linear backoff while the returned error
// classifies as retryable.
func (r Retrier) Do(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= r.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		var provErr *ProviderError
		retryable := false
		if asProviderError(err, &provErr) {
			retryable = provErr.Reason.IsRetryable()
		}
		if !retryable || attempt >= r.MaxRetries {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.RetryDelay * time.Duration(attempt)):
		}
	}
	return lastErr
}

func asProviderError(err error, target **ProviderError) bool {
	for err != nil {
		if pe, ok := err.(*ProviderError); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
