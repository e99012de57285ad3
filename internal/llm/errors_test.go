package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClassifyErrorByMessage(t *testing.T) {
	cases := map[string]FailoverReason{
		"request timeout":            FailoverTimeout,
		"context deadline exceeded":  FailoverTimeout,
		"rate limit exceeded":        FailoverRateLimit,
		"429 too many requests":      FailoverRateLimit,
		"401 unauthorized":           FailoverAuth,
		"invalid api key":            FailoverAuth,
		"502 bad gateway":            FailoverServerError,
		"internal server error: 500": FailoverServerError,
		"completely unrelated text":  FailoverUnknown,
	}
	for msg, want := range cases {
		got := NewProviderError("test", "model-x", errors.New(msg)).Reason
		if got != want {
			t.Errorf("classifyError(%q) = %v, want %v", msg, got, want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []FailoverReason{FailoverRateLimit, FailoverTimeout, FailoverServerError}
	for _, r := range retryable {
		if !r.IsRetryable() {
			t.Errorf("%v should be retryable", r)
		}
	}
	notRetryable := []FailoverReason{FailoverAuth, FailoverInvalid, FailoverUnknown}
	for _, r := range notRetryable {
		if r.IsRetryable() {
			t.Errorf("%v should not be retryable", r)
		}
	}
}

func TestWithStatusOverridesClassification(t *testing.T) {
	err := NewProviderError("test", "model-x", errors.New("some opaque failure")).WithStatus(429)
	if err.Reason != FailoverRateLimit {
		t.Errorf("Reason = %v, want FailoverRateLimit from status 429", err.Reason)
	}
	if err.Status != 429 {
		t.Errorf("Status = %d, want 429", err.Status)
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewProviderError("test", "model-x", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestNewRetrierAppliesDefaults(t *testing.T) {
	r := NewRetrier(0, 0)
	if r.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", r.MaxRetries)
	}
	if r.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v, want default 1s", r.RetryDelay)
	}
}

func TestRetrierDoStopsOnNonRetryableError(t *testing.T) {
	r := NewRetrier(5, time.Millisecond)
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return NewProviderError("test", "m", errors.New("invalid api key"))
	})
	if err == nil {
		t.Fatal("expected the non-retryable error to be returned")
	}
	if calls != 1 {
		t.Errorf("expected exactly one attempt for a non-retryable error, got %d", calls)
	}
}

func TestRetrierDoRetriesRetryableErrorUntilSuccess(t *testing.T) {
	r := NewRetrier(5, time.Millisecond)
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewProviderError("test", "m", errors.New("503 service unavailable"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts before success, got %d", calls)
	}
}

func TestRetrierDoGivesUpAfterMaxRetries(t *testing.T) {
	r := NewRetrier(2, time.Millisecond)
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return NewProviderError("test", "m", errors.New("timeout"))
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 2 {
		t.Errorf("expected exactly MaxRetries=2 attempts, got %d", calls)
	}
}

func TestRetrierDoRespectsContextCancellation(t *testing.T) {
	r := NewRetrier(5, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := r.Do(ctx, func() error {
		calls++
		if calls == 1 {
			cancel()
		}
		return NewProviderError("test", "m", errors.New("timeout"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
