package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errSlow = errors.New("read timeout")

func TestRetryPolicyDefaults(t *testing.T) {
	policy := DefaultRetryPolicy()
	if policy.MaxAttempts() != 3 {
		t.Errorf("expected 3 attempts, got %d", policy.MaxAttempts())
	}
	if policy.Delay != 0 {
		t.Errorf("expected no delay, got %v", policy.Delay)
	}
	if (&RetryPolicy{Retries: -1}).MaxAttempts() != 1 {
		t.Error("negative retries should still allow one attempt")
	}
}

func TestRetryPolicyExecuteRecovers(t *testing.T) {
	policy := DefaultRetryPolicy()
	calls := 0

	body, err := policy.Execute(context.Background(), func(attempt int) attemptResult {
		calls++
		if attempt < 3 {
			return retryResult(errSlow)
		}
		return okResult([]byte("ok"))
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("expected body 'ok', got %q", body)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicyExecuteExhausted(t *testing.T) {
	policy := DefaultRetryPolicy()
	calls := 0

	_, err := policy.Execute(context.Background(), func(int) attemptResult {
		calls++
		return retryResult(errSlow)
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, errSlow) {
		t.Error("expected the last timeout to be wrapped")
	}
	var te *TimeoutError
	if !errors.As(err, &te) || te.Attempts != 3 {
		t.Errorf("expected TimeoutError with 3 attempts, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicyExecuteFatal(t *testing.T) {
	policy := DefaultRetryPolicy()
	calls := 0

	_, err := policy.Execute(context.Background(), func(int) attemptResult {
		calls++
		return fatalResult(&StatusError{StatusCode: 401, Body: "unauthorized"})
	})
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call for fatal error, got %d", calls)
	}
}

func TestRetryPolicyDelayHonoursContext(t *testing.T) {
	policy := &RetryPolicy{Retries: 2, Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := policy.Execute(ctx, func(int) attemptResult {
		calls++
		cancel()
		return retryResult(errSlow)
	})
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport after cancellation, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyTransport(t *testing.T) {
	if got := classifyTransport(context.Background(), timeoutErr{}); got.outcome != outcomeRetryable {
		t.Errorf("expected read timeout to be retryable, got %v", got.outcome)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := classifyTransport(ctx, timeoutErr{})
	if got.outcome != outcomeFatal {
		t.Fatalf("expected fatal outcome for a done context, got %v", got.outcome)
	}
	if !errors.Is(got.err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", got.err)
	}
}
