package catalog

import (
	"context"
	"errors"
	"net"
	"time"
)

type outcome int

const (
	outcomeOK outcome = iota
	outcomeRetryable
	outcomeFatal
)

// attemptResult is the classified result of a single HTTP attempt.
type attemptResult struct {
	outcome outcome
	body    []byte
	err     error
}

func okResult(body []byte) attemptResult { return attemptResult{outcome: outcomeOK, body: body} }

func retryResult(err error) attemptResult { return attemptResult{outcome: outcomeRetryable, err: err} }

func fatalResult(err error) attemptResult { return attemptResult{outcome: outcomeFatal, err: err} }

// RetryPolicy controls how timed-out attempts are repeated. Retries is the
// number of additional attempts after the first one.
type RetryPolicy struct {
	Retries int
	Delay   time.Duration
}

// DefaultRetryPolicy returns 2 retries with no delay between attempts.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{Retries: 2}
}

// MaxAttempts returns the total number of attempts the policy allows.
func (p *RetryPolicy) MaxAttempts() int {
	if p.Retries < 0 {
		return 1
	}
	return p.Retries + 1
}

// Execute runs fn until it succeeds, fails fatally or the retry budget is
// spent. An exhausted budget surfaces the last timeout as a *TimeoutError.
func (p *RetryPolicy) Execute(ctx context.Context, fn func(attempt int) attemptResult) ([]byte, error) {
	attempts := p.MaxAttempts()
	var last attemptResult
	for attempt := 1; attempt <= attempts; attempt++ {
		last = fn(attempt)
		switch last.outcome {
		case outcomeOK:
			return last.body, nil
		case outcomeFatal:
			return nil, last.err
		}
		if attempt < attempts && p.Delay > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return nil, &TransportError{Err: ctx.Err()}
			}
		}
	}
	return nil, &TimeoutError{Attempts: attempts, Err: last.err}
}

// classifyTransport decides whether a failed round trip may be retried.
// Only read timeouts are retryable; dial failures (refused, DNS, connect
// timeout), a done caller context and everything else are fatal.
func classifyTransport(ctx context.Context, err error) attemptResult {
	if ctx.Err() != nil {
		return fatalResult(&TransportError{Err: err})
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fatalResult(&TransportError{Err: err})
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return retryResult(err)
	}
	return fatalResult(&TransportError{Err: err})
}
