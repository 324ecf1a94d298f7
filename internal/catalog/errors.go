package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout   = errors.New("catalog request timed out")
	ErrStatus    = errors.New("catalog returned an error status")
	ErrTransport = errors.New("catalog transport failure")
)

// StatusError is returned for any non-2xx response. It is never retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog API error (status %d): %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// TimeoutError is returned once every attempt has timed out.
type TimeoutError struct {
	Attempts int
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("catalog request timed out after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// TransportError covers connection failures other than read timeouts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
