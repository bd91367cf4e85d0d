package agent

import (
	"errors"
	"fmt"
)

// ErrCircuitOpen is the cause recorded when the guard skips the upstream.
var ErrCircuitOpen = errors.New("upstream disabled after repeated failures")

// ErrEmptyResponse is the normalization reason for blank model output.
var ErrEmptyResponse = errors.New("empty response")

// UpstreamError wraps a failed call to the generation API.
type UpstreamError struct {
	Op  Op
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream call failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NormalizationError reports model output that could not be turned into the
// expected shape.
type NormalizationError struct {
	Kind   string
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("normalize %s: %s", e.Kind, e.Reason)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// InvariantError marks a result that should be impossible, such as a
// malformed fallback. It is the only failure that reaches callers as a 500.
type InvariantError struct {
	Op     Op
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: invariant violated: %s", e.Op, e.Reason)
}

// Outcome is the result of a Coach operation. Fallback is set when Value
// came from the fallback policy; Cause then says why.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Cause    error
}

func succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func fellBack[T any](v T, cause error) Outcome[T] {
	return Outcome[T]{Value: v, Fallback: true, Cause: cause}
}
