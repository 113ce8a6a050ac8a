package pipeline

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrDispatchTimeout indicates the dispatch exceeded its timeout.
	ErrDispatchTimeout = errors.New("pipeline: dispatch timeout")

	// ErrNilHandler indicates a registration with a nil handler
	// function reached the executor.
	ErrNilHandler = errors.New("pipeline: handler function is nil")
)

// PanicError wraps a recovered handler panic so it can travel through
// the error-based failure path.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace captured at the recovery point.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("pipeline: handler panic: %v", e.Value)
}
