package queue

import (
	"errors"
	"fmt"
)

// Queue errors.
var (
	// ErrNilOperation is returned when a nil operation is enqueued.
	ErrNilOperation = errors.New("queue: operation is nil")
)

// PanicError wraps a panic recovered from a queued operation.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace captured at the recovery point.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("queue: operation panic: %v", e.Value)
}
