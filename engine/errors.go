package engine

import "errors"

// Engine errors.
var (
	// ErrEmptyAction indicates a registration or dispatch with an
	// empty action name.
	ErrEmptyAction = errors.New("engine: action name is empty")

	// ErrNilHandler indicates a registration with a nil handler
	// function.
	ErrNilHandler = errors.New("engine: handler function is nil")

	// ErrNegativePriority indicates a registration with a negative
	// priority while the engine requires non-negative priorities.
	ErrNegativePriority = errors.New("engine: negative handler priority")

	// ErrAborted indicates a dispatch halted by a handler's Abort.
	ErrAborted = errors.New("engine: dispatch aborted")

	// ErrCancelledByHook indicates a dispatch cancelled by a
	// pre-dispatch hook.
	ErrCancelledByHook = errors.New("engine: dispatch cancelled by hook")
)
