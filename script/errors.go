package script

import "errors"

// Script errors.
var (
	// ErrNotAFunction indicates the script did not evaluate to a
	// function.
	ErrNotAFunction = errors.New("script: source must return a function")

	// ErrHandlerClosed indicates the handler was invoked after Close.
	ErrHandlerClosed = errors.New("script: handler is closed")
)
