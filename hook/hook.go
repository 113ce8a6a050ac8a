package hook

import (
	"github.com/mineclover/context-action-go/pipeline"
)

// Hook is the base interface for all dispatch hooks.
type Hook interface {
	// Name returns a unique identifier for this hook.
	Name() string

	// Priority returns the hook priority.
	// Higher values run first for pre-hooks, last for post-hooks.
	Priority() int
}

// PreDispatchHook is called before a pipeline walk starts.
type PreDispatchHook interface {
	Hook

	// PreDispatch receives the action name and the dispatch payload.
	// It returns the payload to use (possibly rewritten) and false to
	// cancel the dispatch.
	PreDispatch(action string, payload any) (any, bool)
}

// PostDispatchHook is called after a pipeline walk finishes.
type PostDispatchHook interface {
	Hook

	// PostDispatch may inspect or annotate the result.
	PostDispatch(action string, payload any, result *pipeline.DispatchResult)
}

// PreDispatchFunc wraps a function as a PreDispatchHook.
type PreDispatchFunc struct {
	name     string
	priority int
	fn       func(action string, payload any) (any, bool)
}

// NewPreDispatchFunc creates a new PreDispatchFunc hook.
func NewPreDispatchFunc(name string, priority int, fn func(action string, payload any) (any, bool)) *PreDispatchFunc {
	return &PreDispatchFunc{
		name:     name,
		priority: priority,
		fn:       fn,
	}
}

// Name implements Hook.
func (f *PreDispatchFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *PreDispatchFunc) Priority() int { return f.priority }

// PreDispatch implements PreDispatchHook.
func (f *PreDispatchFunc) PreDispatch(action string, payload any) (any, bool) {
	if f.fn == nil {
		return payload, true
	}
	return f.fn(action, payload)
}

// PostDispatchFunc wraps a function as a PostDispatchHook.
type PostDispatchFunc struct {
	name     string
	priority int
	fn       func(action string, payload any, result *pipeline.DispatchResult)
}

// NewPostDispatchFunc creates a new PostDispatchFunc hook.
func NewPostDispatchFunc(name string, priority int, fn func(action string, payload any, result *pipeline.DispatchResult)) *PostDispatchFunc {
	return &PostDispatchFunc{
		name:     name,
		priority: priority,
		fn:       fn,
	}
}

// Name implements Hook.
func (f *PostDispatchFunc) Name() string { return f.name }

// Priority implements Hook.
func (f *PostDispatchFunc) Priority() int { return f.priority }

// PostDispatch implements PostDispatchHook.
func (f *PostDispatchFunc) PostDispatch(action string, payload any, result *pipeline.DispatchResult) {
	if f.fn != nil {
		f.fn(action, payload, result)
	}
}

// CombinedHook implements both PreDispatchHook and PostDispatchHook.
type CombinedHook interface {
	PreDispatchHook
	PostDispatchHook
}
