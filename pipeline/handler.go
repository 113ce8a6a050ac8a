package pipeline

import "context"

// HandlerFunc is the callback invoked for each eligible registration
// during a dispatch. The payload is the current payload at the time the
// handler starts; flow control goes through the controller.
type HandlerFunc func(ctx context.Context, payload any, pc *Controller) error

// Condition is a predicate evaluated against the current payload before
// a handler runs. Returning false skips the handler without counting it
// as executed.
type Condition func(payload any) bool

// HandlerConfig holds per-registration options supplied at registration
// time.
type HandlerConfig struct {
	// ID uniquely identifies the registration within an action's
	// pipeline. When empty, an id is generated.
	ID string

	// Priority orders handlers within a pipeline. Higher values run
	// first; ties preserve registration order.
	Priority int

	// Once removes the registration after its first actual execution.
	Once bool

	// NonBlocking runs the handler without waiting for it to finish.
	// In sequential mode the walk advances immediately; the handler's
	// trailing work settles on its own.
	NonBlocking bool

	// Condition, when set, gates execution on the current payload.
	Condition Condition

	// Tags and Category classify the registration for filtered
	// dispatch.
	Tags     []string
	Category string

	// Metadata is an opaque record carried on the registration.
	Metadata map[string]any
}

// Registration is one entry in an action's pipeline: a handler plus its
// configuration.
type Registration struct {
	Config HandlerConfig
	Fn     HandlerFunc
}

// ID returns the registration id.
func (r Registration) ID() string { return r.Config.ID }

// Priority returns the registration priority.
func (r Registration) Priority() int { return r.Config.Priority }

// HasTag reports whether the registration carries the given tag.
func (r Registration) HasTag(tag string) bool {
	for _, t := range r.Config.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Typed adapts a payload-typed handler function to a HandlerFunc.
// Payloads of a different type are skipped silently.
func Typed[T any](fn func(ctx context.Context, payload T, pc *Controller) error) HandlerFunc {
	return func(ctx context.Context, payload any, pc *Controller) error {
		if p, ok := payload.(T); ok {
			return fn(ctx, p, pc)
		}
		// Type mismatch - skip silently
		return nil
	}
}

// TypedCondition adapts a payload-typed predicate to a Condition.
// Payloads of a different type fail the condition.
func TypedCondition[T any](fn func(payload T) bool) Condition {
	return func(payload any) bool {
		if p, ok := payload.(T); ok {
			return fn(p)
		}
		return false
	}
}
