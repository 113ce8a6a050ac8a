package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mineclover/context-action-go/hook"
	"github.com/mineclover/context-action-go/pipeline"
	"github.com/mineclover/context-action-go/queue"
)

// Engine is the action pipeline engine: a registry of named actions,
// each backed by a priority-ordered handler pipeline, with dispatch
// serialized against registration through a per-action operation
// queue.
type Engine struct {
	mu sync.RWMutex

	// Core components
	registry *Registry
	queue    *queue.Queue
	executor *pipeline.Executor

	// Configuration
	config Config

	// Per-action execution mode overrides
	modes map[string]pipeline.ExecutionMode

	// Metrics
	metrics *Metrics

	// Hook manager for priority-based pre/post dispatch hooks
	hookManager *hook.Manager
}

// New creates a new engine with the given configuration.
func New(config Config) *Engine {
	execOpts := []pipeline.ExecutorOption{
		pipeline.WithPanicRecovery(config.PanicRecovery),
	}
	if config.Logger != nil {
		execOpts = append(execOpts, pipeline.WithLogger(config.Logger))
	}
	if config.SuccessPolicy != nil {
		execOpts = append(execOpts, pipeline.WithSuccessPolicy(config.SuccessPolicy))
	}

	e := &Engine{
		registry: NewRegistry(),
		queue:    queue.New(),
		executor: pipeline.NewExecutor(execOpts...),
		config:   config,
		modes:    make(map[string]pipeline.ExecutionMode),
	}

	if config.EnableMetrics {
		e.metrics = NewMetrics()
	}

	return e
}

// NewWithDefaults creates a new engine with default configuration.
func NewWithDefaults() *Engine {
	return New(DefaultConfig())
}

// Register adds a handler to an action's pipeline and returns an
// unregister closure. The insertion is routed through the operation
// queue keyed by the action name, so concurrent registrations for the
// same action cannot interleave their sort-and-insert steps and a
// dispatch can never observe a half-updated pipeline.
//
// When cfg.ID is empty an id is generated. Registering a duplicate id
// for the same action replaces the prior registration.
func (e *Engine) Register(action string, fn pipeline.HandlerFunc, cfg pipeline.HandlerConfig) (func(), error) {
	if action == "" {
		return nil, ErrEmptyAction
	}
	if fn == nil {
		return nil, ErrNilHandler
	}
	if e.config.RequireNonNegativePriority && cfg.Priority < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativePriority, cfg.Priority)
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	reg := pipeline.Registration{Config: cfg, Fn: fn}

	if _, err := e.queue.Do(context.Background(), action, func(context.Context) (any, error) {
		e.registry.Insert(action, reg)
		return nil, nil
	}); err != nil {
		return nil, err
	}

	id := cfg.ID
	return func() { e.Unregister(id) }, nil
}

// Unregister removes a registration by id. Unregistering an unknown id
// is a no-op.
//
// The removal runs on the operation queue of the action the id belongs
// to. The id is resolved again inside the queued operation: when a
// concurrent registration moved the id to another action while the
// removal was queued, the stale operation is skipped and the removal
// retried on the id's current action.
func (e *Engine) Unregister(id string) {
	for {
		action, ok := e.registry.ActionOf(id)
		if !ok {
			return
		}
		removed := false
		_, _ = e.queue.Do(context.Background(), action, func(context.Context) (any, error) {
			if current, ok := e.registry.ActionOf(id); !ok || current != action {
				return nil, nil
			}
			e.registry.Remove(id)
			removed = true
			return nil, nil
		})
		if removed {
			return
		}
	}
}

// Dispatch runs an action's pipeline with the given payload and
// returns the aggregate result. An aborted dispatch returns ErrAborted
// wrapped with the abort reason; per-handler failures stay inside the
// result envelope and do not surface here.
func (e *Engine) Dispatch(ctx context.Context, action string, payload any, opts ...DispatchOption) (any, error) {
	res, err := e.DispatchWithResult(ctx, action, payload, opts...)
	if err != nil {
		return nil, err
	}
	if res.Aborted {
		return nil, fmt.Errorf("%w: %s", ErrAborted, res.AbortReason)
	}
	return res.Result, nil
}

// DispatchWithResult runs an action's pipeline and returns the full
// result envelope. The error return is reserved for catastrophic
// failures (malformed action name, cancelled wait); handler failures
// and aborts are reported inside the envelope.
func (e *Engine) DispatchWithResult(ctx context.Context, action string, payload any, opts ...DispatchOption) (pipeline.DispatchResult, error) {
	if action == "" {
		return pipeline.DispatchResult{}, ErrEmptyAction
	}
	if ctx == nil {
		ctx = context.Background()
	}

	popts := e.dispatchOptions(action, opts)

	// Pre-dispatch hooks may rewrite the payload or cancel outright.
	if m := e.preHooks(); m != nil {
		next, ok := m.RunPreDispatch(action, payload)
		if !ok {
			return pipeline.DispatchResult{
				Aborted:     true,
				AbortReason: ErrCancelledByHook.Error(),
			}, nil
		}
		payload = next
	}

	start := time.Now()

	// Snapshot under the queue: dispatch cannot start while a
	// registration for this action is mid-mutation. The walk itself
	// runs outside the queue, so dispatches of the same action are not
	// serialized against each other.
	snapValue, err := e.queue.Do(ctx, action, func(context.Context) (any, error) {
		return e.registry.Snapshot(action), nil
	})
	if err != nil {
		return pipeline.DispatchResult{}, err
	}
	snapshot, _ := snapValue.([]pipeline.Registration)

	res, onceRan := e.executor.Run(ctx, snapshot, payload, popts)

	// Once-registrations that ran are removed through the queue so the
	// removal cannot interleave with a concurrent registration.
	if len(onceRan) > 0 {
		ids := onceRan
		e.queue.Enqueue(context.Background(), action, func(context.Context) (any, error) {
			for _, id := range ids {
				e.registry.Remove(id)
			}
			return nil, nil
		})
	}

	if e.metrics != nil {
		e.metrics.RecordDispatch(action, time.Since(start), res)
	}

	if m := e.postHooks(); m != nil {
		m.RunPostDispatch(action, payload, &res)
	}

	return res, nil
}

// dispatchOptions resolves the effective options for one dispatch:
// engine defaults, then the per-action mode override, then per-call
// options.
func (e *Engine) dispatchOptions(action string, opts []DispatchOption) pipeline.DispatchOptions {
	e.mu.RLock()
	mode, hasMode := e.modes[action]
	e.mu.RUnlock()

	popts := pipeline.DispatchOptions{
		Mode:    e.config.DefaultExecutionMode,
		Timeout: e.config.DefaultTimeout,
	}
	if hasMode {
		popts.Mode = mode
	}
	for _, opt := range opts {
		opt(&popts)
	}
	return popts
}

// preHooks returns the hook manager if any pre-hooks are registered.
func (e *Engine) preHooks() *hook.Manager {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.hookManager == nil || e.hookManager.PreHookCount() == 0 {
		return nil
	}
	return e.hookManager
}

// postHooks returns the hook manager if any post-hooks are registered.
func (e *Engine) postHooks() *hook.Manager {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.hookManager == nil || e.hookManager.PostHookCount() == 0 {
		return nil
	}
	return e.hookManager
}

// HasHandlers reports whether any handler is registered for the
// action. Introspection reads are not queued.
func (e *Engine) HasHandlers(action string) bool {
	return e.registry.Has(action)
}

// HandlerCount returns the number of handlers registered for the
// action.
func (e *Engine) HandlerCount(action string) int {
	return e.registry.HandlerCount(action)
}

// RegisteredActions returns all action names with registered handlers.
func (e *Engine) RegisteredActions() []string {
	return e.registry.Actions()
}

// ClearAll removes every registration and per-action mode override.
// In-flight dispatches keep walking their snapshots.
func (e *Engine) ClearAll() {
	e.registry.Clear()

	e.mu.Lock()
	e.modes = make(map[string]pipeline.ExecutionMode)
	e.mu.Unlock()
}

// SetActionExecutionMode sets the execution mode used for an action
// when a dispatch does not select one explicitly.
func (e *Engine) SetActionExecutionMode(action string, mode pipeline.ExecutionMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modes[action] = mode
}

// ActionExecutionMode returns the per-action mode override, if set.
func (e *Engine) ActionExecutionMode(action string) (pipeline.ExecutionMode, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	mode, ok := e.modes[action]
	return mode, ok
}

// ClearActionExecutionMode removes an action's mode override.
func (e *Engine) ClearActionExecutionMode(action string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.modes, action)
}

// Hooks returns the hook manager, creating it on first use.
func (e *Engine) Hooks() *hook.Manager {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hookManager == nil {
		e.hookManager = hook.NewManager()
	}
	return e.hookManager
}

// Registry returns the handler registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Queue returns the operation queue.
func (e *Engine) Queue() *queue.Queue {
	return e.queue
}

// Metrics returns the metrics collector (nil if disabled).
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}
