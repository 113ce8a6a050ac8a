package pipeline

import (
	"context"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// SuccessPolicy decides whether a finished dispatch counts as
// successful. It runs after the result envelope is fully assembled.
type SuccessPolicy func(r DispatchResult) bool

// DefaultSuccessPolicy reports success when the walk completed without
// abort and at least one executed handler settled without error. An
// empty walk is trivially successful.
func DefaultSuccessPolicy(r DispatchResult) bool {
	if r.Aborted {
		return false
	}
	if r.Execution.HandlersExecuted == 0 {
		return true
	}
	return r.Execution.HandlersExecuted > len(r.Errors)
}

// Executor drives handler pipelines through the execution modes with
// per-handler panic recovery and failure isolation.
type Executor struct {
	panicRecovery bool
	logger        *slog.Logger
	successPolicy SuccessPolicy
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPanicRecovery toggles per-handler panic recovery. Enabled by
// default; disabling it lets handler panics crash the caller.
func WithPanicRecovery(enabled bool) ExecutorOption {
	return func(e *Executor) {
		e.panicRecovery = enabled
	}
}

// WithLogger sets the structured logger used for handler failures.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSuccessPolicy replaces the default success policy.
func WithSuccessPolicy(p SuccessPolicy) ExecutorOption {
	return func(e *Executor) {
		if p != nil {
			e.successPolicy = p
		}
	}
}

// NewExecutor creates an executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		panicRecovery: true,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		successPolicy: DefaultSuccessPolicy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run walks a pipeline snapshot with the given payload and options and
// returns the result envelope plus the ids of once-registrations that
// actually executed (the caller removes those from the live registry).
func (e *Executor) Run(ctx context.Context, snapshot []Registration, payload any, opts DispatchOptions) (DispatchResult, []string) {
	eligible := snapshot
	if !opts.Filter.empty() {
		eligible = make([]Registration, 0, len(snapshot))
		for _, reg := range snapshot {
			if opts.Filter.matches(reg) {
				eligible = append(eligible, reg)
			}
		}
	}

	ec := newExecutionContext(payload)

	if len(eligible) == 0 {
		return e.finish(ec, opts), nil
	}

	if opts.Timeout <= 0 {
		e.walk(ctx, eligible, ec, opts.Mode)
		return e.finish(ec, opts), ec.onceExecuted()
	}

	// Timeout races the whole walk against a timer. Handlers are not
	// interrupted mid-flight; the walk's context is cancelled and the
	// frozen context discards any late controller calls.
	wctx, cancel := context.WithCancel(ctx)
	timer := time.NewTimer(opts.Timeout)

	done := make(chan struct{})
	go func() {
		e.walk(wctx, eligible, ec, opts.Mode)
		close(done)
	}()

	select {
	case <-done:
		timer.Stop()
		cancel()
		return e.finish(ec, opts), ec.onceExecuted()
	case <-timer.C:
		cancel()
		ec.recordError(HandlerError{Err: ErrDispatchTimeout})
		res := e.finish(ec, opts)
		res.Success = false
		// Once-registrations that already ran are still consumed even
		// though the walk lost the race.
		return res, ec.onceExecuted()
	}
}

// walk dispatches to the mode-specific runner.
func (e *Executor) walk(ctx context.Context, regs []Registration, ec *ExecutionContext, mode ExecutionMode) {
	switch mode {
	case ModeParallel:
		e.runParallel(ctx, regs, ec)
	case ModeRace:
		e.runRace(ctx, regs, ec)
	default:
		e.runSequential(ctx, regs, ec)
	}
}

// runSequential iterates the snapshot in order, honoring abort,
// termination, condition skips, non-blocking handlers, and priority
// jumps.
func (e *Executor) runSequential(ctx context.Context, regs []Registration, ec *ExecutionContext) {
	pc := newController(ec)

	i := 0
	for i < len(regs) {
		if ec.halted() {
			break
		}

		reg := regs[i]
		if reg.Config.Condition != nil && !reg.Config.Condition(ec.currentPayload()) {
			i++
			continue
		}

		if reg.Config.Once {
			ec.recordOnce(reg.Config.ID)
		}
		ec.countExecution()

		if reg.Config.NonBlocking {
			payload := ec.currentPayload()
			go func(reg Registration) {
				if err := e.invoke(ctx, reg, payload, pc); err != nil {
					ec.recordError(HandlerError{HandlerID: reg.Config.ID, Err: err})
					e.logFailure(reg, err)
				}
			}(reg)
		} else if err := e.invoke(ctx, reg, ec.currentPayload(), pc); err != nil {
			ec.recordError(HandlerError{HandlerID: reg.Config.ID, Err: err})
			e.logFailure(reg, err)
		}

		i = nextIndex(regs, i, ec)
	}
}

// runParallel starts all eligible handlers concurrently with the same
// initial payload, waits for all of them to settle, and folds their
// results back in registration order.
func (e *Executor) runParallel(ctx context.Context, regs []Registration, ec *ExecutionContext) {
	payload := ec.currentPayload()

	type slot struct {
		started bool
		col     *resultCollector
		err     error
	}
	slots := make([]slot, len(regs))

	var wg sync.WaitGroup

	for idx, reg := range regs {
		if reg.Config.Condition != nil && !reg.Config.Condition(payload) {
			continue
		}
		if reg.Config.Once {
			ec.recordOnce(reg.Config.ID)
		}

		pc, col := newCollectingController(ec)
		slots[idx] = slot{started: true, col: col}
		ec.countExecution()

		wg.Add(1)
		go func(idx int, reg Registration, pc *Controller) {
			defer wg.Done()
			slots[idx].err = e.invoke(ctx, reg, payload, pc)
		}(idx, reg, pc)
	}

	wg.Wait()

	for idx, s := range slots {
		if !s.started {
			continue
		}
		if s.err != nil {
			ec.recordError(HandlerError{HandlerID: regs[idx].Config.ID, Err: s.err})
			e.logFailure(regs[idx], s.err)
			continue
		}
		for _, v := range s.col.values {
			ec.appendResult(v)
		}
	}
}

// runRace starts all eligible handlers concurrently and resolves with
// the first one to settle. Stragglers are not cancelled; the concluded
// context drops their late results.
func (e *Executor) runRace(ctx context.Context, regs []Registration, ec *ExecutionContext) {
	payload := ec.currentPayload()

	type settled struct {
		reg Registration
		col *resultCollector
		err error
	}
	ch := make(chan settled, len(regs))

	started := 0

	for _, reg := range regs {
		if reg.Config.Condition != nil && !reg.Config.Condition(payload) {
			continue
		}
		if reg.Config.Once {
			ec.recordOnce(reg.Config.ID)
		}

		pc, col := newCollectingController(ec)
		ec.countExecution()
		started++

		go func(reg Registration, pc *Controller, col *resultCollector) {
			err := e.invoke(ctx, reg, payload, pc)
			ch <- settled{reg: reg, col: col, err: err}
		}(reg, pc, col)
	}

	if started == 0 {
		return
	}

	winner := <-ch
	if winner.err != nil {
		ec.recordError(HandlerError{HandlerID: winner.reg.Config.ID, Err: winner.err})
		e.logFailure(winner.reg, winner.err)
	} else {
		for _, v := range winner.col.values {
			ec.appendResult(v)
		}
	}

	// Freeze before returning so stragglers cannot steer the result.
	ec.conclude()
}

// invoke runs one handler with optional panic recovery.
func (e *Executor) invoke(ctx context.Context, reg Registration, payload any, pc *Controller) (err error) {
	if reg.Fn == nil {
		return ErrNilHandler
	}

	if e.panicRecovery {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
	}

	return reg.Fn(ctx, payload, pc)
}

// nextIndex advances the sequential cursor, consuming a pending jump
// request. Jumps land on the first remaining entry with priority at
// most the target; they never move the cursor backward.
func nextIndex(regs []Registration, i int, ec *ExecutionContext) int {
	target, ok := ec.takeJump()
	if !ok {
		return i + 1
	}
	for j := i + 1; j < len(regs); j++ {
		if regs[j].Config.Priority <= target {
			return j
		}
	}
	return len(regs)
}

// finish freezes the context and assembles the immutable result.
func (e *Executor) finish(ec *ExecutionContext, opts DispatchOptions) DispatchResult {
	ec.conclude()
	res := ec.buildResult()
	if !res.Terminated {
		res.Result = aggregate(res.Results, opts)
	}
	res.Success = e.successPolicy(res)
	return res
}

// logFailure reports an isolated handler failure.
func (e *Executor) logFailure(reg Registration, err error) {
	if _, ok := err.(*PanicError); ok {
		e.logger.Warn("handler panicked", "handler", reg.Config.ID, "error", err)
		return
	}
	e.logger.Debug("handler failed", "handler", reg.Config.ID, "error", err)
}
