package pipeline

import (
	"sync"
	"time"
)

// ExecutionContext holds the mutable state of one dispatch. It is
// created when the walk starts and concluded when the walk ends; the
// controller is its only writer. All access is mutex-guarded because
// non-blocking handlers and the parallel and race modes touch it from
// multiple goroutines.
type ExecutionContext struct {
	mu sync.Mutex

	payload any
	results []any
	errors  []HandlerError

	aborted     bool
	abortReason string

	terminated       bool
	terminationValue any

	jumpTarget    int
	jumpRequested bool

	handlersExecuted int
	onceRan          []string

	startTime time.Time
	endTime   time.Time

	concluded bool
}

// newExecutionContext seeds a context with the dispatch payload.
func newExecutionContext(payload any) *ExecutionContext {
	return &ExecutionContext{
		payload:   payload,
		startTime: time.Now(),
	}
}

// currentPayload returns the payload visible to the next handler.
func (ec *ExecutionContext) currentPayload() any {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.payload
}

// replacePayload swaps the payload for all subsequent handlers.
func (ec *ExecutionContext) replacePayload(fn func(any) any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.concluded {
		return
	}
	ec.payload = fn(ec.payload)
}

// appendResult records a handler-produced value in execution order.
func (ec *ExecutionContext) appendResult(v any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.concluded {
		return
	}
	ec.results = append(ec.results, v)
}

// snapshotResults returns a copy of the accumulated results.
func (ec *ExecutionContext) snapshotResults() []any {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	out := make([]any, len(ec.results))
	copy(out, ec.results)
	return out
}

// recordError captures a handler failure in the execution metadata.
func (ec *ExecutionContext) recordError(he HandlerError) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.concluded {
		return
	}
	ec.errors = append(ec.errors, he)
}

// abort halts the walk. The first reason wins; repeated calls are
// no-ops.
func (ec *ExecutionContext) abort(reason string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.concluded || ec.aborted {
		return
	}
	ec.aborted = true
	ec.abortReason = reason
}

// terminate ends the walk with a final value.
func (ec *ExecutionContext) terminate(value any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.concluded || ec.terminated || ec.aborted {
		return
	}
	ec.terminated = true
	ec.terminationValue = value
}

// requestJump records a forward-jump target priority.
func (ec *ExecutionContext) requestJump(priority int) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.concluded {
		return
	}
	ec.jumpTarget = priority
	ec.jumpRequested = true
}

// takeJump consumes a pending jump request.
func (ec *ExecutionContext) takeJump() (int, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if !ec.jumpRequested {
		return 0, false
	}
	ec.jumpRequested = false
	return ec.jumpTarget, true
}

// halted reports whether the walk should stop before the next handler.
func (ec *ExecutionContext) halted() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.concluded || ec.aborted || ec.terminated
}

// countExecution increments the executed-handler counter.
func (ec *ExecutionContext) countExecution() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.concluded {
		return
	}
	ec.handlersExecuted++
}

// recordOnce notes that a once-registration started executing. Not
// gated on conclusion: a once handler that ran during a timed-out walk
// is still consumed.
func (ec *ExecutionContext) recordOnce(id string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.onceRan = append(ec.onceRan, id)
}

// onceExecuted returns a copy of the once-registration ids that
// executed so far.
func (ec *ExecutionContext) onceExecuted() []string {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if len(ec.onceRan) == 0 {
		return nil
	}
	out := make([]string, len(ec.onceRan))
	copy(out, ec.onceRan)
	return out
}

// conclude freezes the context. Controller calls arriving after this
// point are silently ignored.
func (ec *ExecutionContext) conclude() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.concluded {
		return
	}
	ec.concluded = true
	ec.endTime = time.Now()
}

// isConcluded reports whether the context has been frozen.
func (ec *ExecutionContext) isConcluded() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.concluded
}

// buildResult copies the frozen context into a result envelope. The
// Success and aggregate Result fields are filled in by the executor.
func (ec *ExecutionContext) buildResult() DispatchResult {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	results := make([]any, len(ec.results))
	copy(results, ec.results)

	var errs []HandlerError
	if len(ec.errors) > 0 {
		errs = make([]HandlerError, len(ec.errors))
		copy(errs, ec.errors)
	}

	res := DispatchResult{
		Aborted:     ec.aborted,
		AbortReason: ec.abortReason,
		Terminated:  ec.terminated,
		Results:     results,
		Errors:      errs,
		Execution: ExecutionInfo{
			HandlersExecuted: ec.handlersExecuted,
			StartTime:        ec.startTime,
			EndTime:          ec.endTime,
			Duration:         ec.endTime.Sub(ec.startTime),
		},
	}
	if ec.terminated {
		res.Result = ec.terminationValue
	}
	return res
}
