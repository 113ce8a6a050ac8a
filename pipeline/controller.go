package pipeline

// Controller is the per-dispatch object handed to every handler. It
// mediates abort, payload rewriting, result accumulation, and
// priority-jump requests against one ExecutionContext.
//
// All methods are synchronous and side-effect only the execution
// context. Calling a mutating method after the dispatch has concluded
// is a no-op, never an error, so handlers that suspend and call back
// late cannot corrupt a finished dispatch.
type Controller struct {
	ec *ExecutionContext

	// collector receives SetResult values. For sequential walks it is
	// the shared context; parallel and race walks give each handler a
	// private collector so results can be re-ordered afterward.
	collector *resultCollector
}

// resultCollector buffers one handler's results when execution order
// does not match registration order.
type resultCollector struct {
	ec      *ExecutionContext
	private bool
	values  []any
}

func (c *resultCollector) add(v any) {
	if c.private {
		if !c.ec.isConcluded() {
			c.values = append(c.values, v)
		}
		return
	}
	c.ec.appendResult(v)
}

// newController binds a controller directly to a context, appending
// results in execution order.
func newController(ec *ExecutionContext) *Controller {
	return &Controller{ec: ec, collector: &resultCollector{ec: ec}}
}

// newCollectingController binds a controller to a context through a
// private result buffer.
func newCollectingController(ec *ExecutionContext) (*Controller, *resultCollector) {
	col := &resultCollector{ec: ec, private: true}
	return &Controller{ec: ec, collector: col}, col
}

// Next signals explicit continuation. The walk advances on handler
// return regardless; Next exists for handlers that want to mark the
// hand-off before doing trailing work.
func (pc *Controller) Next() {}

// Abort halts the pipeline with a reason. The first reason wins;
// calling Abort again is a no-op.
func (pc *Controller) Abort(reason string) {
	pc.ec.abort(reason)
}

// ModifyPayload replaces the current payload for all subsequent
// handlers. Handlers that already ran are unaffected.
func (pc *Controller) ModifyPayload(fn func(payload any) any) {
	if fn == nil {
		return
	}
	pc.ec.replacePayload(fn)
}

// Payload returns the current payload.
func (pc *Controller) Payload() any {
	return pc.ec.currentPayload()
}

// SetResult appends a value to the accumulated results without ending
// the pipeline.
func (pc *Controller) SetResult(v any) {
	pc.collector.add(v)
}

// Results returns the results accumulated so far, in execution order.
func (pc *Controller) Results() []any {
	return pc.ec.snapshotResults()
}

// JumpToPriority repositions the sequential walk at the first remaining
// handler whose priority is at most p. Jumps are forward-only; a target
// band that has already fully executed leaves the walk where it is.
func (pc *Controller) JumpToPriority(p int) {
	pc.ec.requestJump(p)
}

// Return ends the walk immediately with the given value as the
// dispatch result, skipping all remaining handlers.
func (pc *Controller) Return(v any) {
	pc.ec.terminate(v)
}
