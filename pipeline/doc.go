// Package pipeline implements the priority-ordered handler pipeline:
// handler registrations, the per-dispatch execution context and
// controller, and the executor that drives handlers through the
// sequential, parallel, and race execution modes.
//
// A pipeline is an ordered snapshot of handler registrations for one
// action. The executor never mutates a snapshot; registries hand it
// copies so that concurrent registration cannot corrupt an in-flight
// walk.
//
// Each dispatch creates one ExecutionContext and one Controller bound
// to it. Handlers receive the controller and use it to steer the walk:
//
//	eng.Register("save", func(ctx context.Context, payload any, pc *pipeline.Controller) error {
//	    if !valid(payload) {
//	        pc.Abort("validation failed")
//	        return nil
//	    }
//	    pc.SetResult(persist(payload))
//	    return nil
//	}, pipeline.HandlerConfig{Priority: 100})
//
// Controller methods are safe to call from any goroutine and become
// no-ops once the dispatch has concluded, so handlers that keep running
// after an abort or a race loss cannot corrupt the result.
package pipeline
