// Package engine ties the action pipeline core together: the handler
// registry, the per-action operation queue that serializes
// registration against dispatch, the pipeline executor, per-action
// execution mode overrides, dispatch hooks, and metrics.
//
// Basic usage:
//
//	eng := engine.NewWithDefaults()
//
//	unregister, _ := eng.Register("save", func(ctx context.Context, payload any, pc *pipeline.Controller) error {
//	    pc.SetResult(persist(payload))
//	    return nil
//	}, pipeline.HandlerConfig{Priority: 100})
//	defer unregister()
//
//	result, err := eng.Dispatch(ctx, "save", doc)
//
// DispatchWithResult returns the full envelope, with per-handler
// failures, timing metadata, and configurable result collection:
//
//	res, _ := eng.DispatchWithResult(ctx, "save", doc,
//	    engine.WithMode(pipeline.ModeParallel),
//	    engine.WithCollect(pipeline.CollectAll),
//	    engine.WithFilterTags("persistence"),
//	)
//
// Registration and dispatch for the same action are serialized through
// an operation queue keyed by the action name, so a dispatch can never
// observe a partially sorted pipeline. Two dispatches of the same
// action are not serialized against each other; each walks its own
// immutable snapshot.
package engine
