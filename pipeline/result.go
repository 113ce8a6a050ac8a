package pipeline

import (
	"time"
)

// HandlerError records one handler failure in the execution metadata.
// Handler failures are isolated: they never halt the walk on their own.
type HandlerError struct {
	// HandlerID is the id of the failing registration.
	HandlerID string

	// Err is the error the handler returned, or a PanicError when the
	// handler panicked.
	Err error
}

func (e HandlerError) Error() string {
	return "handler " + e.HandlerID + ": " + e.Err.Error()
}

// Unwrap returns the underlying handler error.
func (e HandlerError) Unwrap() error { return e.Err }

// ExecutionInfo captures timing and counting metadata for one dispatch.
type ExecutionInfo struct {
	// HandlersExecuted is the number of handlers that actually ran.
	// Handlers skipped by a condition predicate do not count.
	HandlersExecuted int

	// StartTime and EndTime bracket the pipeline walk.
	StartTime time.Time
	EndTime   time.Time

	// Duration is EndTime minus StartTime.
	Duration time.Duration
}

// DispatchResult is the structured outcome of one dispatch. It is
// immutable once returned.
type DispatchResult struct {
	// Success is true when the pipeline completed without abort and
	// produced at least one usable handler outcome (see SuccessPolicy).
	Success bool

	// Aborted is true when a handler halted the walk via Abort.
	Aborted bool

	// AbortReason is the reason passed to the first Abort call.
	AbortReason string

	// Terminated is true when a handler ended the walk via Return.
	Terminated bool

	// Result is the aggregate value: the termination value when
	// Terminated, otherwise the value selected by the collection
	// strategy (last result by default).
	Result any

	// Results holds the accumulated handler results in execution order
	// (registration order for parallel mode).
	Results []any

	// Errors lists per-handler failures. A non-empty Errors does not
	// imply failure of the dispatch as a whole.
	Errors []HandlerError

	// Execution carries timing and counting metadata.
	Execution ExecutionInfo
}

// HasErrors reports whether any handler failed during the dispatch.
func (r DispatchResult) HasErrors() bool { return len(r.Errors) > 0 }

// CollectStrategy selects how DispatchResult.Result is derived from the
// accumulated results.
type CollectStrategy int

const (
	// CollectLast picks the last accumulated result. Default.
	CollectLast CollectStrategy = iota

	// CollectFirst picks the first accumulated result.
	CollectFirst

	// CollectAll sets Result to the full results slice.
	CollectAll

	// CollectMerge shallow-merges map[string]any results, later
	// entries overriding earlier ones. Non-map results are ignored.
	CollectMerge

	// CollectCustom applies the Collector supplied in the options.
	CollectCustom
)

// String returns a human-readable strategy name.
func (s CollectStrategy) String() string {
	switch s {
	case CollectLast:
		return "last"
	case CollectFirst:
		return "first"
	case CollectAll:
		return "all"
	case CollectMerge:
		return "merge"
	case CollectCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Collector reduces accumulated results to a single aggregate value.
type Collector func(results []any) any

// Filter restricts a dispatch to a subset of the registered handlers.
type Filter struct {
	// Tags keeps registrations carrying at least one of the listed
	// tags. Empty means no tag filtering.
	Tags []string

	// Category keeps registrations with an exact category match.
	// Empty means no category filtering.
	Category string
}

// empty reports whether the filter excludes nothing.
func (f Filter) empty() bool {
	return len(f.Tags) == 0 && f.Category == ""
}

// matches reports whether a registration passes the filter.
func (f Filter) matches(reg Registration) bool {
	if f.Category != "" && reg.Config.Category != f.Category {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, tag := range f.Tags {
			if reg.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// DispatchOptions configures one dispatch.
type DispatchOptions struct {
	// Mode selects the execution strategy. Zero value is sequential.
	Mode ExecutionMode

	// Timeout bounds the whole dispatch. The walk races against a
	// timer; handlers are not interrupted mid-flight but the walk's
	// context is cancelled. Zero means no timeout.
	Timeout time.Duration

	// Collect selects the aggregate result strategy.
	Collect CollectStrategy

	// Collector is the reducer used with CollectCustom.
	Collector Collector

	// Filter restricts the eligible handlers.
	Filter Filter
}

// mergeResults shallow-merges map results for CollectMerge.
func mergeResults(results []any) any {
	merged := make(map[string]any)
	for _, r := range results {
		if m, ok := r.(map[string]any); ok {
			for k, v := range m {
				merged[k] = v
			}
		}
	}
	return merged
}

// aggregate derives the Result field from accumulated results.
func aggregate(results []any, opts DispatchOptions) any {
	switch opts.Collect {
	case CollectFirst:
		if len(results) > 0 {
			return results[0]
		}
		return nil
	case CollectAll:
		return results
	case CollectMerge:
		return mergeResults(results)
	case CollectCustom:
		if opts.Collector != nil {
			return opts.Collector(results)
		}
		return nil
	default: // CollectLast
		if len(results) > 0 {
			return results[len(results)-1]
		}
		return nil
	}
}
