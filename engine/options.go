package engine

import (
	"time"

	"github.com/mineclover/context-action-go/pipeline"
)

// DispatchOption configures a single dispatch call.
type DispatchOption func(*pipeline.DispatchOptions)

// WithMode selects the execution strategy for this dispatch,
// overriding the per-action and engine defaults.
func WithMode(mode pipeline.ExecutionMode) DispatchOption {
	return func(o *pipeline.DispatchOptions) {
		o.Mode = mode
	}
}

// WithTimeout bounds this dispatch. Zero disables the timeout.
func WithTimeout(timeout time.Duration) DispatchOption {
	return func(o *pipeline.DispatchOptions) {
		o.Timeout = timeout
	}
}

// WithCollect selects the aggregate result strategy.
func WithCollect(s pipeline.CollectStrategy) DispatchOption {
	return func(o *pipeline.DispatchOptions) {
		o.Collect = s
	}
}

// WithCollector installs a custom result reducer and selects the
// custom collect strategy.
func WithCollector(fn pipeline.Collector) DispatchOption {
	return func(o *pipeline.DispatchOptions) {
		o.Collect = pipeline.CollectCustom
		o.Collector = fn
	}
}

// WithFilterTags restricts the dispatch to handlers carrying at least
// one of the given tags.
func WithFilterTags(tags ...string) DispatchOption {
	return func(o *pipeline.DispatchOptions) {
		o.Filter.Tags = append(o.Filter.Tags, tags...)
	}
}

// WithFilterCategory restricts the dispatch to handlers with an exact
// category match.
func WithFilterCategory(category string) DispatchOption {
	return func(o *pipeline.DispatchOptions) {
		o.Filter.Category = category
	}
}
