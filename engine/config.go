package engine

import (
	"log/slog"
	"time"

	"github.com/mineclover/context-action-go/pipeline"
)

// Config holds engine configuration options.
type Config struct {
	// PanicRecovery wraps handler execution in panic recovery.
	PanicRecovery bool

	// EnableMetrics enables dispatch timing and statistics collection.
	EnableMetrics bool

	// DefaultTimeout bounds every dispatch unless overridden per call.
	// Zero means no timeout.
	DefaultTimeout time.Duration

	// DefaultExecutionMode is used when neither a per-action override
	// nor a per-dispatch option selects a mode.
	DefaultExecutionMode pipeline.ExecutionMode

	// RequireNonNegativePriority rejects registrations with a negative
	// priority at registration time.
	RequireNonNegativePriority bool

	// SuccessPolicy overrides the default success threshold for
	// dispatch results. Nil keeps the default: completed without abort
	// and at least one executed handler settled without error.
	SuccessPolicy pipeline.SuccessPolicy

	// Logger receives handler failure and panic logs. Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PanicRecovery:        true,
		EnableMetrics:        false,
		DefaultTimeout:       0,
		DefaultExecutionMode: pipeline.ModeSequential,
	}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery
// set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.PanicRecovery = recover
	return c
}

// WithDefaultTimeout returns a copy of the config with the default
// dispatch timeout set.
func (c Config) WithDefaultTimeout(timeout time.Duration) Config {
	c.DefaultTimeout = timeout
	return c
}

// WithDefaultExecutionMode returns a copy of the config with the
// default execution mode set.
func (c Config) WithDefaultExecutionMode(mode pipeline.ExecutionMode) Config {
	c.DefaultExecutionMode = mode
	return c
}

// WithNonNegativePriority returns a copy of the config that rejects
// negative registration priorities.
func (c Config) WithNonNegativePriority() Config {
	c.RequireNonNegativePriority = true
	return c
}

// WithSuccessPolicy returns a copy of the config with a custom success
// policy.
func (c Config) WithSuccessPolicy(p pipeline.SuccessPolicy) Config {
	c.SuccessPolicy = p
	return c
}

// WithLogger returns a copy of the config with a structured logger.
func (c Config) WithLogger(logger *slog.Logger) Config {
	c.Logger = logger
	return c
}
