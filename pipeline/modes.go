package pipeline

// ExecutionMode selects the strategy used to run a pipeline's handlers.
type ExecutionMode int

const (
	// ModeSequential runs handlers one at a time in priority order.
	// This is the default.
	ModeSequential ExecutionMode = iota

	// ModeParallel starts all eligible handlers concurrently with the
	// same initial payload and waits for all of them to settle.
	// Results are collected in registration order, not completion
	// order.
	ModeParallel

	// ModeRace starts all eligible handlers concurrently and resolves
	// with the first one to settle. Stragglers keep running but their
	// late results are discarded.
	ModeRace
)

// String returns a human-readable mode name.
func (m ExecutionMode) String() string {
	switch m {
	case ModeSequential:
		return "sequential"
	case ModeParallel:
		return "parallel"
	case ModeRace:
		return "race"
	default:
		return "unknown"
	}
}
