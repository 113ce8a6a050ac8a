// Package queue provides a keyed serializing scheduler for arbitrary
// operations. Operations enqueued under the same key run one at a time
// in submission order, which is the sole mutual-exclusion mechanism
// between handler registration and pipeline dispatch for an action.
//
// Submission never blocks: an operation that is still running delays
// the next operation for its key, not the acceptance of new work. A
// failing or panicking operation rejects only its own outcome; the
// drain loop continues with the next operation.
//
// Callers that need scheduling ahead of already-queued work can opt in
// with WithPriority; operations enqueued without it all share priority
// zero and therefore stay strictly FIFO.
package queue
