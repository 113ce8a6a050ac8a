package queue

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Op is a unit of work executed by the queue. The context is the one
// supplied at enqueue time.
type Op func(ctx context.Context) (any, error)

// Outcome is the settled result of one operation.
type Outcome struct {
	Value any
	Err   error
}

// operation is one queued entry.
type operation struct {
	ctx      context.Context
	op       Op
	priority int
	out      chan Outcome
}

// keyState tracks the pending list and drain goroutine for one key.
type keyState struct {
	pending []*operation
	running bool
}

// Queue serializes operations per key. The zero value is not usable;
// use New.
type Queue struct {
	mu   sync.Mutex
	keys map[string]*keyState

	// Stats
	enqueued  atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		keys: make(map[string]*keyState),
	}
}

// EnqueueOption configures a single enqueue call.
type EnqueueOption func(*operation)

// WithPriority schedules the operation ahead of pending operations
// with a lower priority. Operations sharing a priority stay FIFO.
func WithPriority(p int) EnqueueOption {
	return func(o *operation) {
		o.priority = p
	}
}

// Enqueue submits an operation for the given key and returns a channel
// that receives exactly one Outcome when the operation settles.
// Enqueue never blocks.
func (q *Queue) Enqueue(ctx context.Context, key string, op Op, opts ...EnqueueOption) <-chan Outcome {
	entry := &operation{
		ctx: ctx,
		op:  op,
		out: make(chan Outcome, 1),
	}
	for _, opt := range opts {
		opt(entry)
	}

	if op == nil {
		entry.out <- Outcome{Err: ErrNilOperation}
		return entry.out
	}

	q.enqueued.Add(1)

	q.mu.Lock()
	ks := q.keys[key]
	if ks == nil {
		ks = &keyState{}
		q.keys[key] = ks
	}
	ks.insert(entry)
	if !ks.running {
		ks.running = true
		go q.drain(key, ks)
	}
	q.mu.Unlock()

	return entry.out
}

// Do submits an operation and waits for it to settle or for the
// context to be cancelled. On cancellation the operation still runs to
// completion in the background; only the wait is abandoned.
func (q *Queue) Do(ctx context.Context, key string, op Op, opts ...EnqueueOption) (any, error) {
	select {
	case out := <-q.Enqueue(ctx, key, op, opts...):
		return out.Value, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// insert places an entry before the first pending entry with a lower
// priority, preserving FIFO order among equal priorities.
func (ks *keyState) insert(entry *operation) {
	i := len(ks.pending)
	for i > 0 && ks.pending[i-1].priority < entry.priority {
		i--
	}
	ks.pending = append(ks.pending, nil)
	copy(ks.pending[i+1:], ks.pending[i:])
	ks.pending[i] = entry
}

// drain runs queued operations for one key until the pending list is
// empty, then exits. Enqueue restarts it on demand.
func (q *Queue) drain(key string, ks *keyState) {
	for {
		q.mu.Lock()
		if len(ks.pending) == 0 {
			ks.running = false
			delete(q.keys, key)
			q.mu.Unlock()
			return
		}
		entry := ks.pending[0]
		copy(ks.pending, ks.pending[1:])
		ks.pending[len(ks.pending)-1] = nil
		ks.pending = ks.pending[:len(ks.pending)-1]
		q.mu.Unlock()

		entry.out <- q.execute(entry)
	}
}

// execute runs one operation with panic recovery. A panicking
// operation rejects its own outcome without stalling the drain loop.
func (q *Queue) execute(entry *operation) (out Outcome) {
	q.processed.Add(1)

	defer func() {
		if r := recover(); r != nil {
			q.panicked.Add(1)
			out = Outcome{Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()

	value, err := entry.op(entry.ctx)
	if err != nil {
		q.failed.Add(1)
	}
	return Outcome{Value: value, Err: err}
}

// Pending returns the number of operations waiting or running for a
// key.
func (q *Queue) Pending(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	ks := q.keys[key]
	if ks == nil {
		return 0
	}
	n := len(ks.pending)
	if ks.running {
		n++
	}
	return n
}

// Keys returns the keys with queued or running operations.
func (q *Queue) Keys() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	keys := make([]string, 0, len(q.keys))
	for k := range q.keys {
		keys = append(keys, k)
	}
	return keys
}

// Stats contains queue statistics.
type Stats struct {
	// Enqueued is the total number of operations accepted.
	Enqueued uint64

	// Processed is the number of operations that have run.
	Processed uint64

	// Failed is the number of operations that returned an error.
	Failed uint64

	// Panicked is the number of operations that panicked.
	Panicked uint64
}

// Stats returns a snapshot of queue statistics.
func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued:  q.enqueued.Load(),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Panicked:  q.panicked.Load(),
	}
}
