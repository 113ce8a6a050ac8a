package store

import (
	"sync"
)

// Observer is called with the new value after a change.
type Observer[T any] func(value T)

// Store is a reactive value container. It is safe for concurrent use.
type Store[T any] struct {
	mu      sync.RWMutex
	value   T
	initial T

	subs   map[uint64]Observer[T]
	nextID uint64

	// Deferred notification queue. A single goroutine drains pending
	// notifications in change order and exits when the queue is empty.
	notifyMu      sync.Mutex
	notifyPending []func()
	notifyRunning bool
}

// New creates a store holding the given initial value. Reset restores
// it.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		value:   initial,
		initial: initial,
		subs:    make(map[uint64]Observer[T]),
	}
}

// SetOption configures a single SetValue call.
type SetOption struct {
	sync bool
}

// WithSync notifies subscribers immediately in the caller's goroutine
// instead of deferring to the notification queue.
func WithSync() SetOption {
	return SetOption{sync: true}
}

// GetValue returns the current value.
func (s *Store[T]) GetValue() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// SetValue replaces the value and notifies subscribers.
func (s *Store[T]) SetValue(v T, opts ...SetOption) {
	sync := false
	for _, opt := range opts {
		if opt.sync {
			sync = true
		}
	}

	s.mu.Lock()
	s.value = v
	observers := s.observersLocked()
	s.mu.Unlock()

	s.notify(v, observers, sync)
}

// Update applies fn to the current value and stores the result,
// atomically with respect to other writers.
func (s *Store[T]) Update(fn func(T) T, opts ...SetOption) {
	if fn == nil {
		return
	}

	sync := false
	for _, opt := range opts {
		if opt.sync {
			sync = true
		}
	}

	s.mu.Lock()
	s.value = fn(s.value)
	v := s.value
	observers := s.observersLocked()
	s.mu.Unlock()

	s.notify(v, observers, sync)
}

// Reset restores the initial value and notifies subscribers.
func (s *Store[T]) Reset(opts ...SetOption) {
	s.SetValue(s.initial, opts...)
}

// Subscribe registers an observer and returns an unsubscribe closure.
// Unsubscribing twice is a no-op.
func (s *Store[T]) Subscribe(fn Observer[T]) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SubscriberCount returns the number of active subscriptions.
func (s *Store[T]) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// observersLocked copies the observer set. Caller holds the lock.
func (s *Store[T]) observersLocked() []Observer[T] {
	if len(s.subs) == 0 {
		return nil
	}
	observers := make([]Observer[T], 0, len(s.subs))
	for _, fn := range s.subs {
		observers = append(observers, fn)
	}
	return observers
}

// notify delivers a change to the given observers, either inline or
// through the deferred queue.
func (s *Store[T]) notify(v T, observers []Observer[T], sync bool) {
	if len(observers) == 0 {
		return
	}

	if sync {
		for _, fn := range observers {
			fn(v)
		}
		return
	}

	s.notifyMu.Lock()
	s.notifyPending = append(s.notifyPending, func() {
		for _, fn := range observers {
			fn(v)
		}
	})
	if !s.notifyRunning {
		s.notifyRunning = true
		go s.drainNotifications()
	}
	s.notifyMu.Unlock()
}

// drainNotifications runs queued notifications in order until the
// queue empties, then exits. notify restarts it on demand.
func (s *Store[T]) drainNotifications() {
	for {
		s.notifyMu.Lock()
		if len(s.notifyPending) == 0 {
			s.notifyRunning = false
			s.notifyMu.Unlock()
			return
		}
		job := s.notifyPending[0]
		copy(s.notifyPending, s.notifyPending[1:])
		s.notifyPending[len(s.notifyPending)-1] = nil
		s.notifyPending = s.notifyPending[:len(s.notifyPending)-1]
		s.notifyMu.Unlock()

		job()
	}
}
