package store_test

import (
	"sync"
	"testing"
	"time"

	"github.com/mineclover/context-action-go/store"
)

func TestGetSetValue(t *testing.T) {
	s := store.New(10)

	if got := s.GetValue(); got != 10 {
		t.Errorf("expected initial value 10, got %d", got)
	}

	s.SetValue(20)
	if got := s.GetValue(); got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
}

func TestUpdate(t *testing.T) {
	s := store.New(5)
	s.Update(func(v int) int { return v * 3 })

	if got := s.GetValue(); got != 15 {
		t.Errorf("expected 15, got %d", got)
	}

	// Nil updater is a no-op.
	s.Update(nil)
	if got := s.GetValue(); got != 15 {
		t.Errorf("expected value unchanged, got %d", got)
	}
}

func TestReset(t *testing.T) {
	s := store.New("initial")
	s.SetValue("changed")
	s.Reset()

	if got := s.GetValue(); got != "initial" {
		t.Errorf("expected initial value restored, got %q", got)
	}
}

func TestSubscribeSync(t *testing.T) {
	s := store.New(0)

	var seen []int
	unsub := s.Subscribe(func(v int) {
		seen = append(seen, v)
	})

	s.SetValue(1, store.WithSync())
	s.SetValue(2, store.WithSync())

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("expected [1 2], got %v", seen)
	}

	unsub()
	s.SetValue(3, store.WithSync())
	if len(seen) != 2 {
		t.Errorf("unsubscribed observer must not fire, got %v", seen)
	}

	// Double unsubscribe is a no-op.
	unsub()
}

func TestSubscribeDeferredOrder(t *testing.T) {
	s := store.New(0)

	var mu sync.Mutex
	var seen []int
	done := make(chan struct{})
	s.Subscribe(func(v int) {
		mu.Lock()
		seen = append(seen, v)
		n := len(seen)
		mu.Unlock()
		if n == 3 {
			close(done)
		}
	})

	s.SetValue(1)
	s.SetValue(2)
	s.SetValue(3)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deferred notifications did not drain")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, want := range []int{1, 2, 3} {
		if seen[i] != want {
			t.Fatalf("expected change order [1 2 3], got %v", seen)
		}
	}
}

func TestDeferredNotificationDoesNotBlockWriter(t *testing.T) {
	s := store.New(0)

	release := make(chan struct{})
	defer close(release)
	s.Subscribe(func(v int) {
		<-release
	})

	done := make(chan struct{})
	go func() {
		s.SetValue(1)
		s.SetValue(2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SetValue blocked on a slow subscriber")
	}
}

func TestSubscriberCount(t *testing.T) {
	s := store.New(0)

	unsub1 := s.Subscribe(func(int) {})
	unsub2 := s.Subscribe(func(int) {})

	if n := s.SubscriberCount(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}

	unsub1()
	if n := s.SubscriberCount(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}

	unsub2()
	if n := s.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestNilObserver(t *testing.T) {
	s := store.New(0)
	unsub := s.Subscribe(nil)
	unsub()

	if n := s.SubscriberCount(); n != 0 {
		t.Errorf("nil observer must not register, got %d", n)
	}
	s.SetValue(1, store.WithSync())
}

func TestConcurrentUpdates(t *testing.T) {
	s := store.New(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()

	if got := s.GetValue(); got != 100 {
		t.Errorf("expected 100 after concurrent increments, got %d", got)
	}
}
