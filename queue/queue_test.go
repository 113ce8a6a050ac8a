package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mineclover/context-action-go/queue"
)

func TestQueueRunsOperation(t *testing.T) {
	q := queue.New()

	out := <-q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		return 42, nil
	})

	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Value != 42 {
		t.Errorf("expected 42, got %v", out.Value)
	}
}

func TestQueueSerializesPerKey(t *testing.T) {
	q := queue.New()

	var mu sync.Mutex
	var order []int

	var chans []<-chan queue.Outcome
	for i := 0; i < 20; i++ {
		i := i
		chans = append(chans, q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil, nil
		}))
	}

	for _, ch := range chans {
		<-ch
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 20 {
		t.Fatalf("expected 20 operations, got %d", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestQueuePriorityScheduling(t *testing.T) {
	q := queue.New()

	release := make(chan struct{})
	blocker := q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})

	var mu sync.Mutex
	var order []string

	record := func(name string) queue.Op {
		return func(ctx context.Context) (any, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}
	}

	low := q.Enqueue(context.Background(), "key", record("low"))
	high := q.Enqueue(context.Background(), "key", record("high"), queue.WithPriority(10))

	close(release)
	<-blocker
	<-low
	<-high

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "high" || order[1] != "low" {
		t.Errorf("expected [high low], got %v", order)
	}
}

func TestQueuePriorityTiesStayFIFO(t *testing.T) {
	q := queue.New()

	release := make(chan struct{})
	blocker := q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})

	var mu sync.Mutex
	var order []int

	var chans []<-chan queue.Outcome
	for i := 0; i < 5; i++ {
		i := i
		chans = append(chans, q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil, nil
		}, queue.WithPriority(7)))
	}

	close(release)
	<-blocker
	for _, ch := range chans {
		<-ch
	}

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Fatalf("expected FIFO among equal priorities, got %v", order)
		}
	}
}

func TestQueueFailureIsolation(t *testing.T) {
	q := queue.New()

	boom := errors.New("boom")
	first := q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	second := q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		return "ok", nil
	})

	if out := <-first; !errors.Is(out.Err, boom) {
		t.Errorf("expected boom, got %v", out.Err)
	}
	if out := <-second; out.Err != nil || out.Value != "ok" {
		t.Errorf("expected ok after failed predecessor, got %v %v", out.Value, out.Err)
	}
}

func TestQueuePanicRecovery(t *testing.T) {
	q := queue.New()

	first := q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		panic("kaboom")
	})
	second := q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		return "alive", nil
	})

	out := <-first
	var pe *queue.PanicError
	if !errors.As(out.Err, &pe) {
		t.Fatalf("expected PanicError, got %v", out.Err)
	}
	if pe.Value != "kaboom" {
		t.Errorf("expected panic value kaboom, got %v", pe.Value)
	}

	if out := <-second; out.Err != nil || out.Value != "alive" {
		t.Errorf("expected queue to keep draining after panic, got %v %v", out.Value, out.Err)
	}
}

func TestQueueIndependentKeys(t *testing.T) {
	q := queue.New()

	release := make(chan struct{})
	blocked := q.Enqueue(context.Background(), "slow", func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})

	done := make(chan struct{})
	go func() {
		<-q.Enqueue(context.Background(), "fast", func(ctx context.Context) (any, error) {
			return nil, nil
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("operation on independent key was delayed by blocked key")
	}

	close(release)
	<-blocked
}

func TestQueueDoContextCancel(t *testing.T) {
	q := queue.New()

	release := make(chan struct{})
	blocked := q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Do(ctx, "key", func(ctx context.Context) (any, error) {
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	close(release)
	<-blocked
}

func TestQueueNilOperation(t *testing.T) {
	q := queue.New()

	out := <-q.Enqueue(context.Background(), "key", nil)
	if !errors.Is(out.Err, queue.ErrNilOperation) {
		t.Errorf("expected ErrNilOperation, got %v", out.Err)
	}
}

func TestQueueStats(t *testing.T) {
	q := queue.New()

	<-q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		return nil, nil
	})
	<-q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		return nil, errors.New("fail")
	})
	<-q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		panic("p")
	})

	stats := q.Stats()
	if stats.Enqueued != 3 {
		t.Errorf("expected 3 enqueued, got %d", stats.Enqueued)
	}
	if stats.Processed != 3 {
		t.Errorf("expected 3 processed, got %d", stats.Processed)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", stats.Failed)
	}
	if stats.Panicked != 1 {
		t.Errorf("expected 1 panicked, got %d", stats.Panicked)
	}
}

func TestQueuePendingAndKeys(t *testing.T) {
	q := queue.New()

	if q.Pending("key") != 0 {
		t.Error("expected zero pending on fresh queue")
	}

	release := make(chan struct{})
	blocked := q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	waiting := q.Enqueue(context.Background(), "key", func(ctx context.Context) (any, error) {
		return nil, nil
	})

	if got := q.Pending("key"); got < 1 {
		t.Errorf("expected pending work, got %d", got)
	}
	if keys := q.Keys(); len(keys) != 1 || keys[0] != "key" {
		t.Errorf("expected [key], got %v", keys)
	}

	close(release)
	<-blocked
	<-waiting
}
