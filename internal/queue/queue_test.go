package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wordreminder/internal/push"
)

func TestLocalDeliversAllEvents(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]int{}
	q := NewLocal(context.Background(), 3, 4, func(ctx context.Context, ev push.Event) error {
		mu.Lock()
		seen[ev.UserID]++
		mu.Unlock()
		if ev.UserID%2 == 0 {
			return errors.New("lookup failed")
		}
		return nil
	})

	for i := 1; i <= 20; i++ {
		if err := q.Enqueue(context.Background(), push.Event{UserID: i}); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	if len(seen) != 20 {
		t.Fatalf("expected 20 users handled, got %d", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("user %d handled %d times", id, n)
		}
	}
}

func TestLocalEnqueueAfterClose(t *testing.T) {
	q := NewLocal(context.Background(), 1, 0, func(ctx context.Context, ev push.Event) error { return nil })
	q.Close()
	if err := q.Enqueue(context.Background(), push.Event{UserID: 1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestLocalEnqueueDoesNotWaitForDelivery(t *testing.T) {
	release := make(chan struct{})
	q := NewLocal(context.Background(), 1, 1, func(ctx context.Context, ev push.Event) error {
		<-release
		return nil
	})
	defer func() {
		close(release)
		q.Close()
	}()

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(context.Background(), push.Event{UserID: 1}) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a slow delivery")
	}
}

func TestLocalEnqueueHonoursContext(t *testing.T) {
	release := make(chan struct{})
	q := NewLocal(context.Background(), 1, 0, func(ctx context.Context, ev push.Event) error {
		<-release
		return nil
	})
	defer func() {
		close(release)
		q.Close()
	}()

	// The single worker takes the first event and blocks; the second has
	// nowhere to go.
	if err := q.Enqueue(context.Background(), push.Event{UserID: 1}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, push.Event{UserID: 2}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
