// Package queue decouples firing decisions from push delivery.
package queue

import (
	"context"
	"errors"
	"sync"

	"wordreminder/internal/logger"
	"wordreminder/internal/push"
)

var ErrClosed = errors.New("queue closed")

// Handler delivers one event.
type Handler func(ctx context.Context, ev push.Event) error

// Queue accepts events for asynchronous delivery. Enqueue returns once the
// event is accepted, not when it has been delivered.
type Queue interface {
	Enqueue(ctx context.Context, ev push.Event) error
	Close() error
}

// Local is an in-process worker pool.
type Local struct {
	ctx     context.Context
	jobs    chan push.Event
	handler Handler

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewLocal starts workers goroutines that run handler with ctx until Close.
func NewLocal(ctx context.Context, workers, buffer int, handler Handler) *Local {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	l := &Local{
		ctx:     ctx,
		jobs:    make(chan push.Event, buffer),
		handler: handler,
	}
	for i := 0; i < workers; i++ {
		l.wg.Add(1)
		go l.work()
	}
	return l
}

func (l *Local) work() {
	defer l.wg.Done()
	for ev := range l.jobs {
		if err := l.handler(l.ctx, ev); err != nil {
			logger.Error("dispatch failed", "user_id", ev.UserID, "error", err)
		}
	}
}

func (l *Local) Enqueue(ctx context.Context, ev push.Event) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	select {
	case l.jobs <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and waits for queued ones to be handled.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.jobs)
	l.mu.Unlock()

	l.wg.Wait()
	return nil
}
