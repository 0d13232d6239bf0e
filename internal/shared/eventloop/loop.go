// Package eventloop serializes callbacks onto a single goroutine so that
// connection, store and presentation state can be mutated without locks.
package eventloop

import (
	"context"
	"sync"
)

// Loop accepts work to run on the loop goroutine. Post never blocks and may
// be called from any goroutine, including from work already running on the loop.
type Loop interface {
	Post(fn func())
}

// Serial is the production loop: an unbounded FIFO drained by Run.
type Serial struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

func NewSerial() *Serial {
	return &Serial{wake: make(chan struct{}, 1)}
}

func (l *Serial) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes posted work in order until ctx is cancelled. Work still queued
// at cancellation is discarded.
func (l *Serial) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		for {
			fn := l.next()
			if fn == nil {
				break
			}
			fn()
			if ctx.Err() != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// Call posts fn and waits for it to finish. It must not be called from the
// loop goroutine itself.
func (l *Serial) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Serial) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

// Manual is a loop driven explicitly by tests through Drain.
type Manual struct {
	mu    sync.Mutex
	queue []func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (l *Manual) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
}

// Drain runs queued work, including work posted while draining, until the
// queue is empty. It returns the number of callbacks executed.
func (l *Manual) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		n++
	}
}

func (l *Manual) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}
