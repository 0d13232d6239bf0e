// Package scheduler provides cancelable one-shot and repeating timers whose
// callbacks run on an event loop.
package scheduler

import (
	"time"

	"github.com/saransh1220/careerpush/internal/shared/eventloop"
)

// Handle revokes a scheduled callback. Stop is idempotent and, once it has
// returned on the loop, the callback is guaranteed not to run again.
type Handle interface {
	Stop()
}

type Scheduler interface {
	After(d time.Duration, fn func()) Handle
	Every(d time.Duration, fn func()) Handle
}

// Stop stops h if it is set and clears it.
func Stop(h *Handle) {
	if *h != nil {
		(*h).Stop()
		*h = nil
	}
}

// LoopScheduler fires callbacks by posting them to a loop. Handles must be
// stopped from the loop goroutine.
type LoopScheduler struct {
	loop eventloop.Loop
}

func New(loop eventloop.Loop) *LoopScheduler {
	return &LoopScheduler{loop: loop}
}

type afterHandle struct {
	timer   *time.Timer
	stopped bool
}

func (h *afterHandle) Stop() {
	h.stopped = true
	h.timer.Stop()
}

func (s *LoopScheduler) After(d time.Duration, fn func()) Handle {
	h := &afterHandle{}
	h.timer = time.AfterFunc(d, func() {
		s.loop.Post(func() {
			// The timer may have fired before Stop ran on the loop.
			if h.stopped {
				return
			}
			h.stopped = true
			fn()
		})
	})
	return h
}

type everyHandle struct {
	done    chan struct{}
	stopped bool
}

func (h *everyHandle) Stop() {
	if h.stopped {
		return
	}
	h.stopped = true
	close(h.done)
}

func (s *LoopScheduler) Every(d time.Duration, fn func()) Handle {
	h := &everyHandle{done: make(chan struct{})}
	ticker := time.NewTicker(d)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.loop.Post(func() {
					if !h.stopped {
						fn()
					}
				})
			case <-h.done:
				return
			}
		}
	}()
	return h
}
