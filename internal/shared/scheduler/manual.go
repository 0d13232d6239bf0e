package scheduler

import (
	"time"
)

// Manual is a virtual-clock scheduler for tests. Callbacks run synchronously
// inside Advance, in due-time order.
type Manual struct {
	now       time.Duration
	seq       int
	timers    []*manualTimer
	requested []time.Duration
}

type manualTimer struct {
	at      time.Duration
	period  time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() { t.stopped = true }

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) After(d time.Duration, fn func()) Handle {
	m.requested = append(m.requested, d)
	return m.add(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) Handle {
	return m.add(d, d, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) *manualTimer {
	m.seq++
	t := &manualTimer{at: m.now + d, period: period, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the virtual clock forward by d, firing every timer that
// falls due, including timers scheduled by callbacks during the advance.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.at
		if t.period > 0 {
			t.at += t.period
		} else {
			t.stopped = true
		}
		t.fn()
	}
	m.now = target
	m.compact()
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range m.timers {
		if t.stopped || t.at > target {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
}

// Pending reports the number of active one-shot and repeating timers.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// PendingRepeating reports the number of active repeating timers.
func (m *Manual) PendingRepeating() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped && t.period > 0 {
			n++
		}
	}
	return n
}

// Requested returns the delays of every one-shot timer requested so far.
func (m *Manual) Requested() []time.Duration {
	out := make([]time.Duration, len(m.requested))
	copy(out, m.requested)
	return out
}

func (m *Manual) Now() time.Duration { return m.now }
