package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saransh1220/careerpush/internal/shared/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_AfterFiresOnceInOrder(t *testing.T) {
	m := NewManual()
	var fired []string
	m.After(2*time.Second, func() { fired = append(fired, "b") })
	m.After(1*time.Second, func() { fired = append(fired, "a") })

	m.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, fired)
	assert.Equal(t, 1, m.Pending())

	m.Advance(time.Minute)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, []time.Duration{2 * time.Second, time.Second}, m.Requested())
}

func TestManual_EveryAndStop(t *testing.T) {
	m := NewManual()
	ticks := 0
	h := m.Every(10*time.Second, func() { ticks++ })

	m.Advance(35 * time.Second)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 1, m.PendingRepeating())

	h.Stop()
	m.Advance(time.Minute)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_CallbackCanScheduleWithinAdvance(t *testing.T) {
	m := NewManual()
	var at []time.Duration
	m.After(time.Second, func() {
		at = append(at, m.Now())
		m.After(time.Second, func() { at = append(at, m.Now()) })
	})

	m.Advance(5 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, at)
}

func TestStop_ClearsHandle(t *testing.T) {
	m := NewManual()
	h := m.After(time.Second, func() { t.Fatal("stopped timer fired") })
	Stop(&h)
	assert.Nil(t, h)
	Stop(&h)
	m.Advance(time.Minute)
}

func TestLoopScheduler_AfterRunsOnLoop(t *testing.T) {
	loop := eventloop.NewSerial()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	s := New(loop)
	done := make(chan struct{})
	require.NoError(t, loop.Call(ctx, func() {
		s.After(5*time.Millisecond, func() { close(done) })
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestLoopScheduler_StoppedTimersNeverFire(t *testing.T) {
	loop := eventloop.NewSerial()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	s := New(loop)
	var fired atomic.Int32
	require.NoError(t, loop.Call(ctx, func() {
		h := s.After(time.Millisecond, func() { fired.Add(1) })
		e := s.Every(time.Millisecond, func() { fired.Add(1) })
		h.Stop()
		e.Stop()
		e.Stop()
	}))

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, loop.Call(ctx, func() {}))
	assert.Equal(t, int32(0), fired.Load())
}
