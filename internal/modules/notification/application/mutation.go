package application

import (
	"context"

	"github.com/saransh1220/careerpush/internal/modules/notification/infrastructure/protocol"
	"go.uber.org/zap"
)

// mutation is one optimistic change: apply locally, deliver over the push
// channel, fall back to the API, and refetch a snapshot if both fail.
type mutation struct {
	op       string
	apply    func() bool
	push     protocol.ClientAction
	fallback func(ctx context.Context) error
}

func (s *Store) run(m mutation) {
	if m.apply() {
		s.changed()
	}

	if m.push != nil && s.push.Send(m.push) {
		s.metrics.Mutations.WithLabelValues(m.op, "push").Inc()
		return
	}

	s.metrics.Mutations.WithLabelValues(m.op, "api").Inc()
	ctx := s.ctx
	go func() {
		err := m.fallback(ctx)
		if err == nil {
			return
		}
		s.loop.Post(func() { s.invalidate(ctx, m.op, err) })
	}()
}

// invalidate discards the optimistic state by refetching the snapshot. If
// that fetch fails too the store stays stale and the session poller retries.
func (s *Store) invalidate(ctx context.Context, op string, err error) {
	if ctx.Err() != nil {
		return
	}
	s.stale = true
	s.metrics.Rollbacks.WithLabelValues(op).Inc()
	s.log.Warn("mutation failed on both channels, refetching snapshot", zap.String("operation", op), zap.Error(err))
	s.Refresh()
}

// MarkAsRead marks one notification read.
func (s *Store) MarkAsRead(id string) {
	s.run(mutation{
		op:    "mark_read",
		apply: func() bool { return s.markRead(id) },
		push:  protocol.MarkRead{NotificationID: id},
		fallback: func(ctx context.Context) error {
			return s.api.MarkAsRead(ctx, id)
		},
	})
}

func (s *Store) MarkAllAsRead() {
	s.run(mutation{
		op: "mark_all_read",
		apply: func() bool {
			s.markAllRead()
			return true
		},
		push:     protocol.MarkAllRead{},
		fallback: s.api.MarkAllAsRead,
	})
}

// Delete removes a notification. The push channel has no delete action so
// it always goes through the API.
func (s *Store) Delete(id string) {
	s.run(mutation{
		op:    "delete",
		apply: func() bool { return s.remove(id) },
		fallback: func(ctx context.Context) error {
			return s.api.Delete(ctx, id)
		},
	})
}
