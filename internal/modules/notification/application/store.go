package application

import (
	"context"
	"time"

	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/modules/notification/infrastructure/protocol"
	"github.com/saransh1220/careerpush/internal/shared/eventloop"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/metrics"
	"go.uber.org/zap"
)

// Observer is notified on the loop after every state change.
type Observer interface {
	NotificationsChanged(items []domain.Notification, unread int)
	// NotificationArrived fires for pushed notifications whose id was not
	// already in the store.
	NotificationArrived(n domain.Notification)
}

// Sender is the push channel as seen by the store.
type Sender interface {
	Send(a protocol.ClientAction) bool
}

// Store reconciles snapshots from the fallback API with the push stream and
// mediates optimistic mutations. It is confined to its loop.
type Store struct {
	api     domain.NotificationAPI
	push    Sender
	loop    eventloop.Loop
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	items     []domain.Notification
	unread    int
	observers []Observer

	ctx        context.Context
	cancel     context.CancelFunc
	refreshSeq uint64
	refreshing bool
	// stale is set while a rejected optimistic change awaits a snapshot.
	stale bool
}

var _ protocol.Listener = (*Store)(nil)

func NewStore(api domain.NotificationAPI, push Sender, loop eventloop.Loop, log *zap.Logger, m *metrics.Metrics) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		api:     api,
		push:    push,
		loop:    loop,
		log:     log.With(zap.String("component", "store")),
		metrics: m,
		now:     time.Now,
		items:   []domain.Notification{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Store) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// Notifications returns a copy of the list, newest first.
func (s *Store) Notifications() []domain.Notification {
	out := make([]domain.Notification, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) UnreadCount() int { return s.unread }

func (s *Store) Get(id string) (domain.Notification, bool) {
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	return domain.Notification{}, false
}

// Refreshing reports whether a snapshot fetch is in flight.
func (s *Store) Refreshing() bool { return s.refreshing }

// Stale reports whether the list still carries an optimistic change the
// server rejected. It clears on the next applied snapshot.
func (s *Store) Stale() bool { return s.stale }

// ApplySnapshot replaces the list and unread count wholesale.
func (s *Store) ApplySnapshot(items []domain.Notification, unread int) {
	s.items = make([]domain.Notification, len(items))
	copy(s.items, items)
	s.unread = max(unread, 0)
	s.stale = false
	s.changed()
}

// Refresh fetches a full snapshot. Only the most recent request is applied.
func (s *Store) Refresh() {
	s.refreshSeq++
	seq := s.refreshSeq
	s.refreshing = true
	ctx := s.ctx

	go func() {
		items, err := s.api.FetchNotifications(ctx)
		var unread int
		if err == nil {
			unread, err = s.api.FetchUnreadCount(ctx)
		}
		s.loop.Post(func() { s.finishRefresh(seq, items, unread, err) })
	}()
}

func (s *Store) finishRefresh(seq uint64, items []domain.Notification, unread int, err error) {
	if seq != s.refreshSeq {
		s.metrics.Snapshots.WithLabelValues("superseded").Inc()
		return
	}
	s.refreshing = false
	if err != nil {
		s.metrics.Snapshots.WithLabelValues("failed").Inc()
		switch {
		case s.ctx.Err() != nil:
		case s.stale:
			s.log.Error("rollback snapshot failed, keeping optimistic state until the next snapshot", zap.Error(err))
		default:
			s.log.Warn("snapshot fetch failed", zap.Error(err))
		}
		return
	}
	s.metrics.Snapshots.WithLabelValues("applied").Inc()
	s.log.Debug("snapshot applied", zap.Int("items", len(items)), zap.Int("unread", unread))
	s.ApplySnapshot(items, unread)
}

// CancelPending abandons in-flight snapshot fetches and fallback calls.
func (s *Store) CancelPending() {
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.refreshSeq++
	s.refreshing = false
}

func (s *Store) OnConnected(unread int) {
	s.unread = unread
	s.changed()
}

func (s *Store) OnNewNotification(n domain.Notification) {
	if i := s.index(n.ID); i >= 0 {
		s.redeliver(i, n)
		s.changed()
		return
	}

	s.items = append([]domain.Notification{n}, s.items...)
	if !n.IsRead {
		s.unread++
	}
	s.changed()
	for _, o := range s.observers {
		o.NotificationArrived(n)
	}
}

func (s *Store) OnNotificationRead(id string) {
	if s.markRead(id) {
		s.changed()
	}
}

func (s *Store) OnAllNotificationsRead() {
	s.markAllRead()
	s.changed()
}

func (s *Store) OnNotificationDeleted(id string) {
	if s.remove(id) {
		s.changed()
	}
}

func (s *Store) OnUnreadCountUpdate(unread int) {
	s.unread = unread
	s.changed()
}

func (s *Store) OnPong() {}

// redeliver updates an entry in place. Read state only moves forward here;
// a snapshot is the one place it can be reset.
func (s *Store) redeliver(i int, n domain.Notification) {
	prev := s.items[i]
	switch {
	case prev.IsRead:
		n.IsRead, n.ReadAt = true, prev.ReadAt
	case n.IsRead:
		if n.ReadAt == nil {
			at := s.now()
			n.ReadAt = &at
		}
		s.unread = max(s.unread-1, 0)
	}
	s.items[i] = n
}

func (s *Store) markRead(id string) bool {
	i := s.index(id)
	if i < 0 || !s.items[i].MarkRead(s.now()) {
		return false
	}
	s.unread = max(s.unread-1, 0)
	return true
}

func (s *Store) markAllRead() {
	at := s.now()
	for i := range s.items {
		s.items[i].MarkRead(at)
	}
	s.unread = 0
}

func (s *Store) remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	wasUnread := !s.items[i].IsRead
	s.items = append(s.items[:i], s.items[i+1:]...)
	if wasUnread {
		s.unread = max(s.unread-1, 0)
	}
	return true
}

func (s *Store) index(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) changed() {
	if len(s.observers) == 0 {
		return
	}
	items := s.Notifications()
	for _, o := range s.observers {
		o.NotificationsChanged(items, s.unread)
	}
}
