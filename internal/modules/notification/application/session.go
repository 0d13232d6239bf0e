package application

import (
	"time"

	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/modules/notification/infrastructure/protocol"
	"github.com/saransh1220/careerpush/internal/modules/notification/infrastructure/websocket"
	"github.com/saransh1220/careerpush/internal/shared/scheduler"
	"go.uber.org/zap"
)

// Connection is the push channel lifecycle used by a Session.
type Connection interface {
	Connect(h websocket.Handlers)
	Disconnect()
	UpdateToken()
	Send(a protocol.ClientAction) bool
	State() domain.ConnectionState
}

// Session owns one push connection and the store it feeds. All methods must
// run on the loop shared by the connection and the store.
type Session struct {
	conn         Connection
	store        *Store
	sched        scheduler.Scheduler
	log          *zap.Logger
	pollInterval time.Duration

	running bool
	poller  scheduler.Handle
}

var _ websocket.Handlers = (*Session)(nil)

func NewSession(conn Connection, store *Store, sched scheduler.Scheduler, pollInterval time.Duration, log *zap.Logger) *Session {
	return &Session{
		conn:         conn,
		store:        store,
		sched:        sched,
		log:          log.With(zap.String("component", "session")),
		pollInterval: pollInterval,
	}
}

func (s *Session) Store() *Store { return s.store }

// Start connects the push channel, loads a snapshot and starts polling the
// API for as long as the channel is down.
func (s *Session) Start() {
	if s.running {
		return
	}
	s.running = true
	s.log.Info("session started")

	s.conn.Connect(s)
	s.store.Refresh()
	if s.pollInterval > 0 {
		s.poller = s.sched.Every(s.pollInterval, s.poll)
	}
}

// Stop disconnects and cancels every timer and in-flight request.
func (s *Session) Stop() {
	if !s.running {
		return
	}
	s.running = false
	scheduler.Stop(&s.poller)
	s.conn.Disconnect()
	s.store.CancelPending()
	s.log.Info("session stopped")
}

// Foreground covers the window in which push events may have been missed
// while the app was in the background.
func (s *Session) Foreground() {
	if !s.running {
		return
	}
	s.conn.UpdateToken()
	if s.conn.State() == domain.Disconnected {
		s.conn.Connect(s)
	}
	s.store.Refresh()
}

func (s *Session) poll() {
	if s.store.Refreshing() {
		return
	}
	if s.conn.State() == domain.Connected && !s.store.Stale() {
		return
	}
	s.log.Debug("polling snapshot", zap.Stringer("state", s.conn.State()), zap.Bool("stale", s.store.Stale()))
	s.store.Refresh()
}

func (s *Session) OnOpen() {
	s.log.Info("push channel open")
	s.store.Refresh()
}

func (s *Session) OnClose(code int) {
	if code == domain.CloseUnauthorized {
		s.log.Warn("push channel unauthorized, sign in again to reconnect")
		return
	}
	s.log.Info("push channel closed", zap.Int("code", code))
}

func (s *Session) OnError(err error) {
	s.log.Warn("push channel error", zap.Error(err))
}

func (s *Session) OnConnected(unread int)               { s.store.OnConnected(unread) }
func (s *Session) OnNewNotification(n domain.Notification) { s.store.OnNewNotification(n) }
func (s *Session) OnNotificationRead(id string)         { s.store.OnNotificationRead(id) }
func (s *Session) OnAllNotificationsRead()              { s.store.OnAllNotificationsRead() }
func (s *Session) OnNotificationDeleted(id string)      { s.store.OnNotificationDeleted(id) }
func (s *Session) OnUnreadCountUpdate(unread int)       { s.store.OnUnreadCountUpdate(unread) }
func (s *Session) OnPong()                              {}
