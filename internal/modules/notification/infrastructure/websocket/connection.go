// Package websocket owns the client side of the push channel: a single
// connection with keepalive and exponential-backoff reconnection.
package websocket

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/modules/notification/infrastructure/protocol"
	"github.com/saransh1220/careerpush/internal/shared/eventloop"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/logger"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/metrics"
	"github.com/saransh1220/careerpush/internal/shared/scheduler"
	"go.uber.org/zap"
)

// Handlers observes one connection lifecycle. All methods run on the loop.
type Handlers interface {
	protocol.Listener
	OnOpen()
	OnClose(code int)
	OnError(err error)
}

type Config struct {
	URL          string
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	PingInterval time.Duration
	SendBuffer   int
}

// Manager keeps at most one live push connection. Every exported method
// must be called on the manager's loop.
type Manager struct {
	cfg     Config
	auth    domain.AuthProvider
	dialer  Dialer
	loop    eventloop.Loop
	sched   scheduler.Scheduler
	log     *zap.Logger
	metrics *metrics.Metrics

	handlers  Handlers
	state     domain.ConnectionState
	token     string
	current   *link
	seq       uint64
	manual    bool
	attempts  int
	reconnect scheduler.Handle
	keepalive scheduler.Handle

	// writers counts goroutines that may still write a close frame.
	writers sync.WaitGroup
}

// link is one physical socket generation. Events from a link that is no
// longer current are dropped.
type link struct {
	id     uint64
	conn   Conn
	send   chan []byte
	cancel context.CancelFunc
	closed bool
}

func (l *link) shutdown() {
	l.cancel()
	if !l.closed {
		l.closed = true
		close(l.send)
	}
}

func NewManager(cfg Config, auth domain.AuthProvider, dialer Dialer, loop eventloop.Loop, sched scheduler.Scheduler, log *zap.Logger, m *metrics.Metrics) *Manager {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 32
	}
	return &Manager{
		cfg:     cfg,
		auth:    auth,
		dialer:  dialer,
		loop:    loop,
		sched:   sched,
		log:     log.With(zap.String("component", "push")),
		metrics: m,
	}
}

func (m *Manager) State() domain.ConnectionState { return m.state }

// Connect opens the push channel with h as the observer, replacing any
// existing connection. Without a token it does nothing.
func (m *Manager) Connect(h Handlers) {
	m.handlers = h
	m.manual = false
	m.attempts = 0
	scheduler.Stop(&m.reconnect)
	m.open()
}

// Disconnect closes the channel with a normal closure and suppresses every
// reconnect until Connect is called again.
func (m *Manager) Disconnect() {
	m.manual = true
	scheduler.Stop(&m.reconnect)
	m.closeCurrent()
	m.setState(domain.Disconnected)
}

// UpdateToken reconnects with a fresh token when it has changed.
func (m *Manager) UpdateToken() {
	token, ok := m.auth.Token()
	if !ok || token == m.token || m.manual || m.handlers == nil {
		return
	}
	m.log.Info("auth token changed, reconnecting")
	m.attempts = 0
	scheduler.Stop(&m.reconnect)
	m.open()
}

// Send queues a for transmission and reports whether the channel was open.
func (m *Manager) Send(a protocol.ClientAction) bool {
	l := m.current
	if l == nil || l.closed || m.state != domain.Connected {
		return false
	}

	data, err := protocol.Encode(a)
	if err != nil {
		m.log.Warn("cannot encode action", zap.Error(err))
		return false
	}

	select {
	case l.send <- data:
		return true
	default:
		m.log.Warn("send buffer full, dropping action", zap.String("action", string(a.Action())))
		return false
	}
}

// Backoff returns min(base * 2^attempt, max).
func Backoff(attempt int, base, max time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		if d >= max {
			return max
		}
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

func (m *Manager) open() {
	token, ok := m.auth.Token()
	if !ok {
		m.log.Debug("no auth token, staying disconnected")
		m.metrics.ConnectAttempts.WithLabelValues("no_token").Inc()
		return
	}

	target, err := channelURL(m.cfg.URL, token)
	if err != nil {
		m.log.Error("invalid push url", zap.Error(err))
		return
	}

	m.closeCurrent()
	m.token = token
	m.seq++
	ctx, cancel := context.WithCancel(context.Background())
	l := &link{id: m.seq, send: make(chan []byte, m.cfg.SendBuffer), cancel: cancel}
	m.current = l
	m.setState(domain.Connecting)

	go func() {
		conn, err := m.dialer.Dial(ctx, target)
		m.loop.Post(func() { m.handleDial(l, conn, err) })
	}()
}

func (m *Manager) handleDial(l *link, conn Conn, err error) {
	if l != m.current {
		if conn != nil {
			m.goWrite(func() { closeGracefully(conn) })
		}
		return
	}

	if err != nil {
		m.metrics.ConnectAttempts.WithLabelValues("failed").Inc()
		m.log.Warn("push dial failed", zap.Uint64("link", l.id), zap.Error(err))
		code := domain.CloseAbnormal
		if errors.Is(err, ErrHandshakeUnauthorized) {
			code = domain.CloseUnauthorized
		}
		m.handlers.OnError(err)
		m.handleClose(l, code)
		return
	}

	l.conn = conn
	m.attempts = 0
	m.setState(domain.Connected)
	m.metrics.ConnectAttempts.WithLabelValues("opened").Inc()

	m.goWrite(func() { l.writePump(m.log) })
	go m.readPump(l)

	m.keepalive = m.sched.Every(m.cfg.PingInterval, func() {
		m.Send(protocol.Ping{})
	})
	m.handlers.OnOpen()
}

func (m *Manager) readPump(l *link) {
	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			m.loop.Post(func() { m.handleReadError(l, err) })
			return
		}
		m.loop.Post(func() { m.handleFrame(l, data) })
	}
}

func (m *Manager) handleFrame(l *link, data []byte) {
	if l != m.current {
		m.metrics.FramesDropped.WithLabelValues("stale").Inc()
		return
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, protocol.ErrUnknownMessageType) {
			reason = "unknown"
		}
		m.metrics.FramesDropped.WithLabelValues(reason).Inc()
		m.log.Warn("dropping inbound frame", zap.Error(err), zap.String("frame", logger.Truncate(string(data), 256)))
		return
	}

	m.metrics.MessagesReceived.WithLabelValues(string(msg.Type())).Inc()
	protocol.Dispatch(msg, m.handlers)
}

func (m *Manager) handleReadError(l *link, err error) {
	if l != m.current {
		m.log.Debug("ignoring close from superseded connection", zap.Uint64("link", l.id))
		return
	}

	code, isCloseFrame := closeCode(err)
	if !isCloseFrame {
		m.handlers.OnError(err)
	}
	m.handleClose(l, code)
}

// handleClose is the single place that decides whether to reconnect.
func (m *Manager) handleClose(l *link, code int) {
	if l != m.current {
		return
	}
	m.current = nil
	l.shutdown()
	scheduler.Stop(&m.keepalive)
	m.setState(domain.Disconnected)
	m.log.Info("push channel closed", zap.Uint64("link", l.id), zap.Int("code", code))

	m.handlers.OnClose(code)

	// The handler may have called Disconnect or Connect.
	if m.manual || m.current != nil {
		return
	}
	switch code {
	case domain.CloseNormal:
		return
	case domain.CloseUnauthorized:
		m.log.Warn("push channel rejected credentials, not reconnecting")
		return
	}
	m.scheduleReconnect()
}

func (m *Manager) scheduleReconnect() {
	if m.reconnect != nil {
		return
	}
	if m.attempts >= m.cfg.MaxAttempts {
		m.metrics.ReconnectsExhausted.Inc()
		m.log.Warn("reconnect attempts exhausted, falling back to polling", zap.Int("attempts", m.attempts))
		return
	}

	delay := Backoff(m.attempts, m.cfg.BaseDelay, m.cfg.MaxDelay)
	m.attempts++
	m.metrics.ReconnectsScheduled.Inc()
	m.log.Info("scheduling reconnect", zap.Duration("delay", delay), zap.Int("attempt", m.attempts))

	m.reconnect = m.sched.After(delay, func() {
		m.reconnect = nil
		if m.manual {
			return
		}
		m.open()
	})
}

func (m *Manager) goWrite(fn func()) {
	m.writers.Add(1)
	go func() {
		defer m.writers.Done()
		fn()
	}()
}

// Wait blocks until every socket the manager has let go of has flushed its
// close frame, or ctx is done. Unlike the other methods it may be called from
// any goroutine.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.writers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) closeCurrent() {
	scheduler.Stop(&m.keepalive)
	if m.current == nil {
		return
	}
	l := m.current
	m.current = nil
	l.shutdown()
	m.log.Debug("closed push connection", zap.Uint64("link", l.id))
}

func (m *Manager) setState(s domain.ConnectionState) {
	if m.state == s {
		return
	}
	m.log.Debug("connection state", zap.Stringer("from", m.state), zap.Stringer("to", s))
	m.state = s
}

// writePump is the only writer of data frames on l.conn. Closing l.send ends
// the pump with a normal closure.
func (l *link) writePump(log *zap.Logger) {
	for data := range l.send {
		if err := l.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn("push write failed", zap.Uint64("link", l.id), zap.Error(err))
			_ = l.conn.Close()
			return
		}
	}
	closeGracefully(l.conn)
}

func closeGracefully(conn Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

func channelURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
