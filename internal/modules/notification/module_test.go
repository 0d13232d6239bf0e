package notification_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/saransh1220/careerpush/internal/modules/notification"
	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/modules/notification/presentation"
	"github.com/saransh1220/careerpush/internal/shared/auth"
	"github.com/saransh1220/careerpush/internal/shared/eventloop"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/config"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/metrics"
	"github.com/saransh1220/careerpush/internal/shared/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sink struct {
	shown  []string
	badges []string
}

func (s *sink) ShowToast(n domain.Notification)                    { s.shown = append(s.shown, n.ID) }
func (s *sink) HideToast(string, presentation.DismissReason)       {}
func (s *sink) RenderBadge(label string, _ presentation.Transition) { s.badges = append(s.badges, label) }

type routes struct{}

func (routes) InOnboardingFlow() bool { return false }

// fakeBackend serves the REST snapshot and a push endpoint that greets with
// connected and pushes one notification once push is closed. Actions the
// client sends are reported on actions.
func fakeBackend(t *testing.T, push <-chan struct{}, actions chan<- string) *httptest.Server {
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"old","type":"info","category":"system","title":"t","message":"m","is_read":true,"created_at":"2026-01-01T00:00:00Z"}]}`))
	})
	mux.HandleFunc("GET /notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":0}`))
	})
	mux.HandleFunc("/notifications/subscribe", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		c.WriteMessage(websocket.TextMessage, []byte(`{"type":"connected","unread_count":0}`))
		go func() {
			<-push
			c.WriteMessage(websocket.TextMessage, []byte(`{"type":"new_notification","notification":{"id":"fresh","type":"success","category":"interview","title":"Interview","message":"Tomorrow","is_read":false,"created_at":"2026-01-02T00:00:00Z"}}`))
		}()
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			select {
			case actions <- string(data):
			default:
			}
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestModule_EndToEnd(t *testing.T) {
	push := make(chan struct{})
	actions := make(chan string, 4)
	srv := fakeBackend(t, push, actions)

	cfg := config.Config{
		Push: config.PushConfig{
			URL:          "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/subscribe",
			BaseDelay:    time.Second,
			MaxDelay:     30 * time.Second,
			MaxAttempts:  10,
			PingInterval: 30 * time.Second,
		},
		API:     config.APIConfig{BaseURL: srv.URL, Timeout: time.Second, PageSize: 10},
		Session: config.SessionConfig{PollInterval: time.Minute},
		Toast:   config.ToastConfig{Duration: 4 * time.Second, SwipeDistance: 40, SwipeVelocity: 0.5},
	}

	loop := eventloop.NewManual()
	out := &sink{}
	m, err := notification.NewModule(cfg, notification.Deps{
		Auth:      auth.NewTokenStore("tok"),
		Routes:    routes{},
		Toasts:    out,
		Badge:     out,
		Loop:      loop,
		Scheduler: scheduler.NewManual(),
		Logger:    zap.NewNop(),
		Metrics:   metrics.New(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	settle := func(what string, cond func() bool) {
		t.Helper()
		deadline := time.Now().Add(3 * time.Second)
		for {
			loop.Drain()
			if cond() {
				return
			}
			require.True(t, time.Now().Before(deadline), what)
			time.Sleep(5 * time.Millisecond)
		}
	}

	m.Session().Start()
	settle("reconciled after open", func() bool {
		return m.Connection().State() == domain.Connected && !m.Store().Refreshing()
	})
	_, ok := m.Store().Get("old")
	require.True(t, ok)

	close(push)
	settle("push notification", func() bool {
		_, ok := m.Store().Get("fresh")
		return ok
	})
	assert.Equal(t, []string{"1"}, out.badges)
	assert.Equal(t, []string{"fresh"}, out.shown)
	cur, ok := m.Toaster().Current()
	require.True(t, ok)
	assert.Equal(t, "fresh", cur.ID)

	m.Toaster().Tap()
	got, _ := m.Store().Get("fresh")
	assert.True(t, got.IsRead)
	assert.Equal(t, 0, m.Store().UnreadCount())
	assert.Equal(t, []string{"1", ""}, out.badges)

	select {
	case a := <-actions:
		assert.JSONEq(t, `{"action":"mark_read","notification_id":"fresh"}`, a)
	case <-time.After(3 * time.Second):
		t.Fatal("mark_read not sent over the push channel")
	}

	m.Session().Stop()
	assert.Equal(t, domain.Disconnected, m.Connection().State())
}
