package notification

import (
	"fmt"
	"net/http"

	"github.com/saransh1220/careerpush/internal/modules/notification/application"
	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/modules/notification/infrastructure/api"
	"github.com/saransh1220/careerpush/internal/modules/notification/infrastructure/websocket"
	"github.com/saransh1220/careerpush/internal/modules/notification/presentation"
	"github.com/saransh1220/careerpush/internal/shared/eventloop"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/config"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/metrics"
	"github.com/saransh1220/careerpush/internal/shared/scheduler"
	"go.uber.org/zap"
)

// Deps are the collaborators supplied by the host application.
type Deps struct {
	Auth      domain.AuthProvider
	Routes    domain.RouteInspector
	Toasts    presentation.ToastSink
	Badge     presentation.BadgeSink
	Navigator presentation.Navigator

	Loop       eventloop.Loop
	Scheduler  scheduler.Scheduler
	Dialer     websocket.Dialer
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

type Module struct {
	conn    *websocket.Manager
	store   *application.Store
	session *application.Session
	toaster *presentation.Toaster
	badge   *presentation.Badge
}

// NewModule wires the client side of the push pipeline. Everything it
// returns must be driven from deps.Loop.
func NewModule(cfg config.Config, deps Deps) (*Module, error) {
	if deps.Dialer == nil {
		deps.Dialer = websocket.GorillaDialer{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.New(deps.Loop)
	}

	client, err := api.NewClient(api.Config{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		PageSize: cfg.API.PageSize,
	}, deps.Auth, deps.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("notification api client: %w", err)
	}

	conn := websocket.NewManager(websocket.Config{
		URL:          cfg.Push.URL,
		BaseDelay:    cfg.Push.BaseDelay,
		MaxDelay:     cfg.Push.MaxDelay,
		MaxAttempts:  cfg.Push.MaxAttempts,
		PingInterval: cfg.Push.PingInterval,
	}, deps.Auth, deps.Dialer, deps.Loop, deps.Scheduler, deps.Logger, deps.Metrics)

	store := application.NewStore(client, conn, deps.Loop, deps.Logger, deps.Metrics)
	session := application.NewSession(conn, store, deps.Scheduler, cfg.Session.PollInterval, deps.Logger)

	toaster := presentation.NewToaster(presentation.ToastConfig{
		Duration:      cfg.Toast.Duration,
		SwipeDistance: cfg.Toast.SwipeDistance,
		SwipeVelocity: cfg.Toast.SwipeVelocity,
	}, deps.Scheduler, deps.Routes, deps.Toasts, store, deps.Navigator, deps.Logger)
	badge := presentation.NewBadge(deps.Badge)

	store.Subscribe(toaster)
	store.Subscribe(badge)

	return &Module{
		conn:    conn,
		store:   store,
		session: session,
		toaster: toaster,
		badge:   badge,
	}, nil
}

func (m *Module) Session() *application.Session { return m.session }

func (m *Module) Store() *application.Store { return m.store }

func (m *Module) Toaster() *presentation.Toaster { return m.toaster }

func (m *Module) Connection() *websocket.Manager { return m.conn }
