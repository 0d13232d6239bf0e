package devserver

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/careerpush/internal/gateway/middleware"
	"github.com/saransh1220/careerpush/internal/modules/devserver/application"
	"github.com/saransh1220/careerpush/internal/modules/devserver/infrastructure/broker"
	"github.com/saransh1220/careerpush/internal/modules/devserver/infrastructure/persistence/postgres"
	"github.com/saransh1220/careerpush/internal/modules/devserver/infrastructure/websocket"
	notification_http "github.com/saransh1220/careerpush/internal/modules/devserver/interfaces/http"
	"go.uber.org/zap"
)

// Options configures the development backend. Redis is optional; without it
// pushes only reach sockets held by this process.
type Options struct {
	Redis        *redis.Client
	RedisChannel string
}

// Module wires the development backend: REST endpoints and the push endpoint
// over one notification service.
type Module struct {
	service *application.NotificationService
	handler *notification_http.NotificationHandler
	hub     *websocket.Hub
	cancel  context.CancelFunc
}

func NewModule(db *sqlx.DB, auth *middleware.AuthMiddleWare, log *zap.Logger, opts Options) *Module {
	repo := postgres.NewPgNotificationRepository(db)
	hub := websocket.NewHub(log)
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())

	var publisher application.Publisher = hub
	if opts.Redis != nil {
		relay := broker.NewRedisBroker(opts.Redis, hub, opts.RedisChannel, log)
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("redis relay stopped", zap.Error(err))
			}
		}()
		publisher = relay
	}

	service := application.NewNotificationService(repo, publisher, log)
	handler := notification_http.NewNotificationHandler(service, hub, auth, log)

	return &Module{
		service: service,
		handler: handler,
		hub:     hub,
		cancel:  cancel,
	}
}

func (m *Module) HTTPHandler() *notification_http.NotificationHandler {
	return m.handler
}

func (m *Module) Service() *application.NotificationService {
	return m.service
}

// Shutdown stops the relay and the hub, closing every connected socket.
func (m *Module) Shutdown() {
	m.cancel()
	m.hub.Stop()
}
