package gateway

import (
	"net/http"

	"github.com/saransh1220/careerpush/internal/gateway/middleware"
	notification_http "github.com/saransh1220/careerpush/internal/modules/devserver/interfaces/http"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/metrics"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleWare
	NotificationHandler *notification_http.NotificationHandler
	Metrics             *metrics.Metrics
	AllowedOrigins      string
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Health Check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	mux.Handle("/metrics", config.Metrics.Handler())

	// Push channel. The handler authenticates itself so bad tokens get close code 4001.
	mux.HandleFunc("GET /notifications/subscribe", config.NotificationHandler.Subscribe)

	// Notification Routes
	mux.Handle("GET /notifications", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.ListNotifications)))
	mux.Handle("POST /notifications", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.Create)))
	mux.Handle("GET /notifications/unread-count", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.UnreadCount)))
	mux.Handle("PATCH /notifications/read/{id}", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.MarkAsRead)))
	mux.Handle("PATCH /notifications/read-all", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.MarkAllAsRead)))
	mux.Handle("DELETE /notifications/{id}", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.NotificationHandler.Delete)))

	return mux
}

// Handler wraps the routes with request metrics and CORS.
func Handler(config RouterConfig) http.Handler {
	return middleware.CORS(config.AllowedOrigins)(middleware.Prometheus(config.Metrics)(SetupRoutes(config)))
}
