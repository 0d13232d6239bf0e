package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/saransh1220/careerpush/internal/gateway/middleware"
	"github.com/saransh1220/careerpush/internal/modules/devserver/application"
	"github.com/saransh1220/careerpush/internal/modules/devserver/infrastructure/websocket"
	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(token string) (string, bool)
}

type NotificationHandler struct {
	service *application.NotificationService
	hub     *websocket.Hub
	auth    Authenticator
	log     *zap.Logger
}

func NewNotificationHandler(service *application.NotificationService, hub *websocket.Hub, auth Authenticator, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub, auth: auth, log: log}
}

// Subscribe upgrades to the push channel. It authenticates on its own so an
// invalid token is reported as close code 4001 rather than an HTTP 401.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.auth.Authenticate(middleware.BearerToken(r))
	if !ok {
		h.log.Info("rejecting push subscription", zap.String("remote", r.RemoteAddr))
		websocket.RejectUnauthorized(w, r)
		return
	}

	websocket.ServeWs(h.hub, h.service, w, r, userID)
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	notifications, err := h.service.GetUserNotifications(r.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list notifications failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"data": notifications})
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var in application.CreateNotificationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	notification, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		if errors.Is(err, application.ErrInvalidNotification) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error("create notification failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "failed to create notification", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, notification)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.MarkAsRead(r.Context(), r.PathValue("id"), userID); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			http.Error(w, "notification not found or unauthorized", http.StatusNotFound)
			return
		}
		h.log.Error("mark as read failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "failed to mark notification as read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.MarkAllAsRead(r.Context(), userID); err != nil {
		h.log.Error("mark all as read failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "failed to mark all notifications as read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			http.Error(w, "notification not found or unauthorized", http.StatusNotFound)
			return
		}
		h.log.Error("delete notification failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "failed to delete notification", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		h.log.Error("unread count failed", zap.String("user", userID), zap.Error(err))
		http.Error(w, "failed to get unread count", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *NotificationHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("encode response failed", zap.Error(err))
	}
}
