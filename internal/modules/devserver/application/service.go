package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/modules/notification/infrastructure/protocol"
	"go.uber.org/zap"
)

// Publisher fans frames out to every socket of a user.
type Publisher interface {
	SendToUser(userID string, message []byte)
}

type CreateNotificationInput struct {
	Type           domain.NotificationType `json:"type"`
	Category       domain.Category         `json:"category"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	ActionURL      *string                 `json:"action_url,omitempty"`
	JobID          *string                 `json:"job_id,omitempty"`
	ApplicationID  *string                 `json:"application_id,omitempty"`
	MissionID      *string                 `json:"mission_id,omitempty"`
	SubscriptionID *string                 `json:"subscription_id,omitempty"`
	ScoreID        *string                 `json:"score_id,omitempty"`
}

var ErrInvalidNotification = errors.New("invalid notification")

func (in CreateNotificationInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNotification)
	}
	if in.Type != "" && !in.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, in.Type)
	}
	return nil
}

// NotificationService is the source of record behind both the REST API and
// the push endpoint. Every change is published to the user's sockets.
type NotificationService struct {
	repo domain.NotificationRepository
	hub  Publisher
	log  *zap.Logger
	now  func() time.Time
}

func NewNotificationService(repo domain.NotificationRepository, hub Publisher, log *zap.Logger) *NotificationService {
	return &NotificationService{
		repo: repo,
		hub:  hub,
		log:  log.With(zap.String("component", "notification_service")),
		now:  time.Now,
	}
}

func (s *NotificationService) Create(ctx context.Context, userID string, in CreateNotificationInput) (*domain.Notification, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = domain.NotificationTypeInfo
	}
	if in.Category == "" {
		in.Category = domain.CategorySystem
	}

	notification := &domain.Notification{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           in.Type,
		Category:       in.Category,
		Title:          in.Title,
		Message:        in.Message,
		ActionURL:      in.ActionURL,
		JobID:          in.JobID,
		ApplicationID:  in.ApplicationID,
		MissionID:      in.MissionID,
		SubscriptionID: in.SubscriptionID,
		ScoreID:        in.ScoreID,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.publish(userID, protocol.NewNotification{Notification: *notification})
	return notification, nil
}

func (s *NotificationService) GetUserNotifications(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	if err := s.repo.MarkAsRead(ctx, notificationID, userID); err != nil {
		return err
	}
	s.publish(userID, protocol.NotificationRead{NotificationID: notificationID})
	s.publishCount(ctx, userID)
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return err
	}
	s.publish(userID, protocol.AllNotificationsRead{})
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, notificationID, userID string) error {
	if err := s.repo.Delete(ctx, notificationID, userID); err != nil {
		return err
	}
	s.publish(userID, protocol.NotificationDeleted{NotificationID: notificationID})
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// Greeting builds the connected frame for a new socket.
func (s *NotificationService) Greeting(ctx context.Context, userID string) ([]byte, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return protocol.EncodeMessage(protocol.Connected{UnreadCount: count})
}

// HandleAction applies an action received on the push channel. Only ping
// produces a direct reply.
func (s *NotificationService) HandleAction(ctx context.Context, userID string, a protocol.ClientAction) ([]byte, error) {
	switch v := a.(type) {
	case protocol.MarkRead:
		return nil, s.MarkAsRead(ctx, v.NotificationID, userID)
	case protocol.MarkAllRead:
		return nil, s.MarkAllAsRead(ctx, userID)
	case protocol.Ping:
		return protocol.EncodeMessage(protocol.Pong{})
	default:
		return nil, fmt.Errorf("%w: %T", protocol.ErrUnknownMessageType, a)
	}
}

func (s *NotificationService) publish(userID string, msg protocol.ServerMessage) {
	data, err := protocol.EncodeMessage(msg)
	if err != nil {
		s.log.Error("cannot encode push message", zap.String("type", string(msg.Type())), zap.Error(err))
		return
	}
	s.hub.SendToUser(userID, data)
}

func (s *NotificationService) publishCount(ctx context.Context, userID string) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		s.log.Warn("cannot refresh unread count", zap.String("user", userID), zap.Error(err))
		return
	}
	s.publish(userID, protocol.UnreadCountUpdate{UnreadCount: count})
}
