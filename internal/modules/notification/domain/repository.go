package domain

import (
	"context"
)

// AuthProvider supplies the bearer token of the current session. ok is false
// while nobody is signed in.
type AuthProvider interface {
	Token() (token string, ok bool)
}

// NotificationAPI is the request-response surface used for snapshots and as
// the fallback channel for mutations.
type NotificationAPI interface {
	FetchNotifications(ctx context.Context) ([]Notification, error)
	FetchUnreadCount(ctx context.Context) (int, error)
	MarkAsRead(ctx context.Context, notificationID string) error
	MarkAllAsRead(ctx context.Context) error
	Delete(ctx context.Context, notificationID string) error
}

// RouteInspector reports whether the current navigation context belongs to
// the onboarding-like set where toasts are suppressed.
type RouteInspector interface {
	InOnboardingFlow() bool
}

// NotificationRepository is the persistence used by the development push server.
type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, notificationID, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}
