package domain

import (
	"errors"
	"time"
)

type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeInfo, NotificationTypeSuccess, NotificationTypeWarning, NotificationTypeError:
		return true
	}
	return false
}

// Category is an open set; unknown values are kept as-is and rendered with a
// generic icon.
type Category string

const (
	CategoryJob          Category = "job"
	CategoryApplication  Category = "application"
	CategoryInterview    Category = "interview"
	CategoryCV           Category = "cv"
	CategoryMission      Category = "mission"
	CategorySubscription Category = "subscription"
	CategoryScore        Category = "score"
	CategorySystem       Category = "system"
)

type Notification struct {
	ID       string           `json:"id" db:"id"`
	UserID   string           `json:"-" db:"user_id"`
	Type     NotificationType `json:"type" db:"type"`
	Category Category         `json:"category" db:"category"`
	Title    string           `json:"title" db:"title"`
	Message  string           `json:"message" db:"message"`
	IsRead   bool             `json:"is_read" db:"is_read"`
	ReadAt   *time.Time       `json:"read_at,omitempty" db:"read_at"`

	ActionURL      *string `json:"action_url,omitempty" db:"action_url"`
	JobID          *string `json:"job_id,omitempty" db:"job_id"`
	ApplicationID  *string `json:"application_id,omitempty" db:"application_id"`
	MissionID      *string `json:"mission_id,omitempty" db:"mission_id"`
	SubscriptionID *string `json:"subscription_id,omitempty" db:"subscription_id"`
	ScoreID        *string `json:"score_id,omitempty" db:"score_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MarkRead flips the notification to read. It never resets a read entry.
func (n *Notification) MarkRead(at time.Time) bool {
	if n.IsRead {
		return false
	}
	n.IsRead = true
	n.ReadAt = &at
	return true
}

// CountUnread returns the number of entries with IsRead == false.
func CountUnread(items []Notification) int {
	count := 0
	for i := range items {
		if !items[i].IsRead {
			count++
		}
	}
	return count
}

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnauthorized         = errors.New("unauthorized")
)
