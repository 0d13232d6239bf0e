// Package protocol is the push-channel wire format: one JSON object per text
// frame, client actions tagged by "action" and server messages tagged by "type".
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
)

var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownMessageType = errors.New("unknown message type")
)

type MessageType string

const (
	TypeConnected            MessageType = "connected"
	TypeNewNotification      MessageType = "new_notification"
	TypeNotificationRead     MessageType = "notification_read"
	TypeAllNotificationsRead MessageType = "all_notifications_read"
	TypeNotificationDeleted  MessageType = "notification_deleted"
	TypeUnreadCountUpdate    MessageType = "unread_count_update"
	TypePong                 MessageType = "pong"
)

type ActionType string

const (
	ActionMarkRead    ActionType = "mark_read"
	ActionMarkAllRead ActionType = "mark_all_read"
	ActionPing        ActionType = "ping"
)

// ServerMessage is implemented only by the message types of this package.
type ServerMessage interface {
	Type() MessageType
	serverMessage()
}

type Connected struct{ UnreadCount int }
type NewNotification struct{ Notification domain.Notification }
type NotificationRead struct{ NotificationID string }
type AllNotificationsRead struct{}
type NotificationDeleted struct{ NotificationID string }
type UnreadCountUpdate struct{ UnreadCount int }
type Pong struct{}

func (Connected) Type() MessageType            { return TypeConnected }
func (NewNotification) Type() MessageType      { return TypeNewNotification }
func (NotificationRead) Type() MessageType     { return TypeNotificationRead }
func (AllNotificationsRead) Type() MessageType { return TypeAllNotificationsRead }
func (NotificationDeleted) Type() MessageType  { return TypeNotificationDeleted }
func (UnreadCountUpdate) Type() MessageType    { return TypeUnreadCountUpdate }
func (Pong) Type() MessageType                 { return TypePong }

func (Connected) serverMessage()            {}
func (NewNotification) serverMessage()      {}
func (NotificationRead) serverMessage()     {}
func (AllNotificationsRead) serverMessage() {}
func (NotificationDeleted) serverMessage()  {}
func (UnreadCountUpdate) serverMessage()    {}
func (Pong) serverMessage()                 {}

// ClientAction is implemented only by the action types of this package.
type ClientAction interface {
	Action() ActionType
	clientAction()
}

type MarkRead struct{ NotificationID string }
type MarkAllRead struct{}
type Ping struct{}

func (MarkRead) Action() ActionType    { return ActionMarkRead }
func (MarkAllRead) Action() ActionType { return ActionMarkAllRead }
func (Ping) Action() ActionType        { return ActionPing }

func (MarkRead) clientAction()    {}
func (MarkAllRead) clientAction() {}
func (Ping) clientAction()        {}

// Listener receives decoded server messages, one method per kind.
type Listener interface {
	OnConnected(unreadCount int)
	OnNewNotification(n domain.Notification)
	OnNotificationRead(notificationID string)
	OnAllNotificationsRead()
	OnNotificationDeleted(notificationID string)
	OnUnreadCountUpdate(unreadCount int)
	OnPong()
}

type actionFrame struct {
	Action         ActionType `json:"action"`
	NotificationID string     `json:"notification_id,omitempty"`
}

type messageFrame struct {
	Type           MessageType          `json:"type"`
	UnreadCount    *int                 `json:"unread_count,omitempty"`
	Notification   *domain.Notification `json:"notification,omitempty"`
	NotificationID string               `json:"notification_id,omitempty"`
}

// Encode serializes a client action.
func Encode(a ClientAction) ([]byte, error) {
	switch v := a.(type) {
	case MarkRead:
		if v.NotificationID == "" {
			return nil, fmt.Errorf("%w: mark_read without notification_id", ErrMalformedMessage)
		}
		return json.Marshal(actionFrame{Action: ActionMarkRead, NotificationID: v.NotificationID})
	case MarkAllRead:
		return json.Marshal(actionFrame{Action: ActionMarkAllRead})
	case Ping:
		return json.Marshal(actionFrame{Action: ActionPing})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessageType, a)
	}
}

// Decode parses and validates one inbound server frame.
func Decode(data []byte) (ServerMessage, error) {
	var f messageFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch f.Type {
	case TypeConnected:
		n, err := count(f)
		if err != nil {
			return nil, err
		}
		return Connected{UnreadCount: n}, nil
	case TypeNewNotification:
		if f.Notification == nil || f.Notification.ID == "" {
			return nil, fmt.Errorf("%w: new_notification without notification id", ErrMalformedMessage)
		}
		return NewNotification{Notification: *f.Notification}, nil
	case TypeNotificationRead:
		if f.NotificationID == "" {
			return nil, fmt.Errorf("%w: notification_read without notification_id", ErrMalformedMessage)
		}
		return NotificationRead{NotificationID: f.NotificationID}, nil
	case TypeAllNotificationsRead:
		return AllNotificationsRead{}, nil
	case TypeNotificationDeleted:
		if f.NotificationID == "" {
			return nil, fmt.Errorf("%w: notification_deleted without notification_id", ErrMalformedMessage)
		}
		return NotificationDeleted{NotificationID: f.NotificationID}, nil
	case TypeUnreadCountUpdate:
		n, err := count(f)
		if err != nil {
			return nil, err
		}
		return UnreadCountUpdate{UnreadCount: n}, nil
	case TypePong:
		return Pong{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, f.Type)
	}
}

func count(f messageFrame) (int, error) {
	if f.UnreadCount == nil || *f.UnreadCount < 0 {
		return 0, fmt.Errorf("%w: %s requires a non-negative unread_count", ErrMalformedMessage, f.Type)
	}
	return *f.UnreadCount, nil
}

// Dispatch hands msg to the matching Listener method. It reports false for a
// message type it does not know.
func Dispatch(msg ServerMessage, l Listener) bool {
	switch m := msg.(type) {
	case Connected:
		l.OnConnected(m.UnreadCount)
	case NewNotification:
		l.OnNewNotification(m.Notification)
	case NotificationRead:
		l.OnNotificationRead(m.NotificationID)
	case AllNotificationsRead:
		l.OnAllNotificationsRead()
	case NotificationDeleted:
		l.OnNotificationDeleted(m.NotificationID)
	case UnreadCountUpdate:
		l.OnUnreadCountUpdate(m.UnreadCount)
	case Pong:
		l.OnPong()
	default:
		return false
	}
	return true
}

// EncodeMessage serializes a server message. Used by the development server.
func EncodeMessage(msg ServerMessage) ([]byte, error) {
	f := messageFrame{Type: msg.Type()}
	switch m := msg.(type) {
	case Connected:
		f.UnreadCount = &m.UnreadCount
	case NewNotification:
		f.Notification = &m.Notification
	case NotificationRead:
		f.NotificationID = m.NotificationID
	case NotificationDeleted:
		f.NotificationID = m.NotificationID
	case UnreadCountUpdate:
		f.UnreadCount = &m.UnreadCount
	case AllNotificationsRead, Pong:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessageType, msg)
	}
	return json.Marshal(f)
}

// DecodeAction parses one inbound client frame. Used by the development server.
func DecodeAction(data []byte) (ClientAction, error) {
	var f actionFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch f.Action {
	case ActionMarkRead:
		if f.NotificationID == "" {
			return nil, fmt.Errorf("%w: mark_read without notification_id", ErrMalformedMessage)
		}
		return MarkRead{NotificationID: f.NotificationID}, nil
	case ActionMarkAllRead:
		return MarkAllRead{}, nil
	case ActionPing:
		return Ping{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing action", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, f.Action)
	}
}
