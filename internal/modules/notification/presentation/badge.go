package presentation

import (
	"strconv"

	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
)

const badgeCap = 99

// Label renders an unread count for the badge: empty for zero, capped at 99+.
func Label(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > badgeCap:
		return strconv.Itoa(badgeCap) + "+"
	default:
		return strconv.Itoa(count)
	}
}

type Transition int

const (
	TransitionNone Transition = iota
	TransitionAppear
	TransitionDisappear
	TransitionBounce
)

func (t Transition) String() string {
	switch t {
	case TransitionAppear:
		return "appear"
	case TransitionDisappear:
		return "disappear"
	case TransitionBounce:
		return "bounce"
	default:
		return "none"
	}
}

// NextTransition picks the animation for a change from prev to next.
func NextTransition(prev, next int) Transition {
	switch {
	case prev <= 0 && next > 0:
		return TransitionAppear
	case prev > 0 && next <= 0:
		return TransitionDisappear
	case next > prev:
		return TransitionBounce
	default:
		return TransitionNone
	}
}

type BadgeSink interface {
	RenderBadge(label string, t Transition)
}

// Badge remembers only the previous count.
type Badge struct {
	sink BadgeSink
	prev int
}

func NewBadge(sink BadgeSink) *Badge {
	return &Badge{sink: sink}
}

// Update renders count and returns the transition used.
func (b *Badge) Update(count int) Transition {
	t := NextTransition(b.prev, count)
	b.prev = count
	if t != TransitionNone || count > 0 {
		b.sink.RenderBadge(Label(count), t)
	}
	return t
}

func (b *Badge) NotificationsChanged(_ []domain.Notification, unread int) {
	if unread == b.prev {
		return
	}
	b.Update(unread)
}

func (b *Badge) NotificationArrived(domain.Notification) {}
