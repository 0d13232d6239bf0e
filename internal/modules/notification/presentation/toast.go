// Package presentation decides when a toast is shown and how the unread
// badge animates. Rendering is left to the sinks.
package presentation

import (
	"time"

	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/shared/scheduler"
	"go.uber.org/zap"
)

type DismissReason string

const (
	DismissTimeout    DismissReason = "timeout"
	DismissTap        DismissReason = "tap"
	DismissClose      DismissReason = "close"
	DismissSwipe      DismissReason = "swipe"
	DismissSuperseded DismissReason = "superseded"
	DismissRemoved    DismissReason = "removed"
)

type ToastSink interface {
	ShowToast(n domain.Notification)
	HideToast(id string, reason DismissReason)
}

// Reader marks a notification read when its toast is tapped.
type Reader interface {
	MarkAsRead(id string)
}

// Navigator opens the screen behind a notification's action URL.
type Navigator interface {
	Open(actionURL string)
}

type ToastConfig struct {
	Duration time.Duration
	// A toast is swiped away when dragged up at least SwipeDistance points
	// or released faster than SwipeVelocity points per millisecond.
	SwipeDistance float64
	SwipeVelocity float64
}

// Toaster holds at most one toast candidate. A new arrival replaces the
// current toast; replaced toasts are not queued.
type Toaster struct {
	cfg    ToastConfig
	sched  scheduler.Scheduler
	routes domain.RouteInspector
	sink   ToastSink
	reader Reader
	nav    Navigator
	log    *zap.Logger

	current *domain.Notification
	timer   scheduler.Handle
}

func NewToaster(cfg ToastConfig, sched scheduler.Scheduler, routes domain.RouteInspector, sink ToastSink, reader Reader, nav Navigator, log *zap.Logger) *Toaster {
	return &Toaster{
		cfg:    cfg,
		sched:  sched,
		routes: routes,
		sink:   sink,
		reader: reader,
		nav:    nav,
		log:    log.With(zap.String("component", "toast")),
	}
}

// Current returns the notification on screen, if any.
func (t *Toaster) Current() (domain.Notification, bool) {
	if t.current == nil {
		return domain.Notification{}, false
	}
	return *t.current, true
}

func (t *Toaster) NotificationArrived(n domain.Notification) {
	if t.routes.InOnboardingFlow() {
		t.log.Debug("onboarding in progress, toast suppressed", zap.String("id", n.ID))
		return
	}
	if t.current != nil {
		t.dismiss(DismissSuperseded)
	}

	t.current = &n
	t.sink.ShowToast(n)
	t.timer = t.sched.After(t.cfg.Duration, func() {
		t.timer = nil
		t.dismiss(DismissTimeout)
	})
}

// NotificationsChanged hides the toast once its notification is gone.
func (t *Toaster) NotificationsChanged(items []domain.Notification, _ int) {
	if t.current == nil {
		return
	}
	for i := range items {
		if items[i].ID == t.current.ID {
			return
		}
	}
	t.dismiss(DismissRemoved)
}

// Tap dismisses the toast, marks its notification read and follows its
// action URL. It is a no-op while onboarding.
func (t *Toaster) Tap() {
	if t.current == nil || t.routes.InOnboardingFlow() {
		return
	}
	n := *t.current
	t.dismiss(DismissTap)

	if !n.IsRead {
		t.reader.MarkAsRead(n.ID)
	}
	if n.ActionURL != nil && *n.ActionURL != "" && t.nav != nil {
		t.nav.Open(*n.ActionURL)
	}
}

func (t *Toaster) Close() {
	if t.current != nil {
		t.dismiss(DismissClose)
	}
}

// Swipe reports whether an upward drag of distance points released at
// velocity points/ms dismissed the toast.
func (t *Toaster) Swipe(distance, velocity float64) bool {
	if t.current == nil {
		return false
	}
	if distance < t.cfg.SwipeDistance && velocity < t.cfg.SwipeVelocity {
		return false
	}
	t.dismiss(DismissSwipe)
	return true
}

func (t *Toaster) dismiss(reason DismissReason) {
	scheduler.Stop(&t.timer)
	id := t.current.ID
	t.current = nil
	t.sink.HideToast(id, reason)
}
