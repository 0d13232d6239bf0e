package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/saransh1220/careerpush/internal/modules/notification"
	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/modules/notification/presentation"
	"github.com/saransh1220/careerpush/internal/shared/auth"
	"github.com/saransh1220/careerpush/internal/shared/eventloop"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/logger"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newListenCmd(e *env) *cobra.Command {
	var (
		token      string
		onboarding bool
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Connect as a client, render toasts and the badge to the log and accept commands on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				token = e.cfg.Session.AuthToken
			}
			if token == "" {
				return errors.New("a session token is required: pass --token or set AUTH_TOKEN")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := e.log.Named("listen")
			term := &terminal{log: log, onboarding: onboarding}
			loop := eventloop.NewSerial()

			module, err := notification.NewModule(e.cfg, notification.Deps{
				Auth:       auth.NewTokenStore(token),
				Routes:     term,
				Toasts:     term,
				Badge:      term,
				Navigator:  term,
				Loop:       loop,
				HTTPClient: &http.Client{Timeout: e.cfg.API.Timeout},
				Logger:     log,
				Metrics:    metrics.New(prometheus.NewRegistry()),
			})
			if err != nil {
				return err
			}

			go readCommands(ctx, cmd.InOrStdin(), loop, module, log)

			serveSession(ctx, loop, module.Session(), module.Connection(), shutdownGrace, log)
			return nil
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "session token (defaults to AUTH_TOKEN)")
	cmd.Flags().BoolVar(&onboarding, "onboarding", false, "pretend the user is inside the onboarding flow so toasts are suppressed")
	return cmd
}

const shutdownGrace = 5 * time.Second

type sessionLifecycle interface {
	Start()
	Stop()
}

type connectionDrainer interface {
	Wait(ctx context.Context) error
}

// serveSession runs the loop until ctx is done, then stops the session on the
// loop and gives the socket up to grace to send its normal closure.
func serveSession(ctx context.Context, loop *eventloop.Serial, session sessionLifecycle, conn connectionDrainer, grace time.Duration, log *zap.Logger) {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		loop.Run(loopCtx)
	}()
	loop.Post(session.Start)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := loop.Call(shutdownCtx, session.Stop); err != nil {
		log.Warn("session did not stop in time", zap.Error(err))
	} else if err := conn.Wait(shutdownCtx); err != nil {
		log.Warn("push connection did not close cleanly", zap.Error(err))
	}

	stopLoop()
	<-stopped
}

// terminal renders presentation output as log lines.
type terminal struct {
	log        *zap.Logger
	onboarding bool
}

func (t *terminal) ShowToast(n domain.Notification) {
	t.log.Info("toast",
		zap.String("id", n.ID),
		zap.String("category", string(n.Category)),
		zap.String("title", n.Title),
		zap.String("message", logger.Truncate(n.Message, 120)),
	)
}

func (t *terminal) HideToast(id string, reason presentation.DismissReason) {
	t.log.Debug("toast dismissed", zap.String("id", id), zap.String("reason", string(reason)))
}

func (t *terminal) RenderBadge(label string, tr presentation.Transition) {
	t.log.Info("badge", zap.String("label", label), zap.Stringer("transition", tr))
}

func (t *terminal) Open(actionURL string) {
	t.log.Info("navigate", zap.String("url", actionURL))
}

func (t *terminal) InOnboardingFlow() bool { return t.onboarding }

// readCommands turns stdin lines into operations posted to the loop.
func readCommands(ctx context.Context, in io.Reader, loop eventloop.Loop, m *notification.Module, log *zap.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		op, err := parseCommand(fields, m)
		if err != nil {
			log.Warn("bad command", zap.String("line", scanner.Text()), zap.Error(err))
			continue
		}
		loop.Post(op)
	}
}

func parseCommand(fields []string, m *notification.Module) (func(), error) {
	arg := func() (string, error) {
		if len(fields) < 2 {
			return "", fmt.Errorf("%s needs a notification id", fields[0])
		}
		return fields[1], nil
	}

	switch fields[0] {
	case "read":
		id, err := arg()
		if err != nil {
			return nil, err
		}
		return func() { m.Store().MarkAsRead(id) }, nil
	case "read-all":
		return func() { m.Store().MarkAllAsRead() }, nil
	case "delete":
		id, err := arg()
		if err != nil {
			return nil, err
		}
		return func() { m.Store().Delete(id) }, nil
	case "refresh":
		return func() { m.Store().Refresh() }, nil
	case "foreground":
		return func() { m.Session().Foreground() }, nil
	case "tap":
		return func() { m.Toaster().Tap() }, nil
	case "close":
		return func() { m.Toaster().Close() }, nil
	case "swipe":
		if len(fields) < 3 {
			return nil, errors.New("swipe needs distance and velocity")
		}
		distance, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, err
		}
		velocity, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, err
		}
		return func() { m.Toaster().Swipe(distance, velocity) }, nil
	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}
}
