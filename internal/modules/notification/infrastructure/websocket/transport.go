package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// ErrHandshakeUnauthorized is returned by a Dialer when the server rejects
// the upgrade request with 401.
var ErrHandshakeUnauthorized = errors.New("push handshake rejected: unauthorized")

// Conn is the subset of *websocket.Conn used by the manager. ReadMessage is
// called from one goroutine and WriteMessage from another; Close and
// WriteControl may be called concurrently with both.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// GorillaDialer dials real WebSocket connections.
type GorillaDialer struct {
	Dialer *websocket.Dialer
}

func (d GorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %v", ErrHandshakeUnauthorized, err)
		}
		return nil, err
	}
	return conn, nil
}

// closeCode extracts the close code carried by a read error. Anything that
// is not a close frame counts as an abnormal closure.
func closeCode(err error) (int, bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return websocket.CloseAbnormalClosure, false
}
