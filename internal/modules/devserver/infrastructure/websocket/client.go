package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/saransh1220/careerpush/internal/modules/notification/infrastructure/protocol"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message or pong from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Session is the per-user behaviour behind the push endpoint.
type Session interface {
	// Greeting is the first frame sent to a new socket.
	Greeting(ctx context.Context, userID string) ([]byte, error)
	// HandleAction applies a client action and returns an optional reply
	// for the sending socket only.
	HandleAction(ctx context.Context, userID string, a protocol.ClientAction) ([]byte, error)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func (c *Client) addr() string {
	if c.conn == nil {
		return "test"
	}
	return c.conn.RemoteAddr().String()
}

// ServeWs upgrades the request and attaches the socket to userID.
func ServeWs(hub *Hub, session Session, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	greeting, err := session.Greeting(r.Context(), userID)
	if err != nil {
		hub.log.Error("cannot build greeting", zap.String("user", userID), zap.Error(err))
		closeWith(conn, websocket.CloseInternalServerErr, "internal error")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), userID: userID}
	client.send <- greeting
	hub.Register(client)

	go client.writePump()
	go client.readPump(session)
}

// RejectUnauthorized completes the upgrade and closes the socket with the
// unauthorized close code, so clients can tell it apart from network failures.
func RejectUnauthorized(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	closeWith(conn, domain.CloseUnauthorized, "unauthorized")
}

func closeWith(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

// readPump decodes client actions. Each action extends the read deadline,
// as do protocol-level pongs.
func (c *Client) readPump(session Session) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.log.Warn("websocket read error", zap.String("user", c.userID), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		action, err := protocol.DecodeAction(data)
		if err != nil {
			c.hub.log.Warn("dropping client frame", zap.String("user", c.userID), zap.Error(err))
			continue
		}

		reply, err := session.HandleAction(context.Background(), c.userID, action)
		if err != nil {
			c.hub.log.Warn("action failed", zap.String("user", c.userID), zap.String("action", string(action.Action())), zap.Error(err))
			continue
		}
		if reply != nil {
			c.hub.SendToClient(c, reply)
		}
	}
}

// writePump is the only writer on c.conn.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
