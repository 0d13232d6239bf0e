package websocket

import (
	"sync"

	"go.uber.org/zap"
)

type UnicastMessage struct {
	UserID  string
	Message []byte
}

type directMessage struct {
	client  *Client
	message []byte
}

// Hub maintains the set of active clients and fans messages out to every
// socket of one user.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Unicast messages
	unicast chan UnicastMessage

	// Replies addressed to a single socket.
	direct chan directMessage

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Channel to signal termination
	stop     chan struct{}
	stopOnce sync.Once

	log *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		unicast:    make(chan UnicastMessage),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),

		clients: make(map[*Client]bool),
		stop:    make(chan struct{}),
		log:     log.With(zap.String("component", "hub")),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.log.Info("client registered", zap.String("addr", client.addr()), zap.String("user", client.userID))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.log.Info("client unregistered", zap.String("addr", client.addr()), zap.String("user", client.userID))
			}
		case msg := <-h.unicast:
			delivered := 0
			for client := range h.clients {
				if client.userID != msg.UserID {
					continue
				}
				select {
				case client.send <- msg.Message:
					delivered++
				default:
					h.log.Warn("client send buffer full, dropping client", zap.String("user", client.userID))
					h.drop(client)
				}
			}
			h.log.Debug("unicast delivered", zap.String("user", msg.UserID), zap.Int("sockets", delivered))
		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; !ok {
				continue
			}
			select {
			case msg.client.send <- msg.message:
			default:
				h.drop(msg.client)
			}
		case <-h.stop:
			h.log.Info("stopping hub")
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stop:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

// SendToUser delivers message to every socket of userID.
func (h *Hub) SendToUser(userID string, message []byte) {
	select {
	case h.unicast <- UnicastMessage{UserID: userID, Message: message}:
	case <-h.stop:
	}
}

// SendToClient delivers message to a single registered socket.
func (h *Hub) SendToClient(client *Client, message []byte) {
	select {
	case h.direct <- directMessage{client: client, message: message}:
	case <-h.stop:
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
