package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHub_SendToUser_OnlyMatchingClientsReceive(t *testing.T) {
	h := NewHub(zap.NewNop())
	target := &Client{send: make(chan []byte, 1), userID: "u-1"}
	second := &Client{send: make(chan []byte, 1), userID: "u-1"}
	other := &Client{send: make(chan []byte, 1), userID: "u-2"}
	h.clients[target] = true
	h.clients[second] = true
	h.clients[other] = true

	go h.Run()
	defer h.Stop()

	h.SendToUser("u-1", []byte("only-target"))

	for _, c := range []*Client{target, second} {
		select {
		case msg := <-c.send:
			assert.Equal(t, "only-target", string(msg))
		case <-time.After(2 * time.Second):
			t.Fatal("target did not receive message")
		}
	}

	select {
	case <-other.send:
		t.Fatal("non-target client should not receive unicast")
	default:
	}
}

func TestHub_SendToClient(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := &Client{send: make(chan []byte, 1), userID: "u-1"}
	b := &Client{send: make(chan []byte, 1), userID: "u-1"}
	h.clients[a] = true
	h.clients[b] = true

	go h.Run()
	defer h.Stop()

	h.SendToClient(a, []byte("pong"))
	select {
	case msg := <-a.send:
		assert.Equal(t, "pong", string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("expected direct message")
	}
	assert.Len(t, b.send, 0)
}

func TestHub_RegisterUnregisterAndStop(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	c := &Client{send: make(chan []byte, 1), userID: "u-1"}
	h.Register(c)
	h.Unregister(c)

	_, open := <-c.send
	assert.False(t, open)

	d := &Client{send: make(chan []byte, 1), userID: "u-2"}
	h.Register(d)
	h.Stop()
	select {
	case _, open := <-d.send:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not close client")
	}

	// Calls after Stop never block.
	h.SendToUser("u-2", []byte("late"))
	h.Register(&Client{send: make(chan []byte, 1)})
	h.Stop()
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := NewHub(zap.NewNop())
	slow := &Client{send: make(chan []byte), userID: "u-1"}
	h.clients[slow] = true

	go h.Run()
	defer h.Stop()

	h.SendToUser("u-1", []byte("x"))
	select {
	case _, open := <-slow.send:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("slow client not dropped")
	}
}
