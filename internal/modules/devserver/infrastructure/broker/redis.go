// Package broker relays push frames between dev server instances so a user
// connected to one instance sees changes made through another.
package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "careerpush:notifications"

// LocalPublisher delivers a frame to the sockets held by this instance.
type LocalPublisher interface {
	SendToUser(userID string, message []byte)
}

type envelope struct {
	UserID  string          `json:"user_id"`
	Message json.RawMessage `json:"message"`
}

// RedisBroker publishes every frame on a Redis channel and delivers what it
// receives from that channel to the local hub, its own frames included.
type RedisBroker struct {
	client  *redis.Client
	local   LocalPublisher
	channel string
	log     *zap.Logger
}

func NewRedisBroker(client *redis.Client, local LocalPublisher, channel string, log *zap.Logger) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{
		client:  client,
		local:   local,
		channel: channel,
		log:     log.With(zap.String("component", "redis_broker"), zap.String("channel", channel)),
	}
}

func (b *RedisBroker) SendToUser(userID string, message []byte) {
	payload, err := json.Marshal(envelope{UserID: userID, Message: message})
	if err != nil {
		b.log.Error("cannot encode envelope", zap.Error(err))
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		// Redis is down; this instance's sockets still get the frame.
		b.log.Warn("publish failed, delivering locally", zap.String("user", userID), zap.Error(err))
		b.local.SendToUser(userID, message)
	}
}

// Run relays channel messages to the local hub until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("relaying push frames")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.deliver(msg.Payload)
		}
	}
}

func (b *RedisBroker) deliver(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil || env.UserID == "" {
		b.log.Warn("dropping malformed envelope", zap.Error(err))
		return
	}
	b.local.SendToUser(env.UserID, env.Message)
}
