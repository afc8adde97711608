package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LocalEmitter delivers an event to the sessions held by this process.
type LocalEmitter interface {
	EmitToUser(ctx context.Context, userID int64, event string, payload interface{}) error
}

type envelope struct {
	UserID int64           `json:"userId"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// Broadcaster publishes events on a Redis channel so that every instance can
// deliver them to its own sessions.
type Broadcaster struct {
	client  *goRedis.Client
	channel string
	local   LocalEmitter
	logger  *zap.Logger
}

func NewBroadcaster(client *goRedis.Client, channel string, local LocalEmitter, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		client:  client,
		channel: channel,
		local:   local,
		logger:  logger.Named("redis_broadcaster"),
	}
}

func (b *Broadcaster) EmitToUser(ctx context.Context, userID int64, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(envelope{UserID: userID, Event: event, Data: data})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, msg).Err(); err != nil {
		return fmt.Errorf("publishing %s for user %d: %w", event, userID, err)
	}
	return nil
}

// Run relays channel messages to the local emitter until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}
	b.logger.Info("subscribed", zap.String("channel", b.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.relay(ctx, msg.Payload)
		}
	}
}

func (b *Broadcaster) relay(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil || env.UserID <= 0 || env.Event == "" {
		b.logger.Warn("discarding malformed realtime message", zap.Error(err))
		return
	}
	if err := b.local.EmitToUser(ctx, env.UserID, env.Event, env.Data); err != nil {
		b.logger.Warn("local delivery failed", zap.Int64("user_id", env.UserID), zap.Error(err))
	}
}
