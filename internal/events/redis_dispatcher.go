package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDispatcher fans events out to every process through a Redis pub/sub channel.
// Handlers are registered on a local dispatcher; Run relays channel messages to it.
type RedisDispatcher struct {
	client  *redis.Client
	channel string
	local   Dispatcher
	logger  *zap.Logger
}

// NewRedisDispatcher wraps local so that publishes travel through channel.
func NewRedisDispatcher(client *redis.Client, channel string, local Dispatcher, logger *zap.Logger) *RedisDispatcher {
	return &RedisDispatcher{client: client, channel: channel, local: local, logger: logger}
}

// Publish sends the event to Redis. If Redis rejects it the event is still delivered
// to handlers in this process.
func (d *RedisDispatcher) Publish(ctx context.Context, event Event) error {
	body, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	if err := d.client.Publish(ctx, d.channel, body).Err(); err != nil {
		d.logger.Warn("redis publish failed; delivering locally",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return d.local.Publish(ctx, event)
	}
	return nil
}

// Subscribe registers handler on the local dispatcher.
func (d *RedisDispatcher) Subscribe(eventType EventType, handler EventHandler) func() {
	return d.local.Subscribe(eventType, handler)
}

// Run relays channel messages to local handlers until ctx is done.
func (d *RedisDispatcher) Run(ctx context.Context) error {
	pubsub := d.client.Subscribe(ctx, d.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", d.channel, err)
	}
	d.logger.Info("relaying ticket events", zap.String("channel", d.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				d.logger.Warn("dropping malformed event", zap.Error(err))
				continue
			}
			_ = d.local.Publish(ctx, event)
		}
	}
}

// EncodeEvent serializes an event for the wire.
func EncodeEvent(event Event) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return body, nil
}

// DecodeEvent parses an event produced by EncodeEvent.
func DecodeEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type")
	}
	return event, nil
}
