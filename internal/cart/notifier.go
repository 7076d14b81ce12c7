package cart

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Abhijit5011/Electromart/pkg/logger"
)

// CountEvent is the message published on a user's cart channel.
type CountEvent struct {
	Count int64 `json:"count"`
}

type channelPublisher interface {
	CartChannel(userID string) string
	Publish(ctx context.Context, channel string, message any) (int64, error)
}

// RedisNotifier publishes cart badge counts on the owner's Redis channel.
type RedisNotifier struct {
	client channelPublisher
	logg   *logger.Logger
}

func NewRedisNotifier(client channelPublisher, logg *logger.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logg: logg}
}

// CartChanged never fails the caller. Publish errors are logged.
func (n *RedisNotifier) CartChanged(ctx context.Context, userID uuid.UUID, count int64) {
	if n == nil || n.client == nil {
		return
	}
	payload, err := json.Marshal(CountEvent{Count: count})
	if err != nil {
		return
	}
	if _, err := n.client.Publish(ctx, n.client.CartChannel(userID.String()), string(payload)); err != nil && n.logg != nil {
		n.logg.Warn(n.logg.WithField(ctx, "error", err.Error()), "cart change publish failed")
	}
}

// DecodeCountEvent parses a message received from a cart channel.
func DecodeCountEvent(payload string) (CountEvent, error) {
	var evt CountEvent
	err := json.Unmarshal([]byte(payload), &evt)
	return evt, err
}

type channelSubscriber interface {
	CartChannel(userID string) string
	Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error)
}

// RedisCountFeed turns a user's cart channel into a stream of decoded counts.
type RedisCountFeed struct {
	client channelSubscriber
	logg   *logger.Logger
}

func NewRedisCountFeed(client channelSubscriber, logg *logger.Logger) *RedisCountFeed {
	return &RedisCountFeed{client: client, logg: logg}
}

// Subscribe listens on the owner's channel until ctx ends or the returned closer runs.
// Undecodable messages are skipped.
func (f *RedisCountFeed) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan CountEvent, func() error, error) {
	sub, err := f.client.Subscribe(ctx, f.client.CartChannel(userID.String()))
	if err != nil {
		return nil, nil, err
	}

	out := make(chan CountEvent)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			evt, err := DecodeCountEvent(msg.Payload)
			if err != nil {
				if f.logg != nil {
					f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "cart count message dropped")
				}
				continue
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, sub.Close, nil
}
