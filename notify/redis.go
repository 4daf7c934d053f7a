package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisChannel = "medlink:appointments"

// RedisNotifier publishes events as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  redis.Cmdable
	channel string
}

func NewRedisNotifier(client redis.Cmdable, channel string) *RedisNotifier {
	if channel == "" {
		channel = defaultRedisChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
