package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisRelay shares hub frames between instances over a Redis pub/sub channel.
// Every instance, the publisher included, receives each frame once through
// its subscription and delivers it to its own connections.
type RedisRelay struct {
	client  *redis.Client
	channel string
}

var _ Relay = (*RedisRelay)(nil)

func NewRedisRelay(client *redis.Client, channel string) *RedisRelay {
	return &RedisRelay{client: client, channel: channel}
}

func (r *RedisRelay) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("relay marshal error: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("relay publish error: %w", err)
	}
	return nil
}

// Run subscribes and hands every received envelope to deliver until ctx ends.
func (r *RedisRelay) Run(ctx context.Context, deliver func(Envelope)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("relay subscribe error: %w", err)
	}
	log.Printf("[relay] Subscribed to %s", r.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("[relay] Dropped malformed envelope: %v", err)
				continue
			}
			deliver(env)
		}
	}
}
