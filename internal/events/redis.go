package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisChannelPrefix = "restaurante:eventos:"

// NewRedis creates and validates a go-redis client connection.
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// redisPublishClient is the subset of *redis.Client used for publishing.
type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher publishes events on one Redis channel per topic so that
// every API instance can relay them to its own WebSocket clients.
type RedisPublisher struct {
	rdb redisPublishClient
}

func NewRedisPublisher(rdb redisPublishClient) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, RedisChannel(e.Topic), data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", e.Type, err)
	}
	return nil
}

// RedisChannel names the Redis channel for a topic.
func RedisChannel(topic string) string {
	return redisChannelPrefix + topic
}

// RunRedisRelay forwards every event published on the Redis channels to
// local until ctx is cancelled.
func RunRedisRelay(ctx context.Context, rdb *redis.Client, local Publisher) error {
	sub := rdb.PSubscribe(ctx, redisChannelPrefix+"*")
	defer sub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	log.Info().Str("pattern", redisChannelPrefix+"*").Msg("redis relay: subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("redis relay: shutting down")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := relayMessage(ctx, msg.Payload, local); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("redis relay: dropped message")
			}
		}
	}
}

func relayMessage(ctx context.Context, payload string, local Publisher) error {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if e.Topic == "" || e.Type == "" {
		return fmt.Errorf("event without topic or type")
	}
	return local.Publish(ctx, e)
}
