// Package pubsub provides the process-wide fan-out publisher backed by
// Redis Pub/Sub. Every server instance subscribes to the same channel and
// delivers messages to whichever client connections it holds, so a publish
// here reaches clients regardless of which process they are attached to.
package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Channel is the single Pub/Sub channel all room-scoped messages go through.
// Routing happens on the envelope's "to" field, not on the channel name.
const Channel = "message"

// Config holds connection parameters for the Redis publisher.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisPublisher wraps a go-redis client as a write-only publish handle.
// Publish is safe for concurrent use; one instance is constructed at process
// start and injected wherever fan-out is needed.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher connects to Redis and verifies connectivity with a ping.
func NewRedisPublisher(ctx context.Context, cfg Config) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &RedisPublisher{rdb: rdb}, nil
}

// Publish sends a raw payload to the shared fan-out channel.
func (p *RedisPublisher) Publish(ctx context.Context, payload []byte) error {
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
