package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fusioncli/internal/config"
	"fusioncli/internal/phase"
)

// Transition is one observed change of the live phase.
type Transition struct {
	From    phase.Phase   `json:"from"`
	To      phase.Phase   `json:"to"`
	At      time.Time     `json:"at"`
	Context phase.Context `json:"context"`
}

// PhasePublisher receives phase transitions.
type PhasePublisher interface {
	PublishTransition(ctx context.Context, t Transition) error
}

// redisPublisher is the subset of *redis.Client used for publishing.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPhasePublisher publishes transitions as JSON on a pub/sub channel.
type RedisPhasePublisher struct {
	client  redisPublisher
	channel string
}

// NewRedisPhasePublisher wraps a Redis client.
func NewRedisPhasePublisher(client redisPublisher, channel string) *RedisPhasePublisher {
	if channel == "" {
		channel = config.DefaultRedisChannel
	}
	return &RedisPhasePublisher{client: client, channel: channel}
}

// PublishTransition implements PhasePublisher.
func (p *RedisPhasePublisher) PublishTransition(ctx context.Context, t Transition) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transition: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

// OpenRedis connects and pings the configured server.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
