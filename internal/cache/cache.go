// Package cache keeps short-lived order snapshots in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// OrderCache stores order snapshots keyed by order ID.
type OrderCache interface {
	// Get returns the cached order, or nil when there is none.
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	Set(ctx context.Context, order *model.Order) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// redisClient is the part of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisOrderCache struct {
	client      redisClient
	serviceName string
	ttl         time.Duration
	logger      zerolog.Logger
}

// Connect creates a Redis client and verifies it answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisOrderCache creates a Redis-backed order cache.
func NewRedisOrderCache(client redisClient, serviceName string, ttl time.Duration, logger zerolog.Logger) OrderCache {
	return &redisOrderCache{
		client:      client,
		serviceName: serviceName,
		ttl:         ttl,
		logger:      logger.With().Str("component", "order-cache").Logger(),
	}
}

func (c *redisOrderCache) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached order: %w", err)
	}

	var order model.Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		c.logger.Warn().Err(err).Str("order_id", id.String()).Msg("dropping undecodable cached order")
		_ = c.Invalidate(ctx, id)
		return nil, nil
	}
	return &order, nil
}

func (c *redisOrderCache) Set(ctx context.Context, order *model.Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}
	if err := c.client.Set(ctx, c.key(order.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache order: %w", err)
	}
	return nil
}

func (c *redisOrderCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached order: %w", err)
	}
	return nil
}

func (c *redisOrderCache) key(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", c.serviceName, "order", id)
}

type noopOrderCache struct{}

// NewNoop returns a cache that never stores anything.
func NewNoop() OrderCache {
	return noopOrderCache{}
}

func (noopOrderCache) Get(context.Context, uuid.UUID) (*model.Order, error) { return nil, nil }
func (noopOrderCache) Set(context.Context, *model.Order) error              { return nil }
func (noopOrderCache) Invalidate(context.Context, uuid.UUID) error          { return nil }
