// Package redis provides the Redis client lifecycle and the pub/sub
// prediction change feed built on it.
package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/sentrasec/sentra/internal/config"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// Connection manages the Redis client lifecycle.
type Connection struct {
	client *redis.Client
	logger logger.Logger
}

// NewConnection creates a Redis client from configuration and verifies
// connectivity with a ping.
func NewConnection(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*Connection, error) {
	if cfg == nil {
		return nil, errors.ErrInvalidRequest("redis configuration is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.ErrPersistence("redis ping", err)
	}

	log.Info(ctx, "Redis connection established", logger.String("addr", cfg.Addr))
	return &Connection{client: client, logger: log}, nil
}

// Client exposes the underlying client for feed construction.
func (c *Connection) Client() *redis.Client {
	return c.client
}

// HealthCheck verifies Redis connectivity for readiness probes.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.ErrPersistence("redis ping", err)
	}
	return nil
}

// Close releases the client's connection pool.
func (c *Connection) Close() error {
	return c.client.Close()
}
