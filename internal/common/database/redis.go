// internal/common/database/redis.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant-agent/internal/common/config"

	"github.com/redis/go-redis/v9"
)

var ErrRedisAddressMissing = errors.New("REDIS_ADDRESS_MISSING")

// SessionRedis holds conversation contexts and per-conversation locks.
type SessionRedis struct {
	Client *redis.Client
}

func OpenSessionRedis(cfg config.RedisConfig, clientName string) (*SessionRedis, error) {
	if cfg.Address == "" {
		return nil, ErrRedisAddressMissing
	}

	return &SessionRedis{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})}, nil
}

func (r *SessionRedis) Ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *SessionRedis) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
