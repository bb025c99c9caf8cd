// Package cache owns the Redis connection shared by the Redis-backed
// dispense guard.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/vendo/config"
)

// Connect opens a client for REDIS_ADDR and verifies it with a ping.
func Connect(ctx context.Context) (*redis.Client, error) {
	return Open(ctx, config.RedisAddr(), config.RedisPassword())
}

// Open opens a client for addr and verifies it with a ping. The client is
// closed again if the ping fails.
func Open(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", addr, err)
	}
	return client, nil
}
