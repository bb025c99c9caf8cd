package dispense

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vendo:dispense:"

// RedisGuard arms windows with SET NX PX, so the check and the arm are a
// single Redis command and expiry is handled by Redis itself.
type RedisGuard struct {
	client *redis.Client
	window time.Duration
}

// NewRedisGuard returns a guard backed by client. A zero window allows
// every request without touching Redis.
func NewRedisGuard(client *redis.Client, window time.Duration) *RedisGuard {
	return &RedisGuard{client: client, window: window}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, productID string) (Decision, error) {
	if g.window <= 0 {
		return Decision{Allowed: true}, nil
	}

	key := redisKeyPrefix + productID
	ok, err := g.client.SetNX(ctx, key, 1, g.window).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("dispense: arm %s: %w", productID, err)
	}
	if ok {
		return Decision{Allowed: true}, nil
	}

	ttl, err := g.client.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("dispense: ttl %s: %w", productID, err)
	}
	// The key can expire between SET and PTTL (-2) or lack a TTL (-1).
	// Either way the window is effectively over; report the smallest wait.
	if ttl <= 0 {
		ttl = time.Millisecond
	}
	return Decision{Remaining: ttl}, nil
}

func (g *RedisGuard) Driver() string { return "redis" }

// Close is a no-op; the client is owned by pkg/cache.
func (g *RedisGuard) Close() error { return nil }
