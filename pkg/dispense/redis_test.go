package dispense

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisGuard(t *testing.T, window time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisGuard(client, window), mr
}

func TestRedisGuardRejectsWithinWindow(t *testing.T) {
	g, mr := newRedisGuard(t, 5*time.Second)
	ctx := context.Background()

	d, err := g.TryAcquire(ctx, "coke")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, mr.Exists("vendo:dispense:coke"))

	mr.FastForward(2 * time.Second)
	d, err = g.TryAcquire(ctx, "coke")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 3*time.Second, d.Remaining)

	d, err = g.TryAcquire(ctx, "pepsi")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	mr.FastForward(3 * time.Second)
	d, err = g.TryAcquire(ctx, "coke")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisGuardZeroWindowSkipsRedis(t *testing.T) {
	g, mr := newRedisGuard(t, 0)

	d, err := g.TryAcquire(context.Background(), "coke")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Empty(t, mr.Keys())
}

func TestRedisGuardReportsConnectionErrors(t *testing.T) {
	g, mr := newRedisGuard(t, time.Second)
	mr.Close()

	_, err := g.TryAcquire(context.Background(), "coke")
	assert.Error(t, err)
	assert.Equal(t, "redis", g.Driver())
}
