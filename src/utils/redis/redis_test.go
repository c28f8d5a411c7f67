package redis_utils_test

import (
	"context"
	"testing"
	"time"

	"portfolio/src/config"
	redis_utils "portfolio/src/utils/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) (*redis_utils.RedisHandler, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Databases.Redis = config.RedisConfig{Host: server.Host(), Port: server.Port()}

	handler, err := redis_utils.NewRedisHandler(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handler.Close() })
	return handler, server
}

func TestRedisLock(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire fails until release", func(t *testing.T) {
		handler, _ := newHandler(t)

		token, ok, err := handler.AcquireLock(ctx, "lock:run", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEmpty(t, token)

		_, ok, err = handler.AcquireLock(ctx, "lock:run", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		released, err := handler.ReleaseLock(ctx, "lock:run", token)
		require.NoError(t, err)
		assert.True(t, released)

		exists, err := handler.Exists(ctx, "lock:run")
		require.NoError(t, err)
		assert.False(t, exists)

		_, ok, err = handler.AcquireLock(ctx, "lock:run", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("release with a stale token keeps the lock", func(t *testing.T) {
		handler, _ := newHandler(t)

		_, ok, err := handler.AcquireLock(ctx, "lock:run", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		released, err := handler.ReleaseLock(ctx, "lock:run", "someone-else")
		require.NoError(t, err)
		assert.False(t, released)

		exists, err := handler.Exists(ctx, "lock:run")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("lock expires", func(t *testing.T) {
		handler, server := newHandler(t)

		_, ok, err := handler.AcquireLock(ctx, "lock:run", time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		server.FastForward(2 * time.Second)

		_, ok, err = handler.AcquireLock(ctx, "lock:run", time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestNewRedisHandlerUnreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Databases.Redis = config.RedisConfig{Host: "127.0.0.1", Port: "1"}

	_, err := redis_utils.NewRedisHandler(context.Background(), cfg)
	assert.Error(t, err)
}
