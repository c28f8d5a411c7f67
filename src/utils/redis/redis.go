package redis_utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"portfolio/src/config"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisHandler encapsulates the Redis client used for cross-instance locking.
type RedisHandler struct {
	client *redis.Client
}

// NewRedisHandler initializes a new Redis handler and checks the connection.
func NewRedisHandler(ctx context.Context, cfg *config.Config) (*RedisHandler, error) {
	redisCfg := cfg.Databases.Redis
	options := &redis.Options{
		Addr:     redisCfg.Host + ":" + redisCfg.Port,
		Username: redisCfg.Username,
		Password: redisCfg.Password,
		DB:       redisCfg.Database,
	}
	if redisCfg.TLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisHandler{client: client}, nil
}

// AcquireLock sets key to a fresh token if it is not already set. The lock expires after ttl so a crashed
// holder cannot block others forever.
func (r *RedisHandler) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	acquired, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock removes key if token still owns it. It reports false when the lock had expired or changed hands.
func (r *RedisHandler) ReleaseLock(ctx context.Context, key, token string) (bool, error) {
	deleted, err := r.client.Eval(ctx, releaseScript, []string{key}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return deleted == 1, nil
}

// Exists checks if a key exists in Redis.
func (r *RedisHandler) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the Redis client connection.
func (r *RedisHandler) Close() error {
	return r.client.Close()
}
