package services

import (
	"context"
	"sync"
	"time"

	"portfolio/src/utils"
)

// RunLock serializes reconciliation runs. TryAcquire never waits: it returns ErrRunInProgress when another run
// holds the lock.
type RunLock interface {
	TryAcquire(ctx context.Context) (release func(), err error)
}

// LocalRunLock guards runs within a single process.
type LocalRunLock struct {
	mu sync.Mutex
}

func NewLocalRunLock() *LocalRunLock {
	return &LocalRunLock{}
}

func (l *LocalRunLock) TryAcquire(ctx context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}

type redisLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) (bool, error)
}

// RedisRunLock guards runs across every worker sharing the same Redis.
type RedisRunLock struct {
	locker redisLocker
	key    string
	ttl    time.Duration
}

func NewRedisRunLock(locker redisLocker, key string, ttl time.Duration) *RedisRunLock {
	return &RedisRunLock{locker: locker, key: key, ttl: ttl}
}

func (l *RedisRunLock) TryAcquire(ctx context.Context) (func(), error) {
	token, ok, err := l.locker.AcquireLock(ctx, l.key, l.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			released, err := l.locker.ReleaseLock(context.WithoutCancel(ctx), l.key, token)
			if err != nil || !released {
				utils.LoggerFromContext(ctx).WithError(err).WithField("key", l.key).
					Warn("Run lock was not released, it will expire on its own")
			}
		})
	}, nil
}
