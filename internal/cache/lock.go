package cache

import (
	"context"
	"time"

	"CareOnboard/storage/redis"
)

// 基于 SetNX 的分布式锁，同一引导会话的读改写串行执行
const (
	lockPrefix = "lock"
)

func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullkey := redis.Key(lockPrefix, key)

	return redis.Client().SetNX(ctx, fullkey, 1, ttl).Result()
}

func Unlock(ctx context.Context, key string) error {
	fullkey := redis.Key(lockPrefix, key)

	return redis.Client().Del(ctx, fullkey).Err()
}

// SessionLocker 供 service 注入的包装
type SessionLocker struct{}

func NewSessionLocker() *SessionLocker {
	return &SessionLocker{}
}

func (SessionLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return TryLock(ctx, key, ttl)
}

func (SessionLocker) Unlock(ctx context.Context, key string) error {
	return Unlock(ctx, key)
}
