package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	ri "github.com/redis/go-redis/v9"

	"CareOnboard/storage/redis"
)

const (
	// 空值缓存标识，防止不存在的 key 反复穿透到数据库
	emptyValueFlag = "__EMPTY__"
	emptyValueTTL  = 5 * time.Minute
	// TTL 随机抖动上限，防雪崩
	ttlJitterMax = 30 * time.Second
)

// ProtectedCache 带空值保护的 JSON 缓存
type ProtectedCache struct {
	keyPrefix string
	ttl       time.Duration
	emptyTTL  time.Duration
}

func NewProtectedCache(keyPrefix string, ttl time.Duration) *ProtectedCache {
	return &ProtectedCache{
		keyPrefix: keyPrefix,
		ttl:       ttl,
		emptyTTL:  emptyValueTTL,
	}
}

// Set value 为 nil 时写入空值标识
func (pc *ProtectedCache) Set(ctx context.Context, key string, value any) error {
	cacheKey := redis.Key(pc.keyPrefix, key)

	if value == nil {
		return redis.Client().Set(ctx, cacheKey, emptyValueFlag, pc.emptyTTL).Err()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return redis.Client().Set(ctx, cacheKey, data, pc.ttl+jitter()).Err()
}

// Get 返回 (命中, 是否空值, error)
func (pc *ProtectedCache) Get(ctx context.Context, key string, dest any) (hit bool, empty bool, err error) {
	cacheKey := redis.Key(pc.keyPrefix, key)

	data, err := redis.Client().Get(ctx, cacheKey).Result()
	if err != nil {
		if errors.Is(err, ri.Nil) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get cache: %w", err)
	}

	if data == emptyValueFlag {
		return true, true, nil
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, false, nil
}

func (pc *ProtectedCache) Delete(ctx context.Context, key string) error {
	return redis.Client().Del(ctx, redis.Key(pc.keyPrefix, key)).Err()
}

func jitter() time.Duration {
	return time.Duration(rand.Int63n(int64(ttlJitterMax)))
}

// 预定义的缓存实例
var (
	StaffProfileCache = NewProtectedCache("staff:profile", 1*time.Hour)
)
