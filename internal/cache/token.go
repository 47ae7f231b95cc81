package cache

import (
	"context"
	"time"

	"CareOnboard/storage/redis"
)

const (
	tokenPrefix = "token"
)

// SetRefreshToken 存储 refresh token
// Key: cob:token:refresh:{uid}
func SetRefreshToken(ctx context.Context, uid, refreshToken string, ttl time.Duration) error {
	key := redis.Key(tokenPrefix, "refresh", uid)
	return redis.Client().Set(ctx, key, refreshToken, ttl).Err()
}

func GetRefreshToken(ctx context.Context, uid string) (string, error) {
	key := redis.Key(tokenPrefix, "refresh", uid)
	return redis.Client().Get(ctx, key).Result()
}

// DeleteRefreshToken 登出时删除
func DeleteRefreshToken(ctx context.Context, uid string) error {
	key := redis.Key(tokenPrefix, "refresh", uid)
	return redis.Client().Del(ctx, key).Err()
}

// ValidateRefreshTokenExists 检查 refresh token 是否存在且匹配
func ValidateRefreshTokenExists(ctx context.Context, uid, refreshToken string) bool {
	storedToken, err := GetRefreshToken(ctx, uid)
	if err != nil {
		return false
	}
	return storedToken == refreshToken
}

// RefreshTokenStore 供 service 注入的包装
type RefreshTokenStore struct{}

func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{}
}

func (RefreshTokenStore) Set(ctx context.Context, uid, token string, ttl time.Duration) error {
	return SetRefreshToken(ctx, uid, token, ttl)
}

func (RefreshTokenStore) Matches(ctx context.Context, uid, token string) bool {
	return ValidateRefreshTokenExists(ctx, uid, token)
}

func (RefreshTokenStore) Delete(ctx context.Context, uid string) error {
	return DeleteRefreshToken(ctx, uid)
}
