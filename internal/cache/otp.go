package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ri "github.com/redis/go-redis/v9"

	"CareOnboard/internal/model"
	"CareOnboard/storage/redis"
)

// 验证事务：cob:otp:txn:{id}
// 手机号最新事务：cob:otp:latest:{phoneHash}
// 每日发送计数：cob:otp:count:{phoneHash}:{date}，次日零点过期
const (
	otpPrefix = "otp"
)

// OTPStore 基于 redis 的验证事务存储
type OTPStore struct{}

func NewOTPStore() *OTPStore {
	return &OTPStore{}
}

func txnKey(id string) string {
	return redis.Key(otpPrefix, "txn", id)
}

func (s *OTPStore) SaveTransaction(ctx context.Context, txn *model.OTPTransaction, ttl time.Duration) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	return redis.Client().Set(ctx, txnKey(txn.ID), data, ttl).Err()
}

func (s *OTPStore) GetTransaction(ctx context.Context, id string) (*model.OTPTransaction, error) {
	data, err := redis.Client().Get(ctx, txnKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, ri.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var txn model.OTPTransaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	attempts, err := redis.Client().Get(ctx, txnKey(id)+":attempts").Int()
	if err != nil && !errors.Is(err, ri.Nil) {
		return nil, err
	}
	txn.Attempts = attempts
	return &txn, nil
}

func (s *OTPStore) DeleteTransaction(ctx context.Context, id string) error {
	return redis.Client().Del(ctx, txnKey(id), txnKey(id)+":attempts").Err()
}

// IncrAttempts 校验次数单独计数，避免读改写竞争
func (s *OTPStore) IncrAttempts(ctx context.Context, id string) (int, error) {
	key := txnKey(id) + ":attempts"

	pipe := redis.Client().TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *OTPStore) SwapLatest(ctx context.Context, phoneHash, id string, ttl time.Duration) (string, error) {
	key := redis.Key(otpPrefix, "latest", phoneHash)

	prev, err := redis.Client().SetArgs(ctx, key, id, ri.SetArgs{TTL: ttl, Get: true}).Result()
	if err != nil && !errors.Is(err, ri.Nil) {
		return "", err
	}
	return prev, nil
}

func (s *OTPStore) IncrDailyCount(ctx context.Context, phoneHash string) (int, error) {
	date := time.Now().Format("2006-01-02")
	key := redis.Key(otpPrefix, "count", phoneHash, date)

	count, err := redis.Client().Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 { // 当天第一次，次日零点过期
		now := time.Now()
		tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		redis.Client().Expire(ctx, key, tomorrow.Sub(now))
	}

	return int(count), nil
}
