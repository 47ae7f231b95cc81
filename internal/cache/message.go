package cache

import (
	"context"
	"time"

	"CareOnboard/storage/redis"
)

// 消息幂等标记：cob:mq:msg:{messageID}
// processing 表示有 worker 正在处理，done 表示已处理完成
const (
	messagePrefix     = "mq:msg"
	messageProcessing = "processing"
	messageDone       = "done"
)

// TryMarkMessageProcessing 抢占消息处理权，已被标记时返回 false
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	return redis.Client().SetNX(ctx, redis.Key(messagePrefix, messageID), messageProcessing, ttl).Result()
}

func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	return redis.Client().Set(ctx, redis.Key(messagePrefix, messageID), messageDone, ttl).Err()
}

// UnmarkMessageProcessing 处理失败时释放，允许重投后再处理
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	return redis.Client().Del(ctx, redis.Key(messagePrefix, messageID)).Err()
}
