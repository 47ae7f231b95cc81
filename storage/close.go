package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"CareOnboard/pkg/logger"
	"CareOnboard/storage/database"
	"CareOnboard/storage/mq"
	"CareOnboard/storage/redis"
)

const closeTimeout = 15 * time.Second

type closer struct {
	name  string
	close func(context.Context) error
}

// 先停 MQ 不再收投递，Redis 次之，数据库最后
var closers = []closer{
	{name: "rabbitmq", close: mq.Close},
	{name: "redis", close: redis.Close},
	{name: "postgres", close: database.Close},
}

// Close 按顺序关闭存储连接，单个失败不影响后续
func Close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	failed := closeAll(ctx, closers)
	if failed > 0 {
		logger.Logger.Warn("Storage closed with errors", zap.Int("failed", failed))
		return
	}
	logger.Logger.Info("All storage connections closed")
}

func closeAll(ctx context.Context, cs []closer) int {
	failed := 0
	for _, c := range cs {
		if err := c.close(ctx); err != nil {
			failed++
			logger.Logger.Error("Failed to close storage", zap.String("backend", c.name), zap.Error(err))
			continue
		}
		logger.Logger.Debug("Storage closed", zap.String("backend", c.name))
	}
	return failed
}
