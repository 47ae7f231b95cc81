package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"CareOnboard/config"
	"CareOnboard/pkg/logger"
	redisotel "CareOnboard/pkg/redis"
)

const defaultPrefix = "cob"

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// Init 建立连接并 ping 一次；引导会话、验证码、限流、消息去重都依赖它
func Init() error {
	once.Do(func() {
		cfg := config.Cfg

		c := redis.NewClient(newOptions(cfg))
		if cfg.TracingEnabled {
			c.AddHook(redisotel.NewTracingHook(cfg.ServiceName, cfg.RedisDB))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			initErr = fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
			return
		}

		client = c
		logger.Logger.Info("Redis connected",
			zap.String("addr", cfg.RedisAddr),
			zap.Int("db", cfg.RedisDB),
			zap.Int("pool_size", cfg.RedisPoolSize),
		)
	})
	return initErr
}

func newOptions(cfg config.Config) *redis.Options {
	poolSize := cfg.RedisPoolSize
	if poolSize <= 0 {
		poolSize = 20
	}
	return &redis.Options{
		Addr:            cfg.RedisAddr,
		Password:        cfg.RedisPassword,
		DB:              cfg.RedisDB,
		PoolSize:        poolSize,
		MinIdleConns:    poolSize / 4,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
		MaxRetries:      3,
	}
}

func Client() *redis.Client {
	if client == nil {
		panic("Redis client not init")
	}
	return client
}

func Close(_ context.Context) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// Key 拼接带前缀的 key，空段跳过
func Key(parts ...string) string {
	prefix := config.Cfg.RedisPrefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	for _, part := range parts {
		if part == "" {
			continue
		}
		sb.WriteByte(':')
		sb.WriteString(part)
	}
	return sb.String()
}
