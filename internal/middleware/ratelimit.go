package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"CareOnboard/pkg/errors"
	"CareOnboard/pkg/logger"
	"CareOnboard/pkg/response"
	"CareOnboard/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 是否按用户ID限流（需要认证）
	ByUserID bool
	// 是否按IP限流
	ByIP bool
	// 超限后的封禁时长（秒），0 表示只按窗口限流
	BlockDuration int
}

// DefaultRateLimitConfig 登录后接口的通用限流
var DefaultRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   100,
	KeyPrefix:     "rate:limit",
	ByUserID:      true,
	ByIP:          true,
	BlockDuration: 300,
}

// VerificationRateLimitConfig 下发和校验验证码，按 IP
var VerificationRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   5,
	KeyPrefix:     "verify:rate",
	ByIP:          true,
	BlockDuration: 1800,
}

// AuthRateLimitConfig 刷新令牌、登出
var AuthRateLimitConfig = RateLimitConfig{
	Window:        60,
	MaxRequests:   10,
	KeyPrefix:     "auth:rate",
	ByIP:          true,
	BlockDuration: 900,
}

// UploadRateLimitConfig 附件上传，不封禁
var UploadRateLimitConfig = RateLimitConfig{
	Window:      60,
	MaxRequests: 20,
	KeyPrefix:   "upload:rate",
	ByIP:        true,
}

// RateLimiter 基于 redis zset 的滑动窗口限流
type RateLimiter struct {
	config RateLimitConfig
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config: config,
	}
}

// identifier 优先用户 ID，其次 IP
func (rl *RateLimiter) identifier(userID string, hasUser bool, clientIP string) string {
	if rl.config.ByUserID && hasUser {
		return "user:" + userID
	}
	if rl.config.ByIP {
		return "ip:" + clientIP
	}
	return "global"
}

func (rl *RateLimiter) getKey(ctx context.Context, c *app.RequestContext) string {
	userID, ok := GetUserID(ctx, c)
	return redis.Key(rl.config.KeyPrefix, rl.identifier(userID, ok, c.ClientIP()))
}

func (rl *RateLimiter) blockKey(ctx context.Context, c *app.RequestContext) string {
	userID, ok := GetUserID(ctx, c)
	return redis.Key(rl.config.KeyPrefix, "block", rl.identifier(userID, ok, c.ClientIP()))
}

// Allow 检查是否允许请求，返回窗口内的请求数
func (rl *RateLimiter) Allow(ctx context.Context, c *app.RequestContext) (bool, int, error) {
	key := rl.getKey(ctx, c)
	now := time.Now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	pipe := redis.Client().Pipeline()

	// 先清掉窗口外的记录
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redislib.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	zcardCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) Block(ctx context.Context, c *app.RequestContext) error {
	if rl.config.BlockDuration <= 0 {
		return nil
	}
	return redis.Client().Set(ctx, rl.blockKey(ctx, c), "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, c *app.RequestContext) (bool, error) {
	if rl.config.BlockDuration <= 0 {
		return false, nil
	}
	result, err := redis.Client().Exists(ctx, rl.blockKey(ctx, c)).Result()
	return result > 0, err
}

// RateLimitMiddleware redis 不可用时放行，只记录日志
func RateLimitMiddleware(config RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(config)

	return func(ctx context.Context, c *app.RequestContext) {
		blocked, err := limiter.IsBlocked(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check block status", zap.Error(err))
			c.Next(ctx)
			return
		}

		if blocked {
			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		allowed, count, err := limiter.Allow(ctx, c)
		if err != nil {
			logger.Logger.Error("Failed to check rate limit", zap.Error(err))
			c.Next(ctx)
			return
		}

		remaining := config.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(config.Window)*time.Second).Unix(), 10))

		if !allowed {
			if err := limiter.Block(ctx, c); err != nil {
				logger.Logger.Error("Failed to block client", zap.Error(err))
			}
			logger.Logger.Warn("Rate limit exceeded",
				zap.String("key_prefix", config.KeyPrefix),
				zap.String("client_ip", c.ClientIP()),
				zap.Int("count", count),
			)

			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

func GeneralRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(DefaultRateLimitConfig)
}

func VerificationRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(VerificationRateLimitConfig)
}

func AuthRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(AuthRateLimitConfig)
}

func UploadRateLimitMiddleware() app.HandlerFunc {
	return RateLimitMiddleware(UploadRateLimitConfig)
}
