package middleware

import (
	"go.uber.org/zap"

	"CareOnboard/config"
	"CareOnboard/pkg/logger"
)

// Init 在 token.Init 之后调用，JWT 中间件依赖签名密钥
func Init() error {
	if err := initAuthMiddleware(); err != nil {
		logger.Logger.Error("Failed to initialize auth middleware", zap.Error(err))
		return err
	}

	cfg := config.Cfg
	DefaultRecoverConfig = NewRecoverConfig(cfg.IsProduction())
	applyRateLimitOverrides(cfg)

	logger.Logger.Info("Middlewares initialized",
		zap.Bool("rate_limit", cfg.RateLimitEnabled),
		zap.Int("verify_per_minute", VerificationRateLimitConfig.MaxRequests),
		zap.Int("upload_per_minute", UploadRateLimitConfig.MaxRequests),
	)
	return nil
}

func applyRateLimitOverrides(cfg config.Config) {
	if cfg.VerifyRateLimitPerMinute > 0 {
		VerificationRateLimitConfig.Window = 60
		VerificationRateLimitConfig.MaxRequests = cfg.VerifyRateLimitPerMinute
	}
	if cfg.UploadRateLimitPerMinute > 0 {
		UploadRateLimitConfig.Window = 60
		UploadRateLimitConfig.MaxRequests = cfg.UploadRateLimitPerMinute
	}
}
