package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"CareOnboard/config"
	"CareOnboard/internal/middleware"
	"CareOnboard/internal/queue"
	"CareOnboard/internal/router"
	"CareOnboard/pkg/logger"
	"CareOnboard/pkg/metrics"
	cobotel "CareOnboard/pkg/otel"
	"CareOnboard/pkg/sms"
	"CareOnboard/pkg/snowflake"
	"CareOnboard/pkg/token"
	"CareOnboard/storage"
)

func main() {
	config.Init()

	logger.Init("api")
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	// otel 要在 storage 之前，redis/gorm 的追踪钩子依赖全局 provider
	if config.Cfg.TracingEnabled {
		shutdownOtel, err := cobotel.InitOpenTelemetry(ctx, cobotel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: config.Cfg.ServiceVersion,
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.OTLPEndpoint,
			SampleRatio:    config.Cfg.TracingSampler,
		})
		if err != nil {
			logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOtel(shutdownCtx); err != nil {
				logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()
	}

	if err := metrics.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	if err := middleware.InitMetrics(otel.Meter("careonboard-http")); err != nil {
		logger.Logger.Fatal("Failed to initialize HTTP metrics", zap.Error(err))
	}

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	// 申请提交消息要求交换机已存在
	if err := queue.DeclareTopology(); err != nil {
		logger.Logger.Fatal("Failed to declare queue topology", zap.Error(err))
	}

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if config.Cfg.VerificationProvider == "sms" {
		if err := sms.Init(config.Cfg.SMSProvider); err != nil {
			logger.Logger.Fatal("Failed to initialize SMS service", zap.Error(err))
		}
	} else {
		logger.Logger.Warn("Using mock verification provider, no SMS will be sent")
	}

	// token 在中间件前初始化，middleware 依赖 token
	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	}

	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	if err := os.MkdirAll(config.Cfg.UploadDir, 0o750); err != nil {
		logger.Logger.Fatal("Failed to create upload dir", zap.String("dir", config.Cfg.UploadDir), zap.Error(err))
	}

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
		zap.String("verification_provider", config.Cfg.VerificationProvider),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	opts := []hertzconfig.Option{
		server.WithHostPorts(addr),
		server.WithMaxRequestBodySize(int(config.Cfg.MaxUploadBytes) + 1<<20),
	}

	var h *server.Hertz
	if config.Cfg.TracingEnabled {
		tracerOpt, tracerMW := middleware.NewServerTracerConfig()
		h = server.Default(append(opts, tracerOpt)...)
		h.Use(tracerMW)
	} else {
		h = server.Default(opts...)
	}

	router.Register(h)

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
