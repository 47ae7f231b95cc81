package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"CareOnboard/config"
	"CareOnboard/internal/queue"
	"CareOnboard/internal/repository"
	"CareOnboard/internal/service"
	"CareOnboard/pkg/logger"
	"CareOnboard/pkg/metrics"
	cobotel "CareOnboard/pkg/otel"
	"CareOnboard/pkg/snowflake"
	"CareOnboard/storage"
	"CareOnboard/storage/database"
)

func main() {
	config.Init()

	logger.Init("worker")
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

	if config.Cfg.TracingEnabled {
		shutdownOtel, err := cobotel.InitOpenTelemetry(ctx, cobotel.Config{
			ServiceName:    config.Cfg.ServiceName + "-worker",
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
			_ = shutdownOtel(shutdownCtx)
		}()
	}

	if err := metrics.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := queue.DeclareTopology(); err != nil {
		logger.Logger.Fatal("Failed to declare queue topology", zap.Error(err))
	}

	store := repository.NewSubmissionStore(database.DB(), service.Secrets())
	consumer := queue.NewApplicationConsumer(store, []byte(config.Cfg.EncryptionKey), func(ctx context.Context, uid string) {
		// 资料变为 active，清掉缓存
		if err := service.StaffStore().Invalidate(ctx, uid); err != nil {
			logger.Logger.Warn("Failed to invalidate staff profile cache", zap.String("uid", uid), zap.Error(err))
		}
	})

	logger.Logger.Info("Worker service starting",
		zap.String("service", config.Cfg.ServiceName+"-worker"),
		zap.String("environment", config.Cfg.Environment),
		zap.String("queue", queue.ApplicationSubmittedQueue),
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Logger.Error("Consumer stopped with error", zap.Error(err))
	}

	logger.Logger.Info("Worker service shutting down gracefully")
}
