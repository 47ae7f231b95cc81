package sms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"CareOnboard/pkg/logger"
)

// ErrRecipientRejected 网关拒收这个号码（格式错误、频控、黑名单），重试无意义
var ErrRecipientRejected = errors.New("sms recipient rejected")

// Client SMS 客户端接口
type Client interface {
	// SendSingle 发送单条模板短信，templateParam 为 JSON 字符串
	SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) error
}

var (
	smsClient Client
	smsOnce   sync.Once
	smsErr    error
)

// Init 按 provider 初始化全局客户端：aliyun 或 mock
func Init(provider string) error {
	smsOnce.Do(func() {
		switch provider {
		case "aliyun":
			smsClient, smsErr = NewAliyunClient()
		case "mock":
			smsClient = NewMockClient()
		default:
			smsErr = fmt.Errorf("unsupported SMS provider: %s", provider)
		}

		if smsErr != nil {
			logger.Logger.Error("Failed to initialize SMS client", zap.Error(smsErr))
			return
		}

		logger.Logger.Info("SMS client initialized successfully",
			zap.String("provider", provider),
		)
	})

	return smsErr
}

func GetClient() Client {
	if smsClient == nil {
		panic("SMS client not initialized, call sms.Init() first")
	}
	return smsClient
}
