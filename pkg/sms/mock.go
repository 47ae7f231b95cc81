package sms

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"CareOnboard/pkg/logger"
	"CareOnboard/utils"
)

// SentMessage 一条被 MockClient 截下的短信
type SentMessage struct {
	Phone         string
	SignName      string
	TemplateCode  string
	TemplateParam string
}

// MockClient 不出网，只记录消息；staging 联调时从日志里看验证码
type MockClient struct {
	mu       sync.Mutex
	sent     []SentMessage
	failures []error
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

// FailWith 让接下来的若干次发送依次返回这些错误
func (m *MockClient) FailWith(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

func (m *MockClient) SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return err
	}

	m.sent = append(m.sent, SentMessage{
		Phone:         phone,
		SignName:      signName,
		TemplateCode:  templateCode,
		TemplateParam: templateParam,
	})
	logger.Ctx(ctx).Debug("Mock SMS captured",
		zap.String("phone", utils.MaskPhone(phone)),
		zap.String("template", templateCode),
		zap.String("param", templateParam),
	)
	return nil
}

// Sent 返回已记录消息的副本
func (m *MockClient) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}
