package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"CareOnboard/internal/model"
	"CareOnboard/internal/onboarding"
	"CareOnboard/pkg/logger"
	"CareOnboard/pkg/snowflake"
	"CareOnboard/storage/mq"
)

// PublishFunc 发送一条 JSON 消息，默认是 mq.PublishMessage
type PublishFunc func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error

// ApplicationProducer 把完成的引导记录投递给 worker
type ApplicationProducer struct {
	publish PublishFunc
	newID   func() (string, error)
	now     func() time.Time
}

func NewApplicationProducer() *ApplicationProducer {
	return &ApplicationProducer{
		publish: mq.PublishMessage,
		newID:   snowflake.Prefixed("app_submitted"),
		now:     time.Now,
	}
}

// Submitter 绑定会话和身份，返回给引导向导使用
func (p *ApplicationProducer) Submitter(sessionID, uid, phoneHash string) onboarding.Submitter {
	return onboarding.SubmitterFunc(func(ctx context.Context, rec onboarding.Record) error {
		return p.PublishApplicationSubmitted(ctx, model.ApplicationSubmittedMessage{
			Record:    rec,
			SessionID: sessionID,
			UID:       uid,
			PhoneHash: phoneHash,
		})
	})
}

// PublishApplicationSubmitted 发布申请提交消息
func (p *ApplicationProducer) PublishApplicationSubmitted(ctx context.Context, msg model.ApplicationSubmittedMessage) error {
	if msg.MessageID == "" {
		id, err := p.newID()
		if err != nil {
			logger.Ctx(ctx).Error("Failed to generate message ID",
				zap.String("session_id", msg.SessionID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = id
	}
	if msg.SubmittedAt == "" {
		msg.SubmittedAt = p.now().UTC().Format(time.RFC3339)
	}

	if err := p.publish(ctx, EventsExchange, ApplicationSubmittedKey, msg.MessageID, msg); err != nil {
		logger.Ctx(ctx).Error("Failed to publish application submitted message",
			zap.String("session_id", msg.SessionID),
			zap.String("uid", msg.UID),
			zap.Error(err),
		)
		return err
	}

	logger.Ctx(ctx).Info("Published application submitted message",
		zap.String("message_id", msg.MessageID),
		zap.String("session_id", msg.SessionID),
		zap.String("uid", msg.UID),
	)
	return nil
}
