package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"CareOnboard/internal/cache"
	"CareOnboard/internal/model"
	"CareOnboard/pkg/logger"
	"CareOnboard/pkg/metrics"
	"CareOnboard/storage/mq"
	"CareOnboard/utils"
)

// ApplicationStore 申请入库并激活账号，需在同一事务内完成
type ApplicationStore interface {
	Persist(ctx context.Context, app *model.Application, fullName, agency string) error
	Processed(ctx context.Context, messageID string) (bool, error)
}

// MessageMarker 消息幂等标记，默认走 redis
type MessageMarker interface {
	TryMark(ctx context.Context, messageID string) (bool, error)
	Done(ctx context.Context, messageID string) error
	Release(ctx context.Context, messageID string) error
}

type redisMarker struct{}

func (redisMarker) TryMark(ctx context.Context, id string) (bool, error) {
	return cache.TryMarkMessageProcessing(ctx, id, 24*time.Hour)
}

func (redisMarker) Done(ctx context.Context, id string) error {
	return cache.MarkMessageProcessed(ctx, id, 48*time.Hour)
}

func (redisMarker) Release(ctx context.Context, id string) error {
	return cache.UnmarkMessageProcessing(ctx, id)
}

// ApplicationConsumer 消费申请提交消息
type ApplicationConsumer struct {
	store  ApplicationStore
	marker MessageMarker
	key    []byte
	// 入库成功后调用，用于清理资料缓存
	onPersisted func(ctx context.Context, uid string)
}

func NewApplicationConsumer(store ApplicationStore, encryptionKey []byte, onPersisted func(ctx context.Context, uid string)) *ApplicationConsumer {
	return &ApplicationConsumer{
		store:       store,
		marker:      redisMarker{},
		key:         encryptionKey,
		onPersisted: onPersisted,
	}
}

// Start 阻塞消费，直到 ctx 结束
func (c *ApplicationConsumer) Start(ctx context.Context) error {
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         ApplicationSubmittedQueue,
		ConsumerTag:   "application_submitted_consumer",
		PrefetchCount: 10,
		Handler:       c.Handle,
	})
}

func (c *ApplicationConsumer) Handle(ctx context.Context, body []byte) error {
	var msg model.ApplicationSubmittedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: failed to unmarshal application message: %v", mq.ErrPermanent, err)
	}
	if msg.MessageID == "" || msg.UID == "" {
		return fmt.Errorf("%w: application message missing id or uid", mq.ErrPermanent)
	}

	skip, err := c.alreadyHandled(ctx, msg.MessageID)
	if err != nil {
		return err
	}
	if skip {
		logger.Ctx(ctx).Info("Message already processed or being processed, skipping",
			zap.String("message_id", msg.MessageID),
		)
		return nil
	}

	app, fullName, agency, err := BuildApplication(msg, c.key)
	if err != nil {
		_ = c.marker.Release(ctx, msg.MessageID)
		return fmt.Errorf("%w: %v", mq.ErrPermanent, err)
	}

	if err := c.store.Persist(ctx, app, fullName, agency); err != nil {
		_ = c.marker.Release(ctx, msg.MessageID)
		metrics.RecordSubmission(ctx, err)
		return fmt.Errorf("failed to persist application: %w", err)
	}
	metrics.RecordSubmission(ctx, nil)

	if c.onPersisted != nil {
		c.onPersisted(ctx, msg.UID)
	}
	if err := c.marker.Done(ctx, msg.MessageID); err != nil {
		logger.Ctx(ctx).Warn("Failed to mark message as processed",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	}

	logger.Ctx(ctx).Info("Application persisted",
		zap.String("message_id", msg.MessageID),
		zap.String("uid", msg.UID),
	)
	return nil
}

// alreadyHandled 先抢 redis 标记；redis 不可用时回落到库里的 message_id
func (c *ApplicationConsumer) alreadyHandled(ctx context.Context, messageID string) (bool, error) {
	acquired, err := c.marker.TryMark(ctx, messageID)
	if err == nil {
		return !acquired, nil
	}
	logger.Ctx(ctx).Warn("Failed to check message processed status, falling back to database",
		zap.String("message_id", messageID),
		zap.Error(err),
	)

	done, err := c.store.Processed(ctx, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to check message processed status: %w", err)
	}
	return done, nil
}

var sensitiveFields = []struct {
	key  string
	kind utils.Field
}{
	{key: "aadharNumber", kind: utils.FieldAadhar},
	{key: "panNumber", kind: utils.FieldPAN},
}

// BuildApplication 加密证件号，记录里只留掩码
func BuildApplication(msg model.ApplicationSubmittedMessage, key []byte) (*model.Application, string, string, error) {
	rec := make(map[string]interface{}, len(msg.Record))
	for k, v := range msg.Record {
		rec[k] = v
	}

	ciphers := make(map[string]string, len(sensitiveFields))
	for _, field := range sensitiveFields {
		plain, _ := rec[field.key].(string)
		if plain == "" {
			return nil, "", "", fmt.Errorf("record missing %s", field.key)
		}
		enc, err := utils.Encrypt(key, field.kind, plain)
		if err != nil {
			return nil, "", "", fmt.Errorf("encrypt %s: %w", field.key, err)
		}
		ciphers[field.key] = enc
		rec[field.key] = maskID(plain)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, "", "", fmt.Errorf("marshal record: %w", err)
	}

	submittedAt, err := time.Parse(time.RFC3339, msg.SubmittedAt)
	if err != nil {
		return nil, "", "", errors.New("invalid submitted_at")
	}

	fullName, _ := rec["fullName"].(string)
	agency, _ := rec["agency"].(string)

	return &model.Application{
		SubmittedAt:  submittedAt,
		Record:       datatypes.JSON(data),
		StaffUID:     msg.UID,
		SessionID:    msg.SessionID,
		MessageID:    msg.MessageID,
		AadharCipher: ciphers["aadharNumber"],
		PanCipher:    ciphers["panNumber"],
	}, fullName, agency, nil
}

func maskID(v string) string {
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}
