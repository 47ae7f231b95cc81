package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"CareOnboard/internal/auth"
	"CareOnboard/internal/model"
	"CareOnboard/storage/mq"
)

// SubmissionStore worker 侧的申请入库
type SubmissionStore struct {
	db      *gorm.DB
	secrets Secrets
}

func NewSubmissionStore(db *gorm.DB, secrets Secrets) *SubmissionStore {
	return &SubmissionStore{db: db, secrets: secrets}
}

// Persist 激活账号并写入申请；账号不存在说明消息来源异常，不再重试
func (s *SubmissionStore) Persist(ctx context.Context, app *model.Application, fullName, agency string) error {
	return Transaction(ctx, s.db, s.secrets, func(apps *ApplicationRepository, staff *StaffRepository) error {
		if err := staff.Activate(ctx, app.StaffUID, fullName, agency); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				return fmt.Errorf("%w: staff %s not found", mq.ErrPermanent, app.StaffUID)
			}
			return err
		}
		return apps.Upsert(ctx, app)
	})
}

// Processed redis 标记不可用时按 message_id 判重
func (s *SubmissionStore) Processed(ctx context.Context, messageID string) (bool, error) {
	return NewApplicationRepository(s.db).Processed(ctx, messageID)
}
