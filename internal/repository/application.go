package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CareOnboard/internal/model"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Upsert 一个护工只保留最新一份申请；同一消息重复投递时不会重复写
func (r *ApplicationRepository) Upsert(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "staff_uid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"record", "session_id", "message_id", "aadhar_cipher", "pan_cipher", "submitted_at", "updated_at",
		}),
	}).Create(app).Error
}

// Processed 按消息 id 判重
func (r *ApplicationRepository) Processed(ctx context.Context, messageID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Application{}).Where("message_id = ?", messageID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check message: %w", err)
	}
	return count > 0, nil
}

// Transaction 申请入库和账号激活放在同一事务
func Transaction(ctx context.Context, db *gorm.DB, secrets Secrets, fn func(apps *ApplicationRepository, staff *StaffRepository) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewApplicationRepository(tx), NewStaffRepository(tx, secrets))
	})
}
