package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"CareOnboard/internal/auth"
	"CareOnboard/internal/model"
	"CareOnboard/pkg/snowflake"
	"CareOnboard/utils"
)

// Secrets 手机号落库用的盐和密钥
type Secrets struct {
	PhoneSalt     string
	EncryptionKey []byte
}

// StaffRepository 护工账号表，实现 auth.UserStore
type StaffRepository struct {
	db      *gorm.DB
	secrets Secrets
}

func NewStaffRepository(db *gorm.DB, secrets Secrets) *StaffRepository {
	return &StaffRepository{db: db, secrets: secrets}
}

func (r *StaffRepository) Exists(ctx context.Context, uid string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.StaffProfile{}).Where("uid = ?", uid).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count staff: %w", err)
	}
	return count > 0, nil
}

func (r *StaffRepository) Load(ctx context.Context, uid string) (*auth.User, error) {
	var p model.StaffProfile
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	return r.toUser(&p)
}

// Save 按 uid 幂等写入，首次写入时分配 public_id
func (r *StaffRepository) Save(ctx context.Context, user *auth.User) error {
	p, err := r.fromUser(user)
	if err != nil {
		return err
	}
	if p.PublicID, err = snowflake.NextID(); err != nil {
		return fmt.Errorf("failed to generate public id: %w", err)
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "agency", "status", "updated_at"}),
	}).Create(p).Error
}

// Activate 申请入库后更新资料并置为 active
func (r *StaffRepository) Activate(ctx context.Context, uid, fullName, agency string) error {
	res := r.db.WithContext(ctx).Model(&model.StaffProfile{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{
			"full_name": fullName,
			"agency":    agency,
			"status":    model.StaffStatusActive,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to activate staff: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *StaffRepository) fromUser(u *auth.User) (*model.StaffProfile, error) {
	cipher, err := utils.Encrypt(r.secrets.EncryptionKey, utils.FieldPhone, u.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt phone: %w", err)
	}

	status := model.StaffStatus(u.Status)
	if status == "" {
		status = model.StaffStatusPending
	}
	return &model.StaffProfile{
		UID:         u.UID,
		PhoneCipher: cipher,
		PhoneHash:   utils.HashPhone(r.secrets.PhoneSalt, u.PhoneNumber),
		FullName:    u.FullName,
		Agency:      u.Agency,
		Status:      status,
	}, nil
}

func (r *StaffRepository) toUser(p *model.StaffProfile) (*auth.User, error) {
	phone, err := utils.Decrypt(r.secrets.EncryptionKey, utils.FieldPhone, p.PhoneCipher)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt phone: %w", err)
	}
	return &auth.User{
		UID:         p.UID,
		PhoneNumber: phone,
		FullName:    p.FullName,
		Agency:      p.Agency,
		Status:      string(p.Status),
	}, nil
}
