package model

import (
	"time"

	"gorm.io/datatypes"
)

// Application 完成引导后提交的完整申请。
// Record 里证件号已脱敏，原文只以密文存在 AadharCipher / PanCipher。
type Application struct {
	BaseModel
	SubmittedAt  time.Time      `gorm:"not null" json:"submitted_at"`
	Record       datatypes.JSON `gorm:"type:jsonb;not null" json:"record"`
	StaffUID     string         `gorm:"uniqueIndex;type:varchar(64);not null" json:"staff_uid"`
	SessionID    string         `gorm:"type:varchar(64);not null" json:"session_id"`
	MessageID    string         `gorm:"uniqueIndex;type:varchar(64);not null" json:"-"`
	AadharCipher string         `gorm:"type:text" json:"-"`
	PanCipher    string         `gorm:"type:text" json:"-"`
}

func (Application) TableName() string {
	return "applications"
}
