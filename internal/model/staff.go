package model

// StaffStatus 护工账号状态
type StaffStatus string

const (
	StaffStatusPending StaffStatus = "pending" // 手机已验证，资料未提交
	StaffStatusActive  StaffStatus = "active"  // 申请已提交入库
)

// StaffProfile 通过手机验证的护工
type StaffProfile struct {
	BaseModel
	SoftDelete
	PublicID    int64       `gorm:"uniqueIndex;not null" json:"public_id"`
	UID         string      `gorm:"uniqueIndex;type:varchar(64);not null" json:"uid"`
	PhoneCipher string      `gorm:"type:text" json:"-"`
	PhoneHash   string      `gorm:"uniqueIndex;type:char(64);not null" json:"-"`
	FullName    string      `gorm:"type:varchar(128);not null;default:''" json:"full_name"`
	Agency      string      `gorm:"type:varchar(128);not null;default:''" json:"agency"`
	Status      StaffStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
}

func (StaffProfile) TableName() string {
	return "staff_profiles"
}

func (p *StaffProfile) Active() bool {
	return p.Status == StaffStatusActive
}
