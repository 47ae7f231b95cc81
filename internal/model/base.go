package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 自增主键和时间戳，对外统一用 PublicID / UID
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// SoftDelete 只给可注销的记录用，申请单提交后不可删除
type SoftDelete struct {
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
