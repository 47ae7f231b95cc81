package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"CareOnboard/internal/model"
	"CareOnboard/pkg/logger"
)

// 引导会话只在 redis，落库的只有护工档案和提交的申请
var migrations = []interface{}{
	&model.StaffProfile{},
	&model.Application{},
}

// Migrate 建表和索引，api 与 worker 启动时都会跑，幂等
func Migrate(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}

	for _, m := range migrations {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}

	// 申请单按提交时间倒序翻页
	if !db.Migrator().HasIndex(&model.Application{}, "idx_applications_submitted_at") {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_applications_submitted_at ON applications (submitted_at DESC)").Error; err != nil {
			return fmt.Errorf("create submitted_at index: %w", err)
		}
	}

	logger.Logger.Info("Database migrated", zap.Int("tables", len(migrations)))
	return nil
}
