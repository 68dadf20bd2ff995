package db

import (
	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Template{},
		&types.PotentialPage{},
		&types.GeneratedPage{},
		&types.GenerationRun{},
	)
}
