package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/outcomes-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds the indexes gorm tags cannot express. Postgres only.
func EnsureIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_outcome_metadata_facet
		ON outcome_metadata(name, value, outcomeid);
	`).Error; err != nil {
		return fmt.Errorf("create idx_outcome_metadata_facet: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_outcome_live_by_set
		ON outcome(outcomesetid, sortorder, id)
		WHERE deleted = false;
	`).Error; err != nil {
		return fmt.Errorf("create idx_outcome_live_by_set: %w", err)
	}
	return nil
}
