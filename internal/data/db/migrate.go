package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pak23399/TSchedule/internal/domain"
)

// AutoMigrateAll creates or updates every table, index and check constraint.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
