package database

import (
	"gorm.io/gorm"

	"github.com/keystone-labs/datagrant/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Resource{},
		&models.Permission{},
		&models.ActiveGrant{},
		&models.AuditEntry{},
		&models.Application{},
		&models.SystemSetting{},
	)
}
