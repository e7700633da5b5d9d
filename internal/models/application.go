package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Application is a registered client application allowed to appear as a
// principal. The registry is a plain record store; verification is a flag
// flipped by the configured administrator.
type Application struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Owner        string `gorm:"type:varchar(128);not null;index" json:"owner"`
	Description  string `json:"description"`
	Verified     bool   `gorm:"not null;default:false" json:"verified"`
	RegisteredAt uint64 `gorm:"not null" json:"registered_at"`
}

// TableName overrides the default table name for GORM.
func (Application) TableName() string {
	return "applications"
}

// BeforeCreate ensures UUID identifiers are generated automatically.
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
