package models

// Resource is a named data resource whose access is governed by the ledger.
// Records are soft-deactivated, never deleted, so grant history stays
// resolvable.
type Resource struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Owner            string `gorm:"type:varchar(128);not null;index" json:"owner"`
	Name             string `gorm:"type:varchar(255);not null" json:"name"`
	Description      string `json:"description"`
	DataType         string `gorm:"type:varchar(64)" json:"data_type"`
	SensitivityLevel int    `gorm:"not null" json:"sensitivity_level"`
	RegisteredAt     uint64 `gorm:"not null" json:"registered_at"`
	IsActive         bool   `gorm:"not null;default:true" json:"is_active"`
}

// TableName overrides the default table name for GORM.
func (Resource) TableName() string {
	return "resources"
}

// Sensitivity classification bounds. Informational to the engine; only the
// range is enforced.
const (
	MinSensitivityLevel = 1
	MaxSensitivityLevel = 4
)

// ValidSensitivityLevel reports whether the classification is in range.
func ValidSensitivityLevel(level int) bool {
	return level >= MinSensitivityLevel && level <= MaxSensitivityLevel
}
