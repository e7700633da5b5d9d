package models

import "gorm.io/datatypes"

// AuditEntry is a write-once record of a successful data access, keyed by the
// composite (resource, accessor, tick). Two accesses by the same accessor on
// the same resource in the same tick overwrite each other; if finer history
// is ever needed the key gains a monotonic sequence column.
type AuditEntry struct {
	ResourceID   uint64         `gorm:"primaryKey;autoIncrement:false" json:"resource_id"`
	Accessor     string         `gorm:"primaryKey;type:varchar(128)" json:"accessor"`
	Tick         uint64         `gorm:"primaryKey;autoIncrement:false" json:"tick"`
	PermissionID uint64         `gorm:"not null" json:"permission_id"`
	Action       string         `gorm:"type:varchar(64);not null" json:"action"`
	Metadata     datatypes.JSON `json:"metadata"`
}

// TableName overrides the default table name for GORM.
func (AuditEntry) TableName() string {
	return "audit_entries"
}
