package models

// PermissionLevel orders access levels so a higher grant satisfies a lower
// requirement.
type PermissionLevel int

const (
	LevelRead  PermissionLevel = 1
	LevelWrite PermissionLevel = 2
	LevelAdmin PermissionLevel = 3
)

// Valid reports whether the level is one of the defined grant levels.
func (l PermissionLevel) Valid() bool {
	return l >= LevelRead && l <= LevelAdmin
}

func (l PermissionLevel) String() string {
	switch l {
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	case LevelAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// LevelForAction maps an access action to the level it requires. Unrecognized
// actions are held to the admin bar rather than rejected, so an unexpected
// verb can never slip past a lower grant.
func LevelForAction(action string) PermissionLevel {
	switch action {
	case "read":
		return LevelRead
	case "write":
		return LevelWrite
	default:
		return LevelAdmin
	}
}

// Permission is a single grant record in the ledger. Identity fields (id,
// resource, grantee, grantor, granted_at) are immutable once written; only
// ExpiresAt (grows via extension) and IsRevoked (flips false to true, never
// back) change afterwards. Re-granting always creates a new record.
type Permission struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ResourceID uint64          `gorm:"not null;index:idx_permissions_pair,priority:1" json:"resource_id"`
	Grantee    string          `gorm:"type:varchar(128);not null;index:idx_permissions_pair,priority:2" json:"grantee"`
	Grantor    string          `gorm:"type:varchar(128);not null" json:"grantor"`
	Level      PermissionLevel `gorm:"not null" json:"level"`
	GrantedAt  uint64          `gorm:"not null" json:"granted_at"`
	ExpiresAt  *uint64         `json:"expires_at"`
	IsRevoked  bool            `gorm:"not null;default:false" json:"is_revoked"`
	Purpose    string          `json:"purpose"`
	Conditions string          `json:"conditions"`
}

// TableName overrides the default table name for GORM.
func (Permission) TableName() string {
	return "permissions"
}

// ExpiredAt reports whether the grant has lapsed at the given tick. The
// expiry tick itself counts as expired.
func (p *Permission) ExpiredAt(now uint64) bool {
	return p.ExpiresAt != nil && now >= *p.ExpiresAt
}

// ActiveAt reports whether the grant still confers access at the given tick.
func (p *Permission) ActiveAt(now uint64) bool {
	return !p.IsRevoked && !p.ExpiredAt(now)
}

// ActiveGrant is the O(1) index from a (resource, grantee) pair to its single
// current permission record. Rows are swapped inside the grant transaction
// and removed on revoke; a row pointing at a revoked record is purged on
// sight and never resurrected.
type ActiveGrant struct {
	ResourceID   uint64 `gorm:"primaryKey;autoIncrement:false" json:"resource_id"`
	Grantee      string `gorm:"primaryKey;type:varchar(128)" json:"grantee"`
	PermissionID uint64 `gorm:"not null" json:"permission_id"`
}

// TableName overrides the default table name for GORM.
func (ActiveGrant) TableName() string {
	return "active_grants"
}
