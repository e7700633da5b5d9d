package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/keystone-labs/datagrant/internal/models"
)

// activePermission resolves the active-grant index entry for a
// (resource, grantee) pair and loads the underlying ledger record. It
// returns nil when no active grant exists. Index rows left pointing at a
// revoked or missing record are purged, never resurrected. An expired but
// unrevoked grant is still returned: callers decide between Expired and
// PermissionDenied.
//
// The db handle may be a transaction so ledger mutations observe the index
// consistently.
func activePermission(ctx context.Context, db *gorm.DB, resourceID uint64, grantee string) (*models.Permission, error) {
	var idx models.ActiveGrant
	err := db.WithContext(ctx).Take(&idx, "resource_id = ? AND grantee = ?", resourceID, grantee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active grant lookup: %w", err)
	}

	var perm models.Permission
	err = db.WithContext(ctx).Take(&perm, "id = ?", idx.PermissionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := purgeActiveGrant(ctx, db, resourceID, grantee); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load permission %d: %w", idx.PermissionID, err)
	}

	if perm.IsRevoked {
		if err := purgeActiveGrant(ctx, db, resourceID, grantee); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &perm, nil
}

func purgeActiveGrant(ctx context.Context, db *gorm.DB, resourceID uint64, grantee string) error {
	err := db.WithContext(ctx).
		Delete(&models.ActiveGrant{}, "resource_id = ? AND grantee = ?", resourceID, grantee).Error
	if err != nil {
		return fmt.Errorf("purge active grant index: %w", err)
	}
	return nil
}
