package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keystone-labs/datagrant/internal/models"
	apperrors "github.com/keystone-labs/datagrant/pkg/errors"
)

// AuditService persists the write-once access trail. Entries are keyed by
// (resource, accessor, tick); a second access under the same key in the same
// tick overwrites the first, which is the documented granularity limit.
// There is no mutation or deletion API.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// Record stores an audit entry, overwriting a same-key entry from the same tick.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditEntry) error {
	ctx = ensureContext(ctx)

	if entry == nil {
		return errors.New("audit service: entry is required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}
	if strings.TrimSpace(entry.Accessor) == "" {
		return errors.New("audit service: accessor is required")
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resource_id"}, {Name: "accessor"}, {Name: "tick"}},
		UpdateAll: true,
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("audit service: record: %w", err)
	}
	return nil
}

// Get returns the entry stored under the exact composite key.
func (s *AuditService) Get(ctx context.Context, resourceID uint64, accessor string, tick uint64) (*models.AuditEntry, error) {
	ctx = ensureContext(ctx)

	var entry models.AuditEntry
	err := s.db.WithContext(ctx).
		Take(&entry, "resource_id = ? AND accessor = ? AND tick = ?", resourceID, accessor, tick).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("audit service: get: %w", err)
	}
	return &entry, nil
}

// ListForResource returns the full trail for a resource ordered by tick.
func (s *AuditService) ListForResource(ctx context.Context, resourceID uint64) ([]models.AuditEntry, error) {
	ctx = ensureContext(ctx)

	var entries []models.AuditEntry
	err := s.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("tick ASC, accessor ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("audit service: list: %w", err)
	}
	return entries, nil
}
