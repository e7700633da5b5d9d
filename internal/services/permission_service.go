package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keystone-labs/datagrant/internal/clock"
	"github.com/keystone-labs/datagrant/internal/events"
	"github.com/keystone-labs/datagrant/internal/models"
	apperrors "github.com/keystone-labs/datagrant/pkg/errors"
	"github.com/keystone-labs/datagrant/pkg/logger"
	"github.com/keystone-labs/datagrant/pkg/metrics"
	"github.com/keystone-labs/datagrant/pkg/validator"
)

// PermissionService owns the grant ledger: issuing, revoking and extending
// permissions, and maintaining the one-active-grant-per-pair index. Every
// mutation is admin-gated through the authorization engine and applied in a
// single transaction, so no caller observes a half-replaced grant.
type PermissionService struct {
	db       *gorm.DB
	clock    clock.Clock
	authz    *AuthzService
	settings *SettingsService
	events   events.Sink
	logger   *zap.Logger
}

// NewPermissionService constructs a PermissionService using the provided collaborators.
func NewPermissionService(db *gorm.DB, clk clock.Clock, authz *AuthzService, settings *SettingsService, sink events.Sink) (*PermissionService, error) {
	if db == nil {
		return nil, errors.New("permission service: db is required")
	}
	if clk == nil {
		return nil, errors.New("permission service: clock is required")
	}
	if authz == nil {
		return nil, errors.New("permission service: authz service is required")
	}
	if settings == nil {
		return nil, errors.New("permission service: settings service is required")
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &PermissionService{
		db:       db,
		clock:    clk,
		authz:    authz,
		settings: settings,
		events:   sink,
		logger:   logger.WithModule("permissions"),
	}, nil
}

// GrantInput describes the payload accepted by Grant.
type GrantInput struct {
	ResourceID uint64                 `json:"resource_id" validate:"required"`
	Grantor    string                 `json:"grantor" validate:"required"`
	Grantee    string                 `json:"grantee" validate:"required"`
	Level      models.PermissionLevel `json:"level" validate:"min=1,max=3"`
	// Duration in ticks; nil means the grant never expires.
	Duration   *uint64 `json:"duration"`
	Purpose    string  `json:"purpose"`
	Conditions string  `json:"conditions"`
}

// Grant issues a permission to a grantee. An existing active grant for the
// same (resource, grantee) pair is revoked in the same transaction, so the
// pair never holds two active grants. All preconditions are checked before
// anything is written.
func (s *PermissionService) Grant(ctx context.Context, input GrantInput) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	input.Grantor = strings.TrimSpace(input.Grantor)
	input.Grantee = strings.TrimSpace(input.Grantee)

	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.ErrInvalidInput.WithInternal(err)
	}

	resource, err := s.loadActiveResource(ctx, input.ResourceID)
	if err != nil {
		return nil, err
	}

	admin, err := s.authz.HasAdminAccess(ctx, input.ResourceID, input.Grantor)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apperrors.ErrUnauthorized
	}

	now := s.clock.Now()

	var expiresAt *uint64
	if input.Duration != nil {
		max, err := s.settings.MaxAccessDuration(ctx)
		if err != nil {
			return nil, err
		}
		if *input.Duration == 0 || *input.Duration > max {
			return nil, apperrors.ErrInvalidDuration
		}
		expiry := now + *input.Duration
		expiresAt = &expiry
	}

	perm := &models.Permission{
		ResourceID: input.ResourceID,
		Grantee:    input.Grantee,
		Grantor:    input.Grantor,
		Level:      input.Level,
		GrantedAt:  now,
		ExpiresAt:  expiresAt,
		Purpose:    strings.TrimSpace(input.Purpose),
		Conditions: strings.TrimSpace(input.Conditions),
	}

	var superseded *models.Permission
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := activePermission(ctx, tx, input.ResourceID, input.Grantee)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := tx.Model(&models.Permission{}).
				Where("id = ?", existing.ID).
				Update("is_revoked", true).Error; err != nil {
				return fmt.Errorf("revoke superseded grant %d: %w", existing.ID, err)
			}
			superseded = existing
		}

		if err := tx.Create(perm).Error; err != nil {
			return fmt.Errorf("create grant: %w", err)
		}

		idx := models.ActiveGrant{
			ResourceID:   input.ResourceID,
			Grantee:      input.Grantee,
			PermissionID: perm.ID,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resource_id"}, {Name: "grantee"}},
			DoUpdates: clause.AssignmentColumns([]string{"permission_id"}),
		}).Create(&idx).Error; err != nil {
			return fmt.Errorf("update active grant index: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("permission service: grant: %w", err)
	}

	metrics.GrantsIssued.Inc()
	if superseded != nil {
		metrics.GrantsRevoked.WithLabelValues("superseded").Inc()
		s.events.Emit(events.Event{
			Type:       events.TypePermissionRevoked,
			ResourceID: input.ResourceID,
			Principal:  input.Grantee,
			Tick:       now,
			Metadata:   map[string]any{"permission_id": superseded.ID, "reason": "superseded"},
		})
	}
	s.events.Emit(events.Event{
		Type:       events.TypePermissionGranted,
		ResourceID: input.ResourceID,
		Principal:  input.Grantee,
		Tick:       now,
		Metadata: map[string]any{
			"permission_id": perm.ID,
			"level":         perm.Level.String(),
			"grantor":       perm.Grantor,
		},
	})

	s.logger.Info("permission granted",
		zap.Uint64("resource_id", input.ResourceID),
		zap.String("owner", resource.Owner),
		zap.String("grantee", perm.Grantee),
		zap.String("grantor", perm.Grantor),
		zap.String("level", perm.Level.String()),
		zap.Uint64("permission_id", perm.ID),
	)

	return perm, nil
}

// Revoke withdraws the active grant for a (resource, grantee) pair. The
// ledger record keeps its revoked flag forever; a later grant is a new record.
func (s *PermissionService) Revoke(ctx context.Context, resourceID uint64, caller, grantee string) error {
	ctx = ensureContext(ctx)

	if _, err := s.loadResource(ctx, resourceID); err != nil {
		return err
	}

	perm, err := activePermission(ctx, s.db, resourceID, grantee)
	if err != nil {
		return err
	}
	if perm == nil {
		return apperrors.ErrNotFound
	}

	admin, err := s.authz.HasAdminAccess(ctx, resourceID, caller)
	if err != nil {
		return err
	}
	if !admin {
		return apperrors.ErrUnauthorized
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Permission{}).
			Where("id = ?", perm.ID).
			Update("is_revoked", true).Error; err != nil {
			return fmt.Errorf("revoke grant %d: %w", perm.ID, err)
		}
		return purgeActiveGrant(ctx, tx, resourceID, grantee)
	})
	if err != nil {
		return fmt.Errorf("permission service: revoke: %w", err)
	}

	now := s.clock.Now()
	metrics.GrantsRevoked.WithLabelValues("manual").Inc()
	s.events.Emit(events.Event{
		Type:       events.TypePermissionRevoked,
		ResourceID: resourceID,
		Principal:  grantee,
		Tick:       now,
		Metadata:   map[string]any{"permission_id": perm.ID, "revoked_by": caller},
	})

	s.logger.Info("permission revoked",
		zap.Uint64("resource_id", resourceID),
		zap.String("grantee", grantee),
		zap.String("revoked_by", caller),
		zap.Uint64("permission_id", perm.ID),
	)

	return nil
}

// Extend pushes a grant's expiry further out. A grant with an expiry gains
// additional ticks on top of it; a permanent grant gains an expiry anchored
// at the current tick, so extension never widens a permanent grant.
func (s *PermissionService) Extend(ctx context.Context, resourceID uint64, caller, grantee string, additionalTicks uint64) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	if additionalTicks == 0 {
		return nil, apperrors.ErrInvalidDuration
	}

	if _, err := s.loadResource(ctx, resourceID); err != nil {
		return nil, err
	}

	perm, err := activePermission(ctx, s.db, resourceID, grantee)
	if err != nil {
		return nil, err
	}
	if perm == nil {
		return nil, apperrors.ErrNotFound
	}

	admin, err := s.authz.HasAdminAccess(ctx, resourceID, caller)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apperrors.ErrUnauthorized
	}

	max, err := s.settings.MaxAccessDuration(ctx)
	if err != nil {
		return nil, err
	}
	if additionalTicks > max {
		return nil, apperrors.ErrInvalidDuration
	}

	now := s.clock.Now()
	var newExpiry uint64
	if perm.ExpiresAt != nil {
		newExpiry = *perm.ExpiresAt + additionalTicks
	} else {
		newExpiry = now + additionalTicks
	}

	if err := s.db.WithContext(ctx).Model(&models.Permission{}).
		Where("id = ?", perm.ID).
		Update("expires_at", newExpiry).Error; err != nil {
		return nil, fmt.Errorf("permission service: extend grant %d: %w", perm.ID, err)
	}
	perm.ExpiresAt = &newExpiry

	metrics.GrantsExtended.Inc()
	s.events.Emit(events.Event{
		Type:       events.TypePermissionExtended,
		ResourceID: resourceID,
		Principal:  grantee,
		Tick:       now,
		Metadata: map[string]any{
			"permission_id": perm.ID,
			"expires_at":    newExpiry,
			"extended_by":   caller,
		},
	})

	s.logger.Info("permission extended",
		zap.Uint64("resource_id", resourceID),
		zap.String("grantee", grantee),
		zap.Uint64("permission_id", perm.ID),
		zap.Uint64("expires_at", newExpiry),
	)

	return perm, nil
}

// EmergencyRevokeAll revokes every active grant on a resource in one sweep.
// Returns the number of grants revoked.
func (s *PermissionService) EmergencyRevokeAll(ctx context.Context, resourceID uint64, caller string) (int, error) {
	ctx = ensureContext(ctx)

	if _, err := s.loadResource(ctx, resourceID); err != nil {
		return 0, err
	}

	admin, err := s.authz.HasAdminAccess(ctx, resourceID, caller)
	if err != nil {
		return 0, err
	}
	if !admin {
		return 0, apperrors.ErrUnauthorized
	}

	revoked := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entries []models.ActiveGrant
		if err := tx.Find(&entries, "resource_id = ?", resourceID).Error; err != nil {
			return fmt.Errorf("list active grants: %w", err)
		}

		var errs error
		for _, entry := range entries {
			if err := tx.Model(&models.Permission{}).
				Where("id = ?", entry.PermissionID).
				Update("is_revoked", true).Error; err != nil {
				errs = multierr.Append(errs, fmt.Errorf("revoke grant %d: %w", entry.PermissionID, err))
				continue
			}
			revoked++
		}
		if errs != nil {
			return errs
		}

		if len(entries) > 0 {
			if err := tx.Delete(&models.ActiveGrant{}, "resource_id = ?", resourceID).Error; err != nil {
				return fmt.Errorf("clear active grant index: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("permission service: emergency revoke all: %w", err)
	}

	now := s.clock.Now()
	if revoked > 0 {
		metrics.GrantsRevoked.WithLabelValues("emergency").Add(float64(revoked))
	}
	s.events.Emit(events.Event{
		Type:       events.TypeEmergencyRevokeAll,
		ResourceID: resourceID,
		Principal:  caller,
		Tick:       now,
		Metadata:   map[string]any{"revoked": revoked},
	})

	s.logger.Warn("emergency revoke all",
		zap.Uint64("resource_id", resourceID),
		zap.String("caller", caller),
		zap.Int("revoked", revoked),
	)

	return revoked, nil
}

// GetActivePermission returns the current active grant for a pair.
func (s *PermissionService) GetActivePermission(ctx context.Context, resourceID uint64, grantee string) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	perm, err := activePermission(ctx, s.db, resourceID, grantee)
	if err != nil {
		return nil, err
	}
	if perm == nil {
		return nil, apperrors.ErrNotFound
	}
	return perm, nil
}

// Get returns a ledger record by id, revoked or not.
func (s *PermissionService) Get(ctx context.Context, permissionID uint64) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	var perm models.Permission
	err := s.db.WithContext(ctx).Take(&perm, "id = ?", permissionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("permission service: load %d: %w", permissionID, err)
	}
	return &perm, nil
}

// ListForResource returns the full grant history for a resource ordered by id.
func (s *PermissionService) ListForResource(ctx context.Context, resourceID uint64) ([]models.Permission, error) {
	ctx = ensureContext(ctx)

	var perms []models.Permission
	err := s.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("id ASC").
		Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("permission service: list: %w", err)
	}
	return perms, nil
}

func (s *PermissionService) loadResource(ctx context.Context, resourceID uint64) (*models.Resource, error) {
	var resource models.Resource
	err := s.db.WithContext(ctx).Take(&resource, "id = ?", resourceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("permission service: load resource %d: %w", resourceID, err)
	}
	return &resource, nil
}

func (s *PermissionService) loadActiveResource(ctx context.Context, resourceID uint64) (*models.Resource, error) {
	resource, err := s.loadResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !resource.IsActive {
		return nil, apperrors.ErrNotFound
	}
	return resource, nil
}
