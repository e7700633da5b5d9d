package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/keystone-labs/datagrant/internal/clock"
	"github.com/keystone-labs/datagrant/internal/events"
	"github.com/keystone-labs/datagrant/internal/models"
	apperrors "github.com/keystone-labs/datagrant/pkg/errors"
	"github.com/keystone-labs/datagrant/pkg/logger"
	"github.com/keystone-labs/datagrant/pkg/metrics"
)

// AuthzService is the authorization engine: it decides whether a principal
// may act on a resource at the current tick, and runs the audited access
// path. It is the single gate consulted by every ledger mutation.
type AuthzService struct {
	db     *gorm.DB
	clock  clock.Clock
	audit  *AuditService
	events events.Sink
	logger *zap.Logger
}

// NewAuthzService constructs an AuthzService using the provided collaborators.
func NewAuthzService(db *gorm.DB, clk clock.Clock, audit *AuditService, sink events.Sink) (*AuthzService, error) {
	if db == nil {
		return nil, errors.New("authz service: db is required")
	}
	if clk == nil {
		return nil, errors.New("authz service: clock is required")
	}
	if audit == nil {
		return nil, errors.New("authz service: audit service is required")
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &AuthzService{
		db:     db,
		clock:  clk,
		audit:  audit,
		events: sink,
		logger: logger.WithModule("authz"),
	}, nil
}

// HasAdminAccess reports whether the principal owns the resource or holds an
// active admin-level grant on it. Ownership short-circuits the ledger lookup;
// the two checks are a logical OR.
func (s *AuthzService) HasAdminAccess(ctx context.Context, resourceID uint64, principal string) (bool, error) {
	ctx = ensureContext(ctx)

	var resource models.Resource
	err := s.db.WithContext(ctx).Take(&resource, "id = ?", resourceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("authz service: load resource %d: %w", resourceID, err)
	}

	if resource.Owner == principal {
		return true, nil
	}

	perm, err := activePermission(ctx, s.db, resourceID, principal)
	if err != nil {
		return false, err
	}
	if perm == nil {
		return false, nil
	}

	return perm.Level >= models.LevelAdmin && perm.ActiveAt(s.clock.Now()), nil
}

// CheckAccess reports whether the grantee currently holds at least the
// required level on the resource. Pure predicate: no audit write, no events.
func (s *AuthzService) CheckAccess(ctx context.Context, resourceID uint64, grantee string, required models.PermissionLevel) (bool, error) {
	ctx = ensureContext(ctx)

	perm, err := activePermission(ctx, s.db, resourceID, grantee)
	if err != nil {
		return false, err
	}
	if perm == nil {
		return false, nil
	}

	return perm.Level >= required && perm.ActiveAt(s.clock.Now()), nil
}

// RequiredLevel maps an action string to the permission level it demands.
func (s *AuthzService) RequiredLevel(action string) models.PermissionLevel {
	return models.LevelForAction(action)
}

// Access authorizes a data-access attempt and, on success, writes the audit
// entry. This is the only path that records audit entries for reads and
// writes.
func (s *AuthzService) Access(ctx context.Context, resourceID uint64, caller, action string) (*models.AuditEntry, error) {
	ctx = ensureContext(ctx)
	now := s.clock.Now()

	s.events.Emit(events.Event{
		Type:       events.TypeAccessRequested,
		ResourceID: resourceID,
		Principal:  caller,
		Tick:       now,
		Metadata:   map[string]any{"action": action},
	})

	var resource models.Resource
	err := s.db.WithContext(ctx).Take(&resource, "id = ?", resourceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AccessDecisions.WithLabelValues(action, "resource_not_found").Inc()
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("authz service: load resource %d: %w", resourceID, err)
	}
	if !resource.IsActive {
		metrics.AccessDecisions.WithLabelValues(action, "resource_not_found").Inc()
		return nil, apperrors.ErrNotFound
	}

	required := models.LevelForAction(action)

	perm, err := activePermission(ctx, s.db, resourceID, caller)
	if err != nil {
		return nil, err
	}
	if perm == nil {
		metrics.AccessDecisions.WithLabelValues(action, "deny").Inc()
		s.logger.Warn("access denied: no active grant",
			zap.Uint64("resource_id", resourceID),
			zap.String("caller", caller),
			zap.String("action", action),
		)
		return nil, apperrors.ErrPermissionDenied
	}
	if perm.ExpiredAt(now) {
		metrics.AccessDecisions.WithLabelValues(action, "expired").Inc()
		s.logger.Warn("access denied: grant expired",
			zap.Uint64("resource_id", resourceID),
			zap.String("caller", caller),
			zap.Uint64("expires_at", *perm.ExpiresAt),
			zap.Uint64("tick", now),
		)
		return nil, apperrors.ErrExpired
	}
	if perm.Level < required {
		metrics.AccessDecisions.WithLabelValues(action, "deny").Inc()
		s.logger.Warn("access denied: insufficient level",
			zap.Uint64("resource_id", resourceID),
			zap.String("caller", caller),
			zap.String("held", perm.Level.String()),
			zap.String("required", required.String()),
		)
		return nil, apperrors.ErrPermissionDenied
	}

	metadata, err := json.Marshal(map[string]any{
		"held_level":     int(perm.Level),
		"required_level": int(required),
	})
	if err != nil {
		return nil, fmt.Errorf("authz service: marshal audit metadata: %w", err)
	}

	entry := &models.AuditEntry{
		ResourceID:   resourceID,
		Accessor:     caller,
		Tick:         now,
		PermissionID: perm.ID,
		Action:       action,
		Metadata:     datatypes.JSON(metadata),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		return nil, apperrors.Wrap(err, "record audit entry")
	}

	s.events.Emit(events.Event{
		Type:       events.TypeDataAccessed,
		ResourceID: resourceID,
		Principal:  caller,
		Tick:       now,
		Metadata:   map[string]any{"action": action, "permission_id": perm.ID},
	})
	metrics.AccessDecisions.WithLabelValues(action, "allow").Inc()

	return entry, nil
}
