package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/keystone-labs/datagrant/internal/clock"
	"github.com/keystone-labs/datagrant/internal/models"
	apperrors "github.com/keystone-labs/datagrant/pkg/errors"
	"github.com/keystone-labs/datagrant/pkg/logger"
	"github.com/keystone-labs/datagrant/pkg/metrics"
	"github.com/keystone-labs/datagrant/pkg/validator"
)

// ResourceService owns the resource store: registration, owner-only metadata
// updates and soft deactivation.
type ResourceService struct {
	db     *gorm.DB
	clock  clock.Clock
	logger *zap.Logger
}

// NewResourceService constructs a ResourceService using the provided database handle.
func NewResourceService(db *gorm.DB, clk clock.Clock) (*ResourceService, error) {
	if db == nil {
		return nil, errors.New("resource service: db is required")
	}
	if clk == nil {
		return nil, errors.New("resource service: clock is required")
	}
	return &ResourceService{
		db:     db,
		clock:  clk,
		logger: logger.WithModule("resources"),
	}, nil
}

// RegisterResourceInput describes the payload accepted by Register.
type RegisterResourceInput struct {
	Owner            string `json:"owner" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Description      string `json:"description"`
	DataType         string `json:"data_type"`
	SensitivityLevel int    `json:"sensitivity_level" validate:"min=1,max=4"`
}

// UpdateResourceInput describes mutable resource fields. Zero values leave
// the current field untouched, except Description which is applied as given.
type UpdateResourceInput struct {
	Name             string
	Description      string
	SensitivityLevel int
}

// Register adds a new resource owned by the registering principal.
func (s *ResourceService) Register(ctx context.Context, input RegisterResourceInput) (*models.Resource, error) {
	ctx = ensureContext(ctx)

	input.Owner = strings.TrimSpace(input.Owner)
	input.Name = strings.TrimSpace(input.Name)

	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.ErrInvalidInput.WithInternal(err)
	}

	resource := &models.Resource{
		Owner:            input.Owner,
		Name:             input.Name,
		Description:      strings.TrimSpace(input.Description),
		DataType:         strings.TrimSpace(input.DataType),
		SensitivityLevel: input.SensitivityLevel,
		RegisteredAt:     s.clock.Now(),
		IsActive:         true,
	}

	if err := s.db.WithContext(ctx).Create(resource).Error; err != nil {
		return nil, fmt.Errorf("resource service: register: %w", err)
	}

	metrics.ResourcesRegistered.Inc()
	s.logger.Info("resource registered",
		zap.Uint64("resource_id", resource.ID),
		zap.String("owner", resource.Owner),
		zap.Int("sensitivity_level", resource.SensitivityLevel),
	)

	return resource, nil
}

// Update modifies resource metadata. Only the owner may update, and only
// while the resource is active.
func (s *ResourceService) Update(ctx context.Context, resourceID uint64, caller string, input UpdateResourceInput) (*models.Resource, error) {
	ctx = ensureContext(ctx)

	resource, err := s.load(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !resource.IsActive {
		return nil, apperrors.ErrNotFound
	}
	if resource.Owner != caller {
		return nil, apperrors.ErrUnauthorized
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" && name != resource.Name {
		updates["name"] = name
	}
	if desc := strings.TrimSpace(input.Description); desc != resource.Description {
		updates["description"] = desc
	}
	if input.SensitivityLevel != 0 {
		if !models.ValidSensitivityLevel(input.SensitivityLevel) {
			return nil, apperrors.NewInvalidInput("sensitivity level must be between 1 and 4")
		}
		if input.SensitivityLevel != resource.SensitivityLevel {
			updates["sensitivity_level"] = input.SensitivityLevel
		}
	}

	if len(updates) == 0 {
		return resource, nil
	}

	if err := s.db.WithContext(ctx).Model(resource).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("resource service: update: %w", err)
	}

	return s.load(ctx, resourceID)
}

// Deactivate soft-deletes the resource. Owner-only; calling it twice is
// harmless.
func (s *ResourceService) Deactivate(ctx context.Context, resourceID uint64, caller string) error {
	ctx = ensureContext(ctx)

	resource, err := s.load(ctx, resourceID)
	if err != nil {
		return err
	}
	if resource.Owner != caller {
		return apperrors.ErrUnauthorized
	}

	if err := s.db.WithContext(ctx).Model(resource).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("resource service: deactivate: %w", err)
	}

	s.logger.Info("resource deactivated",
		zap.Uint64("resource_id", resourceID),
		zap.String("owner", resource.Owner),
	)

	return nil
}

// Get returns the full resource record, active or not.
func (s *ResourceService) Get(ctx context.Context, resourceID uint64) (*models.Resource, error) {
	return s.load(ensureContext(ctx), resourceID)
}

// IsActive reports whether the resource exists and has not been deactivated.
func (s *ResourceService) IsActive(ctx context.Context, resourceID uint64) (bool, error) {
	resource, err := s.load(ensureContext(ctx), resourceID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return resource.IsActive, nil
}

// OwnerOf returns the owning principal of a resource.
func (s *ResourceService) OwnerOf(ctx context.Context, resourceID uint64) (string, error) {
	resource, err := s.load(ensureContext(ctx), resourceID)
	if err != nil {
		return "", err
	}
	return resource.Owner, nil
}

func (s *ResourceService) load(ctx context.Context, resourceID uint64) (*models.Resource, error) {
	var resource models.Resource
	err := s.db.WithContext(ctx).Take(&resource, "id = ?", resourceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resource service: load %d: %w", resourceID, err)
	}
	return &resource, nil
}
