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
	"github.com/keystone-labs/datagrant/pkg/validator"
)

// ApplicationService is the client-application registry. It is a plain
// record store: names are unique, and only the configured administrator may
// mark an application verified.
type ApplicationService struct {
	db     *gorm.DB
	clock  clock.Clock
	admin  string
	logger *zap.Logger
}

// NewApplicationService constructs an ApplicationService using the provided database handle.
func NewApplicationService(db *gorm.DB, clk clock.Clock, adminPrincipal string) (*ApplicationService, error) {
	if db == nil {
		return nil, errors.New("application service: db is required")
	}
	if clk == nil {
		return nil, errors.New("application service: clock is required")
	}
	if adminPrincipal == "" {
		return nil, errors.New("application service: admin principal is required")
	}
	return &ApplicationService{
		db:     db,
		clock:  clk,
		admin:  adminPrincipal,
		logger: logger.WithModule("applications"),
	}, nil
}

// RegisterApplicationInput describes the payload accepted by Register.
type RegisterApplicationInput struct {
	Name        string `json:"name" validate:"required"`
	Owner       string `json:"owner" validate:"required"`
	Description string `json:"description"`
}

// Register records a new application. Duplicate names are rejected.
func (s *ApplicationService) Register(ctx context.Context, input RegisterApplicationInput) (*models.Application, error) {
	ctx = ensureContext(ctx)

	input.Name = strings.TrimSpace(input.Name)
	input.Owner = strings.TrimSpace(input.Owner)

	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.ErrInvalidInput.WithInternal(err)
	}

	application := &models.Application{
		Name:         input.Name,
		Owner:        input.Owner,
		Description:  strings.TrimSpace(input.Description),
		RegisteredAt: s.clock.Now(),
	}

	if err := s.db.WithContext(ctx).Create(application).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrAlreadyExists
		}
		return nil, fmt.Errorf("application service: register: %w", err)
	}

	s.logger.Info("application registered",
		zap.String("application_id", application.ID),
		zap.String("name", application.Name),
		zap.String("owner", application.Owner),
	)

	return application, nil
}

// Verify marks an application as verified. Administrator only.
func (s *ApplicationService) Verify(ctx context.Context, applicationID, caller string) error {
	ctx = ensureContext(ctx)

	if caller != s.admin {
		return apperrors.ErrUnauthorized
	}

	application, err := s.Get(ctx, applicationID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(application).Update("verified", true).Error; err != nil {
		return fmt.Errorf("application service: verify: %w", err)
	}

	s.logger.Info("application verified",
		zap.String("application_id", application.ID),
		zap.String("name", application.Name),
	)

	return nil
}

// Get returns the application record by id.
func (s *ApplicationService) Get(ctx context.Context, applicationID string) (*models.Application, error) {
	ctx = ensureContext(ctx)

	var application models.Application
	err := s.db.WithContext(ctx).Take(&application, "id = ?", applicationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("application service: load %q: %w", applicationID, err)
	}
	return &application, nil
}

// GetByName returns the application record by its unique name.
func (s *ApplicationService) GetByName(ctx context.Context, name string) (*models.Application, error) {
	ctx = ensureContext(ctx)

	var application models.Application
	err := s.db.WithContext(ctx).Take(&application, "name = ?", strings.TrimSpace(name)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("application service: load by name %q: %w", name, err)
	}
	return &application, nil
}
