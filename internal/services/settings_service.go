package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/keystone-labs/datagrant/internal/models"
	apperrors "github.com/keystone-labs/datagrant/pkg/errors"
	"github.com/keystone-labs/datagrant/pkg/logger"
)

// Setting keys persisted in the system_settings table.
const (
	SettingDefaultAccessDuration = "access.default_duration"
	SettingMaxAccessDuration     = "access.max_duration"
)

// SettingsService exposes the two grant-duration tunables. Configuration
// supplies the fallbacks; runtime overrides persist in system settings and
// may only be written by the configured administrator identity.
type SettingsService struct {
	db              *gorm.DB
	admin           string
	defaultDuration uint64
	maxDuration     uint64
	logger          *zap.Logger
}

// NewSettingsService constructs a SettingsService with config-sourced fallbacks.
func NewSettingsService(db *gorm.DB, adminPrincipal string, defaultDuration, maxDuration uint64) (*SettingsService, error) {
	if db == nil {
		return nil, errors.New("settings service: db is required")
	}
	if adminPrincipal == "" {
		return nil, errors.New("settings service: admin principal is required")
	}
	if maxDuration == 0 {
		return nil, errors.New("settings service: max duration must be positive")
	}
	if defaultDuration > maxDuration {
		return nil, fmt.Errorf("settings service: default duration %d exceeds max %d", defaultDuration, maxDuration)
	}
	return &SettingsService{
		db:              db,
		admin:           adminPrincipal,
		defaultDuration: defaultDuration,
		maxDuration:     maxDuration,
		logger:          logger.WithModule("settings"),
	}, nil
}

// DefaultAccessDuration returns the suggested grant duration in ticks.
func (s *SettingsService) DefaultAccessDuration(ctx context.Context) (uint64, error) {
	return s.lookup(ensureContext(ctx), SettingDefaultAccessDuration, s.defaultDuration)
}

// MaxAccessDuration returns the upper bound for grant durations and extensions.
func (s *SettingsService) MaxAccessDuration(ctx context.Context) (uint64, error) {
	return s.lookup(ensureContext(ctx), SettingMaxAccessDuration, s.maxDuration)
}

// SetDefaultAccessDuration overrides the default duration. Administrator only.
func (s *SettingsService) SetDefaultAccessDuration(ctx context.Context, caller string, ticks uint64) error {
	ctx = ensureContext(ctx)

	if caller != s.admin {
		return apperrors.ErrUnauthorized
	}
	if ticks == 0 {
		return apperrors.NewInvalidInput("default access duration must be positive")
	}
	max, err := s.MaxAccessDuration(ctx)
	if err != nil {
		return err
	}
	if ticks > max {
		return apperrors.ErrInvalidDuration
	}

	return s.upsert(ctx, SettingDefaultAccessDuration, ticks)
}

// SetMaxAccessDuration overrides the duration ceiling. Administrator only.
func (s *SettingsService) SetMaxAccessDuration(ctx context.Context, caller string, ticks uint64) error {
	ctx = ensureContext(ctx)

	if caller != s.admin {
		return apperrors.ErrUnauthorized
	}
	if ticks == 0 {
		return apperrors.NewInvalidInput("max access duration must be positive")
	}

	return s.upsert(ctx, SettingMaxAccessDuration, ticks)
}

// AdminPrincipal returns the identity allowed to change tunables.
func (s *SettingsService) AdminPrincipal() string {
	return s.admin
}

func (s *SettingsService) lookup(ctx context.Context, key string, fallback uint64) (uint64, error) {
	var setting models.SystemSetting
	err := s.db.WithContext(ctx).Take(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("settings service: get %q: %w", key, err)
	}

	value, err := strconv.ParseUint(setting.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("settings service: parse %q=%q: %w", key, setting.Value, err)
	}
	return value, nil
}

func (s *SettingsService) upsert(ctx context.Context, key string, ticks uint64) error {
	record := models.SystemSetting{
		Key:   key,
		Value: strconv.FormatUint(ticks, 10),
	}

	err := s.db.WithContext(ctx).
		Where("key = ?", key).
		Assign(map[string]any{"value": record.Value}).
		FirstOrCreate(&record).Error
	if err != nil {
		return fmt.Errorf("settings service: upsert %q: %w", key, err)
	}

	s.logger.Info("tunable updated", zap.String("key", key), zap.Uint64("ticks", ticks))
	return nil
}
