// Package datagrant is an embeddable permission-management engine: it tracks
// named data resources, issues time-bounded leveled grants to principals and
// authorizes every access attempt against the current active grant, keeping
// a write-once audit trail. Time is an external monotonic tick counter
// advanced by the embedding application; expiry is evaluated lazily at check
// time.
package datagrant

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/keystone-labs/datagrant/internal/app"
	"github.com/keystone-labs/datagrant/internal/clock"
	"github.com/keystone-labs/datagrant/internal/database"
	"github.com/keystone-labs/datagrant/internal/events"
	"github.com/keystone-labs/datagrant/internal/models"
	"github.com/keystone-labs/datagrant/internal/services"
	"github.com/keystone-labs/datagrant/pkg/logger"
)

// Re-exported types so embedding applications can name the engine's inputs
// and records without reaching into internal packages.
type (
	Config                   = app.Config
	DatabaseConfig           = app.DatabaseConfig
	AccessConfig             = app.AccessConfig
	Resource                 = models.Resource
	Permission               = models.Permission
	PermissionLevel          = models.PermissionLevel
	AuditEntry               = models.AuditEntry
	Application              = models.Application
	RegisterResourceInput    = services.RegisterResourceInput
	UpdateResourceInput      = services.UpdateResourceInput
	GrantInput               = services.GrantInput
	RegisterApplicationInput = services.RegisterApplicationInput
	Event                    = events.Event
	EventType                = events.Type
	Sink                     = events.Sink
)

// Permission levels, ordered so a higher grant satisfies a lower requirement.
const (
	LevelRead  = models.LevelRead
	LevelWrite = models.LevelWrite
	LevelAdmin = models.LevelAdmin
)

// Event types emitted to the configured sink.
const (
	EventAccessRequested    = events.TypeAccessRequested
	EventDataAccessed       = events.TypeDataAccessed
	EventPermissionGranted  = events.TypePermissionGranted
	EventPermissionRevoked  = events.TypePermissionRevoked
	EventPermissionExtended = events.TypePermissionExtended
	EventEmergencyRevokeAll = events.TypeEmergencyRevokeAll
)

// LoadConfig reads engine configuration from config files and the
// environment.
func LoadConfig(paths ...string) (*Config, error) {
	return app.LoadConfig(paths...)
}

// Engine bundles the engine's services over one database handle and one
// clock.
type Engine struct {
	Resources    *services.ResourceService
	Permissions  *services.PermissionService
	Authz        *services.AuthzService
	Audit        *services.AuditService
	Settings     *services.SettingsService
	Applications *services.ApplicationService

	// Clock is the engine's tick source. The embedding application advances
	// it; the engine only ever reads it.
	Clock *clock.Counter

	DB *gorm.DB
}

// Option customises engine construction.
type Option func(*engineOptions)

type engineOptions struct {
	db        *gorm.DB
	sink      events.Sink
	startTick uint64
}

// WithDB uses an existing database handle instead of opening one from config.
func WithDB(db *gorm.DB) Option {
	return func(o *engineOptions) { o.db = db }
}

// WithSink routes engine events to the given sink instead of the log sink.
func WithSink(sink events.Sink) Option {
	return func(o *engineOptions) { o.sink = sink }
}

// WithStartTick initialises the clock at the given tick.
func WithStartTick(tick uint64) Option {
	return func(o *engineOptions) { o.startTick = tick }
}

// New builds a ready-to-use engine from configuration: logger, database
// (with migrations applied), clock, event sink and all services.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("datagrant: config is required")
	}

	var options engineOptions
	for _, opt := range opts {
		opt(&options)
	}

	if err := app.ConfigureLogging(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("datagrant: configure logging: %w", err)
	}

	db := options.db
	if db == nil {
		opened, err := database.Open(databaseConfig(cfg.Database))
		if err != nil {
			return nil, fmt.Errorf("datagrant: open database: %w", err)
		}
		db = opened
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("datagrant: migrate: %w", err)
	}

	sink := options.sink
	if sink == nil {
		sink = events.NewLogSink(logger.WithModule("events"))
	}

	clk := clock.NewCounter(options.startTick)

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	authz, err := services.NewAuthzService(db, clk, audit, sink)
	if err != nil {
		return nil, err
	}
	settings, err := services.NewSettingsService(db, cfg.Access.AdminPrincipal, cfg.Access.DefaultDuration, cfg.Access.MaxDuration)
	if err != nil {
		return nil, err
	}
	perms, err := services.NewPermissionService(db, clk, authz, settings, sink)
	if err != nil {
		return nil, err
	}
	resources, err := services.NewResourceService(db, clk)
	if err != nil {
		return nil, err
	}
	applications, err := services.NewApplicationService(db, clk, cfg.Access.AdminPrincipal)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Resources:    resources,
		Permissions:  perms,
		Authz:        authz,
		Audit:        audit,
		Settings:     settings,
		Applications: applications,
		Clock:        clk,
		DB:           db,
	}, nil
}

// Close releases the underlying database connection.
func (e *Engine) Close() error {
	sqlDB, err := e.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func databaseConfig(cfg DatabaseConfig) database.Config {
	out := database.Config{
		Driver: cfg.Driver,
		Path:   cfg.Path,
		DSN:    cfg.DSN,
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "postgres":
		out.Host = cfg.Postgres.Host
		out.Port = cfg.Postgres.Port
		out.User = cfg.Postgres.Username
		out.Password = cfg.Postgres.Password
		out.Name = cfg.Postgres.Database
	case "mysql":
		out.Host = cfg.MySQL.Host
		out.Port = cfg.MySQL.Port
		out.User = cfg.MySQL.Username
		out.Password = cfg.MySQL.Password
		out.Name = cfg.MySQL.Database
	}

	return out
}
