package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Config contains database connection options.
type Config struct {
	Driver   string            // sqlite (default), postgres or mysql
	Path     string            // SQLite database path when Driver == sqlite
	DSN      string            // Optional DSN override for any driver
	Host     string            // Host based drivers
	Port     int               //
	User     string            //
	Password string            //
	Name     string            // Database name for host based drivers
	Options  map[string]string // Extra DSN parameters
}

// Open initialises a gorm.DB using the provided configuration.
func Open(cfg Config) (*gorm.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	switch driver {
	case "sqlite":
		return openSQLite(cfg)
	case "postgres":
		return openPostgres(cfg)
	case "mysql":
		return openMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
