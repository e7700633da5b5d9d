package app

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the datagrant engine.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Database DatabaseConfig `mapstructure:"database"`
	Access   AccessConfig   `mapstructure:"access"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AccessConfig carries the permission tunables and the administrator
// identity allowed to change them at runtime.
type AccessConfig struct {
	// DefaultDuration is the suggested grant duration in ticks, exposed to
	// embedding callers; grants without an explicit duration are permanent.
	DefaultDuration uint64 `mapstructure:"default_duration"`
	// MaxDuration bounds grant durations and extensions, in ticks.
	MaxDuration uint64 `mapstructure:"max_duration"`
	// AdminPrincipal is the only identity allowed to change tunables and
	// verify applications.
	AdminPrincipal string `mapstructure:"admin_principal"`
}

// LoadConfig initialises engine configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("DATAGRANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Access.MaxDuration == 0 {
		return errors.New("config: access.max_duration must be positive")
	}
	if c.Access.DefaultDuration > c.Access.MaxDuration {
		return fmt.Errorf("config: access.default_duration %d exceeds access.max_duration %d",
			c.Access.DefaultDuration, c.Access.MaxDuration)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/datagrant.sqlite")

	// A tick is externally defined; these defaults assume roughly
	// five-second ticks: one day default, one month cap.
	v.SetDefault("access.default_duration", 17280)
	v.SetDefault("access.max_duration", 535680)
	v.SetDefault("access.admin_principal", "admin")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
