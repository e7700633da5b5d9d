package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, uint64(17280), cfg.Access.DefaultDuration)
	require.Equal(t, uint64(535680), cfg.Access.MaxDuration)
	require.Equal(t, "admin", cfg.Access.AdminPrincipal)
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	contents := []byte(`
log_level: debug
database:
  driver: sqlite
  path: ":memory:"
access:
  default_duration: 100
  max_duration: 10000
  admin_principal: root
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), contents, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, uint64(100), cfg.Access.DefaultDuration)
	require.Equal(t, uint64(10000), cfg.Access.MaxDuration)
	require.Equal(t, "root", cfg.Access.AdminPrincipal)
}

func TestLoadConfigRejectsInvertedDurations(t *testing.T) {
	dir := t.TempDir()
	contents := []byte(`
access:
  default_duration: 500
  max_duration: 100
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), contents, 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
}

func TestConfigureLoggingDefaultsLevel(t *testing.T) {
	require.NoError(t, ConfigureLogging("  "))
	require.NoError(t, ConfigureLogging("warn"))
}
