package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keystone-labs/datagrant/internal/models"
)

func TestOpenDefaultsToSQLiteMemory(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"resources", "permissions", "active_grants", "audit_entries", "applications", "system_settings"} {
		require.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestAutoMigrateAssignsMonotonicIDs(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))

	first := models.Resource{Owner: "alice", Name: "a", SensitivityLevel: 1, IsActive: true}
	second := models.Resource{Owner: "alice", Name: "b", SensitivityLevel: 1, IsActive: true}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)
	require.Greater(t, second.ID, first.ID)
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "grant", Name: "datagrant", Password: "s3cret"})
	require.NoError(t, err)
	require.Contains(t, dsn, "host=localhost")
	require.Contains(t, dsn, "port=5432")
	require.Contains(t, dsn, "dbname=datagrant")
	require.Contains(t, dsn, "sslmode=disable")

	_, err = buildPostgresDSN(Config{User: "grant"})
	require.Error(t, err)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "grant", Password: "pw", Name: "datagrant"})
	require.NoError(t, err)
	require.Contains(t, dsn, "grant:pw@tcp(127.0.0.1:3306)/datagrant?")
	require.Contains(t, dsn, "parseTime=True")

	_, err = buildMySQLDSN(Config{Name: "datagrant"})
	require.Error(t, err)
}
