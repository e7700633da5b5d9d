package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/keystone-labs/datagrant/internal/clock"
	"github.com/keystone-labs/datagrant/internal/database/testutil"
	"github.com/keystone-labs/datagrant/internal/events"
	"github.com/keystone-labs/datagrant/internal/models"
)

const (
	testAdmin        = "admin"
	testDefaultTicks = uint64(1000)
	testMaxTicks     = uint64(10000)
)

type testEngine struct {
	db        *gorm.DB
	clock     *clock.Counter
	sink      *events.CaptureSink
	resources *ResourceService
	perms     *PermissionService
	authz     *AuthzService
	audit     *AuditService
	settings  *SettingsService
	apps      *ApplicationService
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	clk := clock.NewCounter(0)
	sink := &events.CaptureSink{}

	audit, err := NewAuditService(db)
	require.NoError(t, err)

	authz, err := NewAuthzService(db, clk, audit, sink)
	require.NoError(t, err)

	settings, err := NewSettingsService(db, testAdmin, testDefaultTicks, testMaxTicks)
	require.NoError(t, err)

	perms, err := NewPermissionService(db, clk, authz, settings, sink)
	require.NoError(t, err)

	resources, err := NewResourceService(db, clk)
	require.NoError(t, err)

	apps, err := NewApplicationService(db, clk, testAdmin)
	require.NoError(t, err)

	return &testEngine{
		db:        db,
		clock:     clk,
		sink:      sink,
		resources: resources,
		perms:     perms,
		authz:     authz,
		audit:     audit,
		settings:  settings,
		apps:      apps,
	}
}

func (e *testEngine) mustRegisterResource(t *testing.T, owner, name string) *models.Resource {
	t.Helper()

	resource, err := e.resources.Register(context.Background(), RegisterResourceInput{
		Owner:            owner,
		Name:             name,
		Description:      "test resource",
		DataType:         "dataset",
		SensitivityLevel: 3,
	})
	require.NoError(t, err)
	return resource
}

func (e *testEngine) mustGrant(t *testing.T, resourceID uint64, grantor, grantee string, level models.PermissionLevel, duration *uint64) *models.Permission {
	t.Helper()

	perm, err := e.perms.Grant(context.Background(), GrantInput{
		ResourceID: resourceID,
		Grantor:    grantor,
		Grantee:    grantee,
		Level:      level,
		Duration:   duration,
		Purpose:    "testing",
	})
	require.NoError(t, err)
	return perm
}

func ticks(v uint64) *uint64 {
	return &v
}
