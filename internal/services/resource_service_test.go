package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/keystone-labs/datagrant/pkg/errors"
)

func TestResourceService_Register(t *testing.T) {
	e := newTestEngine(t)
	e.clock.AdvanceTo(12)

	resource, err := e.resources.Register(context.Background(), RegisterResourceInput{
		Owner:            "alice",
		Name:             "telemetry",
		Description:      "sensor feed",
		DataType:         "timeseries",
		SensitivityLevel: 2,
	})
	require.NoError(t, err)
	require.NotZero(t, resource.ID)
	require.Equal(t, uint64(12), resource.RegisteredAt)
	require.True(t, resource.IsActive)

	stored, err := e.resources.Get(context.Background(), resource.ID)
	require.NoError(t, err)
	require.Equal(t, "telemetry", stored.Name)
	require.Equal(t, 2, stored.SensitivityLevel)
}

func TestResourceService_RegisterRejectsBadSensitivity(t *testing.T) {
	e := newTestEngine(t)

	for _, level := range []int{0, 5, -1} {
		_, err := e.resources.Register(context.Background(), RegisterResourceInput{
			Owner:            "alice",
			Name:             "telemetry",
			SensitivityLevel: level,
		})
		require.ErrorIs(t, err, apperrors.ErrInvalidInput, "sensitivity %d", level)
	}
}

func TestResourceService_RegisterRejectsEmptyName(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.resources.Register(context.Background(), RegisterResourceInput{
		Owner:            "alice",
		Name:             "   ",
		SensitivityLevel: 1,
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestResourceService_Update(t *testing.T) {
	e := newTestEngine(t)
	resource := e.mustRegisterResource(t, "alice", "telemetry")

	updated, err := e.resources.Update(context.Background(), resource.ID, "alice", UpdateResourceInput{
		Name:             "telemetry-v2",
		Description:      "rotated feed",
		SensitivityLevel: 4,
	})
	require.NoError(t, err)
	require.Equal(t, "telemetry-v2", updated.Name)
	require.Equal(t, "rotated feed", updated.Description)
	require.Equal(t, 4, updated.SensitivityLevel)
}

func TestResourceService_UpdateRejectsNonOwner(t *testing.T) {
	e := newTestEngine(t)
	resource := e.mustRegisterResource(t, "alice", "telemetry")

	_, err := e.resources.Update(context.Background(), resource.ID, "mallory", UpdateResourceInput{Name: "stolen"})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestResourceService_UpdateRejectsBadSensitivity(t *testing.T) {
	e := newTestEngine(t)
	resource := e.mustRegisterResource(t, "alice", "telemetry")

	_, err := e.resources.Update(context.Background(), resource.ID, "alice", UpdateResourceInput{SensitivityLevel: 9})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestResourceService_UpdateUnknownResource(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.resources.Update(context.Background(), 999, "alice", UpdateResourceInput{Name: "ghost"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResourceService_UpdateDeactivatedResource(t *testing.T) {
	e := newTestEngine(t)
	resource := e.mustRegisterResource(t, "alice", "telemetry")

	require.NoError(t, e.resources.Deactivate(context.Background(), resource.ID, "alice"))

	_, err := e.resources.Update(context.Background(), resource.ID, "alice", UpdateResourceInput{Name: "late"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResourceService_Deactivate(t *testing.T) {
	e := newTestEngine(t)
	resource := e.mustRegisterResource(t, "alice", "telemetry")

	require.ErrorIs(t, e.resources.Deactivate(context.Background(), resource.ID, "mallory"), apperrors.ErrUnauthorized)

	require.NoError(t, e.resources.Deactivate(context.Background(), resource.ID, "alice"))

	active, err := e.resources.IsActive(context.Background(), resource.ID)
	require.NoError(t, err)
	require.False(t, active)

	// calling twice is allowed and harmless
	require.NoError(t, e.resources.Deactivate(context.Background(), resource.ID, "alice"))

	// the record survives deactivation
	stored, err := e.resources.Get(context.Background(), resource.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
}

func TestResourceService_GetUnknown(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.resources.Get(context.Background(), 42)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	active, err := e.resources.IsActive(context.Background(), 42)
	require.NoError(t, err)
	require.False(t, active)
}

func TestResourceService_OwnerOf(t *testing.T) {
	e := newTestEngine(t)
	resource := e.mustRegisterResource(t, "alice", "telemetry")

	owner, err := e.resources.OwnerOf(context.Background(), resource.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", owner)

	_, err = e.resources.OwnerOf(context.Background(), 999)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
