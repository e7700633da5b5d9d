package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiSinkFansOut(t *testing.T) {
	first := &CaptureSink{}
	second := &CaptureSink{}

	sink := NewMultiSink(first, nil, second)
	sink.Emit(Event{Type: TypeDataAccessed, ResourceID: 7, Principal: "alice", Tick: 3})

	require.Len(t, first.Events(), 1)
	require.Len(t, second.Events(), 1)
	require.Equal(t, TypeDataAccessed, first.Events()[0].Type)
}

func TestCaptureSinkOfType(t *testing.T) {
	sink := &CaptureSink{}
	sink.Emit(Event{Type: TypeAccessRequested})
	sink.Emit(Event{Type: TypeDataAccessed})
	sink.Emit(Event{Type: TypeAccessRequested})

	require.Len(t, sink.OfType(TypeAccessRequested), 2)
	require.Len(t, sink.OfType(TypeEmergencyRevokeAll), 0)
}

func TestLogSinkToleratesNilLogger(t *testing.T) {
	sink := NewLogSink(nil)
	sink.Emit(Event{Type: TypePermissionGranted})
}
