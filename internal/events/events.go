// Package events delivers structured engine events to external observers.
// Emission is fire-and-forget: sink failures never fail the operation that
// produced the event.
package events

import (
	"sync"

	"go.uber.org/zap"
)

// Type identifies an engine event.
type Type string

const (
	TypeAccessRequested    Type = "access-requested"
	TypeDataAccessed       Type = "data-accessed"
	TypePermissionGranted  Type = "permission-granted"
	TypePermissionRevoked  Type = "permission-revoked"
	TypePermissionExtended Type = "permission-extended"
	TypeEmergencyRevokeAll Type = "emergency-revoke-all"
)

// Event is the payload delivered to sinks.
type Event struct {
	Type       Type           `json:"type"`
	ResourceID uint64         `json:"resource_id"`
	Principal  string         `json:"principal"`
	Tick       uint64         `json:"tick"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Sink consumes engine events.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// LogSink writes events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink builds a sink logging through the provided logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(event Event) {
	s.logger.Info("engine event",
		zap.String("event", string(event.Type)),
		zap.Uint64("resource_id", event.ResourceID),
		zap.String("principal", event.Principal),
		zap.Uint64("tick", event.Tick),
		zap.Any("metadata", event.Metadata),
	)
}

// MultiSink fans events out to every registered sink.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink builds a fan-out over the provided sinks, skipping nils.
func NewMultiSink(sinks ...Sink) *MultiSink {
	out := &MultiSink{}
	for _, sink := range sinks {
		if sink != nil {
			out.sinks = append(out.sinks, sink)
		}
	}
	return out
}

func (s *MultiSink) Emit(event Event) {
	for _, sink := range s.sinks {
		sink.Emit(event)
	}
}

// CaptureSink retains emitted events in order. Intended for tests.
type CaptureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *CaptureSink) Emit(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of everything emitted so far.
func (s *CaptureSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// OfType returns captured events matching the given type, in order.
func (s *CaptureSink) OfType(t Type) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, event := range s.events {
		if event.Type == t {
			out = append(out, event)
		}
	}
	return out
}
