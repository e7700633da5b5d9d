package logger

import "testing"

func TestInitAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := Init(level); err != nil {
			t.Fatalf("Init(%q) returned error: %v", level, err)
		}
		if Logger() == nil {
			t.Fatalf("Logger() returned nil after Init(%q)", level)
		}
	}
}

func TestInitFallsBackOnUnknownLevel(t *testing.T) {
	if err := Init("verbose-ish"); err != nil {
		t.Fatalf("Init with unknown level should fall back, got %v", err)
	}
}

func TestWithModuleReturnsChild(t *testing.T) {
	if WithModule("permissions") == nil {
		t.Fatal("expected a child logger")
	}
}
