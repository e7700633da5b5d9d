package errors

import (
	stdErrors "errors"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := ErrExpired.WithInternal(stdErrors.New("tick 150 >= 100"))

	if !stdErrors.Is(wrapped, ErrExpired) {
		t.Fatal("expected wrapped copy to match its sentinel")
	}
	if stdErrors.Is(wrapped, ErrNotFound) {
		t.Fatal("expected codes to differentiate sentinels")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternal.Code {
		t.Fatalf("expected internal code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewInvalidInput(t *testing.T) {
	err := NewInvalidInput("sensitivity level out of range")
	if err.Code != ErrInvalidInput.Code {
		t.Fatalf("expected %s, got %s", ErrInvalidInput.Code, err.Code)
	}
	if err.Message != "sensitivity level out of range" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != ErrInvalidInput.StatusCode {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
}
