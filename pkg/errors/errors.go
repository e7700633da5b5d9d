package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError provides a structured error that can be surfaced to callers.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches two AppErrors by code so wrapped copies still compare equal.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e != nil && other != nil && e.Code == other.Code
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// Common errors exposed to the rest of the engine.
var (
	// ErrNotFound signals an unknown (or deactivated) resource, grant or record id.
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Record not found",
		StatusCode: http.StatusNotFound,
	}

	// ErrUnauthorized signals a caller without owner or delegated admin rights.
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Caller lacks owner or admin rights",
		StatusCode: http.StatusForbidden,
	}

	// ErrPermissionDenied signals an access attempt without a sufficient active grant.
	ErrPermissionDenied = &AppError{
		Code:       "PERMISSION_DENIED",
		Message:    "No sufficient active grant for this action",
		StatusCode: http.StatusForbidden,
	}

	// ErrExpired signals a grant that existed but has lapsed.
	ErrExpired = &AppError{
		Code:       "GRANT_EXPIRED",
		Message:    "Grant has expired",
		StatusCode: http.StatusGone,
	}

	// ErrInvalidInput signals a malformed field value.
	ErrInvalidInput = &AppError{
		Code:       "INVALID_INPUT",
		Message:    "Invalid input",
		StatusCode: http.StatusBadRequest,
	}

	// ErrAlreadyExists signals a duplicate registration.
	ErrAlreadyExists = &AppError{
		Code:       "ALREADY_EXISTS",
		Message:    "Record already exists",
		StatusCode: http.StatusConflict,
	}

	// ErrInvalidDuration signals a duration outside the configured bounds.
	ErrInvalidDuration = &AppError{
		Code:       "INVALID_DURATION",
		Message:    "Duration exceeds the configured maximum",
		StatusCode: http.StatusBadRequest,
	}

	// ErrInternal is the fallback for unexpected storage or encoding failures.
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into an AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       ErrInternal.Code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError converts a generic error into an AppError, defaulting to ErrInternal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternal.WithInternal(err)
}

// NewInvalidInput wraps validation failures with a helpful message.
func NewInvalidInput(message string) *AppError {
	return &AppError{
		Code:       ErrInvalidInput.Code,
		Message:    message,
		StatusCode: ErrInvalidInput.StatusCode,
	}
}
