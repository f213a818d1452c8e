package types

import (
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// The prefix of a code decides its Category.
const (
	// Malformed payloads (one event is dropped, caller logs and skips)
	ErrCodePayloadMissingField ErrorCode = "payload_missing_required_field"
	ErrCodePayloadInvalidField ErrorCode = "payload_invalid_field"
	ErrCodePayloadUnknownKind  ErrorCode = "payload_unknown_kind"

	// Invalid configuration (aborts activation of a filter or a reload generation)
	ErrCodeConfigUnknownKey       ErrorCode = "config_unknown_key"
	ErrCodeConfigInvalidValue     ErrorCode = "config_invalid_value"
	ErrCodeConfigUnknownName      ErrorCode = "config_unknown_name"
	ErrCodeConfigUnknownAttribute ErrorCode = "config_unknown_attribute"
	ErrCodeConfigInvalidGeofence  ErrorCode = "config_invalid_geofence"
	ErrCodeConfigUnknownGeofence  ErrorCode = "config_unknown_geofence"
	ErrCodeConfigTimeWindow       ErrorCode = "config_time_window_invalid"
	ErrCodeConfigUnreadable       ErrorCode = "config_file_unreadable"

	// Static table misses. Never fatal; the core turns these into Unknown.
	ErrCodeLookupSpecies ErrorCode = "lookup_species_not_found"
	ErrCodeLookupMove    ErrorCode = "lookup_move_not_found"

	// Cache persistence
	ErrCodeCacheRead  ErrorCode = "cache_read_failed"
	ErrCodeCacheWrite ErrorCode = "cache_write_failed"

	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// Category groups error codes the way callers react to them.
type Category string

const (
	CategoryMalformedPayload     Category = "malformed_payload"
	CategoryInvalidConfiguration Category = "invalid_configuration"
	CategoryLookupMiss           Category = "lookup_miss"
	CategoryCache                Category = "cache"
	CategoryInternal             Category = "internal"
)

// Category maps an ErrorCode to its Category.
// Returns CategoryInternal for unrecognized error codes as a safe default.
func (c ErrorCode) Category() Category {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "payload_"):
		return CategoryMalformedPayload
	case strings.HasPrefix(s, "config_"):
		return CategoryInvalidConfiguration
	case strings.HasPrefix(s, "lookup_"):
		return CategoryLookupMiss
	case strings.HasPrefix(s, "cache_"):
		return CategoryCache
	default:
		return CategoryInternal
	}
}

// categoryError is a sentinel matched by errors.Is against any AppError of
// the same category.
type categoryError struct {
	category Category
}

func (e *categoryError) Error() string { return string(e.category) }

// Sentinels for errors.Is checks, e.g. errors.Is(err, types.ErrMalformedPayload).
var (
	ErrMalformedPayload     error = &categoryError{category: CategoryMalformedPayload}
	ErrInvalidConfiguration error = &categoryError{category: CategoryInvalidConfiguration}
	ErrLookupMiss           error = &categoryError{category: CategoryLookupMiss}
)

// AppError is the standard application error type used throughout pokewatch.
// All domain errors should be expressed as AppError to enable consistent
// categorization, structured details, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the category sentinel for this error's code.
func (e *AppError) Is(target error) bool {
	ce, ok := target.(*categoryError)
	if !ok {
		return false
	}
	return e.Code.Category() == ce.category
}

// Category returns the category of this error's code.
func (e *AppError) Category() Category {
	return e.Code.Category()
}

// WithDetails returns a copy of the error with the provided details merged in.
// This is useful for adding context without mutating the original error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
