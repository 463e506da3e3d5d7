// Package errors provides the error types used across the brickdex catalog
// pipeline. Typed errors carry enough context for callers to decide between
// falling back to the legacy catalog format, aborting, or reporting a
// terminal failure, and all support errors.Is / errors.As checks.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the catalog pipeline.
var (
	// ErrNotFound indicates that a requested record was not found.
	ErrNotFound = errors.New("not found")

	// ErrValidation groups all catalog payload validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrCancelled indicates that an operation was cancelled by the caller.
	ErrCancelled = errors.New("operation cancelled")

	// ErrNotReady indicates that the catalog has not been loaded yet.
	ErrNotReady = errors.New("catalog not ready")

	// ErrStoreBlocked indicates that the local store could not be opened.
	ErrStoreBlocked = errors.New("store unavailable")
)

// ValidationKind identifies the specific way a catalog payload failed
// validation.
type ValidationKind string

// Validation failure kinds.
const (
	UnsupportedSchema ValidationKind = "unsupported_schema"
	MissingField      ValidationKind = "missing_field"
	MissingTable      ValidationKind = "missing_table"
	SchemaMismatch    ValidationKind = "schema_mismatch"
	MalformedTable    ValidationKind = "malformed_table"
)

// ValidationError represents a catalog payload that failed structural
// validation. Table and Row are set when the failure is scoped to a
// particular table or row.
type ValidationError struct {
	Kind    ValidationKind
	Table   string
	Row     int
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Table != "" && e.Kind == MalformedTable && e.Row >= 0:
		return fmt.Sprintf("table %s, row %d: %s", e.Table, e.Row, e.Message)
	case e.Table != "":
		return fmt.Sprintf("table %s: %s", e.Table, e.Message)
	case e.Field != "":
		return fmt.Sprintf("field %s: %s", e.Field, e.Message)
	default:
		return e.Message
	}
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewUnsupportedSchema creates a ValidationError for an unknown schema version.
func NewUnsupportedSchema(got, want int) *ValidationError {
	return &ValidationError{
		Kind:    UnsupportedSchema,
		Row:     -1,
		Message: fmt.Sprintf("unsupported schema version %d, supported: %d", got, want),
	}
}

// NewMissingField creates a ValidationError for an absent envelope field.
func NewMissingField(field string) *ValidationError {
	return &ValidationError{
		Kind:    MissingField,
		Row:     -1,
		Field:   field,
		Message: "required field is missing",
	}
}

// NewMissingTable creates a ValidationError for an absent required table.
func NewMissingTable(table string) *ValidationError {
	return &ValidationError{
		Kind:    MissingTable,
		Row:     -1,
		Table:   table,
		Message: "required table is missing",
	}
}

// NewSchemaMismatch creates a ValidationError for unexpected table columns.
func NewSchemaMismatch(table string, want, got []string) *ValidationError {
	return &ValidationError{
		Kind:    SchemaMismatch,
		Row:     -1,
		Table:   table,
		Message: fmt.Sprintf("unexpected columns, want %v, got %v", want, got),
	}
}

// NewMalformedTable creates a ValidationError for a structurally broken table.
// Pass row -1 when the failure is not tied to a specific row.
func NewMalformedTable(table string, row int, message string) *ValidationError {
	return &ValidationError{
		Kind:    MalformedTable,
		Table:   table,
		Row:     row,
		Message: message,
	}
}

// NetworkError represents a failed fetch of a remote catalog resource.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError.
func NewNetworkError(url string, statusCode int, err error) *NetworkError {
	return &NetworkError{URL: url, StatusCode: statusCode, Err: err}
}

// ParseError represents a failure to parse a catalog payload. The message
// always includes the text of the underlying cause.
type ParseError struct {
	Source  string // archive name or URL being parsed
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("parse %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapParse wraps an error as a ParseError, preserving the cause text.
func WrapParse(source string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Source: source, Message: err.Error(), Err: err}
}

// StoreError represents a failure in the local catalog store.
type StoreError struct {
	Op         string // "open", "write", "read", "clear", "migrate"
	Collection string
	Err        error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support. Open and migrate failures are fatal and
// map to ErrStoreBlocked.
func (e *StoreError) Is(target error) bool {
	if target == ErrStoreBlocked {
		return e.Op == "open" || e.Op == "migrate"
	}
	return false
}

// WrapStore wraps an error as a StoreError.
func WrapStore(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}

// Cancelled wraps an error (typically a context error) as ErrCancelled while
// keeping the cause available through Unwrap.
func Cancelled(err error) error {
	if err == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %v", ErrCancelled, err)
}

// Helper functions for error checking.

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a catalog validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsCancelled checks if an error is a cancellation error.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsNetwork checks if an error is a network error.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsParse checks if an error is a parse error.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsStoreBlocked checks if an error means the store cannot be used at all.
func IsStoreBlocked(err error) bool {
	return errors.Is(err, ErrStoreBlocked)
}
