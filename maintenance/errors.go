/*
errors.go - Centralized error types for the maintenance core

PURPOSE:
  All error types in one place so callers (HTTP surface, CLI) can decide
  how to present a failure without string matching.

ERROR CATEGORIES:
  1. Input errors - malformed import columns, invalid dates, bad ids
  2. Storage errors - store location unreadable, locked or missing
  3. Template errors - report template missing or lacking the block marker

  Data-quality warnings (unmatched plan rows) are not errors: they are
  returned as PlanResult.Skipped and logged.

USAGE:
  if errors.Is(err, maintenance.ErrStorageUnavailable) {
      // prompt the user to pick another database
  }

SEE ALSO:
  - store/sqlite/sqlite.go: produces StorageError
  - importer/importer.go: produces MissingColumnsError
  - report/render.go: produces TemplateError
*/
package maintenance

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is the root of every user-input failure.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingColumns is returned when required import columns are absent
	// after header aliasing.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrStorageUnavailable is returned when the store location cannot be
	// opened, read or written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNoStoreSelected is returned when an operation needs a store and the
	// session has none.
	ErrNoStoreSelected = errors.New("no store selected")

	// ErrTemplate is the root of every report template failure.
	ErrTemplate = errors.New("template error")

	// ErrPlaceholderMissing is returned when the template has no table marker.
	ErrPlaceholderMissing = errors.New("template placeholder missing")

	// ErrNoRecords is returned when a report is requested from an empty plan.
	ErrNoRecords = errors.New("maintenance plan is empty")

	// ErrRecordNotFound is returned when a referenced record doesn't exist.
	ErrRecordNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingColumnsError names the canonical columns an import lacked.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Unwrap() []error {
	return []error{ErrMissingColumns, ErrInvalidInput}
}

// InputError describes a rejected user value.
type InputError struct {
	Field   string
	Value   string
	Message string
}

func (e *InputError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// StorageError wraps a storage-layer failure with the operation and path.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage unavailable: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.Err}
}

// TemplateError describes a report template failure.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("template: %v", e.Err)
	}
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() []error {
	return []error{ErrTemplate, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInputError returns true if the error is due to invalid user input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsStorageError returns true if the store location is unusable.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrNoStoreSelected)
}

// IsTemplateError returns true if the report template is unusable.
func IsTemplateError(err error) bool {
	return errors.Is(err, ErrTemplate)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
