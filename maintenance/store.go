/*
store.go - Persistence contract for maintenance plan records

PURPOSE:
  Defines the interface between the maintenance core and the database.
  Implementations hold no live cursors: every call returns a snapshot and
  releases its resources before returning.

SCHEMA EVOLUTION:
  EnsureSchema is additive-only and idempotent. It creates the plan table
  when absent and adds any missing column of the fixed target set. It never
  drops or renames columns.

COMPLETION INVARIANT:
  UpdateCompletion/UpdateCompletionBatch always write cumplido and
  fecha_cumplimiento in the same statement. Implementations reject
  completed=true without a date and force the date to NULL when
  completed=false.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite file, fresh connection per call
  - maintenance/store/memory.go: in-memory, for tests

SEE ALSO:
  - compliance.go: Updater uses UpdateCompletion*
  - session.go: SavePlan uses InsertBatch
*/
package maintenance

import (
	"context"
	"strings"
)

// Store persists maintenance plan records.
type Store interface {
	// EnsureSchema creates or additively migrates the plan table.
	EnsureSchema(ctx context.Context) error

	// Insert appends a record and returns its assigned id.
	Insert(ctx context.Context, rec Record) (int64, error)

	// InsertBatch appends records in one transaction and returns their ids.
	InsertBatch(ctx context.Context, recs []Record) ([]int64, error)

	// UpdateCompletion sets cumplido and fecha_cumplimiento together.
	// Returns the number of rows changed (0 or 1).
	UpdateCompletion(ctx context.Context, id int64, completed bool, date *string) (int64, error)

	// UpdateCompletionBatch applies updates in one transaction and returns
	// the total number of rows changed.
	UpdateCompletionBatch(ctx context.Context, updates []CompletionUpdate) (int64, error)

	// Delete removes the given ids and returns how many rows were removed.
	Delete(ctx context.Context, ids []int64) (int64, error)

	// ListAll returns every record ordered by id.
	ListAll(ctx context.Context) ([]Record, error)

	// ListBy returns the records matching the filter ordered by id.
	ListBy(ctx context.Context, f Filter) ([]Record, error)
}

// ValidateCompletion normalizes a completion change. A completed record
// needs a non-blank date; an open record never keeps one.
func ValidateCompletion(completed bool, date *string) (*string, error) {
	if !completed {
		return nil, nil
	}
	if date == nil || strings.TrimSpace(*date) == "" {
		return nil, &InputError{Field: "fecha_cumplimiento", Message: "required when cumplido is true"}
	}
	d := strings.TrimSpace(*date)
	return &d, nil
}
