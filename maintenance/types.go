/*
Package maintenance provides the core of the preventive-maintenance plan.

PURPOSE:
  Turns a flat list of laboratory equipment into maintenance decisions:
  which units are due, which were serviced, and how the fleet is doing.
  Everything here is pure computation over plain values except the
  Store-backed operations (Updater, Session.SavePlan), which only talk to
  the Store interface.

KEY CONCEPTS IN THIS FILE (types.go):
  - Record: a persisted plan row (one unit with a tentative date)
  - ImportedEquipment: a transient roster row read from a spreadsheet
  - Identity: the natural key used when no stable key is available
  - Filter / CompletionUpdate: store query and write arguments

STORAGE NAMES:
  Go fields are English; db and json tags keep the column names of the
  plan_mantenimiento table so existing databases and UI clients keep
  working unchanged.

SEE ALSO:
  - status.go: next-due classification
  - insights.go: fleet summary
  - compliance.go: completion toggling
  - session.go: import-to-plan workflow
  - store.go: persistence contract
*/
package maintenance

import "strings"

// =============================================================================
// RECORD - One row of the maintenance plan
// =============================================================================

// Record is a persisted maintenance plan entry.
//
// Invariant: CompletionDate != nil if and only if Completed is true.
type Record struct {
	ID              int64   `db:"id" json:"id"`
	Equipment       string  `db:"equipo" json:"equipo"`
	Brand           string  `db:"marca" json:"marca"`
	Model           string  `db:"modelo" json:"modelo"`
	Code            string  `db:"codigo" json:"codigo"`
	Location        string  `db:"ubicacion" json:"ubicacion"`
	Responsible     string  `db:"responsable" json:"responsable"`
	TentativeDate   string  `db:"fecha_tentativa" json:"fecha_tentativa"`
	Completed       bool    `db:"cumplido" json:"cumplido"`
	CompletionDate  *string `db:"fecha_cumplimiento" json:"fecha_cumplimiento"`
	LastMaintenance *string `db:"ultimo_mantenimiento" json:"ultimo_mantenimiento"`
	FrequencyMonths *int    `db:"frecuencia_meses" json:"frecuencia_meses"`
}

// Identity returns the natural key of the record.
func (r Record) Identity() Identity {
	return Identity{
		Equipment: r.Equipment,
		Brand:     r.Brand,
		Model:     r.Model,
		Code:      r.Code,
		Location:  r.Location,
	}
}

// =============================================================================
// IMPORTED EQUIPMENT - Transient roster rows
// =============================================================================

// ImportedEquipment is a roster row read from a spreadsheet. It lives only
// for the duration of a planning session.
type ImportedEquipment struct {
	// Key is a stable reference generated at import time. Selection UIs
	// carry it instead of a formatted display string.
	Key string `json:"key"`
	// Row is the zero-based data row index in the source sheet.
	Row int `json:"row"`

	Equipment       string  `json:"equipo"`
	Brand           string  `json:"marca"`
	Model           string  `json:"modelo"`
	Code            string  `json:"codigo"`
	Location        string  `json:"ubicacion"`
	Responsible     string  `json:"responsable"`
	FrequencyMonths *int    `json:"frecuencia_meses"`
	LastMaintenance *string `json:"ultimo_mantenimiento"`
	Status          Status  `json:"estado"`
}

// Identity returns the natural key of the imported row.
func (e ImportedEquipment) Identity() Identity {
	return Identity{
		Equipment: e.Equipment,
		Brand:     e.Brand,
		Model:     e.Model,
		Code:      e.Code,
		Location:  e.Location,
	}
}

// Identity is the fallback match key between an imported row and a plan row.
type Identity struct {
	Equipment string `json:"equipo"`
	Brand     string `json:"marca"`
	Model     string `json:"modelo"`
	Code      string `json:"codigo"`
	Location  string `json:"ubicacion"`
}

// Matches compares two identities field by field after trimming blanks.
func (id Identity) Matches(other Identity) bool {
	eq := func(a, b string) bool { return strings.TrimSpace(a) == strings.TrimSpace(b) }
	return eq(id.Equipment, other.Equipment) &&
		eq(id.Brand, other.Brand) &&
		eq(id.Model, other.Model) &&
		eq(id.Code, other.Code) &&
		eq(id.Location, other.Location)
}

// =============================================================================
// STORE ARGUMENTS
// =============================================================================

// Filter narrows ListBy results. Zero values mean "any".
type Filter struct {
	Location  string
	Completed *bool
	IDs       []int64
}

// CompletionUpdate is a single completion change applied by the store.
type CompletionUpdate struct {
	ID        int64
	Completed bool
	Date      *string
}

func strPtr(s string) *string {
	return &s
}
