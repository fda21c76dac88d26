package maintenance

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SESSION - Import-to-plan workflow state
// =============================================================================

// Session holds the state a planning UI works with: the selected store and
// the imported roster. The UI owns the session and passes it explicitly;
// the core keeps no globals.
type Session struct {
	Store    Store
	imported []ImportedEquipment
	byKey    map[string]int
	selected map[string]bool
}

// NewSession creates an empty session bound to store (which may be nil
// until the user picks one).
func NewSession(store Store) *Session {
	return &Session{
		Store:    store,
		byKey:    make(map[string]int),
		selected: make(map[string]bool),
	}
}

// Load replaces the imported roster. Rows without a key get a fresh UUID
// and every row is classified as of today. The selection is cleared.
func (s *Session) Load(rows []ImportedEquipment, today time.Time) []ImportedEquipment {
	s.imported = make([]ImportedEquipment, len(rows))
	s.byKey = make(map[string]int, len(rows))
	s.selected = make(map[string]bool)

	for i, row := range rows {
		if row.Key == "" {
			row.Key = uuid.NewString()
		}
		row.Status = ClassifyImported(today, row)
		s.imported[i] = row
		s.byKey[row.Key] = i
	}
	return s.Imported("")
}

// Reclassify recomputes every imported row's status as of today. Status
// depends on the current date, so long-lived sessions refresh it when the
// day changes.
func (s *Session) Reclassify(today time.Time) int {
	for i := range s.imported {
		s.imported[i].Status = ClassifyImported(today, s.imported[i])
	}
	return len(s.imported)
}

// Imported returns a copy of the roster, optionally limited to one location.
func (s *Session) Imported(location string) []ImportedEquipment {
	out := make([]ImportedEquipment, 0, len(s.imported))
	for _, row := range s.imported {
		if location != "" && strings.TrimSpace(row.Location) != strings.TrimSpace(location) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// Locations returns the distinct non-blank locations of the roster, sorted.
func (s *Session) Locations() []string {
	seen := make(map[string]bool)
	var locs []string
	for _, row := range s.imported {
		loc := strings.TrimSpace(row.Location)
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	return locs
}

// Lookup returns the imported row with the given key.
func (s *Session) Lookup(key string) (ImportedEquipment, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return ImportedEquipment{}, false
	}
	return s.imported[i], true
}

// Select adds keys to the selection. Unknown keys are ignored and returned.
func (s *Session) Select(keys ...string) (unknown []string) {
	for _, k := range keys {
		if _, ok := s.byKey[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		s.selected[k] = true
	}
	return unknown
}

// Deselect removes keys from the selection.
func (s *Session) Deselect(keys ...string) {
	for _, k := range keys {
		delete(s.selected, k)
	}
}

// Selected returns the selected rows in roster order.
func (s *Session) Selected() []ImportedEquipment {
	var out []ImportedEquipment
	for _, row := range s.imported {
		if s.selected[row.Key] {
			out = append(out, row)
		}
	}
	return out
}

// =============================================================================
// PLAN SAVE
// =============================================================================

// Assignment pairs an imported row with its tentative maintenance date.
// Key is preferred; Identity is the fallback when the key is unknown.
type Assignment struct {
	Key           string    `json:"key"`
	Identity      *Identity `json:"identity,omitempty"`
	TentativeDate string    `json:"fecha_tentativa"`
}

func (a Assignment) ref() string {
	if a.Key != "" {
		return a.Key
	}
	if a.Identity != nil {
		id := a.Identity
		return fmt.Sprintf("%s | %s | %s | %s | %s", id.Equipment, id.Brand, id.Model, id.Code, id.Location)
	}
	return "(empty assignment)"
}

// PlanResult reports the outcome of SavePlan. Skipped rows are not counted
// in Inserted.
type PlanResult struct {
	Inserted []int64  `json:"inserted"`
	Skipped  []string `json:"skipped"`
}

// SavePlan persists one plan record per matched assignment. A blank date is
// saved as "". Every other date is validated before anything is written, so
// an invalid date aborts the save with no partial insert. Assignments that match no imported row are
// logged and skipped without aborting the rest.
func (s *Session) SavePlan(ctx context.Context, assignments []Assignment) (PlanResult, error) {
	result := PlanResult{Inserted: []int64{}, Skipped: []string{}}
	if s.Store == nil {
		return result, ErrNoStoreSelected
	}

	for _, a := range assignments {
		date := strings.TrimSpace(a.TentativeDate)
		if date == "" {
			continue
		}
		if _, ok := ParseDate(date); !ok {
			return result, &InputError{Field: "fecha_tentativa", Value: a.TentativeDate, Message: "expected dd/mm/yyyy for " + a.ref()}
		}
	}

	var recs []Record
	for _, a := range assignments {
		row, ok := s.match(a)
		if !ok {
			log.Printf("[Plan] No imported row for %s, skipping", a.ref())
			result.Skipped = append(result.Skipped, a.ref())
			continue
		}
		recs = append(recs, Record{
			Equipment:       row.Equipment,
			Brand:           row.Brand,
			Model:           row.Model,
			Code:            row.Code,
			Location:        row.Location,
			Responsible:     row.Responsible,
			TentativeDate:   strings.TrimSpace(a.TentativeDate),
			LastMaintenance: row.LastMaintenance,
			FrequencyMonths: row.FrequencyMonths,
		})
	}

	if len(recs) == 0 {
		return result, nil
	}

	if err := s.Store.EnsureSchema(ctx); err != nil {
		return result, err
	}
	ids, err := s.Store.InsertBatch(ctx, recs)
	if err != nil {
		return result, fmt.Errorf("save plan: %w", err)
	}
	result.Inserted = ids
	log.Printf("[Plan] Saved %d records, skipped %d", len(ids), len(result.Skipped))
	return result, nil
}

func (s *Session) match(a Assignment) (ImportedEquipment, bool) {
	if a.Key != "" {
		if row, ok := s.Lookup(a.Key); ok {
			return row, true
		}
	}
	if a.Identity == nil {
		return ImportedEquipment{}, false
	}
	for _, row := range s.imported {
		if row.Identity().Matches(*a.Identity) {
			return row, true
		}
	}
	return ImportedEquipment{}, false
}
