package maintenance

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"
)

// =============================================================================
// COMPLIANCE UPDATER - Marks scheduled maintenance as performed
// =============================================================================

// Updater toggles the completion flag of plan records.
type Updater struct {
	Store Store
	// Now is the clock used for completion dates. Defaults to time.Now.
	Now func() time.Time
}

// NewUpdater creates an updater backed by store.
func NewUpdater(store Store) *Updater {
	return &Updater{Store: store, Now: time.Now}
}

func (u *Updater) completionDate() *string {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	return strPtr(FormatDate(now()))
}

// update builds the store change for one record.
func (u *Updater) update(id int64, complete bool) CompletionUpdate {
	upd := CompletionUpdate{ID: id, Completed: complete}
	if complete {
		upd.Date = u.completionDate()
	}
	return upd
}

// Apply marks a single record complete (dated today) or open (no date).
// Returns the number of rows changed: 0 if the id doesn't exist, else 1.
func (u *Updater) Apply(ctx context.Context, id int64, complete bool) (int64, error) {
	upd := u.update(id, complete)
	n, err := u.Store.UpdateCompletion(ctx, upd.ID, upd.Completed, upd.Date)
	if err != nil {
		return 0, fmt.Errorf("apply compliance to %d: %w", id, err)
	}
	return n, nil
}

// ApplyBatch applies id -> complete in a single store transaction and
// returns the total rows changed. Ids are applied in ascending order.
func (u *Updater) ApplyBatch(ctx context.Context, changes map[int64]bool) (int64, error) {
	if len(changes) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	updates := make([]CompletionUpdate, 0, len(ids))
	for _, id := range ids {
		updates = append(updates, u.update(id, changes[id]))
	}

	n, err := u.Store.UpdateCompletionBatch(ctx, updates)
	if err != nil {
		return 0, fmt.Errorf("apply compliance batch: %w", err)
	}
	log.Printf("[Compliance] Updated %d of %d records", n, len(updates))
	return n, nil
}
