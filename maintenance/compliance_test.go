package maintenance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/maintenance-plan/maintenance"
	"github.com/warp/maintenance-plan/maintenance/store"
)

func newUpdater(t *testing.T, n int) (*maintenance.Updater, *store.Memory, []int64) {
	mem := store.NewMemory()
	var recs []maintenance.Record
	for i := 0; i < n; i++ {
		recs = append(recs, maintenance.Record{Equipment: "Equipo", Location: "Lab1", TentativeDate: "01/10/2025"})
	}
	ids, err := mem.InsertBatch(context.Background(), recs)
	require.NoError(t, err)

	u := maintenance.NewUpdater(mem)
	u.Now = func() time.Time { return time.Date(2025, time.September, 3, 14, 0, 0, 0, time.UTC) }
	return u, mem, ids
}

// assertCompletionInvariant checks that every record has a date iff it is completed.
func assertCompletionInvariant(t *testing.T, mem *store.Memory) {
	t.Helper()
	all, err := mem.ListAll(context.Background())
	require.NoError(t, err)
	for _, r := range all {
		assert.Equal(t, r.Completed, r.CompletionDate != nil, "record %d", r.ID)
	}
}

func TestApply_CompleteAndReopen(t *testing.T) {
	// GIVEN: An open record
	ctx := context.Background()
	u, mem, ids := newUpdater(t, 1)

	// WHEN: Marking it complete
	n, err := u.Apply(ctx, ids[0], true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// THEN: It carries today's date
	all, _ := mem.ListAll(ctx)
	require.True(t, all[0].Completed)
	assert.Equal(t, "03/09/2025", *all[0].CompletionDate)
	assertCompletionInvariant(t, mem)

	// WHEN: Reopening it
	_, err = u.Apply(ctx, ids[0], false)
	require.NoError(t, err)

	// THEN: The date is cleared
	all, _ = mem.ListAll(ctx)
	assert.False(t, all[0].Completed)
	assert.Nil(t, all[0].CompletionDate)
	assertCompletionInvariant(t, mem)
}

func TestApply_UnknownID(t *testing.T) {
	u, _, _ := newUpdater(t, 1)

	n, err := u.Apply(context.Background(), 42, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestApplyBatch(t *testing.T) {
	// GIVEN: Four open records
	ctx := context.Background()
	u, mem, ids := newUpdater(t, 4)

	// WHEN: Completing three of them and touching a missing id
	n, err := u.ApplyBatch(ctx, map[int64]bool{ids[0]: true, ids[1]: true, ids[3]: true, 99: true})

	// THEN: Three rows changed and the invariant holds
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assertCompletionInvariant(t, mem)

	// WHEN: Mixed batch
	n, err = u.ApplyBatch(ctx, map[int64]bool{ids[0]: false, ids[2]: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assertCompletionInvariant(t, mem)

	done := true
	completed, err := mem.ListBy(ctx, maintenance.Filter{Completed: &done})
	require.NoError(t, err)
	assert.Len(t, completed, 3)
}

func TestApplyBatch_Empty(t *testing.T) {
	u, _, _ := newUpdater(t, 0)

	n, err := u.ApplyBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestApplyBatch_StorageFailure(t *testing.T) {
	u, mem, ids := newUpdater(t, 1)
	mem.Err = &maintenance.StorageError{Op: "update", Path: "plan.db", Err: errors.New("database is locked")}

	_, err := u.ApplyBatch(context.Background(), map[int64]bool{ids[0]: true})

	assert.ErrorIs(t, err, maintenance.ErrStorageUnavailable)
}

func TestValidateCompletion(t *testing.T) {
	date, err := maintenance.ValidateCompletion(false, strPtr("01/01/2025"))
	require.NoError(t, err)
	assert.Nil(t, date, "open records never keep a date")

	_, err = maintenance.ValidateCompletion(true, nil)
	assert.True(t, maintenance.IsInputError(err))

	_, err = maintenance.ValidateCompletion(true, strPtr("  "))
	assert.True(t, maintenance.IsInputError(err))

	date, err = maintenance.ValidateCompletion(true, strPtr("01/01/2025"))
	require.NoError(t, err)
	assert.Equal(t, "01/01/2025", *date)
}
