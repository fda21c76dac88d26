// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/maintenance-plan/maintenance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[int64]maintenance.Record
	nextID  int64
	schema  int // EnsureSchema calls, for idempotence checks
	// Err, when set, is returned by every call.
	Err error
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[int64]maintenance.Record),
		nextID:  1,
	}
}

func (m *Memory) EnsureSchema(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.schema++
	return nil
}

// SchemaCalls returns how many times EnsureSchema succeeded.
func (m *Memory) SchemaCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schema
}

func (m *Memory) Insert(_ context.Context, rec maintenance.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return m.insertLocked(rec), nil
}

// InsertBatch adds records atomically.
func (m *Memory) InsertBatch(_ context.Context, recs []maintenance.Record) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, m.insertLocked(rec))
	}
	return ids, nil
}

func (m *Memory) insertLocked(rec maintenance.Record) int64 {
	rec.ID = m.nextID
	rec.Completed = false
	rec.CompletionDate = nil
	m.records[rec.ID] = rec
	m.nextID++
	return rec.ID
}

func (m *Memory) UpdateCompletion(_ context.Context, id int64, completed bool, date *string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return m.updateLocked(maintenance.CompletionUpdate{ID: id, Completed: completed, Date: date})
}

// UpdateCompletionBatch validates every update first, then applies them, so
// a rejected update leaves the store untouched.
func (m *Memory) UpdateCompletionBatch(_ context.Context, updates []maintenance.CompletionUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}

	for _, u := range updates {
		if _, err := maintenance.ValidateCompletion(u.Completed, u.Date); err != nil {
			return 0, err
		}
	}

	var total int64
	for _, u := range updates {
		n, err := m.updateLocked(u)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (m *Memory) updateLocked(u maintenance.CompletionUpdate) (int64, error) {
	date, err := maintenance.ValidateCompletion(u.Completed, u.Date)
	if err != nil {
		return 0, err
	}
	rec, ok := m.records[u.ID]
	if !ok {
		return 0, nil
	}
	rec.Completed = u.Completed
	if date != nil {
		d := *date
		rec.CompletionDate = &d
	} else {
		rec.CompletionDate = nil
	}
	m.records[u.ID] = rec
	return 1, nil
}

func (m *Memory) Delete(_ context.Context, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}

	var n int64
	for _, id := range ids {
		if _, ok := m.records[id]; ok {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListAll(ctx context.Context) ([]maintenance.Record, error) {
	return m.ListBy(ctx, maintenance.Filter{})
}

func (m *Memory) ListBy(_ context.Context, f maintenance.Filter) ([]maintenance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var wanted map[int64]bool
	if len(f.IDs) > 0 {
		wanted = make(map[int64]bool, len(f.IDs))
		for _, id := range f.IDs {
			wanted[id] = true
		}
	}

	result := []maintenance.Record{}
	for _, rec := range m.records {
		if wanted != nil && !wanted[rec.ID] {
			continue
		}
		if f.Location != "" && strings.TrimSpace(rec.Location) != strings.TrimSpace(f.Location) {
			continue
		}
		if f.Completed != nil && rec.Completed != *f.Completed {
			continue
		}
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

var _ maintenance.Store = (*Memory)(nil)
