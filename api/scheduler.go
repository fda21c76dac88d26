/*
scheduler.go - Daily status refresh scheduler

PURPOSE:
  Imported rows are classified against "today". A server left running
  across midnight would keep serving yesterday's statuses, so this
  scheduler re-classifies the session roster when the date changes and
  logs the plan summary once per day.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Does nothing until the calendar day differs from the last run
  - Store failures are logged, never fatal

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRefreshScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - maintenance/session.go: Reclassify
  - maintenance/insights.go: Summarize
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/maintenance-plan/maintenance"
)

// RefreshScheduler keeps session statuses current across day boundaries.
type RefreshScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	lastDay time.Time
	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewRefreshScheduler creates a new scheduler.
func NewRefreshScheduler(handler *Handler) *RefreshScheduler {
	return &RefreshScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (rs *RefreshScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Scheduler] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the scheduler.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *RefreshScheduler) run() {
	defer rs.wg.Done()

	for {
		select {
		case <-rs.ticker.C:
			rs.Refresh(context.Background())
		case <-rs.stop:
			return
		}
	}
}

// Refresh re-classifies the roster and logs the plan summary if the day
// changed since the previous call. It reports whether it did any work.
func (rs *RefreshScheduler) Refresh(ctx context.Context) bool {
	h := rs.Handler
	today := h.today()
	if today.Equal(rs.lastDay) {
		return false
	}
	rs.lastDay = today

	h.mu.Lock()
	n := h.session.Reclassify(today)
	store := h.session.Store
	h.mu.Unlock()

	log.Printf("[Scheduler] Reclassified %d imported rows as of %s", n, maintenance.FormatDate(today))

	if store == nil {
		return true
	}
	records, err := store.ListAll(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error reading plan: %v", err)
		return true
	}
	in := maintenance.Summarize(records, today)
	log.Printf("[Scheduler] Plan: %d records, %s%% complete, %d overdue, %d due this month",
		in.Total, in.CompletionPct.StringFixed(1), in.OverdueCount(), in.DueThisMonthCount())
	return true
}
