package arcengine

import (
	"context"
	"log"
	"time"
)

// ReloadInterval is how often the reload loop looks for new live records.
const ReloadInterval = 500 * time.Millisecond

// LiveSource is a rolling set of records received at runtime. Version changes whenever
// the contents change.
type LiveSource interface {
	Records() []RawRecord
	Version() uint64
}

// SetBaseRecords sets the records loaded at startup. Live records are appended after
// them on every rebuild.
func (e *Engine) SetBaseRecords(records []RawRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.base = records
}

// SetLive attaches a live record source for the reload loop.
func (e *Engine) SetLive(src LiveSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.live = src
}

// Rebuild loads base plus live records and publishes the result.
func (e *Engine) Rebuild() *Snapshot {
	e.mu.Lock()
	base, live := e.base, e.live
	e.mu.Unlock()

	records := base
	if live != nil {
		extra := live.Records()
		records = make([]RawRecord, 0, len(base)+len(extra))
		records = append(records, base...)
		records = append(records, extra...)
	}
	return e.Load(records)
}

// StartReloadLoop rebuilds the snapshot whenever the live source changes, at most once
// per ReloadInterval. It returns when ctx is done.
func (e *Engine) StartReloadLoop(ctx context.Context) {
	ticker := time.NewTicker(ReloadInterval)
	defer ticker.Stop()

	var seen uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			live := e.live
			e.mu.Unlock()
			if live == nil {
				continue
			}
			v := live.Version()
			if v == seen {
				continue
			}
			seen = v
			snap := e.Rebuild()
			log.Printf("[RELOAD] Rebuilt snapshot at live version %d: %d events", v, len(snap.Events))
		}
	}
}
