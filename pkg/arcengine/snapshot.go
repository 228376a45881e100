package arcengine

import (
	"sync"
	"sync/atomic"
	"time"
)

var (
	fallbackSrc = latLng(52.52, 13.405)     // Berlin
	fallbackDst = latLng(33.4484, -112.0740) // Phoenix
)

const fallbackIntensity = 85.0

// Snapshot is an immutable, fully precomputed dataset. The frame loop only ever reads
// snapshots; reloading builds a new one.
type Snapshot struct {
	Events   []Event
	Domain   TimeDomain
	Registry *TargetRegistry
	Rejected int
	// Fallback is set when no record survived and the demonstration arc was used.
	Fallback bool
	Built    time.Time
}

// SnapshotOptions controls BuildSnapshot.
type SnapshotOptions struct {
	PathSamples   int
	FallbackEvent bool
	Locator       IPLocator
	Now           func() time.Time
}

// BuildSnapshot runs normalization, time-domain estimation and path precomputation.
func BuildSnapshot(records []RawRecord, targets []TargetRecord, opts SnapshotOptions) *Snapshot {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	samples := opts.PathSamples
	if samples <= 0 {
		samples = DefaultPathSamples
	}

	registry := NewTargetRegistry(targets)
	n := &Normalizer{Registry: registry, Locator: opts.Locator, Now: now}
	events, rejected := n.NormalizeAll(records)

	snap := &Snapshot{Registry: registry, Rejected: rejected, Built: now()}
	if len(events) == 0 {
		if !opts.FallbackEvent {
			return snap
		}
		events = []Event{FallbackEvent(now())}
		snap.Fallback = true
	}

	snap.Domain, _ = EstimateTimeDomain(events)
	for i := range events {
		events[i].Path = GreatCircle(events[i].Src, events[i].Dst, samples)
	}
	snap.Events = events
	return snap
}

// Err reports ErrNoEvents for a snapshot with nothing to animate.
func (s *Snapshot) Err() error {
	if s == nil || len(s.Events) == 0 {
		return ErrNoEvents
	}
	return nil
}

// FallbackEvent is the single demonstration arc shown when nothing could be loaded.
func FallbackEvent(now time.Time) Event {
	return Event{
		Src:       fallbackSrc,
		Dst:       fallbackDst,
		Timestamp: now.UnixMilli(),
		Intensity: fallbackIntensity,
		ColorT:    ColorT(fallbackIntensity),
	}
}

// Session holds the published snapshot and the animation clock. Snapshots are swapped
// atomically so a frame never sees a half-built dataset.
type Session struct {
	snap  atomic.Pointer[Snapshot]
	swaps atomic.Uint64

	mu    sync.Mutex
	start time.Time
}

func NewSession() *Session { return &Session{} }

// Swap publishes s and returns the previous snapshot.
func (s *Session) Swap(snap *Snapshot) *Snapshot {
	s.swaps.Add(1)
	return s.snap.Swap(snap)
}

// Snapshot returns the current snapshot, nil before the first load.
func (s *Session) Snapshot() *Snapshot { return s.snap.Load() }

// Generation counts swaps; it changes whenever a new snapshot is published.
func (s *Session) Generation() uint64 { return s.swaps.Load() }

// Elapsed returns the seconds since the first frame that had data. The clock does not
// advance while no snapshot has been published, and swaps do not reset it.
func (s *Session) Elapsed(now time.Time) (float64, bool) {
	if s.snap.Load() == nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start.IsZero() {
		s.start = now
	}
	return now.Sub(s.start).Seconds(), true
}
