package arcengine

import "math"

const (
	DefaultLoopSeconds   = 60.0
	DefaultTravelSeconds = 3.2
	DefaultFadeSeconds   = 2.5
	DefaultMaxConcurrent = 120
	DefaultWrapTolerance = 1.0
)

// Phase is the visual state of an active arc.
type Phase int

const (
	Traveling Phase = iota
	Fading
)

func (p Phase) String() string {
	if p == Fading {
		return "fading"
	}
	return "traveling"
}

// Verdict is the per-frame scheduling outcome for one event.
type Verdict int

const (
	// NotDue events start later in this cycle and were rejected without further work.
	NotDue Verdict = iota
	// Idle events were evaluated but fall outside their active window.
	Idle
	Active
)

func (v Verdict) String() string {
	switch v {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return "not-due"
	}
}

// ArcState is where an active event is within its travel/fade window.
type ArcState struct {
	T        float64 // seconds since the event's scheduled start
	Phase    Phase
	Progress float64 // [0,1] within Phase
}

// ActiveArc pairs an event with its state for one frame.
type ActiveArc struct {
	Event *Event
	ArcState
}

// Frame is the scheduler output for a single tick.
type Frame struct {
	LoopPhase float64
	Arcs      []ActiveArc
	// Saturated is set when the concurrency cap stopped evaluation early.
	Saturated bool
}

// LoopScheduler compresses the whole time domain into a repeating cycle of
// LoopSeconds and decides each frame which events are animating.
type LoopScheduler struct {
	LoopSeconds   float64
	TravelSeconds float64
	FadeSeconds   float64
	MaxConcurrent int
	WrapTolerance float64
}

// NewLoopScheduler returns a scheduler with the default timings.
func NewLoopScheduler() *LoopScheduler {
	return &LoopScheduler{
		LoopSeconds:   DefaultLoopSeconds,
		TravelSeconds: DefaultTravelSeconds,
		FadeSeconds:   DefaultFadeSeconds,
		MaxConcurrent: DefaultMaxConcurrent,
		WrapTolerance: DefaultWrapTolerance,
	}
}

// Window is the length of an event's active window.
func (s *LoopScheduler) Window() float64 { return s.TravelSeconds + s.FadeSeconds }

// LoopPhase reduces elapsed seconds into [0, LoopSeconds).
func (s *LoopScheduler) LoopPhase(elapsed float64) float64 {
	phase := math.Mod(elapsed, s.LoopSeconds)
	if phase < 0 {
		phase += s.LoopSeconds
	}
	return phase
}

// EventStart is the offset of ts within the cycle.
func (s *LoopScheduler) EventStart(d TimeDomain, ts int64) float64 {
	return d.Normalize(ts) * s.LoopSeconds
}

// Classify decides the state of an event whose relative time is t = loopPhase - start.
//
// A negative t whose wrapped value t+LoopSeconds still falls inside the window is the
// tail of an arc that began before the loop seam, and keeps animating. Otherwise a t
// at or below -WrapTolerance is rejected without wrapping, and a t just below zero is
// wrapped and evaluated.
func (s *LoopScheduler) Classify(t float64) (ArcState, Verdict) {
	window := s.Window()
	if t < 0 {
		switch {
		case t+s.LoopSeconds <= window:
			t += s.LoopSeconds
		case t <= -s.WrapTolerance:
			return ArcState{}, NotDue
		default:
			t += s.LoopSeconds
		}
	}
	if t < 0 || t > window {
		return ArcState{T: t}, Idle
	}
	if t <= s.TravelSeconds {
		return ArcState{T: t, Phase: Traveling, Progress: ratio(t, s.TravelSeconds)}, Active
	}
	return ArcState{T: t, Phase: Fading, Progress: ratio(t-s.TravelSeconds, s.FadeSeconds)}, Active
}

// Tick evaluates every event of the snapshot in ordinal order. Once MaxConcurrent
// arcs are active the remaining events are not looked at.
func (s *LoopScheduler) Tick(snap *Snapshot, elapsed float64) Frame {
	f := Frame{LoopPhase: s.LoopPhase(elapsed)}
	if snap == nil || len(snap.Events) == 0 {
		return f
	}
	limit := s.MaxConcurrent
	if limit <= 0 {
		limit = len(snap.Events)
	}
	f.Arcs = make([]ActiveArc, 0, min(limit, 64))
	for i := range snap.Events {
		if len(f.Arcs) >= limit {
			f.Saturated = true
			break
		}
		ev := &snap.Events[i]
		t := f.LoopPhase - s.EventStart(snap.Domain, ev.Timestamp)
		st, v := s.Classify(t)
		if v != Active {
			continue
		}
		f.Arcs = append(f.Arcs, ActiveArc{Event: ev, ArcState: st})
	}
	return f
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 1
	}
	return clamp01(num / den)
}
