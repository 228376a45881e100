package arcengine

import (
	"errors"
	"math"
)

// ErrNoEvents means no record survived normalization and no fallback was used.
var ErrNoEvents = errors.New("no events")

// TimeDomain is the [Min, Max] span of event timestamps in ms.
type TimeDomain struct {
	Min, Max int64
}

// EstimateTimeDomain scans events for their time span. An empty slice is not an
// error; callers get ok == false and decide what to show.
func EstimateTimeDomain(events []Event) (TimeDomain, bool) {
	if len(events) == 0 {
		return TimeDomain{}, false
	}
	d := TimeDomain{Min: events[0].Timestamp, Max: events[0].Timestamp}
	for _, ev := range events[1:] {
		if ev.Timestamp < d.Min {
			d.Min = ev.Timestamp
		}
		if ev.Timestamp > d.Max {
			d.Max = ev.Timestamp
		}
	}
	return d, true
}

// Span is Max-Min, floored to 1 so normalization never divides by zero.
func (d TimeDomain) Span() int64 {
	if s := d.Max - d.Min; s > 0 {
		return s
	}
	return 1
}

// Normalize maps ts onto [0,1). Timestamps outside the domain wrap around.
func (d TimeDomain) Normalize(ts int64) float64 {
	norm := float64(ts-d.Min) / float64(d.Span())
	norm = math.Mod(norm, 1)
	if norm < 0 {
		norm++
	}
	if norm >= 1 {
		norm = 0
	}
	return norm
}
