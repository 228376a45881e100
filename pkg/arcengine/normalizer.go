package arcengine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// SyntheticWindow is the span that records without a usable timestamp are spread over.
const SyntheticWindow = 90 * 24 * time.Hour

// syntheticCycle is how many consecutive records it takes for the jitter to repeat.
const syntheticCycle = 1000

// IPLocator resolves an IP address to coordinates.
type IPLocator interface {
	LocateIP(ip string) (lat, lng float64, ok bool)
}

type matchResult int

const (
	noMatch matchResult = iota
	matched
	invalid
)

// matcher claims a record when its fields are present. Claiming a record with bad
// coordinates rejects it outright; only noMatch lets the next matcher try.
type matcher struct {
	name  string
	match func(n *Normalizer, r RawRecord) (src, dst orb.Point, res matchResult)
}

// matchers are tried in order, first claim wins.
var matchers = []matcher{
	{name: "origin_coords", match: matchCoordPairs},
	{name: "named_target", match: matchNamedTarget},
	{name: "source_destination", match: scalarMatcher("source_lat", "source_lng", "destination_lat", "destination_lng")},
	{name: "origin_target", match: scalarMatcher("origin_lat", "origin_lng", "target_lat", "target_lng")},
	{name: "source_ip", match: matchSourceIP},
}

// MatcherNames lists the coordinate shapes in the order they are tried.
func MatcherNames() []string {
	names := make([]string, len(matchers))
	for i, m := range matchers {
		names[i] = m.name
	}
	return names
}

// Normalizer converts raw records into events. It has no side effects; the registry
// and locator are only read.
type Normalizer struct {
	Registry *TargetRegistry
	Locator  IPLocator // optional
	Now      func() time.Time
}

// NewNormalizer returns a normalizer using the wall clock.
func NewNormalizer(registry *TargetRegistry, locator IPLocator) *Normalizer {
	return &Normalizer{Registry: registry, Locator: locator, Now: time.Now}
}

// Normalize converts a single record. index is the record's position in its batch and
// only feeds timestamp synthesis. The returned event has no ID or Path yet.
func (n *Normalizer) Normalize(r RawRecord, index int) (Event, bool) {
	src, dst, shape := n.coordinates(r)
	if shape == "" {
		return Event{}, false
	}

	intensity := DefaultIntensity
	if v, ok := toFloat(r["intensity"]); ok {
		intensity = v
	}

	ev := Event{
		Src:       src,
		Dst:       dst,
		Intensity: intensity,
		ColorT:    ColorT(intensity),
	}
	if ts, ok := parseTimestamp(r["timestamp"]); ok {
		ev.Timestamp = ts
	} else {
		ev.Timestamp = SynthesizeTimestamp(n.now(), index)
		ev.Synthetic = true
	}
	return ev, true
}

// Shape reports which matcher claims the record, or "" if it would be rejected.
func (n *Normalizer) Shape(r RawRecord) string {
	_, _, shape := n.coordinates(r)
	return shape
}

func (n *Normalizer) coordinates(r RawRecord) (orb.Point, orb.Point, string) {
	for _, m := range matchers {
		src, dst, res := m.match(n, r)
		switch res {
		case matched:
			return src, dst, m.name
		case invalid:
			return orb.Point{}, orb.Point{}, ""
		}
	}
	return orb.Point{}, orb.Point{}, ""
}

// NormalizeAll normalizes a batch. Event IDs are ordinals among accepted records.
func (n *Normalizer) NormalizeAll(records []RawRecord) (events []Event, rejected int) {
	events = make([]Event, 0, len(records))
	for i, r := range records {
		ev, ok := n.Normalize(r, i)
		if !ok {
			rejected++
			continue
		}
		ev.ID = len(events)
		events = append(events, ev)
	}
	return events, rejected
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

// SynthesizeTimestamp places a record without a timestamp inside the 90 days before
// now. Indices are spread evenly and the spread repeats every 1000 records.
func SynthesizeTimestamp(now time.Time, index int) int64 {
	window := SyntheticWindow.Milliseconds()
	idx := index % syntheticCycle
	if idx < 0 {
		idx += syntheticCycle
	}
	jitter := int64(math.Floor(float64(idx) / syntheticCycle * float64(window)))
	return now.UnixMilli() - window + jitter
}

func matchCoordPairs(_ *Normalizer, r RawRecord) (orb.Point, orb.Point, matchResult) {
	o, ok1 := r["origin_coords"].([]any)
	t, ok2 := r["target_coords"].([]any)
	if !ok1 || !ok2 {
		return orb.Point{}, orb.Point{}, noMatch
	}
	if len(o) < 2 || len(t) < 2 {
		return orb.Point{}, orb.Point{}, invalid
	}
	return pointsFrom(o[0], o[1], t[0], t[1])
}

func matchNamedTarget(n *Normalizer, r RawRecord) (orb.Point, orb.Point, matchResult) {
	if !present(r, "src_lat", "src_lng") {
		return orb.Point{}, orb.Point{}, noMatch
	}
	dst, ok := n.lookupTarget(r["dst"])
	if !ok {
		return orb.Point{}, orb.Point{}, noMatch
	}
	lat, ok1 := toFloat(r["src_lat"])
	lng, ok2 := toFloat(r["src_lng"])
	if !ok1 || !ok2 {
		return orb.Point{}, orb.Point{}, invalid
	}
	return latLng(lat, lng), dst, matched
}

func scalarMatcher(srcLat, srcLng, dstLat, dstLng string) func(*Normalizer, RawRecord) (orb.Point, orb.Point, matchResult) {
	return func(_ *Normalizer, r RawRecord) (orb.Point, orb.Point, matchResult) {
		if !present(r, srcLat, srcLng, dstLat, dstLng) {
			return orb.Point{}, orb.Point{}, noMatch
		}
		return pointsFrom(r[srcLat], r[srcLng], r[dstLat], r[dstLng])
	}
}

func matchSourceIP(n *Normalizer, r RawRecord) (orb.Point, orb.Point, matchResult) {
	if n.Locator == nil {
		return orb.Point{}, orb.Point{}, noMatch
	}
	ip, _ := r["src_ip"].(string)
	if ip == "" {
		return orb.Point{}, orb.Point{}, noMatch
	}
	dst, ok := n.lookupTarget(r["dst"])
	if !ok {
		return orb.Point{}, orb.Point{}, noMatch
	}
	lat, lng, ok := n.Locator.LocateIP(ip)
	if !ok {
		return orb.Point{}, orb.Point{}, noMatch
	}
	if !finite(lat) || !finite(lng) {
		return orb.Point{}, orb.Point{}, invalid
	}
	return latLng(lat, lng), dst, matched
}

func (n *Normalizer) lookupTarget(v any) (orb.Point, bool) {
	if v == nil {
		return orb.Point{}, false
	}
	var name string
	switch x := v.(type) {
	case string:
		name = x
	case json.Number:
		name = x.String()
	default:
		return orb.Point{}, false
	}
	if name == "" {
		return orb.Point{}, false
	}
	return n.Registry.Lookup(name)
}

func pointsFrom(srcLat, srcLng, dstLat, dstLng any) (orb.Point, orb.Point, matchResult) {
	var v [4]float64
	for i, raw := range []any{srcLat, srcLng, dstLat, dstLng} {
		f, ok := toFloat(raw)
		if !ok {
			return orb.Point{}, orb.Point{}, invalid
		}
		v[i] = f
	}
	return latLng(v[0], v[1]), latLng(v[2], v[3]), matched
}

func present(r RawRecord, keys ...string) bool {
	for _, k := range keys {
		if v, ok := r[k]; !ok || v == nil {
			return false
		}
	}
	return true
}

// toFloat accepts JSON numbers and numeric strings. NaN and infinities are rejected.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, finite(f)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// maxEpochMillis bounds numeric timestamps to the range a JavaScript Date can hold, so
// that any two accepted timestamps can be subtracted without overflow.
const maxEpochMillis = 8.64e15

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts ISO-8601 strings (zone-less values are UTC) and epoch
// milliseconds as a JSON number within ±maxEpochMillis.
func parseTimestamp(v any) (int64, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UnixMilli(), true
			}
		}
		return 0, false
	case json.Number, float64, int, int64:
		f, ok := toFloat(x)
		if !ok || math.Abs(f) > maxEpochMillis {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}
