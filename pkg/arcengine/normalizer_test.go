package arcengine

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testNormalizer() *Normalizer {
	return &Normalizer{
		Registry: NewTargetRegistry(nil),
		Now:      func() time.Time { return fixedNow },
	}
}

func decode(t *testing.T, s string) RawRecord {
	t.Helper()
	var r RawRecord
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return r
}

func TestNormalizeShapes(t *testing.T) {
	n := testNormalizer()
	phoenix, _ := n.Registry.Lookup("phoenix")

	tests := []struct {
		name    string
		record  string
		shape   string
		src     orb.Point
		dst     orb.Point
		wantErr bool
	}{
		{"origin coords", `{"origin_coords": [10, 20], "target_coords": [30, 40]}`, "origin_coords", latLng(10, 20), latLng(30, 40), false},
		{"named target", `{"src_lat": 51.5, "src_lng": -0.12, "dst": "Phoenix"}`, "named_target", latLng(51.5, -0.12), phoenix, false},
		{"named target mixed case", `{"src_lat": 1, "src_lng": 2, "dst": "  MESA "}`, "named_target", latLng(1, 2), latLng(33.4152, -111.8315), false},
		{"source destination", `{"source_lat": 1, "source_lng": 2, "destination_lat": 3, "destination_lng": 4}`, "source_destination", latLng(1, 2), latLng(3, 4), false},
		{"origin target", `{"origin_lat": -5, "origin_lng": 6, "target_lat": 7, "target_lng": -8}`, "origin_target", latLng(-5, 6), latLng(7, -8), false},
		{"numeric strings", `{"source_lat": "1.5", "source_lng": "2", "destination_lat": "3", "destination_lng": "4"}`, "source_destination", latLng(1.5, 2), latLng(3, 4), false},
		{"no shape", `{"lat": 1, "lng": 2}`, "", orb.Point{}, orb.Point{}, true},
		{"non numeric coordinate", `{"origin_lat": "x", "origin_lng": 6, "target_lat": 7, "target_lng": 8}`, "", orb.Point{}, orb.Point{}, true},
		{"short coordinate pair", `{"origin_coords": [10], "target_coords": [30, 40]}`, "", orb.Point{}, orb.Point{}, true},
		{"null coordinate", `{"source_lat": null, "source_lng": 2, "destination_lat": 3, "destination_lng": 4}`, "", orb.Point{}, orb.Point{}, true},
	}

	for _, tt := range tests {
		r := decode(t, tt.record)
		ev, ok := n.Normalize(r, 0)
		if ok == tt.wantErr {
			t.Errorf("%s: Normalize ok = %v; want %v", tt.name, ok, !tt.wantErr)
			continue
		}
		if got := n.Shape(r); got != tt.shape {
			t.Errorf("%s: Shape = %q; want %q", tt.name, got, tt.shape)
		}
		if !ok {
			continue
		}
		if !ev.Src.Equal(tt.src) || !ev.Dst.Equal(tt.dst) {
			t.Errorf("%s: Normalize = %v -> %v; want %v -> %v", tt.name, ev.Src, ev.Dst, tt.src, tt.dst)
		}
	}
}

func TestNormalizeUnknownTargetFallsThrough(t *testing.T) {
	n := testNormalizer()

	r := decode(t, `{"src_lat": 1, "src_lng": 2, "dst": "atlantis"}`)
	if _, ok := n.Normalize(r, 0); ok {
		t.Errorf("Normalize(unknown target) accepted a record with no other shape")
	}

	r = decode(t, `{"src_lat": 1, "src_lng": 2, "dst": "atlantis", "origin_lat": 5, "origin_lng": 6, "target_lat": 7, "target_lng": 8}`)
	ev, ok := n.Normalize(r, 0)
	if !ok {
		t.Fatalf("Normalize(unknown target with shape D) rejected")
	}
	if got := n.Shape(r); got != "origin_target" {
		t.Errorf("Shape = %q; want origin_target", got)
	}
	if !ev.Src.Equal(latLng(5, 6)) {
		t.Errorf("Src = %v; want %v", ev.Src, latLng(5, 6))
	}
}

func TestNormalizeShapePriority(t *testing.T) {
	n := testNormalizer()
	r := decode(t, `{"origin_coords": [1, 1], "target_coords": [2, 2], "source_lat": 3, "source_lng": 3, "destination_lat": 4, "destination_lng": 4}`)
	ev, ok := n.Normalize(r, 0)
	if !ok {
		t.Fatal("Normalize rejected a record matching two shapes")
	}
	if !ev.Src.Equal(latLng(1, 1)) {
		t.Errorf("Src = %v; want the origin_coords value", ev.Src)
	}
}

type fakeLocator map[string][2]float64

func (f fakeLocator) LocateIP(ip string) (float64, float64, bool) {
	v, ok := f[ip]
	return v[0], v[1], ok
}

func TestNormalizeSourceIP(t *testing.T) {
	n := testNormalizer()
	r := decode(t, `{"src_ip": "192.0.2.1", "dst": "tucson"}`)

	if _, ok := n.Normalize(r, 0); ok {
		t.Errorf("Normalize(src_ip) accepted without a locator")
	}

	n.Locator = fakeLocator{"192.0.2.1": {48.85, 2.35}}
	ev, ok := n.Normalize(r, 0)
	if !ok {
		t.Fatal("Normalize(src_ip) rejected with a locator")
	}
	if !ev.Src.Equal(latLng(48.85, 2.35)) {
		t.Errorf("Src = %v; want %v", ev.Src, latLng(48.85, 2.35))
	}

	miss := decode(t, `{"src_ip": "198.51.100.7", "dst": "tucson"}`)
	if _, ok := n.Normalize(miss, 0); ok {
		t.Errorf("Normalize(unlocated ip) accepted")
	}
}

func TestColorT(t *testing.T) {
	tests := []struct {
		intensity, want float64
	}{
		{45, 0},
		{100, 1},
		{20, 0},
		{150, 1},
		{75, 30.0 / 55.0},
		{72.5, 0.5},
	}
	for _, tt := range tests {
		if got := ColorT(tt.intensity); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ColorT(%v) = %v; want %v", tt.intensity, got, tt.want)
		}
	}
}

func TestNormalizeIntensity(t *testing.T) {
	n := testNormalizer()
	base := `"source_lat": 1, "source_lng": 2, "destination_lat": 3, "destination_lng": 4`

	tests := []struct {
		record string
		want   float64
	}{
		{`{` + base + `}`, DefaultIntensity},
		{`{` + base + `, "intensity": 90}`, 90},
		{`{` + base + `, "intensity": "60"}`, 60},
		{`{` + base + `, "intensity": "high"}`, DefaultIntensity},
		{`{` + base + `, "intensity": null}`, DefaultIntensity},
		{`{` + base + `, "intensity": 500}`, 500},
	}
	for _, tt := range tests {
		ev, ok := n.Normalize(decode(t, tt.record), 0)
		if !ok {
			t.Fatalf("Normalize(%s) rejected", tt.record)
		}
		if ev.Intensity != tt.want {
			t.Errorf("Normalize(%s).Intensity = %v; want %v", tt.record, ev.Intensity, tt.want)
		}
		if ev.ColorT < 0 || ev.ColorT > 1 {
			t.Errorf("Normalize(%s).ColorT = %v; want within [0,1]", tt.record, ev.ColorT)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{"2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli(), true},
		{"2024-01-02T03:04:05.250+02:00", time.Date(2024, 1, 2, 1, 4, 5, 250e6, time.UTC).UnixMilli(), true},
		{"2024-01-02T03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli(), true},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli(), true},
		{float64(1700000000000), 1700000000000, true},
		{-8.64e15, -8640000000000000, true},
		{8.64e15 + 1, 0, false},
		{1e19, 0, false},
		{1e300, 0, false},
		{-9e18, 0, false},
		{"yesterday", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseTimestamp(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseTimestamp(%v) = (%d, %v); want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEventTime(t *testing.T) {
	ev := Event{Timestamp: time.Date(2024, 6, 1, 0, 0, 0, 500e6, time.UTC).UnixMilli()}
	if got, want := ev.Time(), time.Date(2024, 6, 1, 0, 0, 0, 500e6, time.UTC); !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("Event.Time() = %v; want %v in UTC", got, want)
	}
}

func TestSynthesizeTimestamp(t *testing.T) {
	window := SyntheticWindow.Milliseconds()

	a, b := SynthesizeTimestamp(fixedNow, 42), SynthesizeTimestamp(fixedNow, 42)
	if a != b {
		t.Errorf("SynthesizeTimestamp is not deterministic: %d != %d", a, b)
	}

	first, last := SynthesizeTimestamp(fixedNow, 0), SynthesizeTimestamp(fixedNow, 999)
	if first != fixedNow.UnixMilli()-window {
		t.Errorf("SynthesizeTimestamp(now, 0) = %d; want now-90d = %d", first, fixedNow.UnixMilli()-window)
	}
	if got, want := last-first, int64(7768224000); got != want {
		t.Errorf("SynthesizeTimestamp(999)-SynthesizeTimestamp(0) = %d; want %d", got, want)
	}

	if SynthesizeTimestamp(fixedNow, 1000) != first || SynthesizeTimestamp(fixedNow, 1999) != last {
		t.Errorf("SynthesizeTimestamp does not repeat every 1000 indices")
	}

	for _, idx := range []int{0, 1, 500, 999, 12345} {
		ts := SynthesizeTimestamp(fixedNow, idx)
		if ts < fixedNow.UnixMilli()-window || ts >= fixedNow.UnixMilli() {
			t.Errorf("SynthesizeTimestamp(now, %d) = %d; want within [now-90d, now)", idx, ts)
		}
	}
}

func TestNormalizeAll(t *testing.T) {
	n := testNormalizer()
	records := []RawRecord{
		decode(t, `{"nothing": true}`),
		decode(t, `{"source_lat": 1, "source_lng": 2, "destination_lat": 3, "destination_lng": 4}`),
		decode(t, `{"origin_lat": "bad", "origin_lng": 2, "target_lat": 3, "target_lng": 4}`),
		decode(t, `{"origin_lat": 1, "origin_lng": 2, "target_lat": 3, "target_lng": 4}`),
	}
	events, rejected := n.NormalizeAll(records)
	if len(events) != 2 || rejected != 2 {
		t.Fatalf("NormalizeAll = %d events, %d rejected; want 2, 2", len(events), rejected)
	}
	for i, ev := range events {
		if ev.ID != i {
			t.Errorf("events[%d].ID = %d; want %d", i, ev.ID, i)
		}
	}
	// Synthesis uses the record's position in the batch, not the event ordinal.
	if want := SynthesizeTimestamp(fixedNow, 3); events[1].Timestamp != want {
		t.Errorf("events[1].Timestamp = %d; want %d", events[1].Timestamp, want)
	}
}

func TestNormalizeEndToEnd(t *testing.T) {
	t0 := time.Date(2024, 11, 5, 8, 30, 0, 0, time.UTC)
	records := []RawRecord{
		decode(t, `{"origin_coords": [10, 10], "target_coords": [20, 20], "intensity": 100, "timestamp": "`+t0.Format(time.RFC3339)+`"}`),
		decode(t, `{"source_lat": 0, "source_lng": 0, "destination_lat": 5, "destination_lng": 5}`),
	}
	snap := BuildSnapshot(records, nil, SnapshotOptions{Now: func() time.Time { return fixedNow }})

	if len(snap.Events) != 2 {
		t.Fatalf("BuildSnapshot produced %d events; want 2", len(snap.Events))
	}
	first, second := snap.Events[0], snap.Events[1]
	if first.ColorT != 1 || first.Timestamp != t0.UnixMilli() || first.Synthetic {
		t.Errorf("first event = colorT %v, ts %d, synthetic %v; want 1, %d, false", first.ColorT, first.Timestamp, first.Synthetic, t0.UnixMilli())
	}
	if second.Intensity != 75 || math.Abs(second.ColorT-0.545) > 0.001 || !second.Synthetic {
		t.Errorf("second event = intensity %v, colorT %v, synthetic %v; want 75, ~0.545, true", second.Intensity, second.ColorT, second.Synthetic)
	}
	lo, hi := fixedNow.Add(-SyntheticWindow).UnixMilli(), fixedNow.UnixMilli()
	if second.Timestamp < lo || second.Timestamp >= hi {
		t.Errorf("synthesized timestamp %d outside [%d, %d)", second.Timestamp, lo, hi)
	}
	wantDomain := TimeDomain{Min: min(first.Timestamp, second.Timestamp), Max: max(first.Timestamp, second.Timestamp)}
	if snap.Domain != wantDomain {
		t.Errorf("Domain = %+v; want %+v", snap.Domain, wantDomain)
	}
	for _, ev := range snap.Events {
		if len(ev.Path) != DefaultPathSamples+1 {
			t.Errorf("event %d path has %d points; want %d", ev.ID, len(ev.Path), DefaultPathSamples+1)
		}
	}
}
