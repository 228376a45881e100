// Package arcengine turns batches of loosely-shaped origin/destination records into a
// perpetually looping great-circle animation and draws it.
package arcengine

import (
	"time"

	"github.com/paulmach/orb"
)

// DefaultIntensity is used when a record carries no usable intensity.
const DefaultIntensity = 75.0

// RawRecord is a decoded JSON object of unknown shape.
type RawRecord map[string]any

// Event is a normalized origin -> destination record. Points are stored as
// orb.Point{lng, lat}. Events are never mutated after construction.
type Event struct {
	ID        int
	Src, Dst  orb.Point
	Timestamp int64 // ms since Unix epoch
	Synthetic bool
	Intensity float64
	ColorT    float64
	Path      orb.LineString
}

// SrcLatLng returns the origin as (lat, lng).
func (e *Event) SrcLatLng() (float64, float64) { return e.Src.Lat(), e.Src.Lon() }

// DstLatLng returns the destination as (lat, lng).
func (e *Event) DstLatLng() (float64, float64) { return e.Dst.Lat(), e.Dst.Lon() }

// Time returns the event timestamp as a time.Time in UTC.
func (e *Event) Time() time.Time { return time.UnixMilli(e.Timestamp).UTC() }

// ColorT maps an intensity onto [0,1].
func ColorT(intensity float64) float64 {
	return clamp01((intensity - 45) / 55)
}

func latLng(lat, lng float64) orb.Point { return orb.Point{lng, lat} }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
