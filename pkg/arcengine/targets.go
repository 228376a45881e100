package arcengine

import (
	"strings"

	"github.com/paulmach/orb"
)

// TargetRecord is one entry of a targets file: {"city": ..., "lat": ..., "lng": ...}.
// Lat and Lng are left untyped because the files in the wild mix numbers and strings.
type TargetRecord struct {
	City string `json:"city"`
	Lat  any    `json:"lat"`
	Lng  any    `json:"lng"`
}

var defaultTargets = map[string]orb.Point{
	"phoenix": latLng(33.4484, -112.0740),
	"tucson":  latLng(32.2226, -110.9747),
	"mesa":    latLng(33.4152, -111.8315),
}

// TargetRegistry resolves lower-cased city names to coordinates. It is read-only once
// built.
type TargetRegistry struct {
	targets map[string]orb.Point
}

// NewTargetRegistry merges the built-in targets with overrides; overrides win.
func NewTargetRegistry(overrides []TargetRecord) *TargetRegistry {
	t := make(map[string]orb.Point, len(defaultTargets)+len(overrides))
	for k, v := range defaultTargets {
		t[k] = v
	}
	for _, o := range overrides {
		key := strings.ToLower(strings.TrimSpace(o.City))
		if key == "" {
			continue
		}
		lat, ok1 := toFloat(o.Lat)
		lng, ok2 := toFloat(o.Lng)
		if !ok1 || !ok2 {
			continue
		}
		t[key] = latLng(lat, lng)
	}
	return &TargetRegistry{targets: t}
}

// Lookup is case-insensitive.
func (r *TargetRegistry) Lookup(city string) (orb.Point, bool) {
	if r == nil {
		return orb.Point{}, false
	}
	p, ok := r.targets[strings.ToLower(strings.TrimSpace(city))]
	return p, ok
}

func (r *TargetRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.targets)
}
