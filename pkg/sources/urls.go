// Package sources loads the event, target and basemap inputs from local paths or URLs.
package sources

const (
	DefaultEventsPath  = "data/events_simulated_90d.json"
	DefaultTargetsPath = "data/targets_phx_tucson_mesa.json"

	// NaturalEarthLandURL is the 1:110m land polygon set used as the default basemap.
	NaturalEarthLandURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_110m_land.geojson"
)
