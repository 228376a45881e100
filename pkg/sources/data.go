package sources

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/sudorandom/arcmap/pkg/arcengine"
	"github.com/sudorandom/arcmap/pkg/feeds"
	"github.com/sudorandom/arcmap/pkg/utils"
)

// UseCache controls whether remote inputs are kept under utils.CacheDir.
var UseCache = true

// LoadEvents reads raw event records. The file is a JSON array of objects; elements
// that are not objects are skipped here and everything else is left to the normalizer.
func LoadEvents(loc string) ([]arcengine.RawRecord, error) {
	data, err := utils.ReadAll(loc, UseCache, "[EVENTS]")
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	records, err := feeds.DecodeBatch(data)
	if err != nil {
		return nil, fmt.Errorf("load events %s: %w", loc, err)
	}
	log.Printf("[EVENTS] Read %d records from %s", len(records), loc)
	return records, nil
}

// LoadTargets reads a JSON array of {"city", "lat", "lng"} overrides. Malformed entries
// are skipped.
func LoadTargets(loc string) ([]arcengine.TargetRecord, error) {
	data, err := utils.ReadAll(loc, UseCache, "[TARGETS]")
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("load targets %s: %w", loc, err)
	}
	out := make([]arcengine.TargetRecord, 0, len(items))
	for _, item := range items {
		var t arcengine.TargetRecord
		if json.Unmarshal(item, &t) != nil {
			continue
		}
		out = append(out, t)
	}
	log.Printf("[TARGETS] Read %d targets from %s", len(out), loc)
	return out, nil
}

// LoadBasemap reads GeoJSON land polygons.
func LoadBasemap(loc string) (*arcengine.Basemap, error) {
	data, err := utils.ReadAll(loc, UseCache, "[BASEMAP]")
	if err != nil {
		return nil, fmt.Errorf("load basemap: %w", err)
	}
	b, err := arcengine.ParseBasemap(data)
	if err != nil {
		return nil, err
	}
	log.Printf("[BASEMAP] Read %d polygons from %s", b.Len(), loc)
	return b, nil
}
