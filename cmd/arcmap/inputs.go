package main

import (
	"log"

	"github.com/sudorandom/arcmap/pkg/arcengine"
	"github.com/sudorandom/arcmap/pkg/config"
	"github.com/sudorandom/arcmap/pkg/sources"
	"github.com/sudorandom/arcmap/pkg/utils"
)

// inputs are the startup data. Any of them may be empty; failures are logged and
// recorded in problems for the status line.
type inputs struct {
	records  []arcengine.RawRecord
	targets  []arcengine.TargetRecord
	basemap  *arcengine.Basemap
	locator  *utils.GeoIP
	problems []string
}

func loadInputs(cfg *config.Config) *inputs {
	sources.UseCache = cfg.Data.Cache
	in := &inputs{}

	var err error
	if in.records, err = sources.LoadEvents(cfg.Data.Events); err != nil {
		log.Printf("[DATA] Failed to load events: %v", err)
		in.problems = append(in.problems, "events unavailable")
	}
	if in.targets, err = sources.LoadTargets(cfg.Data.Targets); err != nil {
		log.Printf("[DATA] Failed to load targets, using built-in targets: %v", err)
	}
	if cfg.Data.Basemap != "" {
		if in.basemap, err = sources.LoadBasemap(cfg.Data.Basemap); err != nil {
			log.Printf("[DATA] Failed to load basemap: %v", err)
			in.problems = append(in.problems, "basemap unavailable")
		}
	}
	if cfg.Data.GeoIP != "" {
		if in.locator, err = utils.OpenGeoIP(cfg.Data.GeoIP, cfg.Data.Cache); err != nil {
			log.Printf("[DATA] Failed to open GeoIP database: %v", err)
			in.problems = append(in.problems, "geoip unavailable")
		}
	}
	return in
}

func (in *inputs) snapshotOptions(cfg *config.Config) arcengine.SnapshotOptions {
	opts := cfg.SnapshotOptions()
	if in.locator != nil {
		opts.Locator = in.locator
	}
	return opts
}

func (in *inputs) close() {
	if err := in.locator.Close(); err != nil {
		log.Printf("[DATA] Error closing GeoIP database: %v", err)
	}
}
