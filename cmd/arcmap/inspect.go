package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sudorandom/arcmap/pkg/arcengine"
	"github.com/sudorandom/arcmap/pkg/config"
)

type InspectCmd struct {
	At    float64 `help:"Loop time in seconds to list active arcs for." default:"0"`
	Limit int     `help:"Maximum number of active arcs to list." default:"20"`
}

func (c *InspectCmd) Run(cfg *config.Config) error {
	in := loadInputs(cfg)
	defer in.close()
	opts := in.snapshotOptions(cfg)
	snap := arcengine.BuildSnapshot(in.records, in.targets, opts)

	n := arcengine.NewNormalizer(snap.Registry, opts.Locator)
	shapes := make(map[string]int)
	for _, r := range in.records {
		shapes[n.Shape(r)]++
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "records\t%d\n", len(in.records))
	fmt.Fprintf(tw, "events\t%d\n", len(snap.Events))
	fmt.Fprintf(tw, "rejected\t%d\n", snap.Rejected)
	fmt.Fprintf(tw, "fallback\t%v\n", snap.Fallback)
	fmt.Fprintf(tw, "targets\t%d\n", snap.Registry.Len())
	if len(snap.Events) > 0 {
		fmt.Fprintf(tw, "time domain\t%s .. %s\n",
			time.UnixMilli(snap.Domain.Min).UTC().Format(time.RFC3339),
			time.UnixMilli(snap.Domain.Max).UTC().Format(time.RFC3339))
	}
	for _, name := range append(arcengine.MatcherNames(), "") {
		if shapes[name] == 0 {
			continue
		}
		label := name
		if label == "" {
			label = "unmatched"
		}
		fmt.Fprintf(tw, "shape %s\t%d\n", label, shapes[name])
	}

	frame := cfg.Scheduler().Tick(snap, c.At)
	fmt.Fprintf(tw, "\nactive at %.2fs\t%d (saturated=%v)\n", frame.LoopPhase, len(frame.Arcs), frame.Saturated)
	fmt.Fprintln(tw, "id\ttime\tphase\tprogress\tintensity\tsrc\tdst")
	for i, a := range frame.Arcs {
		if i >= c.Limit {
			break
		}
		slat, slng := a.Event.SrcLatLng()
		dlat, dlng := a.Event.DstLatLng()
		ts := a.Event.Time().Format(time.RFC3339)
		if a.Event.Synthetic {
			ts += "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.0f\t%.4f,%.4f\t%.4f,%.4f\n",
			a.Event.ID, ts, a.Phase, a.Progress, a.Event.Intensity, slat, slng, dlat, dlng)
	}
	return tw.Flush()
}
