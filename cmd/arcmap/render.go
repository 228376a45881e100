package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sudorandom/arcmap/pkg/arcengine"
	"github.com/sudorandom/arcmap/pkg/config"
)

type RenderCmd struct {
	Output string  `arg:"" help:"Output file; .svg writes vector output, anything else PNG."`
	At     float64 `help:"Loop time in seconds to render." default:"30"`
	Width  int     `help:"Image width (overrides config)."`
	Height int     `help:"Image height (overrides config)."`
}

func (c *RenderCmd) Run(cfg *config.Config) error {
	w, h := cfg.Window.Width, cfg.Window.Height
	if c.Width > 0 {
		w = c.Width
	}
	if c.Height > 0 {
		h = c.Height
	}

	in := loadInputs(cfg)
	defer in.close()
	snap := arcengine.BuildSnapshot(in.records, in.targets, in.snapshotOptions(cfg))
	if err := snap.Err(); err != nil {
		log.Printf("[RENDER] %v: rendering the basemap only", err)
	}

	renderer := arcengine.NewFrameRenderer(arcengine.NewMollweide(w, h, arcengine.FitScale(w, h)), cfg.ArcStyle())
	sched := cfg.Scheduler()

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[RENDER] Error closing %s: %v", c.Output, err)
		}
	}()

	var frame arcengine.Frame
	if strings.EqualFold(filepath.Ext(c.Output), ".svg") {
		s := arcengine.NewSVGSurface(f, w, h)
		frame = arcengine.RenderStill(s, in.basemap, renderer, sched, snap, c.At)
		if err := s.Close(); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
	} else {
		s := arcengine.NewRasterSurface(w, h)
		frame = arcengine.RenderStill(s, in.basemap, renderer, sched, snap, c.At)
		if err := s.WritePNG(f); err != nil {
			return fmt.Errorf("write png: %w", err)
		}
	}
	log.Printf("[RENDER] Wrote %s: %d of %d events active at %.2fs", c.Output, len(frame.Arcs), len(snap.Events), frame.LoopPhase)
	return nil
}
