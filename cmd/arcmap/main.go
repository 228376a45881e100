package main

import (
	"log"
	"os"

	"github.com/alecthomas/kong"
	_ "github.com/silbinarywolf/preferdiscretegpu"

	"github.com/sudorandom/arcmap/pkg/config"
)

type Globals struct {
	Config string `help:"Path to a YAML config file." type:"path" env:"ARCMAP_CONFIG"`
}

var cli struct {
	Globals

	View    ViewCmd    `cmd:"" default:"1" help:"Open the animated map in a window."`
	Render  RenderCmd  `cmd:"" help:"Render one frame to a PNG or SVG file."`
	Inspect InspectCmd `cmd:"" help:"Print what was loaded and which arcs are active at a loop time."`
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	ctx := kong.Parse(&cli,
		kong.Name("arcmap"),
		kong.Description("Looping great-circle animation of time-stamped events."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx.FatalIfErrorf(ctx.Run(cfg))
}
