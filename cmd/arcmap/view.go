package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sudorandom/arcmap/pkg/arcengine"
	"github.com/sudorandom/arcmap/pkg/config"
	"github.com/sudorandom/arcmap/pkg/feeds"
)

type ViewCmd struct {
	Width      int    `help:"Internal rendering width (overrides config)."`
	Height     int    `help:"Internal rendering height (overrides config)."`
	Fullscreen bool   `help:"Start fullscreen."`
	TPS        int    `help:"Ticks per second." default:"60"`
	Metrics    string `help:"Address to serve /metrics on (overrides config)."`
}

func (c *ViewCmd) Run(cfg *config.Config) error {
	if c.Width > 0 {
		cfg.Window.Width = c.Width
	}
	if c.Height > 0 {
		cfg.Window.Height = c.Height
	}
	if c.Metrics != "" {
		cfg.Metrics.Listen = c.Metrics
	}
	w, h := cfg.Window.Width, cfg.Window.Height

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := arcengine.NewEngine(w, h, arcengine.FitScale(w, h))
	engine.Scheduler = cfg.Scheduler()
	engine.Renderer.Style = cfg.ArcStyle()
	engine.Options = cfg.SnapshotOptions()
	engine.FollowWindow = cfg.Window.FollowWindow
	engine.FrameCaptureDir = cfg.Window.CaptureDir
	engine.CaptureEvery = time.Duration(cfg.Window.CaptureEvery * float64(time.Second))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engine.Metrics = arcengine.NewMetrics(reg)
	if cfg.Metrics.Listen != "" {
		go serveMetrics(ctx, cfg.Metrics.Listen, reg)
	}

	// Load in the background so the window opens on the "Loading data…" status.
	go func() {
		in := loadInputs(cfg)
		engine.SetOptions(in.snapshotOptions(cfg))
		engine.SetBasemap(in.basemap)
		engine.SetTargets(in.targets)
		engine.SetBaseRecords(in.records)
		engine.Rebuild()
		if len(in.problems) > 0 {
			engine.SetError("Data problems: %s", strings.Join(in.problems, ", "))
		}
		<-ctx.Done()
		in.close()
	}()

	startFeeds(ctx, cfg, engine)

	ebiten.SetTPS(c.TPS)
	ebiten.SetWindowSize(w/2, h/2)
	ebiten.SetWindowTitle("Arc Map")
	if cfg.Window.FollowWindow {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if c.Fullscreen || cfg.Window.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	return ebiten.RunGame(&game{Engine: engine, ctx: ctx})
}

// game ends the run loop when the process is asked to stop.
type game struct {
	*arcengine.Engine
	ctx context.Context
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	return g.Engine.Update()
}

func startFeeds(ctx context.Context, cfg *config.Config, engine *arcengine.Engine) {
	fc := cfg.Feeds
	if fc.WebSocket.URL == "" && fc.MQTT.Broker == "" {
		return
	}
	window := feeds.NewWindow(fc.WindowSize)
	handler := feeds.Chain(window.Handle, func(feed string, records []arcengine.RawRecord) {
		engine.Metrics.ObserveFeed(feed, len(records))
	})
	engine.SetLive(window)
	go engine.StartReloadLoop(ctx)

	if fc.WebSocket.URL != "" {
		ws := &feeds.WebSocketFeed{URL: fc.WebSocket.URL, Subscribe: fc.WebSocket.Subscribe, Handler: handler}
		go ws.Run(ctx)
	}
	if fc.MQTT.Broker != "" {
		mq := &feeds.MQTTFeed{
			Broker:   fc.MQTT.Broker,
			Topic:    fc.MQTT.Topic,
			ClientID: fc.MQTT.ClientID,
			Username: fc.MQTT.Username,
			Password: fc.MQTT.Password,
			Handler:  handler,
		}
		go func() {
			if err := mq.Run(ctx); err != nil {
				log.Printf("[FEED-MQTT] %v", err)
				engine.SetError("MQTT feed stopped: %v", err)
			}
		}()
	}
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	log.Printf("[METRICS] Serving on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[METRICS] Server error: %v", err)
	}
}
