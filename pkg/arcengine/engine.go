package arcengine

import (
	"bytes"
	"log"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Engine runs the looping arc animation as an ebiten game. Update schedules, Draw
// renders; neither blocks. Data is published from other goroutines through Load.
type Engine struct {
	Width, Height int
	Scale         float64
	// FollowWindow makes the internal resolution track the outside window size.
	FollowWindow bool

	FrameCaptureDir string
	CaptureEvery    time.Duration

	Session   *Session
	Scheduler *LoopScheduler
	Renderer  *FrameRenderer
	Projector *Mollweide
	Metrics   *Metrics
	Options   SnapshotOptions

	mu      sync.Mutex
	targets []TargetRecord
	base    []RawRecord
	live    LiveSource
	status  Status

	bgMu    sync.Mutex
	basemap *Basemap
	bgDirty bool
	bgImage *ebiten.Image

	fontSource *text.GoTextFaceSource
	monoSource *text.GoTextFaceSource

	snap        *Snapshot
	frame       Frame
	lastCapture time.Time
}

// NewEngine returns an engine with default timings and style. scale is the projection
// radius in pixels.
func NewEngine(width, height int, scale float64) *Engine {
	s, _ := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	m, _ := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))

	proj := NewMollweide(width, height, scale)
	style := DefaultStyle()
	if width > 2000 {
		style.PixelRatio = 2
	}
	return &Engine{
		Width:      width,
		Height:     height,
		Scale:      scale,
		Session:    NewSession(),
		Scheduler:  NewLoopScheduler(),
		Renderer:   NewFrameRenderer(proj, style),
		Projector:  proj,
		Options:    SnapshotOptions{PathSamples: DefaultPathSamples, FallbackEvent: true},
		fontSource: s,
		monoSource: m,
		bgDirty:    true,
		status:     Status{Message: "Loading data…", At: time.Now()},
	}
}

// SetTargets replaces the target overrides used by subsequent loads.
func (e *Engine) SetTargets(targets []TargetRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.targets = targets
}

// SetOptions replaces the snapshot options used by subsequent loads.
func (e *Engine) SetOptions(opts SnapshotOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Options = opts
}

// SetBasemap replaces the land polygons; the background is rebuilt on the next Draw.
func (e *Engine) SetBasemap(b *Basemap) {
	e.bgMu.Lock()
	defer e.bgMu.Unlock()
	e.basemap = b
	e.bgDirty = true
}

// Load builds a snapshot from records and publishes it. It is safe to call while the
// frame loop runs; frames switch to the new snapshot between ticks.
func (e *Engine) Load(records []RawRecord) *Snapshot {
	e.mu.Lock()
	targets, opts := e.targets, e.Options
	e.mu.Unlock()

	snap := BuildSnapshot(records, targets, opts)
	e.Publish(snap)
	return snap
}

// Publish swaps in a prebuilt snapshot.
func (e *Engine) Publish(snap *Snapshot) {
	e.Session.Swap(snap)
	e.Metrics.observeSnapshot(snap)
	switch {
	case snap.Fallback:
		e.SetStatus("No events loaded: showing demonstration arc")
	case len(snap.Events) == 0:
		e.SetStatus("No events loaded")
	case snap.Rejected > 0:
		e.SetStatus("Loaded %d events (%d dropped)", len(snap.Events), snap.Rejected)
	default:
		e.SetStatus("Loaded %d events", len(snap.Events))
	}
	log.Printf("[DATA] Published snapshot: %d events, %d rejected, fallback=%v", len(snap.Events), snap.Rejected, snap.Fallback)
}

// CurrentFrame returns the last scheduled frame.
func (e *Engine) CurrentFrame() Frame { return e.frame }

func (e *Engine) Update() error {
	snap := e.Session.Snapshot()
	elapsed, ok := e.Session.Elapsed(time.Now())
	if !ok {
		e.snap, e.frame = nil, Frame{}
		return nil
	}
	e.snap = snap
	e.frame = e.Scheduler.Tick(snap, elapsed)
	e.Metrics.observeFrame(e.frame)
	return nil
}

func (e *Engine) Draw(screen *ebiten.Image) {
	screen.DrawImage(e.background(), nil)
	e.Renderer.Draw(newEbitenSurface(screen), e.snap, e.frame)
	e.drawLegend(screen)
	e.drawStatus(screen)

	now := time.Now()
	if e.CaptureEvery > 0 && now.Sub(e.lastCapture) >= e.CaptureEvery {
		e.lastCapture = now
		e.captureFrame(screen, "frame", now)
	}
}

func (e *Engine) Layout(outsideWidth, outsideHeight int) (int, int) {
	if !e.FollowWindow || outsideWidth <= 0 || outsideHeight <= 0 {
		return e.Width, e.Height
	}
	if outsideWidth != e.Width || outsideHeight != e.Height {
		e.Width, e.Height = outsideWidth, outsideHeight
		e.Scale = FitScale(outsideWidth, outsideHeight)
		if e.Projector.Resize(e.Width, e.Height, e.Scale) {
			e.bgMu.Lock()
			e.bgDirty = true
			e.bgMu.Unlock()
		}
	}
	return e.Width, e.Height
}

// FitScale is the largest projection radius that keeps the whole world visible.
func FitScale(width, height int) float64 {
	// Mollweide spans 4·sqrt(2)·r horizontally and 2·sqrt(2)·r vertically.
	byWidth := float64(width) / (4 * math.Sqrt2)
	byHeight := float64(height) / (2 * math.Sqrt2)
	return math.Min(byWidth, byHeight) * 0.95
}

func (e *Engine) background() *ebiten.Image {
	e.bgMu.Lock()
	defer e.bgMu.Unlock()
	if e.bgImage != nil && !e.bgDirty {
		return e.bgImage
	}
	if e.bgImage != nil {
		e.bgImage.Deallocate()
	}
	e.bgImage = ebiten.NewImageFromImage(e.basemap.Rasterize(e.Projector, e.Width, e.Height))
	e.bgDirty = false
	return e.bgImage
}
