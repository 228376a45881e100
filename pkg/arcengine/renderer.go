package arcengine

import (
	"image/color"
	"math"

	"github.com/paulmach/orb"
)

// Surface is the drawing backend. Coordinates are screen pixels, alpha is [0,1].
type Surface interface {
	Clear()
	StrokePolyline(pts []ScreenPoint, c color.RGBA, width, alpha float64)
	FillCircle(center ScreenPoint, radius float64, c color.RGBA, alpha float64)
	StrokeCircle(center ScreenPoint, radius, width float64, c color.RGBA, alpha float64)
}

var (
	ColorLow  = color.RGBA{0, 200, 120, 255}
	ColorHigh = color.RGBA{255, 80, 40, 255}
	ColorGlow = color.RGBA{255, 220, 120, 255}
)

// Style holds the fixed look of arcs.
type Style struct {
	Low, High, Glow color.RGBA
	PixelRatio      float64
}

func DefaultStyle() Style {
	return Style{Low: ColorLow, High: ColorHigh, Glow: ColorGlow, PixelRatio: 1}
}

const (
	trailAlpha     = 0.25
	highlightAlpha = 0.85
	pulseRadius    = 3.5
	glowBaseRadius = 6.0
	glowGrowth     = 14.0
	glowAlpha      = 0.65
	glowWidth      = 2.0
)

type generational interface {
	Generation() uint64
}

// FrameRenderer draws the arcs chosen by the scheduler. It keeps projected copies of
// event paths and drops them when the projection or the snapshot changes.
type FrameRenderer struct {
	Style     Style
	Projector Projector

	cacheSnap *Snapshot
	cacheGen  uint64
	screen    map[int]*screenPath
}

// screenPath is a projected event path. runs split points where the path crosses the
// antimeridian and would otherwise streak across the map.
type screenPath struct {
	points []ScreenPoint
	runs   [][]ScreenPoint
}

func NewFrameRenderer(p Projector, style Style) *FrameRenderer {
	return &FrameRenderer{Style: style, Projector: p, screen: make(map[int]*screenPath)}
}

// Invalidate forgets all projected paths.
func (r *FrameRenderer) Invalidate() {
	r.screen = make(map[int]*screenPath)
}

// Draw issues the primitives for every arc of the frame, in order.
func (r *FrameRenderer) Draw(s Surface, snap *Snapshot, f Frame) {
	r.syncCache(snap)
	ratio := r.Style.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	for _, arc := range f.Arcs {
		ev := arc.Event
		col := LerpColor(r.Style.Low, r.Style.High, ev.ColorT)
		width := 0.8 + ev.ColorT*2.2
		sp := r.screenPath(ev)
		pts := sp.points

		for _, run := range sp.runs {
			s.StrokePolyline(run, col, math.Max(1, width*0.6)*ratio, trailAlpha)
		}
		switch arc.Phase {
		case Traveling:
			s.FillCircle(pts[PulseIndex(arc.Progress, len(pts))], pulseRadius*ratio, col, 1)
		case Fading:
			x, y := r.Projector.Project(ev.DstLatLng())
			s.StrokeCircle(ScreenPoint{x, y}, (glowBaseRadius+glowGrowth*arc.Progress)*ratio,
				glowWidth*ratio, r.Style.Glow, glowAlpha*(1-arc.Progress))
		}
		for _, run := range sp.runs {
			s.StrokePolyline(run, col, width*ratio, highlightAlpha)
		}
	}
}

func (r *FrameRenderer) syncCache(snap *Snapshot) {
	var gen uint64
	if g, ok := r.Projector.(generational); ok {
		gen = g.Generation()
	}
	if snap != r.cacheSnap || gen != r.cacheGen || r.screen == nil {
		r.Invalidate()
		r.cacheSnap, r.cacheGen = snap, gen
	}
}

func (r *FrameRenderer) screenPath(ev *Event) *screenPath {
	if sp, ok := r.screen[ev.ID]; ok {
		return sp
	}
	pts := make([]ScreenPoint, len(ev.Path))
	for i, p := range ev.Path {
		x, y := r.Projector.Project(p.Lat(), p.Lon())
		pts[i] = ScreenPoint{x, y}
	}
	if len(pts) == 0 {
		x, y := r.Projector.Project(ev.SrcLatLng())
		pts = []ScreenPoint{{x, y}}
	}
	sp := &screenPath{points: pts, runs: splitAtAntimeridian(ev.Path, pts)}
	r.screen[ev.ID] = sp
	return sp
}

// splitAtAntimeridian cuts pts wherever consecutive path points are more than 180
// degrees of longitude apart.
func splitAtAntimeridian(path orb.LineString, pts []ScreenPoint) [][]ScreenPoint {
	if len(path) != len(pts) {
		return [][]ScreenPoint{pts}
	}
	var runs [][]ScreenPoint
	start := 0
	for i := 1; i < len(path); i++ {
		if math.Abs(path[i].Lon()-path[i-1].Lon()) > 180 {
			runs = append(runs, pts[start:i])
			start = i
		}
	}
	return append(runs, pts[start:])
}

// PulseIndex maps progress onto an index of a path with n points.
func PulseIndex(progress float64, n int) int {
	if n <= 1 {
		return 0
	}
	idx := int(math.Floor(progress * float64(n-1)))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

// LerpColor blends a and b per channel, rounding to the nearest integer.
func LerpColor(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}
