package arcengine

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// ebitenSurface draws onto an ebiten image with the vector package.
type ebitenSurface struct {
	dst *ebiten.Image
}

func newEbitenSurface(dst *ebiten.Image) *ebitenSurface { return &ebitenSurface{dst: dst} }

func withAlpha(c color.RGBA, alpha float64) color.NRGBA {
	return color.NRGBA{c.R, c.G, c.B, uint8(clamp01(alpha) * 255)}
}

func (s *ebitenSurface) Clear() { s.dst.Clear() }

// StrokePolyline strokes the points as one path so translucent segments do not
// overlap at the joins.
func (s *ebitenSurface) StrokePolyline(pts []ScreenPoint, c color.RGBA, width, alpha float64) {
	path := polylinePath(pts)
	if path == nil {
		return
	}
	op := &vector.DrawPathOptions{AntiAlias: true}
	op.ColorScale.ScaleWithColor(withAlpha(c, alpha))
	vector.StrokePath(s.dst, path, &vector.StrokeOptions{
		Width:    float32(width),
		LineJoin: vector.LineJoinRound,
		LineCap:  vector.LineCapRound,
	}, op)
}

func polylinePath(pts []ScreenPoint) *vector.Path {
	if len(pts) < 2 {
		return nil
	}
	path := &vector.Path{}
	path.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		path.LineTo(float32(p.X), float32(p.Y))
	}
	return path
}

func (s *ebitenSurface) FillCircle(center ScreenPoint, radius float64, c color.RGBA, alpha float64) {
	vector.DrawFilledCircle(s.dst, float32(center.X), float32(center.Y), float32(radius), withAlpha(c, alpha), true)
}

func (s *ebitenSurface) StrokeCircle(center ScreenPoint, radius, width float64, c color.RGBA, alpha float64) {
	vector.StrokeCircle(s.dst, float32(center.X), float32(center.Y), float32(radius), float32(width), withAlpha(c, alpha), true)
}
