package arcengine

import (
	"errors"
	"image/color"
	"image/png"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

var errNotRaster = errors.New("surface is not a raster surface")

// BackdropColor is the ocean/background fill.
var BackdropColor = color.RGBA{8, 10, 15, 255}

// canvasRenderer is implemented by both the svg and rasterizer renderers.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// CanvasSurface renders frames without a window, to SVG or PNG. One canvas unit is
// one pixel. Canvas renderers have their origin at the bottom left, so y is flipped.
type CanvasSurface struct {
	r             canvasRenderer
	width, height float64
	raster        *rasterizer.Rasterizer
	svg           *svg.SVG
}

// NewRasterSurface returns a surface that is encoded with WritePNG.
func NewRasterSurface(width, height int) *CanvasSurface {
	rast := rasterizer.New(float64(width), float64(height), canvas.DPMM(1.0), canvas.DefaultColorSpace)
	return &CanvasSurface{r: rast, raster: rast, width: float64(width), height: float64(height)}
}

// NewSVGSurface streams SVG to w; Close must be called to finish the document.
func NewSVGSurface(w io.Writer, width, height int) *CanvasSurface {
	s := svg.New(w, float64(width), float64(height), nil)
	return &CanvasSurface{r: s, svg: s, width: float64(width), height: float64(height)}
}

// WritePNG encodes a raster surface.
func (s *CanvasSurface) WritePNG(w io.Writer) error {
	if s.raster == nil {
		return errNotRaster
	}
	return png.Encode(w, s.raster)
}

// Close finishes an SVG surface. It is a no-op for raster surfaces.
func (s *CanvasSurface) Close() error {
	if s.svg == nil {
		return nil
	}
	return s.svg.Close()
}

// premultiply converts to the premultiplied color canvas expects.
func premultiply(c color.RGBA, alpha float64) color.RGBA {
	a := uint32(clamp01(alpha) * 255)
	if a == 0 {
		return color.RGBA{}
	}
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: uint8(a),
	}
}

func (s *CanvasSurface) flip(p ScreenPoint) (float64, float64) { return p.X, s.height - p.Y }

func (s *CanvasSurface) Clear() {
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: BackdropColor}
	style.Stroke = canvas.Paint{Color: canvas.Transparent}
	s.r.RenderPath(canvas.Rectangle(s.width, s.height), style, canvas.Identity)
}

func (s *CanvasSurface) StrokePolyline(pts []ScreenPoint, c color.RGBA, width, alpha float64) {
	if len(pts) < 2 {
		return
	}
	p := &canvas.Path{}
	for i, pt := range pts {
		x, y := s.flip(pt)
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: canvas.Transparent}
	style.Stroke = canvas.Paint{Color: premultiply(c, alpha)}
	style.StrokeWidth = width
	s.r.RenderPath(p, style, canvas.Identity)
}

func (s *CanvasSurface) FillCircle(center ScreenPoint, radius float64, c color.RGBA, alpha float64) {
	x, y := s.flip(center)
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: premultiply(c, alpha)}
	style.Stroke = canvas.Paint{Color: canvas.Transparent}
	s.r.RenderPath(canvas.Circle(radius).Translate(x, y), style, canvas.Identity)
}

func (s *CanvasSurface) StrokeCircle(center ScreenPoint, radius, width float64, c color.RGBA, alpha float64) {
	x, y := s.flip(center)
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: canvas.Transparent}
	style.Stroke = canvas.Paint{Color: premultiply(c, alpha)}
	style.StrokeWidth = width
	s.r.RenderPath(canvas.Circle(radius).Translate(x, y), style, canvas.Identity)
}

// FillRings fills a projected polygon (outer ring plus holes) and outlines it.
func (s *CanvasSurface) FillRings(rings [][]ScreenPoint, fill, outline color.RGBA) {
	p := &canvas.Path{}
	for _, ring := range rings {
		for i, pt := range ring {
			x, y := s.flip(pt)
			if i == 0 {
				p.MoveTo(x, y)
			} else {
				p.LineTo(x, y)
			}
		}
		p.Close()
	}
	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: fill}
	style.Stroke = canvas.Paint{Color: outline}
	style.StrokeWidth = 1
	style.FillRule = canvas.EvenOdd
	s.r.RenderPath(p, style, canvas.Identity)
}
