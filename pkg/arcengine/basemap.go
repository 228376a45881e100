package arcengine

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

var (
	landColor    = color.RGBA{26, 29, 35, 255}
	outlineColor = color.RGBA{36, 42, 53, 255}
)

// Basemap is the set of land polygons drawn under the arcs.
type Basemap struct {
	polygons [][][][]float64 // polygon -> ring -> [lng, lat]
}

// ParseBasemap reads a GeoJSON FeatureCollection and keeps its (multi)polygons.
func ParseBasemap(data []byte) (*Basemap, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse basemap: %w", err)
	}
	b := &Basemap{}
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		switch {
		case f.Geometry.IsPolygon():
			b.polygons = append(b.polygons, f.Geometry.Polygon)
		case f.Geometry.IsMultiPolygon():
			b.polygons = append(b.polygons, f.Geometry.MultiPolygon...)
		}
	}
	return b, nil
}

// Len is the number of polygons.
func (b *Basemap) Len() int {
	if b == nil {
		return 0
	}
	return len(b.polygons)
}

func projectRings(p Projector, rings [][][]float64) [][]ScreenPoint {
	out := make([][]ScreenPoint, len(rings))
	for i, ring := range rings {
		out[i] = make([]ScreenPoint, len(ring))
		for j, c := range ring {
			if len(c) < 2 {
				continue
			}
			x, y := p.Project(c[1], c[0])
			out[i][j] = ScreenPoint{x, y}
		}
	}
	return out
}

// Rasterize paints the backdrop and land onto a CPU image of the given size.
func (b *Basemap) Rasterize(p Projector, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{BackdropColor}, image.Point{}, draw.Src)
	if b == nil {
		return img
	}
	for _, poly := range b.polygons {
		rings := projectRings(p, poly)
		fillRings(img, rings, landColor)
		for _, ring := range rings {
			for i := 0; i+1 < len(ring); i++ {
				drawLine(img, int(ring[i].X), int(ring[i].Y), int(ring[i+1].X), int(ring[i+1].Y), outlineColor)
			}
		}
	}
	return img
}

// DrawTo paints the land polygons as vector paths.
func (b *Basemap) DrawTo(s *CanvasSurface, p Projector) {
	if b == nil {
		return
	}
	for _, poly := range b.polygons {
		s.FillRings(projectRings(p, poly), landColor, outlineColor)
	}
}

// fillRings is an even-odd scanline fill.
func fillRings(img *image.RGBA, rings [][]ScreenPoint, c color.RGBA) {
	if len(rings) == 0 {
		return
	}
	bounds := img.Bounds()
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, ring := range rings {
		for _, pt := range ring {
			minY = math.Min(minY, pt.Y)
			maxY = math.Max(maxY, pt.Y)
		}
	}
	if math.IsInf(minY, 0) {
		return
	}
	for y := int(minY); y <= int(maxY); y++ {
		if y < 0 || y >= bounds.Dy() {
			continue
		}
		var nodes []int
		fy := float64(y)
		for _, ring := range rings {
			for i := range ring {
				j := (i + 1) % len(ring)
				if (ring[i].Y < fy && ring[j].Y >= fy) || (ring[j].Y < fy && ring[i].Y >= fy) {
					nodeX := ring[i].X + (fy-ring[i].Y)/(ring[j].Y-ring[i].Y)*(ring[j].X-ring[i].X)
					nodes = append(nodes, int(nodeX))
				}
			}
		}
		sort.Ints(nodes)
		for i := 0; i+1 < len(nodes); i += 2 {
			xs, xe := max(nodes[i], 0), min(nodes[i+1], bounds.Dx()-1)
			for x := xs; x < xe; x++ {
				off := y*img.Stride + x*4
				img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, 255
			}
		}
	}
}

// drawLine is Bresenham with clipping to the image.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := -1, -1
	if x1 < x2 {
		sx = 1
	}
	if y1 < y2 {
		sy = 1
	}
	err := dx - dy
	for {
		if x1 >= 0 && x1 < w && y1 >= 0 && y1 < h {
			off := y1*img.Stride + x1*4
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = c.R, c.G, c.B, 255
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
