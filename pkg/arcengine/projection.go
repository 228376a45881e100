package arcengine

import (
	"math"
	"sync"
)

// Projector maps geographic coordinates to screen pixels.
type Projector interface {
	Project(lat, lng float64) (x, y float64)
}

// ScreenPoint is a projected pixel position.
type ScreenPoint struct{ X, Y float64 }

// Mollweide is an equal-area world projection centred in the viewport.
type Mollweide struct {
	mu            sync.RWMutex
	width, height int
	scale         float64
	generation    uint64
}

func NewMollweide(width, height int, scale float64) *Mollweide {
	return &Mollweide{width: width, height: height, scale: scale}
}

// Resize changes the viewport. Screen coordinates derived from an earlier generation
// must be recomputed.
func (m *Mollweide) Resize(width, height int, scale float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if width == m.width && height == m.height && scale == m.scale {
		return false
	}
	m.width, m.height, m.scale = width, height, scale
	m.generation++
	return true
}

// Generation increases on every effective Resize.
func (m *Mollweide) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

func (m *Mollweide) Size() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.width, m.height
}

func (m *Mollweide) Project(lat, lng float64) (x, y float64) {
	if lat > 89.5 {
		lat = 89.5
	}
	if lat < -89.5 {
		lat = -89.5
	}

	latRad, lngRad := lat*math.Pi/180, lng*math.Pi/180
	theta := latRad
	for i := 0; i < 10; i++ {
		denom := 2 + 2*math.Cos(2*theta)
		if math.Abs(denom) < 1e-9 {
			break
		}
		delta := (2*theta + math.Sin(2*theta) - math.Pi*math.Sin(latRad)) / denom
		theta -= delta
		if math.Abs(delta) < 1e-7 {
			break
		}
	}

	m.mu.RLock()
	w, h, r := float64(m.width), float64(m.height), m.scale
	m.mu.RUnlock()
	x = (w / 2) + r*(2*math.Sqrt(2)/math.Pi)*lngRad*math.Cos(theta)
	y = (h / 2) - r*math.Sqrt(2)*math.Sin(theta)
	return x, y
}
