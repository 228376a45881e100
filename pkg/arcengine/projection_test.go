package arcengine

import (
	"math"
	"testing"
)

func TestMollweideProject(t *testing.T) {
	m := NewMollweide(1920, 1080, 380.0)

	tests := []struct {
		lat, lng     float64
		wantX, wantY float64
	}{
		{0, 0, 960, 540},
		{90, 0, 960, 3.14},      // Near North Pole
		{-90, 0, 960, 1076.86},  // Near South Pole
		{0, 180, 2034.72, 540},  // Far East
		{0, -180, -114.72, 540}, // Far West
	}

	for _, tt := range tests {
		x, y := m.Project(tt.lat, tt.lng)
		if math.Abs(x-tt.wantX) > 1.0 || math.Abs(y-tt.wantY) > 1.0 {
			t.Errorf("Project(%f, %f) = (%f, %f); want (%f, %f)", tt.lat, tt.lng, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestMollweideResize(t *testing.T) {
	m := NewMollweide(1920, 1080, 380.0)
	if m.Generation() != 0 {
		t.Fatalf("Generation() = %d; want 0", m.Generation())
	}
	if m.Resize(1920, 1080, 380.0) {
		t.Errorf("Resize to the same viewport reported a change")
	}
	if !m.Resize(1280, 720, 200) || m.Generation() != 1 {
		t.Errorf("Resize(1280, 720, 200) did not bump the generation")
	}
	if w, h := m.Size(); w != 1280 || h != 720 {
		t.Errorf("Size() = %d, %d; want 1280, 720", w, h)
	}
	if x, y := m.Project(0, 0); x != 640 || y != 360 {
		t.Errorf("Project(0, 0) after resize = (%v, %v); want (640, 360)", x, y)
	}
}

func TestFitScale(t *testing.T) {
	for _, sz := range [][2]int{{1920, 1080}, {800, 800}, {3840, 1000}} {
		w, h := sz[0], sz[1]
		m := NewMollweide(w, h, FitScale(w, h))
		east, _ := m.Project(0, 180)
		west, _ := m.Project(0, -180)
		_, north := m.Project(90, 0)
		_, south := m.Project(-90, 0)
		if west < 0 || east > float64(w) || north < 0 || south > float64(h) {
			t.Errorf("FitScale(%d, %d) does not fit: x [%v, %v], y [%v, %v]", w, h, west, east, north, south)
		}
	}
}
