package arcengine

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

func TestGreatCircleEndpoints(t *testing.T) {
	pairs := [][2]orb.Point{
		{latLng(10, 10), latLng(20, 20)},
		{latLng(51.5, -0.12), latLng(37.77, -122.42)},
		{latLng(-33.86, 151.2), latLng(64.13, -21.9)},
		{latLng(0, 0), latLng(0, 180)},
		{latLng(89.9, 0), latLng(-89.9, 180)},
	}
	for _, p := range pairs {
		for _, n := range []int{1, 2, 7, DefaultPathSamples} {
			path := GreatCircle(p[0], p[1], n)
			if len(path) != n+1 {
				t.Errorf("GreatCircle(%v, %v, %d) has %d points; want %d", p[0], p[1], n, len(path), n+1)
				continue
			}
			if path[0] != p[0] || path[n] != p[1] {
				t.Errorf("GreatCircle(%v, %v, %d) endpoints = %v, %v", p[0], p[1], n, path[0], path[n])
			}
			for i, pt := range path {
				if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) {
					t.Errorf("GreatCircle(%v, %v, %d)[%d] = %v", p[0], p[1], n, i, pt)
				}
			}
		}
	}
}

func TestGreatCircleDegenerate(t *testing.T) {
	src := latLng(33.4484, -112.074)
	path := GreatCircle(src, src, 10)
	if len(path) != 11 {
		t.Fatalf("GreatCircle(src, src, 10) has %d points; want 11", len(path))
	}
	for i, p := range path {
		if p != src {
			t.Errorf("GreatCircle(src, src, 10)[%d] = %v; want %v", i, p, src)
		}
	}
}

func TestGreatCircleMidpoint(t *testing.T) {
	path := GreatCircle(latLng(0, 0), latLng(0, 90), 2)
	if mid := path[1]; math.Abs(mid.Lat()) > 1e-9 || math.Abs(mid.Lon()-45) > 1e-9 {
		t.Errorf("GreatCircle((0,0), (0,90), 2)[1] = %v; want (0, 45)", mid)
	}

	// London to San Francisco bows far north of the straight lat/lng line.
	path = GreatCircle(latLng(51.5, -0.12), latLng(37.77, -122.42), 2)
	if lat := path[1].Lat(); math.Abs(lat-63.437) > 0.01 {
		t.Errorf("London-SF midpoint latitude = %v; want ~63.437", lat)
	}
}

func TestGreatCircleFollowsGeodesic(t *testing.T) {
	src, dst := latLng(-33.86, 151.2), latLng(40.71, -74.0)
	path := GreatCircle(src, dst, DefaultPathSamples)

	total := geo.DistanceHaversine(src, dst)
	var sum float64
	for i := 1; i < len(path); i++ {
		step := geo.DistanceHaversine(path[i-1], path[i])
		if math.Abs(step-total/DefaultPathSamples) > total*1e-6 {
			t.Errorf("step %d = %v m; want evenly spaced %v m", i, step, total/DefaultPathSamples)
		}
		sum += step
	}
	if math.Abs(sum-total) > total*1e-6 {
		t.Errorf("path length = %v m; want %v m", sum, total)
	}
}
