package arcengine

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DefaultPathSamples is the number of segments an arc path is split into.
const DefaultPathSamples = 80

type vec3 struct{ x, y, z float64 }

func toVec(p orb.Point) vec3 {
	lat, lng := p.Lat()*math.Pi/180, p.Lon()*math.Pi/180
	return vec3{math.Cos(lat) * math.Cos(lng), math.Cos(lat) * math.Sin(lng), math.Sin(lat)}
}

func (v vec3) point() orb.Point {
	lng := math.Atan2(v.y, v.x) * 180 / math.Pi
	lat := math.Atan2(v.z, math.Hypot(v.x, v.y)) * 180 / math.Pi
	return orb.Point{lng, lat}
}

func (v vec3) scale(s float64) vec3 { return vec3{v.x * s, v.y * s, v.z * s} }
func (v vec3) add(o vec3) vec3      { return vec3{v.x + o.x, v.y + o.y, v.z + o.z} }
func (v vec3) cross(o vec3) vec3 {
	return vec3{v.y*o.z - v.z*o.y, v.z*o.x - v.x*o.z, v.x*o.y - v.y*o.x}
}
func (v vec3) unit() vec3 {
	n := math.Sqrt(v.x*v.x + v.y*v.y + v.z*v.z)
	if n == 0 {
		return v
	}
	return v.scale(1 / n)
}

// GreatCircle returns samples+1 points along the shortest path on the sphere from src
// to dst. The first and last points are src and dst exactly.
func GreatCircle(src, dst orb.Point, samples int) orb.LineString {
	if samples < 1 {
		samples = 1
	}
	path := make(orb.LineString, samples+1)
	path[0], path[samples] = src, dst

	d := geo.DistanceHaversine(src, dst) / orb.EarthRadius
	if d == 0 || src.Equal(dst) {
		for i := range path {
			path[i] = src
		}
		return path
	}

	a, b := toVec(src), toVec(dst)
	if math.Pi-d < 1e-6 {
		// Antipodal: every great circle qualifies, go through a fixed perpendicular.
		axis := vec3{0, 0, 1}
		if math.Abs(a.z) > 0.9 {
			axis = vec3{1, 0, 0}
		}
		mid := a.cross(axis).unit()
		half := samples / 2
		for i := 1; i < samples; i++ {
			if i <= half {
				path[i] = slerp(a, mid, math.Pi/2, float64(i)/float64(half)).point()
			} else {
				path[i] = slerp(mid, b, math.Pi/2, float64(i-half)/float64(samples-half)).point()
			}
		}
		return path
	}

	for i := 1; i < samples; i++ {
		path[i] = slerp(a, b, d, float64(i)/float64(samples)).point()
	}
	return path
}

func slerp(a, b vec3, d, t float64) vec3 {
	s := math.Sin(d)
	return a.scale(math.Sin((1-t)*d) / s).add(b.scale(math.Sin(t*d) / s))
}
