package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// floatEpsilon is the tolerance below which lengths and determinants are treated as zero.
const floatEpsilon = 1e-9

const (
	radToDeg = 180 / math.Pi
	degToRad = math.Pi / 180
)

// PlaneNormal returns the normal vector of the plane defined by three points.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// Collinear reports whether the three points lie on one line, relative to the lengths of the spanning edges.
// Coincident points count as collinear.
func Collinear(a, b, c r3.Vector, tolerance float64) bool {
	ab := b.Sub(a)
	ac := c.Sub(a)
	if ab.Norm2() < floatEpsilon*floatEpsilon || ac.Norm2() < floatEpsilon*floatEpsilon {
		return true
	}
	return ab.Cross(ac).Norm() <= tolerance*ab.Norm()*ac.Norm()
}
