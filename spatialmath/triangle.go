package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Triangle is three points and the normal of the plane through them.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a triangle; the normal follows the right-hand rule over p0, p1, p2.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three corners.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal, or the zero vector for a degenerate triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return 0.5 * t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm()
}

// Transform returns the triangle mapped through tf.
func (t *Triangle) Transform(tf Transform) *Triangle {
	return NewTriangle(tf.Apply(t.p0), tf.Apply(t.p1), tf.Apply(t.p2))
}

// IntersectRay returns the distance along dir from origin to the triangle, using the
// Möller-Trumbore test. dir must be a unit vector for the distance to be metric.
// Both faces of the triangle are hit.
func (t *Triangle) IntersectRay(origin, dir r3.Vector) (float64, bool) {
	e1 := t.p1.Sub(t.p0)
	e2 := t.p2.Sub(t.p0)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if det > -floatEpsilon && det < floatEpsilon {
		// ray parallel to the triangle plane
		return 0, false
	}
	inv := 1 / det
	s := origin.Sub(t.p0)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	dist := e2.Dot(q) * inv
	if dist <= floatEpsilon {
		return 0, false
	}
	return dist, true
}

// Centroid returns the mean of the three corners.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3)
}
