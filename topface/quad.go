package topface

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/airside-sim/tugscan/spatialmath"
)

const (
	// cornerMergeTolerance merges bounding box corners that coincide.
	cornerMergeTolerance = 1e-6
	// collinearTolerance is the sine of the smallest corner angle still treated as a corner.
	collinearTolerance = 1e-9
	normalEpsilon      = 1e-12
	// angleEpsilon snaps corners lying on the -e1 axis to -pi.
	angleEpsilon = 1e-9
)

var (
	worldX = r3.Vector{X: 1}
	worldY = r3.Vector{Y: 1}
	worldZ = r3.Vector{Z: 1}
)

// Quad is a four-cornered face in world space. Corners wind counter-clockwise about Normal,
// so Normal is the unit cross product of (p1-p0) and (p3-p0).
type Quad struct {
	Corners [4]r3.Vector
	Normal  r3.Vector
}

// NewQuad orders four world-space corners into a consistent cyclic winding and computes the
// face normal. up is the side the normal should point to; when it is zero or lies in the face
// plane a fixed axis order decides instead. The result does not depend on the order of pts.
func NewQuad(pts [4]r3.Vector, up r3.Vector) (Quad, error) {
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				if spatialmath.Collinear(pts[i], pts[j], pts[k], collinearTolerance) {
					return Quad{}, errors.Wrapf(ErrDegenerateQuad, "corners %d, %d and %d are collinear", i, j, k)
				}
			}
		}
	}

	pts = canonicalOrder(pts)
	c := centroid(pts)
	ref, ok := referenceNormal(pts, c, up)
	if !ok {
		return Quad{}, ErrDegenerateQuad
	}

	// Angles are measured in the face's own basis so a face whose normal points below the
	// horizon does not flip the winding.
	e1 := projectOnPlane(worldX, ref)
	if e1.Norm() < 1e-6 {
		e1 = projectOnPlane(worldY, ref)
	}
	e1 = e1.Normalize()
	e2 := ref.Cross(e1)

	sorted := pts
	angle := func(p r3.Vector) float64 {
		d := p.Sub(c)
		a := math.Atan2(d.Dot(e2), d.Dot(e1))
		if a > math.Pi-angleEpsilon {
			a = -math.Pi
		}
		return a
	}
	sort.SliceStable(sorted[:], func(i, j int) bool {
		return angle(sorted[i]) < angle(sorted[j])
	})

	n := sorted[1].Sub(sorted[0]).Cross(sorted[3].Sub(sorted[0]))
	if n.Norm() < normalEpsilon {
		return Quad{}, ErrDegenerateQuad
	}
	return Quad{Corners: sorted, Normal: n.Normalize()}, nil
}

// Centroid returns the mean of the corners.
func (q Quad) Centroid() r3.Vector {
	return centroid(q.Corners)
}

// At returns the bilinear interpolation of the corners at (u, v): u runs from p0 to p1
// (and p3 to p2), v runs from the first of those edges to the second.
func (q Quad) At(u, v float64) r3.Vector {
	a := lerp(q.Corners[0], q.Corners[1], u)
	b := lerp(q.Corners[3], q.Corners[2], u)
	return lerp(a, b, v)
}

// acquireQuad finds the top face of mesh in world space along with the direction the face
// looks toward. A mesh made of a single quad is used as is; anything else falls back to the
// four top corners of its local bounding box.
func acquireQuad(mesh *spatialmath.Mesh, tf spatialmath.Transform) ([4]r3.Vector, r3.Vector, error) {
	var corners [4]r3.Vector
	if len(mesh.Polygons) == 1 && len(mesh.Polygons[0].Vertices) == 4 {
		poly := mesh.Polygons[0]
		for i, idx := range poly.Vertices {
			corners[i] = tf.Apply(mesh.Vertices[idx])
		}
		return corners, tf.ApplyNormal(poly.Normal), nil
	}

	bb, ok := mesh.BoundingBox()
	if !ok {
		return corners, r3.Vector{}, errors.Wrap(ErrNotPlanarQuad, "mesh has no vertices")
	}
	top := bb.TopCorners(cornerMergeTolerance)
	if len(top) < 4 {
		return corners, r3.Vector{}, errors.Wrapf(ErrNotPlanarQuad, "only %d distinct top corners", len(top))
	}
	for i, p := range top[:4] {
		corners[i] = tf.Apply(p)
	}
	return corners, tf.ApplyNormal(worldZ), nil
}

// canonicalOrder sorts the corners lexicographically, so the centroid and every angle derived
// from them are bitwise identical whatever order the corners were given in.
func canonicalOrder(pts [4]r3.Vector) [4]r3.Vector {
	sort.Slice(pts[:], func(i, j int) bool {
		return pts[i].Cmp(pts[j]) < 0
	})
	return pts
}

// referenceNormal returns the unit normal of the plane through pts, from the centroid-relative
// pair with the largest cross product, signed to agree with up.
func referenceNormal(pts [4]r3.Vector, c, up r3.Vector) (r3.Vector, bool) {
	var ref r3.Vector
	best := 0.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			cr := pts[i].Sub(c).Cross(pts[j].Sub(c))
			if n := cr.Norm(); n > best {
				best = n
				ref = cr
			}
		}
	}
	if best < normalEpsilon {
		return r3.Vector{}, false
	}
	ref = ref.Normalize()

	if d := ref.Dot(up); math.Abs(d) > 1e-9 {
		if d < 0 {
			ref = ref.Mul(-1)
		}
		return ref, true
	}
	for _, axis := range []r3.Vector{worldZ, worldX, worldY} {
		if d := ref.Dot(axis); math.Abs(d) > 1e-9 {
			if d < 0 {
				ref = ref.Mul(-1)
			}
			break
		}
	}
	return ref, true
}

func projectOnPlane(v, n r3.Vector) r3.Vector {
	return v.Sub(n.Mul(v.Dot(n)))
}

func centroid(pts [4]r3.Vector) r3.Vector {
	var c r3.Vector
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Mul(0.25)
}

func lerp(a, b r3.Vector, t float64) r3.Vector {
	return a.Add(b.Sub(a).Mul(t))
}
