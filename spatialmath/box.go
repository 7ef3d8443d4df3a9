package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Ordered list of unit box vertices.
var boxVertices = [8]r3.Vector{
	{X: -1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: 1},
}

// The quads tiling the box exterior, wound counter-clockwise seen from outside.
var boxFaces = [6][4]int{
	{0, 3, 2, 1}, // -Z
	{4, 5, 6, 7}, // +Z
	{0, 1, 5, 4}, // -Y
	{2, 3, 7, 6}, // +Y
	{0, 4, 7, 3}, // -X
	{1, 2, 6, 5}, // +X
}

// Ordered list of box face normals, matching boxFaces.
var boxNormals = [6]r3.Vector{
	{X: 0, Y: 0, Z: -1},
	{X: 0, Y: 0, Z: 1},
	{X: 0, Y: -1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: -1, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
}

// NewBoxMesh returns a closed box centred on the origin with the given full dimensions,
// built from six quads.
func NewBoxMesh(dims r3.Vector) *Mesh {
	half := dims.Mul(0.5)
	verts := make([]r3.Vector, 0, len(boxVertices))
	for _, v := range boxVertices {
		verts = append(verts, r3.Vector{X: v.X * half.X, Y: v.Y * half.Y, Z: v.Z * half.Z})
	}
	polys := make([]Polygon, 0, len(boxFaces))
	for i, f := range boxFaces {
		polys = append(polys, Polygon{Vertices: []int{f[0], f[1], f[2], f[3]}, Normal: boxNormals[i]})
	}
	return NewMesh(verts, polys)
}

// NewPlaneMesh returns a single square quad of the given edge length in the XY plane facing +Z.
func NewPlaneMesh(size float64) *Mesh {
	h := size / 2
	verts := []r3.Vector{
		{X: -h, Y: -h},
		{X: h, Y: -h},
		{X: h, Y: h},
		{X: -h, Y: h},
	}
	return NewMesh(verts, []Polygon{{Vertices: []int{0, 1, 2, 3}, Normal: r3.Vector{Z: 1}}})
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// NewAABB returns the smallest box containing every point. It reports false when points is empty.
func NewAABB(points []r3.Vector) (AABB, bool) {
	if len(points) == 0 {
		return AABB{}, false
	}
	b := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = r3.Vector{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
		b.Max = r3.Vector{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
	}
	return b, true
}

// Corners returns the eight corners in boxVertices order.
func (b AABB) Corners() [8]r3.Vector {
	var out [8]r3.Vector
	for i, v := range boxVertices {
		out[i] = r3.Vector{
			X: pick(v.X, b.Min.X, b.Max.X),
			Y: pick(v.Y, b.Min.Y, b.Max.Y),
			Z: pick(v.Z, b.Min.Z, b.Max.Z),
		}
	}
	return out
}

// TopCorners returns the distinct corners at maximum Z. Corners closer than tol are merged,
// so a box that is flat along X or Y yields fewer than four.
func (b AABB) TopCorners(tol float64) []r3.Vector {
	corners := b.Corners()
	var unique []r3.Vector
	for _, c := range corners[4:] {
		dup := false
		for _, u := range unique {
			if c.Sub(u).Norm() < tol {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, c)
		}
	}
	return unique
}

// Transform returns the axis-aligned box enclosing this box mapped through tf.
func (b AABB) Transform(tf Transform) AABB {
	corners := b.Corners()
	pts := make([]r3.Vector, 0, len(corners))
	for _, c := range corners {
		pts = append(pts, tf.Apply(c))
	}
	out, _ := NewAABB(pts)
	return out
}

// IntersectsRay is the slab test: it reports whether the ray enters the box within maxDist.
func (b AABB) IntersectsRay(origin, dir r3.Vector, maxDist float64) bool {
	tMin, tMax := 0.0, maxDist
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < floatEpsilon {
			if o[i] < lo[i] || o[i] > hi[i] {
				return false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}

func pick(sign, lo, hi float64) float64 {
	if sign < 0 {
		return lo
	}
	return hi
}
