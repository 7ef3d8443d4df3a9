package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrInvalidMesh is returned when a polygon refers to a vertex that does not exist.
var ErrInvalidMesh = errors.New("invalid mesh")

// Polygon is an ordered loop of vertex indices with its face normal, both in the mesh's local frame.
type Polygon struct {
	Vertices []int     `json:"vertices"`
	Normal   r3.Vector `json:"normal"`
}

// Mesh is a polygon mesh in its local frame.
type Mesh struct {
	Vertices []r3.Vector `json:"vertices"`
	Polygons []Polygon   `json:"polygons"`
}

// NewMesh returns a mesh over the given vertices and polygons. Polygons with a zero normal
// get one computed from their vertices.
func NewMesh(vertices []r3.Vector, polygons []Polygon) *Mesh {
	m := &Mesh{Vertices: vertices, Polygons: polygons}
	for i, p := range m.Polygons {
		if p.Normal.Norm2() == 0 && m.validPolygon(p) {
			m.Polygons[i].Normal = m.newellNormal(p)
		}
	}
	return m
}

// NewMeshFromTriangles welds identical corners into shared vertices and returns a
// mesh of triangle polygons.
func NewMeshFromTriangles(tris [][3]r3.Vector) *Mesh {
	index := map[r3.Vector]int{}
	m := &Mesh{}
	for _, tri := range tris {
		poly := Polygon{Vertices: make([]int, 0, 3), Normal: PlaneNormal(tri[0], tri[1], tri[2])}
		for _, v := range tri {
			idx, ok := index[v]
			if !ok {
				idx = len(m.Vertices)
				m.Vertices = append(m.Vertices, v)
				index[v] = idx
			}
			poly.Vertices = append(poly.Vertices, idx)
		}
		m.Polygons = append(m.Polygons, poly)
	}
	return m
}

// Validate checks that every polygon has at least three vertices and every index is in range.
func (m *Mesh) Validate() error {
	for i, p := range m.Polygons {
		if len(p.Vertices) < 3 {
			return errors.Wrapf(ErrInvalidMesh, "polygon %d has %d vertices", i, len(p.Vertices))
		}
		if !m.validPolygon(p) {
			return errors.Wrapf(ErrInvalidMesh, "polygon %d refers to a vertex outside [0, %d)", i, len(m.Vertices))
		}
	}
	return nil
}

func (m *Mesh) validPolygon(p Polygon) bool {
	for _, idx := range p.Vertices {
		if idx < 0 || idx >= len(m.Vertices) {
			return false
		}
	}
	return true
}

// newellNormal is robust to non-planar and concave loops.
func (m *Mesh) newellNormal(p Polygon) r3.Vector {
	var n r3.Vector
	for i, idx := range p.Vertices {
		cur := m.Vertices[idx]
		next := m.Vertices[p.Vertices[(i+1)%len(p.Vertices)]]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	if n.Norm() < floatEpsilon {
		return r3.Vector{}
	}
	return n.Normalize()
}

// BoundingBox returns the local axis-aligned bounds of the vertices.
func (m *Mesh) BoundingBox() (AABB, bool) {
	return NewAABB(m.Vertices)
}

// PolygonPoints returns the polygon's corners mapped through tf.
func (m *Mesh) PolygonPoints(p Polygon, tf Transform) []r3.Vector {
	pts := make([]r3.Vector, 0, len(p.Vertices))
	for _, idx := range p.Vertices {
		pts = append(pts, tf.Apply(m.Vertices[idx]))
	}
	return pts
}

// PolygonCenter returns the mean of the polygon's corners mapped through tf.
func (m *Mesh) PolygonCenter(p Polygon, tf Transform) r3.Vector {
	pts := m.PolygonPoints(p, tf)
	var c r3.Vector
	for _, pt := range pts {
		c = c.Add(pt)
	}
	if len(pts) == 0 {
		return c
	}
	return c.Mul(1 / float64(len(pts)))
}

// PolygonArea returns the area of the polygon mapped through tf, by fanning triangles from its first corner.
func (m *Mesh) PolygonArea(p Polygon, tf Transform) float64 {
	pts := m.PolygonPoints(p, tf)
	if len(pts) < 3 {
		return 0
	}
	area := 0.0
	for i := 1; i < len(pts)-1; i++ {
		area += 0.5 * pts[i].Sub(pts[0]).Cross(pts[i+1].Sub(pts[0])).Norm()
	}
	return area
}

// Triangles fans every polygon into triangles mapped through tf.
func (m *Mesh) Triangles(tf Transform) []*Triangle {
	var tris []*Triangle
	for _, p := range m.Polygons {
		pts := m.PolygonPoints(p, tf)
		for i := 1; i < len(pts)-1; i++ {
			tris = append(tris, NewTriangle(pts[0], pts[i], pts[i+1]))
		}
	}
	return tris
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices: append([]r3.Vector(nil), m.Vertices...),
		Polygons: make([]Polygon, 0, len(m.Polygons)),
	}
	for _, p := range m.Polygons {
		out.Polygons = append(out.Polygons, Polygon{Vertices: append([]int(nil), p.Vertices...), Normal: p.Normal})
	}
	return out
}
