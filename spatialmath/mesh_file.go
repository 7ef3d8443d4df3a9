package spatialmath

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/hschendel/stl"
	"github.com/pkg/errors"
)

// NewMeshFromFile reads a mesh from an STL or PLY file, picked by extension.
func NewMeshFromFile(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return NewMeshFromSTLFile(path)
	case ".ply":
		return NewMeshFromPLYFile(path)
	default:
		return nil, errors.Errorf("do not know how to read mesh file %q", path)
	}
}

// NewMeshFromSTLFile reads an ascii or binary STL file. Identical corners are welded.
func NewMeshFromSTLFile(path string) (*Mesh, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read STL file %q", path)
	}
	tris := make([][3]r3.Vector, 0, len(solid.Triangles))
	for _, t := range solid.Triangles {
		var tri [3]r3.Vector
		for i, v := range t.Vertices {
			tri[i] = r3.Vector{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
		}
		tris = append(tris, tri)
	}
	return NewMeshFromTriangles(tris), nil
}

// NewMeshFromPLYFile reads a PLY file with a "vertex" element carrying x, y, z and a "face"
// element carrying vertex_indices. Faces keep their vertex count.
func NewMeshFromPLYFile(path string) (*Mesh, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read PLY file %q", path)
	}
	return newMeshFromPLYBytes(data)
}

func newMeshFromPLYBytes(data []byte) (mesh *Mesh, err error) {
	// goply panics on malformed input
	defer func() {
		if r := recover(); r != nil {
			mesh, err = nil, errors.Errorf("error reading PLY data: %v", r)
		}
	}()
	ply := goply.New(bytes.NewReader(data))
	vertices := ply.Elements("vertex")
	faces := ply.Elements("face")

	mesh = &Mesh{Vertices: make([]r3.Vector, 0, len(vertices))}
	for i, v := range vertices {
		x, okX := plyFloat(v["x"])
		y, okY := plyFloat(v["y"])
		z, okZ := plyFloat(v["z"])
		if !okX || !okY || !okZ {
			return nil, errors.Errorf("PLY vertex %d is missing a coordinate", i)
		}
		mesh.Vertices = append(mesh.Vertices, r3.Vector{X: x, Y: y, Z: z})
	}
	polys := make([]Polygon, 0, len(faces))
	for i, f := range faces {
		idx, ok := plyIndices(f["vertex_indices"])
		if !ok {
			idx, ok = plyIndices(f["vertex_index"])
		}
		if !ok {
			return nil, errors.Errorf("PLY face %d has no vertex indices", i)
		}
		polys = append(polys, Polygon{Vertices: idx})
	}
	mesh = NewMesh(mesh.Vertices, polys)
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func plyFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint8:
		return float64(n), true
	case int16:
		return float64(n), true
	case uint16:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func plyIndices(v interface{}) ([]int, bool) {
	var out []int
	switch idx := v.(type) {
	case []uint32:
		for _, i := range idx {
			out = append(out, int(i))
		}
	case []int32:
		for _, i := range idx {
			out = append(out, int(i))
		}
	case []uint16:
		for _, i := range idx {
			out = append(out, int(i))
		}
	case []int16:
		for _, i := range idx {
			out = append(out, int(i))
		}
	case []uint8:
		for _, i := range idx {
			out = append(out, int(i))
		}
	case []int8:
		for _, i := range idx {
			out = append(out, int(i))
		}
	case []int:
		out = append(out, idx...)
	case []interface{}:
		for _, i := range idx {
			f, ok := plyFloat(i)
			if !ok {
				return nil, false
			}
			out = append(out, int(f))
		}
	default:
		return nil, false
	}
	return out, true
}
