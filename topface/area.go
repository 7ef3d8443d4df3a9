package topface

import (
	"math"

	"github.com/airside-sim/tugscan/spatialmath"
)

const (
	// upwardDot is the smallest cosine between a face normal and world up for the face to count as a top face.
	upwardDot        = 0.9
	topHeightEpsilon = 1e-6
)

// Area returns the world-space area of the top surface of mesh placed by tf. A single-polygon
// mesh contributes its only face. Otherwise every face looking up (within about 25 degrees)
// whose centre is at the greatest height counts.
func Area(mesh *spatialmath.Mesh, tf spatialmath.Transform) (float64, error) {
	if err := mesh.Validate(); err != nil {
		return 0, err
	}
	if len(mesh.Polygons) == 1 {
		return mesh.PolygonArea(mesh.Polygons[0], tf), nil
	}

	type candidate struct {
		poly   spatialmath.Polygon
		height float64
	}
	var up []candidate
	top := math.Inf(-1)
	for _, p := range mesh.Polygons {
		if tf.ApplyNormal(p.Normal).Dot(worldZ) <= upwardDot {
			continue
		}
		h := mesh.PolygonCenter(p, tf).Z
		up = append(up, candidate{p, h})
		top = math.Max(top, h)
	}

	total := 0.0
	for _, c := range up {
		if math.Abs(c.height-top) < topHeightEpsilon {
			total += mesh.PolygonArea(c.poly, tf)
		}
	}
	return total, nil
}
