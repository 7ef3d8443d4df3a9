// Package topface samples evenly spaced points on the top face of a plate or box, in world
// space. The points are used as candidate sensor mounting positions.
package topface

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/airside-sim/tugscan/spatialmath"
)

// Params controls the sampling grid.
type Params struct {
	// NX and NY are the number of samples along the quad's p0->p1 and p0->p3 edges.
	NX int `json:"nx"`
	NY int `json:"ny"`
	// Margin is the fraction of each edge left unsampled at both ends.
	Margin float64 `json:"margin"`
	// HeightOffset moves every sample along the face normal.
	HeightOffset float64 `json:"height_offset"`
}

// DefaultParams returns a 1x2 grid with a 10% margin, 3cm above the face.
func DefaultParams() Params {
	return Params{NX: 1, NY: 2, Margin: 0.10, HeightOffset: 0.03}
}

// Validate checks the grid size and margin.
func (p Params) Validate() error {
	if p.NX < 1 || p.NY < 1 {
		return errors.Wrapf(ErrInvalidGridSize, "got %dx%d", p.NX, p.NY)
	}
	if p.Margin < 0 || p.Margin >= 0.5 {
		return errors.Wrapf(ErrInvalidMargin, "got %v", p.Margin)
	}
	return nil
}

// GridIndex is the position of a sample in the grid; I runs along u, J along v.
type GridIndex struct {
	I int `json:"i"`
	J int `json:"j"`
}

// SamplePoint is one world-space sample.
type SamplePoint struct {
	Position r3.Vector `json:"position"`
	Index    GridIndex `json:"index"`
}

// Result holds the samples in row-major order (all of row J=0 first) and the face they came from.
type Result struct {
	Quad    Quad          `json:"quad"`
	Samples []SamplePoint `json:"samples"`
}

// Points returns the sample positions.
func (r *Result) Points() []r3.Vector {
	out := make([]r3.Vector, 0, len(r.Samples))
	for _, s := range r.Samples {
		out = append(out, s.Position)
	}
	return out
}

// Indices returns the sample grid indices, aligned with Points.
func (r *Result) Indices() []GridIndex {
	out := make([]GridIndex, 0, len(r.Samples))
	for _, s := range r.Samples {
		out = append(out, s.Index)
	}
	return out
}

// Sample returns params.NX*params.NY points on the top face of mesh placed by tf.
// The top face is the mesh itself when it is a single quad, and otherwise the top of its
// local bounding box.
func Sample(mesh *spatialmath.Mesh, tf spatialmath.Transform, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	corners, up, err := acquireQuad(mesh, tf)
	if err != nil {
		return nil, err
	}
	quad, err := NewQuad(corners, up)
	if err != nil {
		return nil, err
	}
	return SampleQuad(quad, params)
}

// SampleQuad samples an already normalized quad.
func SampleQuad(quad Quad, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	us := gridParams(params.NX, params.Margin)
	vs := gridParams(params.NY, params.Margin)
	offset := quad.Normal.Mul(params.HeightOffset)

	res := &Result{Quad: quad, Samples: make([]SamplePoint, 0, len(us)*len(vs))}
	for j, v := range vs {
		for i, u := range us {
			res.Samples = append(res.Samples, SamplePoint{
				Position: quad.At(u, v).Add(offset),
				Index:    GridIndex{I: i, J: j},
			})
		}
	}
	return res, nil
}

// gridParams returns n evenly spaced values over [margin, 1-margin], or the midpoint when n is 1.
func gridParams(n int, margin float64) []float64 {
	lo, hi := margin, 1-margin
	if n == 1 {
		return []float64{(lo + hi) / 2}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
