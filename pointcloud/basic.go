package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

type basicPointCloud struct {
	positions []r3.Vector
	data      []Data
	index     map[r3.Vector]int
	meta      MetaData
}

// New returns an empty PointCloud backed by an ordered list of points.
func New() PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty, preallocated PointCloud backed by an ordered list of points.
func NewWithPrealloc(size int) PointCloud {
	return &basicPointCloud{
		positions: make([]r3.Vector, 0, size),
		data:      make([]Data, 0, size),
		index:     make(map[r3.Vector]int, size),
		meta:      NewMetaData(),
	}
}

func (cloud *basicPointCloud) Size() int {
	return len(cloud.positions)
}

func (cloud *basicPointCloud) MetaData() MetaData {
	return cloud.meta
}

func (cloud *basicPointCloud) At(x, y, z float64) (Data, bool) {
	i, ok := cloud.index[r3.Vector{X: x, Y: y, Z: z}]
	if !ok {
		return nil, false
	}
	return cloud.data[i], true
}

func (cloud *basicPointCloud) Set(p r3.Vector, d Data) error {
	for _, c := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return errors.Errorf("cannot set point %v with a non-finite coordinate", p)
		}
	}
	if i, ok := cloud.index[p]; ok {
		cloud.data[i] = d
	} else {
		cloud.index[p] = len(cloud.positions)
		cloud.positions = append(cloud.positions, p)
		cloud.data = append(cloud.data, d)
	}
	cloud.meta.Merge(p, d)
	return nil
}

func (cloud *basicPointCloud) Iterate(fn func(p r3.Vector, d Data) bool) {
	for i, p := range cloud.positions {
		if !fn(p, cloud.data[i]) {
			return
		}
	}
}
