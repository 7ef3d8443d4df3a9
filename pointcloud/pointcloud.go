// Package pointcloud defines a point cloud and provides an ordered implementation of one,
// along with LAS and PCD file support.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	HasValue     bool
	HasIntensity bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns meta data for an empty cloud.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the meta data with a new point.
func (meta *MetaData) Merge(v r3.Vector, data Data) {
	if data != nil {
		if data.HasValue() {
			meta.HasValue = true
		}
		if data.Intensity() != 0 {
			meta.HasIntensity = true
		}
	}
	meta.MinX = math.Min(meta.MinX, v.X)
	meta.MinY = math.Min(meta.MinY, v.Y)
	meta.MinZ = math.Min(meta.MinZ, v.Z)
	meta.MaxX = math.Max(meta.MaxX, v.X)
	meta.MaxY = math.Max(meta.MaxY, v.Y)
	meta.MaxZ = math.Max(meta.MaxZ, v.Z)
}

// PointCloud is a general purpose container of points.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns meta data
	MetaData() MetaData

	// Set places the given point in the cloud, replacing the data of a point already at
	// that position.
	Set(p r3.Vector, d Data) error

	// At returns the data of the point at the given position, if there is one.
	At(x, y, z float64) (Data, bool)

	// Iterate calls fn for every point in insertion order until fn returns false.
	Iterate(fn func(p r3.Vector, d Data) bool)
}

// Points returns the positions of every point in insertion order.
func Points(cloud PointCloud) []r3.Vector {
	out := make([]r3.Vector, 0, cloud.Size())
	cloud.Iterate(func(p r3.Vector, _ Data) bool {
		out = append(out, p)
		return true
	})
	return out
}
