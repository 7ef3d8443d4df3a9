package topface

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/airside-sim/tugscan/spatialmath"
)

// MeshSource resolves a named scene object to its mesh and world transform. Implementations
// report a missing object and a non-mesh object with distinct errors.
type MeshSource interface {
	MeshObject(name string) (*spatialmath.Mesh, spatialmath.Transform, error)
}

// MarkerSink stores debug markers in a named collection.
type MarkerSink interface {
	ClearCollection(collection string) error
	AddMarker(collection, name string, position r3.Vector, size float64) error
}

// Visualization places a marker at every sample. Markers from a previous call in the same
// collection are removed first.
type Visualization struct {
	Sink       MarkerSink
	Collection string
	MarkerSize float64
}

const (
	defaultMarkerCollection = "Grid_Debug"
	defaultMarkerSize       = 0.04
)

// SampleObject samples the top face of the named mesh object. When vis is non-nil the
// samples are also materialized as markers named grid_000, grid_001, ...
func SampleObject(src MeshSource, name string, params Params, vis *Visualization) (*Result, error) {
	mesh, tf, err := src.MeshObject(name)
	if err != nil {
		return nil, err
	}
	res, err := Sample(mesh, tf, params)
	if err != nil {
		return nil, errors.Wrapf(err, "sampling %q", name)
	}
	if vis == nil {
		return res, nil
	}
	if err := placeMarkers(vis, res); err != nil {
		return nil, errors.Wrapf(err, "visualizing samples of %q", name)
	}
	return res, nil
}

func placeMarkers(vis *Visualization, res *Result) error {
	if vis.Sink == nil {
		return errors.New("visualization has no marker sink")
	}
	collection := vis.Collection
	if collection == "" {
		collection = defaultMarkerCollection
	}
	size := vis.MarkerSize
	if size <= 0 {
		size = defaultMarkerSize
	}
	if err := vis.Sink.ClearCollection(collection); err != nil {
		return err
	}
	for k, s := range res.Samples {
		if err := vis.Sink.AddMarker(collection, fmt.Sprintf("grid_%03d", k), s.Position, size); err != nil {
			return err
		}
	}
	return nil
}
