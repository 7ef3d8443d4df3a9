package scene

import (
	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/airside-sim/tugscan/spatialmath"
)

// Kind is the type of data an object carries.
type Kind string

// The object kinds a scene holds.
const (
	KindMesh       Kind = "mesh"
	KindCamera     Kind = "camera"
	KindEmpty      Kind = "empty"
	KindPointCloud Kind = "point_cloud"
)

// Material is a flat surface description.
type Material struct {
	Name      string  `json:"name"`
	Color     Color   `json:"color"`
	Roughness float64 `json:"roughness"`
}

// DefaultMaterialColor is used when a caller has no color preference.
var DefaultMaterialColor = Color{0.6, 0.6, 0.6, 1.0}

// Object is a node of the scene graph. Its world transform is
// world(parent) * ParentInverse * TRS(Location, Rotation, Scale).
type Object struct {
	ID            uuid.UUID               `json:"id"`
	Name          string                  `json:"name"`
	Kind          Kind                    `json:"kind"`
	Location      r3.Vector               `json:"location"`
	Rotation      spatialmath.EulerAngles `json:"rotation"` // radians
	Scale         r3.Vector               `json:"scale"`
	Parent        string                  `json:"parent,omitempty"`
	ParentInverse spatialmath.Transform   `json:"parent_inverse"`
	Mesh          *spatialmath.Mesh       `json:"mesh,omitempty"`
	Material      string                  `json:"material,omitempty"`
	Scannable     bool                    `json:"scannable"`
	DisplaySize   float64                 `json:"display_size,omitempty"` // empties only
}

func newObject(name string, kind Kind) *Object {
	return &Object{
		ID:            uuid.New(),
		Name:          name,
		Kind:          kind,
		Scale:         r3.Vector{X: 1, Y: 1, Z: 1},
		ParentInverse: spatialmath.NewIdentityTransform(),
	}
}

// LocalTransform returns the object's own TRS transform, without its parent.
func (o *Object) LocalTransform() spatialmath.Transform {
	return spatialmath.NewTransformFromTRS(o.Location, o.Rotation, o.Scale)
}

func (o *Object) clone() *Object {
	c := *o
	if o.Mesh != nil {
		c.Mesh = o.Mesh.Clone()
	}
	return &c
}
