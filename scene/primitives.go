package scene

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/airside-sim/tugscan/spatialmath"
)

// Boundary wall defaults.
const (
	DefaultWallSize     = 60.0
	DefaultWallDistance = 30.0
	wallMaterialName    = "WallMaterial"
	floorHeight         = -0.6
)

var wallColor = Color{0.2, 0.2, 0.2, 1}

// AddPlane adds a square plane of the given edge length, placed at location and rotated by
// rotDeg (XYZ Euler, degrees).
func (s *Scene) AddPlane(name string, size float64, location, rotDeg r3.Vector) (string, error) {
	if size <= 0 {
		return "", errors.Errorf("plane size must be positive, got %v", size)
	}
	name, err := s.AddMesh(name, spatialmath.NewPlaneMesh(size))
	if err != nil {
		return "", err
	}
	return name, s.SetTransform(name, location, rotDeg)
}

// AddBox adds a box with the given full dimensions centred at location.
func (s *Scene) AddBox(name string, dims, location r3.Vector) (string, error) {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		return "", errors.Errorf("box dimensions must be positive, got %v", dims)
	}
	name, err := s.AddMesh(name, spatialmath.NewBoxMesh(dims))
	if err != nil {
		return "", err
	}
	return name, s.SetPosition(name, location)
}

// CreateBoundaryWalls adds a floor and three walls sharing one grey material: back and right
// walls at -distance and +distance along Y, a left wall at -distance along X, each size
// across and standing on z=0, and the floor slightly below the origin.
func (s *Scene) CreateBoundaryWalls(size, distance float64) ([]string, error) {
	walls := []struct {
		name     string
		location r3.Vector
		rotDeg   r3.Vector
	}{
		{"Wall_Back", r3.Vector{Y: -distance, Z: size / 2}, r3.Vector{X: 90}},
		{"Wall_Left", r3.Vector{X: -distance, Z: size / 2}, r3.Vector{Y: 90}},
		{"Wall_Right", r3.Vector{Y: distance, Z: size / 2}, r3.Vector{X: 90}},
		{"Floor", r3.Vector{Z: floorHeight}, r3.Vector{}},
	}

	s.mu.Lock()
	s.materials[wallMaterialName] = &Material{Name: wallMaterialName, Color: wallColor, Roughness: 0.5}
	s.mu.Unlock()

	names := make([]string, 0, len(walls))
	for _, w := range walls {
		name, err := s.AddPlane(w.name, size, w.location, w.rotDeg)
		if err != nil {
			return nil, err
		}
		if err := s.setMaterial(name, wallMaterialName); err != nil {
			return nil, err
		}
		s.logger.Infow("created boundary", "name", name)
		names = append(names, name)
	}
	return names, nil
}

func (s *Scene) setMaterial(name, material string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.get(name)
	if err != nil {
		return err
	}
	o.Material = material
	return nil
}

// ImportSTL reads an STL file into a new mesh object and returns its name.
func (s *Scene) ImportSTL(path, name string) (string, error) {
	mesh, err := spatialmath.NewMeshFromSTLFile(path)
	if err != nil {
		return "", err
	}
	return s.imported(name, mesh)
}

// ImportPLY reads a PLY file into a new mesh object and returns its name.
func (s *Scene) ImportPLY(path, name string) (string, error) {
	mesh, err := spatialmath.NewMeshFromPLYFile(path)
	if err != nil {
		return "", err
	}
	return s.imported(name, mesh)
}

// ImportMesh reads an STL or PLY file, chosen by extension, into a new mesh object.
func (s *Scene) ImportMesh(path, name string) (string, error) {
	mesh, err := spatialmath.NewMeshFromFile(path)
	if err != nil {
		return "", err
	}
	return s.imported(name, mesh)
}

func (s *Scene) imported(name string, mesh *spatialmath.Mesh) (string, error) {
	name, err := s.AddMesh(name, mesh)
	if err != nil {
		return "", err
	}
	s.logger.Infow("imported mesh", "name", name, "vertices", len(mesh.Vertices), "polygons", len(mesh.Polygons))
	return name, nil
}
