// Package scene is an in-memory scene graph of named objects: meshes, cameras, empties and
// point clouds, with parenting, materials and collections.
package scene

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/airside-sim/tugscan/logging"
	"github.com/airside-sim/tugscan/spatialmath"
)

var numberedName = regexp.MustCompile(`^(.*)\.(\d{3,})$`)

// Scene holds objects by unique name. All operations are synchronous and safe for
// concurrent use.
type Scene struct {
	mu          sync.RWMutex
	logger      logging.Logger
	objects     map[string]*Object
	order       []string
	materials   map[string]*Material
	collections map[string][]string
}

// New returns an empty scene. A nil logger means the global logger.
func New(logger logging.Logger) *Scene {
	if logger == nil {
		logger = logging.Global().Named("scene")
	}
	s := &Scene{logger: logger}
	s.reset()
	return s
}

func (s *Scene) reset() {
	s.objects = map[string]*Object{}
	s.order = nil
	s.materials = map[string]*Material{}
	s.collections = map[string][]string{}
}

// Clear deletes every object, material and collection.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.logger.Debug("scene cleared")
}

// Names returns the object names in creation order.
func (s *Scene) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Object returns a copy of the named object.
func (s *Scene) Object(name string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, err := s.get(name)
	if err != nil {
		return nil, err
	}
	return o.clone(), nil
}

// Material returns a copy of the named material.
func (s *Scene) Material(name string) (*Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[name]
	if !ok {
		return nil, errors.Errorf("material %q not found", name)
	}
	c := *m
	return &c, nil
}

func (s *Scene) get(name string) (*Object, error) {
	o, ok := s.objects[name]
	if !ok {
		return nil, NewObjectNotFoundError(name)
	}
	return o, nil
}

// uniqueName returns name, or name with the lowest free .NNN suffix when it is taken.
func (s *Scene) uniqueName(name string) string {
	if _, taken := s.objects[name]; !taken {
		return name
	}
	base := name
	if m := numberedName.FindStringSubmatch(name); m != nil {
		base = m[1]
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", base, i)
		if _, taken := s.objects[candidate]; !taken {
			return candidate
		}
	}
}

// add inserts o under a unique name and returns that name.
func (s *Scene) add(o *Object) string {
	o.Name = s.uniqueName(o.Name)
	s.objects[o.Name] = o
	s.order = append(s.order, o.Name)
	s.logger.Debugw("object added", "name", o.Name, "kind", o.Kind)
	return o.Name
}

// Remove deletes the named object. Its children are unparented in place and it leaves every
// collection.
func (s *Scene) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(name)
}

func (s *Scene) remove(name string) error {
	if _, err := s.get(name); err != nil {
		return err
	}
	for _, o := range s.objects {
		if o.Parent == name {
			if err := s.setParent(o, nil); err != nil {
				return err
			}
		}
	}
	delete(s.objects, name)
	s.order = lo.Without(s.order, name)
	for c, members := range s.collections {
		s.collections[c] = lo.Without(members, name)
	}
	return nil
}

// AddMesh adds a mesh object at the origin.
func (s *Scene) AddMesh(name string, mesh *spatialmath.Mesh) (string, error) {
	if mesh == nil {
		return "", errors.New("nil mesh")
	}
	if err := mesh.Validate(); err != nil {
		return "", errors.Wrapf(err, "adding %q", name)
	}
	o := newObject(name, KindMesh)
	o.Mesh = mesh
	o.Scannable = true
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(o), nil
}

// AddPointCloud adds a vertex-only object holding points in world space.
func (s *Scene) AddPointCloud(name string, points []r3.Vector) string {
	o := newObject(name, KindPointCloud)
	o.Mesh = spatialmath.NewMesh(append([]r3.Vector(nil), points...), nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(o)
}

// CreateCamera adds a camera object. rotDeg is XYZ Euler angles in degrees.
func (s *Scene) CreateCamera(name string, location, rotDeg, scale r3.Vector) string {
	o := newObject(name, KindCamera)
	o.Location = location
	o.Rotation = spatialmath.NewEulerAnglesFromVectorDegrees(rotDeg)
	o.Scale = scale
	s.mu.Lock()
	defer s.mu.Unlock()
	name = s.add(o)
	s.logger.Infow("camera created", "name", name, "location", location)
	return name
}

// AddEmpty adds a plain-axes empty drawn at the given size.
func (s *Scene) AddEmpty(name string, location r3.Vector, size float64) string {
	o := newObject(name, KindEmpty)
	o.Location = location
	o.DisplaySize = size
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(o)
}

// SetPosition moves the named object.
func (s *Scene) SetPosition(name string, position r3.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.get(name)
	if err != nil {
		return err
	}
	o.Location = position
	s.logger.Debugw("position set", "name", name, "position", position)
	return nil
}

// SetRotation sets the named object's XYZ Euler rotation, in degrees.
func (s *Scene) SetRotation(name string, rotDeg r3.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.get(name)
	if err != nil {
		return err
	}
	o.Rotation = spatialmath.NewEulerAnglesFromVectorDegrees(rotDeg)
	return nil
}

// SetTransform sets the named object's location and XYZ Euler rotation in degrees.
func (s *Scene) SetTransform(name string, position, rotDeg r3.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.get(name)
	if err != nil {
		return err
	}
	o.Location = position
	o.Rotation = spatialmath.NewEulerAnglesFromVectorDegrees(rotDeg)
	s.logger.Debugw("transform set", "name", name, "position", position, "rotation_deg", rotDeg)
	return nil
}

// AssignMaterial gives the named object its own material Mat_<name>, replacing any previous one.
func (s *Scene) AssignMaterial(name string, color Color, roughness float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.get(name)
	if err != nil {
		return err
	}
	mat := &Material{Name: "Mat_" + name, Color: color, Roughness: roughness}
	s.materials[mat.Name] = mat
	o.Material = mat.Name
	return nil
}

// MakeScannable marks the named object as visible to the scanner.
func (s *Scene) MakeScannable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.get(name)
	if err != nil {
		return err
	}
	o.Scannable = true
	return nil
}

// SetParent parents child to parent while keeping child's world transform. An empty parent
// unparents child.
func (s *Scene) SetParent(child, parent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.get(child)
	if err != nil {
		return err
	}
	if parent == "" {
		return s.setParent(c, nil)
	}
	p, err := s.get(parent)
	if err != nil {
		return err
	}
	for a := p; a != nil; {
		if a.Name == c.Name {
			return errors.Errorf("cannot parent %q to %q: would create a cycle", child, parent)
		}
		if a.Parent == "" {
			break
		}
		if a, err = s.get(a.Parent); err != nil {
			return err
		}
	}
	return s.setParent(c, p)
}

// setParent rewrites the parent inverse so that the world transform is unchanged.
func (s *Scene) setParent(c, p *Object) error {
	oldParent, err := s.parentWorld(c)
	if err != nil {
		return err
	}
	// the part of the world transform that is not the local TRS
	carried := spatialmath.Compose(oldParent, c.ParentInverse)
	if p == nil {
		c.Parent = ""
		c.ParentInverse = carried
		return nil
	}
	newParent, err := s.world(p)
	if err != nil {
		return err
	}
	c.Parent = p.Name
	c.ParentInverse = spatialmath.Compose(newParent.Inverse(), carried)
	return nil
}

// WorldTransform returns the named object's local-to-world transform.
func (s *Scene) WorldTransform(name string) (spatialmath.Transform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, err := s.get(name)
	if err != nil {
		return spatialmath.Transform{}, err
	}
	return s.world(o)
}

func (s *Scene) world(o *Object) (spatialmath.Transform, error) {
	parent, err := s.parentWorld(o)
	if err != nil {
		return spatialmath.Transform{}, err
	}
	return spatialmath.Compose(parent, spatialmath.Compose(o.ParentInverse, o.LocalTransform())), nil
}

func (s *Scene) parentWorld(o *Object) (spatialmath.Transform, error) {
	if o.Parent == "" {
		return spatialmath.NewIdentityTransform(), nil
	}
	p, err := s.get(o.Parent)
	if err != nil {
		return spatialmath.Transform{}, errors.Wrapf(err, "parent of %q", o.Name)
	}
	return s.world(p)
}

// MeshObject returns the named object's mesh and world transform.
func (s *Scene) MeshObject(name string) (*spatialmath.Mesh, spatialmath.Transform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, err := s.get(name)
	if err != nil {
		return nil, spatialmath.Transform{}, err
	}
	if o.Kind != KindMesh || o.Mesh == nil {
		return nil, spatialmath.Transform{}, NewNotAMeshError(name, o.Kind)
	}
	tf, err := s.world(o)
	if err != nil {
		return nil, spatialmath.Transform{}, err
	}
	return o.Mesh.Clone(), tf, nil
}

// MeshInstance is a mesh placed in the world.
type MeshInstance struct {
	Name      string
	Mesh      *spatialmath.Mesh
	Transform spatialmath.Transform
}

// ScannableMeshes returns every scannable mesh object with its world transform, in creation order.
func (s *Scene) ScannableMeshes() ([]MeshInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MeshInstance
	for _, name := range s.order {
		o := s.objects[name]
		if o.Kind != KindMesh || !o.Scannable || o.Mesh == nil {
			continue
		}
		tf, err := s.world(o)
		if err != nil {
			return nil, err
		}
		out = append(out, MeshInstance{Name: name, Mesh: o.Mesh, Transform: tf})
	}
	return out, nil
}

// Collection returns the members of the named collection, creating it when it does not exist.
func (s *Scene) Collection(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.collections[name]
	if !ok {
		s.collections[name] = nil
	}
	return append([]string(nil), members...)
}

// Collections returns the collection names in sorted order.
func (s *Scene) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := lo.Keys(s.collections)
	sort.Strings(names)
	return names
}

// LinkToCollection adds the named object to a collection, creating the collection when needed.
func (s *Scene) LinkToCollection(collection, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.get(name); err != nil {
		return err
	}
	if !lo.Contains(s.collections[collection], name) {
		s.collections[collection] = append(s.collections[collection], name)
	}
	return nil
}

// ClearCollection removes every member of the collection from the scene. The collection
// itself stays, empty.
func (s *Scene) ClearCollection(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := append([]string(nil), s.collections[collection]...)
	for _, name := range members {
		if err := s.remove(name); err != nil {
			return errors.Wrapf(err, "clearing collection %q", collection)
		}
	}
	s.collections[collection] = nil
	if len(members) > 0 {
		s.logger.Debugw("collection cleared", "collection", collection, "removed", len(members))
	}
	return nil
}

// AddMarker adds a plain-axes empty named name (or name.NNN when taken) to a collection.
func (s *Scene) AddMarker(collection, name string, position r3.Vector, size float64) error {
	o := newObject(name, KindEmpty)
	o.Location = position
	o.DisplaySize = size
	s.mu.Lock()
	defer s.mu.Unlock()
	name = s.add(o)
	s.collections[collection] = append(s.collections[collection], name)
	return nil
}
