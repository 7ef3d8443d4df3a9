package scene

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/airside-sim/tugscan/spatialmath"
)

// FileExt is appended to scene file paths that lack it.
const FileExt = ".scene.json"

type sceneFile struct {
	Objects     []*Object           `json:"objects"`
	Materials   []*Material         `json:"materials"`
	Collections map[string][]string `json:"collections"`
}

// ScenePath returns path with FileExt appended when missing.
func ScenePath(path string) string {
	if strings.HasSuffix(path, FileExt) {
		return path
	}
	return path + FileExt
}

// Save writes the scene as JSON and returns the path written.
func (s *Scene) Save(path string) (_ string, err error) {
	path = ScenePath(path)
	s.mu.RLock()
	sf := sceneFile{Collections: s.collections}
	for _, name := range s.order {
		sf.Objects = append(sf.Objects, s.objects[name])
	}
	materials := lo.Keys(s.materials)
	sort.Strings(materials)
	for _, name := range materials {
		sf.Materials = append(sf.Materials, s.materials[name])
	}
	data, err := json.MarshalIndent(sf, "", " ")
	s.mu.RUnlock()
	if err != nil {
		return "", errors.Wrap(err, "encoding scene")
	}

	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating scene file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	if _, err := f.Write(data); err != nil {
		return "", errors.Wrapf(err, "writing %q", path)
	}
	s.logger.Infow("scene saved", "path", path, "objects", len(sf.Objects))
	return path, nil
}

// Load replaces the scene's contents with the file at path. A missing file returns an
// error wrapping os.ErrNotExist and leaves the scene untouched.
func (s *Scene) Load(path string) error {
	path = ScenePath(path)
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening scene file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var sf sceneFile
	if err := json.NewDecoder(f).Decode(&sf); err != nil {
		return errors.Wrapf(err, "decoding %q", path)
	}

	objects := make(map[string]*Object, len(sf.Objects))
	order := make([]string, 0, len(sf.Objects))
	for _, o := range sf.Objects {
		if o == nil || o.Name == "" {
			return errors.Errorf("%q: object without a name", path)
		}
		if _, dup := objects[o.Name]; dup {
			return errors.Errorf("%q: duplicate object %q", path, o.Name)
		}
		if o.Mesh != nil {
			if err := o.Mesh.Validate(); err != nil {
				return errors.Wrapf(err, "%q: object %q", path, o.Name)
			}
		}
		if o.ParentInverse.IsZero() {
			o.ParentInverse = spatialmath.NewIdentityTransform()
		}
		if o.Scale == (r3.Vector{}) {
			o.Scale = r3.Vector{X: 1, Y: 1, Z: 1}
		}
		objects[o.Name] = o
		order = append(order, o.Name)
	}
	for _, o := range sf.Objects {
		steps := 0
		for a := o; a.Parent != ""; steps++ {
			p, ok := objects[a.Parent]
			if !ok {
				return errors.Errorf("%q: object %q has unknown parent %q", path, a.Name, a.Parent)
			}
			if steps > len(objects) {
				return errors.Errorf("%q: parent chain of %q is a cycle", path, o.Name)
			}
			a = p
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.objects, s.order = objects, order
	for _, m := range sf.Materials {
		if m != nil {
			s.materials[m.Name] = m
		}
	}
	for c, members := range sf.Collections {
		s.collections[c] = members
	}
	s.logger.Infow("scene loaded", "path", path, "objects", len(s.order))
	return nil
}
