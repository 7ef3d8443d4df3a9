package referenceframe

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/airside-sim/tugscan/spatialmath"
)

// Poses maps link names to world transforms.
type Poses map[string]spatialmath.Transform

// LoadAndVerify parses a URDF file and runs forward kinematics once at the zero configuration,
// so a description that cannot be posed is rejected up front.
func LoadAndVerify(path string) (*Model, error) {
	m, err := ParseURDFFile(path, "")
	if err != nil {
		return nil, err
	}
	if _, err := m.LinkPoses(nil); err != nil {
		return nil, errors.Wrapf(err, "verifying %q", path)
	}
	return m, nil
}

// LinkPositions poses every link of model for cfg and places the whole chain in the world by
// left-multiplying each link pose with base. The same arguments always give the same result.
func LinkPositions(model *Model, cfg Inputs, base spatialmath.Transform) (Poses, error) {
	local, err := model.LinkPoses(cfg)
	if err != nil {
		return nil, err
	}
	world := make(Poses, len(local))
	for name, tf := range local {
		world[name] = spatialmath.Compose(base, tf)
	}
	return world, nil
}

// Names returns the link names in sorted order.
func (p Poses) Names() []string {
	names := lo.Keys(p)
	sort.Strings(names)
	return names
}

// LinkPosition returns the world position of the named link.
func (p Poses) LinkPosition(name string) (r3.Vector, error) {
	tf, ok := p[name]
	if !ok {
		return r3.Vector{}, NewLinkNotFoundError(name)
	}
	return tf.Translation(), nil
}

// ClosestLink returns the link whose origin is nearest to target, and that distance.
// Ties go to the alphabetically first name.
func (p Poses) ClosestLink(target r3.Vector) (string, float64, error) {
	if len(p) == 0 {
		return "", math.Inf(1), ErrNoPoses
	}
	best, bestDist := "", math.Inf(1)
	for _, name := range p.Names() {
		if d := p[name].Translation().Distance(target); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best, bestDist, nil
}

// HitchCorrection returns the translation that moves the aircraft so its towbar link
// coincides with the tug's hitch link.
func HitchCorrection(tug, aircraft Poses, tugLink, aircraftLink string) (r3.Vector, error) {
	hitch, err := tug.LinkPosition(tugLink)
	if err != nil {
		return r3.Vector{}, errors.Wrap(err, "tug")
	}
	towbar, err := aircraft.LinkPosition(aircraftLink)
	if err != nil {
		return r3.Vector{}, errors.Wrap(err, "aircraft")
	}
	return hitch.Sub(towbar), nil
}
