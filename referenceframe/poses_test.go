package referenceframe

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/airside-sim/tugscan/spatialmath"
)

func TestLoadAndVerify(t *testing.T) {
	m, err := LoadAndVerify("testdata/aircraft.urdf")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, "a320_ceo")

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.urdf")
	test.That(t, os.WriteFile(bad, []byte(`<robot name="x"></robot>`), 0o600), test.ShouldBeNil)
	_, err = LoadAndVerify(bad)
	test.That(t, errors.Is(err, ErrNoModelInformation), test.ShouldBeTrue)

	_, err = LoadAndVerify(filepath.Join(dir, "nope.urdf"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLinkPositions(t *testing.T) {
	m := tugModel(t)
	base := spatialmath.NewTransformFromTRS(
		r3.Vector{X: 10},
		spatialmath.NewEulerAnglesFromDegrees(0, 0, 90),
		r3.Vector{X: 1, Y: 1, Z: 1},
	)

	poses, err := LinkPositions(m, nil, base)
	test.That(t, err, test.ShouldBeNil)
	caster, err := poses.LinkPosition("caster")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(caster, r3.Vector{X: 10, Y: 2, Z: 0.3}, 1e-9), test.ShouldBeTrue)

	t.Run("repeatable", func(t *testing.T) {
		again, err := LinkPositions(m, nil, base)
		test.That(t, err, test.ShouldBeNil)
		for _, name := range poses.Names() {
			test.That(t, again[name].AlmostEqual(poses[name], 1e-12), test.ShouldBeTrue)
		}
	})

	t.Run("identity base", func(t *testing.T) {
		local, err := m.LinkPoses(nil)
		test.That(t, err, test.ShouldBeNil)
		world, err := LinkPositions(m, nil, spatialmath.NewIdentityTransform())
		test.That(t, err, test.ShouldBeNil)
		for name, tf := range local {
			test.That(t, world[name].AlmostEqual(tf, 1e-12), test.ShouldBeTrue)
		}
	})

	t.Run("bad inputs", func(t *testing.T) {
		_, err := LinkPositions(m, Inputs{"steer": 5}, base)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestPosesQueries(t *testing.T) {
	id := spatialmath.NewIdentityTransform()
	poses := Poses{
		"c": spatialmath.NewTranslation(r3.Vector{X: 3}),
		"a": spatialmath.NewTranslation(r3.Vector{X: 1}),
		"b": spatialmath.NewTranslation(r3.Vector{X: -1}),
		"o": id,
	}
	test.That(t, poses.Names(), test.ShouldResemble, []string{"a", "b", "c", "o"})

	_, err := poses.LinkPosition("zz")
	test.That(t, errors.Is(err, ErrLinkNotFound), test.ShouldBeTrue)

	name, dist, err := poses.ClosestLink(r3.Vector{X: 2.9})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, name, test.ShouldEqual, "c")
	test.That(t, dist, test.ShouldAlmostEqual, 0.1)

	// a and b are equidistant from the origin offset along y
	name, _, err = Poses{"b": poses["b"], "a": poses["a"]}.ClosestLink(r3.Vector{Y: 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, name, test.ShouldEqual, "a")

	_, dist, err = Poses{}.ClosestLink(r3.Vector{})
	test.That(t, errors.Is(err, ErrNoPoses), test.ShouldBeTrue)
	test.That(t, math.IsInf(dist, 1), test.ShouldBeTrue)
}

func TestHitchCorrection(t *testing.T) {
	tugM := tugModel(t)
	acM, err := ParseURDFFile("testdata/aircraft.urdf", "")
	test.That(t, err, test.ShouldBeNil)

	tug, err := LinkPositions(tugM, nil, spatialmath.NewIdentityTransform())
	test.That(t, err, test.ShouldBeNil)
	ac, err := LinkPositions(acM, nil, spatialmath.NewIdentityTransform())
	test.That(t, err, test.ShouldBeNil)

	corr, err := HitchCorrection(tug, ac, "caster", "towbar")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(corr, r3.Vector{X: -7, Z: 2.4}, 1e-9), test.ShouldBeTrue)

	moved, err := LinkPositions(acM, nil, spatialmath.NewTranslation(corr))
	test.That(t, err, test.ShouldBeNil)
	towbar, err := moved.LinkPosition("towbar")
	test.That(t, err, test.ShouldBeNil)
	hitch, err := tug.LinkPosition("caster")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(towbar, hitch, 1e-9), test.ShouldBeTrue)

	_, err = HitchCorrection(tug, ac, "nope", "towbar")
	test.That(t, errors.Is(err, ErrLinkNotFound), test.ShouldBeTrue)
	_, err = HitchCorrection(tug, ac, "caster", "nope")
	test.That(t, errors.Is(err, ErrLinkNotFound), test.ShouldBeTrue)
}
