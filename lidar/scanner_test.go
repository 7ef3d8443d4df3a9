package lidar

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"go.viam.com/utils"

	"github.com/airside-sim/tugscan/logging"
	"github.com/airside-sim/tugscan/pointcloud"
	"github.com/airside-sim/tugscan/scene"
)

// roomScene has the boundary walls and a scanner spinning about the world z axis at 1m.
func roomScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New(logging.NewTestLogger(t))
	_, err := s.CreateBoundaryWalls(scene.DefaultWallSize, scene.DefaultWallDistance)
	test.That(t, err, test.ShouldBeNil)
	s.CreateCamera("lidar", r3.Vector{Z: 1}, r3.Vector{X: 90, Z: 90}, r3.Vector{X: 0.15, Y: 0.15, Z: 0.15})
	return s
}

// fourRays looks left, right, back and front in the horizontal plane.
func fourRays() ScanParams {
	p := DefaultScanParams()
	p.XStepDegree = 90
	p.FovY = 0
	p.YStepDegree = 1
	return p
}

func TestAngles(t *testing.T) {
	test.That(t, angles(360, 90), test.ShouldResemble, []float64{-180, -90, 0, 90})
	test.That(t, angles(2, 1), test.ShouldResemble, []float64{-1, 0, 1})
	test.That(t, angles(0, 1), test.ShouldResemble, []float64{0})
	test.That(t, angles(360, 0.4), test.ShouldHaveLength, 900)
	test.That(t, angles(270, 0.33), test.ShouldHaveLength, 819)
}

func TestScanParamsValidate(t *testing.T) {
	test.That(t, DefaultScanParams().Validate(), test.ShouldBeNil)

	p := DefaultScanParams()
	p.XStepDegree = 0
	p.FovX = 400
	p.DistanceUpper = -1
	err := p.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "angular steps")
	test.That(t, err.Error(), test.ShouldContainSubstring, "horizontal field of view")
	test.That(t, err.Error(), test.ShouldContainSubstring, "distance bounds")

	p = DefaultScanParams()
	p.Noise.Enabled = true
	p.Noise.Type = "salt"
	test.That(t, p.Validate(), test.ShouldNotBeNil)
}

func TestScanStraightDown(t *testing.T) {
	s := scene.New(logging.NewTestLogger(t))
	_, err := s.AddPlane("Floor", 10, r3.Vector{}, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	// off the origin so no ray meets the seam between the plane's two triangles
	s.CreateCamera("lidar", r3.Vector{X: 0.3, Y: 0.1, Z: 2}, r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})

	rs, err := NewRotatingScanner(s, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	p := DefaultScanParams()
	p.FovX, p.XStepDegree = 2, 1
	p.FovY, p.YStepDegree = 0, 1

	res, err := rs.Scan(context.Background(), "lidar", p, Output{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Rays, test.ShouldEqual, 3)
	test.That(t, res.Hits, test.ShouldHaveLength, 3)
	test.That(t, res.Files, test.ShouldBeEmpty)
	test.That(t, res.Origin, test.ShouldResemble, r3.Vector{X: 0.3, Y: 0.1, Z: 2})

	tilt := math.Pi / 180
	for i, want := range []float64{2 * math.Tan(tilt), 0, -2 * math.Tan(tilt)} {
		h := res.Hits[i]
		test.That(t, h.Object, test.ShouldEqual, "Floor")
		test.That(t, h.Position.X, test.ShouldAlmostEqual, 0.3+want)
		test.That(t, h.Position.Z, test.ShouldAlmostEqual, 0)
	}
	test.That(t, res.Hits[0].Distance, test.ShouldAlmostEqual, 2/math.Cos(tilt))
	test.That(t, res.Hits[1].Distance, test.ShouldAlmostEqual, 2)
	test.That(t, res.Hits[1].Intensity, test.ShouldAlmostEqual, 1)
	test.That(t, res.Cloud.Size(), test.ShouldEqual, 3)
}

func TestScanRoom(t *testing.T) {
	s := roomScene(t)
	logger, logs := logging.NewObservedTestLogger(t)
	rs, err := NewRotatingScanner(s, logger)
	test.That(t, err, test.ShouldBeNil)

	res, err := rs.Scan(context.Background(), "lidar", fourRays(), Output{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Rays, test.ShouldEqual, 4)
	test.That(t, res.Hits, test.ShouldHaveLength, 3)

	objects := []string{res.Hits[0].Object, res.Hits[1].Object, res.Hits[2].Object}
	test.That(t, objects, test.ShouldResemble, []string{"Wall_Right", "Wall_Left", "Wall_Back"})
	for _, h := range res.Hits {
		test.That(t, h.Distance, test.ShouldAlmostEqual, 30)
		test.That(t, h.Position.Z, test.ShouldAlmostEqual, 1)
	}
	test.That(t, logs.FilterMessage("scan complete").Len(), test.ShouldEqual, 1)
}

func TestScanBounds(t *testing.T) {
	s := roomScene(t)
	rs, err := NewRotatingScanner(s, nil)
	test.That(t, err, test.ShouldBeNil)

	p := fourRays()
	p.DistanceUpper = 20
	res, err := rs.Scan(context.Background(), "lidar", p, Output{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Hits, test.ShouldBeEmpty)

	p = fourRays()
	p.DistanceLower = 31
	res, err = rs.Scan(context.Background(), "lidar", p, Output{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Hits, test.ShouldBeEmpty)

	p = fourRays()
	p.ReflectivityLower, p.ReflectivityUpper = 2, 2
	res, err = rs.Scan(context.Background(), "lidar", p, Output{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Hits, test.ShouldBeEmpty)
}

func TestScanNoise(t *testing.T) {
	s := roomScene(t)
	rs, err := NewRotatingScanner(s, nil)
	test.That(t, err, test.ShouldBeNil)

	p := fourRays()
	p.Noise.Enabled = true
	p.Noise.Sigma = 0
	p.Noise.RelativeOffset = 0.1
	res, err := rs.Scan(context.Background(), "lidar", p, Output{})
	test.That(t, err, test.ShouldBeNil)
	for _, h := range res.Hits {
		test.That(t, h.Distance, test.ShouldAlmostEqual, 33)
		test.That(t, h.Position.Sub(res.Origin).Norm(), test.ShouldAlmostEqual, 33)
	}

	p = fourRays()
	p.Noise.Enabled = true
	p.Noise.Seed = 7
	first, err := rs.Scan(context.Background(), "lidar", p, Output{})
	test.That(t, err, test.ShouldBeNil)
	second, err := rs.Scan(context.Background(), "lidar", p, Output{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second.Hits, test.ShouldResemble, first.Hits)
	for _, h := range first.Hits {
		test.That(t, math.Abs(h.Distance-30), test.ShouldBeLessThan, 0.1)
	}
}

func TestScanOutputs(t *testing.T) {
	s := roomScene(t)
	rs, err := NewRotatingScanner(s, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	dir := filepath.Join(t.TempDir(), "Outputs")
	out := Output{Dir: dir, Name: "yaw_045_Cube_scan_001", CSV: true, LAS: true, PCD: true, AddMesh: true}
	res, err := rs.Scan(context.Background(), "lidar", fourRays(), out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Files, test.ShouldResemble, []string{
		filepath.Join(dir, "yaw_045_Cube_scan_001.csv"),
		filepath.Join(dir, "yaw_045_Cube_scan_001.las"),
		filepath.Join(dir, "yaw_045_Cube_scan_001.pcd"),
	})

	//nolint:gosec
	f, err := os.Open(res.Files[0])
	test.That(t, err, test.ShouldBeNil)
	defer utils.UncheckedErrorFunc(f.Close)
	rows, err := csv.NewReader(f).ReadAll()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rows, test.ShouldHaveLength, 4)
	test.That(t, rows[0], test.ShouldResemble, []string{"x", "y", "z", "distance", "object"})
	test.That(t, rows[1][4], test.ShouldEqual, "Wall_Right")
	test.That(t, rows[1][3], test.ShouldEqual, "30.000000")

	las, err := pointcloud.NewFromFile(res.Files[1], logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, las.Size(), test.ShouldEqual, 3)

	pcd, err := pointcloud.NewFromFile(res.Files[2], logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pcd.Size(), test.ShouldEqual, 3)

	test.That(t, res.MeshObject, test.ShouldEqual, "yaw_045_Cube_scan_001")
	o, err := s.Object(res.MeshObject)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, o.Kind, test.ShouldEqual, scene.KindPointCloud)
	test.That(t, o.Mesh.Vertices, test.ShouldHaveLength, 3)

	// the added cloud is not a scan target
	again, err := rs.Scan(context.Background(), "lidar", fourRays(), Output{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.Hits, test.ShouldResemble, res.Hits)
}

func TestScanErrors(t *testing.T) {
	_, err := NewRotatingScanner(nil, nil)
	test.That(t, err, test.ShouldNotBeNil)

	s := roomScene(t)
	rs, err := NewRotatingScanner(s, nil)
	test.That(t, err, test.ShouldBeNil)

	_, err = rs.Scan(context.Background(), "ghost", fourRays(), Output{})
	test.That(t, errors.Is(err, scene.ErrObjectNotFound), test.ShouldBeTrue)

	bad := fourRays()
	bad.FovX = 0
	_, err = rs.Scan(context.Background(), "lidar", bad, Output{})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = rs.Scan(context.Background(), "lidar", fourRays(), Output{CSV: true, Dir: t.TempDir()})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = rs.Scan(context.Background(), "lidar", fourRays(), Output{CSV: true, Name: "scan"})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = rs.Scan(context.Background(), "lidar", fourRays(), Output{AddMesh: true, Name: "a/b"})
	test.That(t, err, test.ShouldNotBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rs.Scan(ctx, "lidar", fourRays(), Output{})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
