package scanplan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/hschendel/stl"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/airside-sim/tugscan/config"
	"github.com/airside-sim/tugscan/lidar"
	"github.com/airside-sim/tugscan/logging"
	"github.com/airside-sim/tugscan/scene"
	"github.com/airside-sim/tugscan/spatialmath"
)

// writeBoxSTL writes a box mesh centred on the origin.
func writeBoxSTL(t *testing.T, path string, dims r3.Vector) {
	t.Helper()
	vec := func(v r3.Vector) stl.Vec3 { return stl.Vec3{float32(v.X), float32(v.Y), float32(v.Z)} }
	solid := &stl.Solid{Name: filepath.Base(path)}
	for _, tri := range spatialmath.NewBoxMesh(dims).Triangles(spatialmath.NewIdentityTransform()) {
		pts := tri.Points()
		solid.Triangles = append(solid.Triangles, stl.Triangle{
			Normal:   vec(tri.Normal()),
			Vertices: [3]stl.Vec3{vec(pts[0]), vec(pts[1]), vec(pts[2])},
		})
	}
	test.That(t, solid.WriteFile(path), test.ShouldBeNil)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Tug.URDF = filepath.Join("..", "referenceframe", "testdata", "tug.urdf")
	cfg.Tug.Mesh = filepath.Join(dir, "tug.stl")
	cfg.Aircraft.URDF = filepath.Join("..", "referenceframe", "testdata", "aircraft.urdf")
	cfg.Aircraft.Mesh = filepath.Join(dir, "aircraft.stl")
	writeBoxSTL(t, cfg.Tug.Mesh, r3.Vector{X: 3, Y: 1.5, Z: 1})
	writeBoxSTL(t, cfg.Aircraft.Mesh, r3.Vector{X: 2, Y: 2, Z: 1})
	cfg.Scene.Path = filepath.Join(dir, "scene")
	cfg.Surfaces = []config.Surface{
		{Name: "Plate", Dimensions: r3.Vector{X: 0.4, Y: 0.2, Z: 0.02}, Location: r3.Vector{X: 1, Z: 1}},
		{Name: "Ghost"},
		{Name: "Cam"},
	}
	cfg.Orientations = []float64{0, 90}
	cfg.Scan.ExportDir = filepath.Join(dir, "Outputs")
	cfg.Scan.Enabled = false
	return cfg
}

type recordedScan struct {
	sensor   string
	position r3.Vector
	out      lidar.Output
}

// recordingEngine records where the sensor was for every scan.
type recordingEngine struct {
	scene *scene.Scene
	scans []recordedScan
}

func (e *recordingEngine) Scan(ctx context.Context, sensorName string, _ lidar.ScanParams, out lidar.Output) (*lidar.ScanResult, error) {
	tf, err := e.scene.WorldTransform(sensorName)
	if err != nil {
		return nil, err
	}
	e.scans = append(e.scans, recordedScan{sensor: sensorName, position: tf.Translation(), out: out})
	return &lidar.ScanResult{Sensor: sensorName, Origin: tf.Translation()}, nil
}

func TestNewPlanner(t *testing.T) {
	cfg := testConfig(t)
	_, err := NewPlanner(nil, nil, cfg, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPlanner(scene.New(nil), nil, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
	cfg.Scan.Enabled = true
	_, err = NewPlanner(scene.New(nil), nil, cfg, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	sc := scene.New(logging.NewTestLogger(t))
	sc.AddEmpty("Leftover", r3.Vector{}, 1)
	p, err := NewPlanner(sc, nil, cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	path, err := p.Build(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path, test.ShouldEqual, cfg.Scene.Path+scene.FileExt)
	_, err = os.Stat(path)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, sc.Names(), test.ShouldResemble,
		[]string{"Wall_Back", "Wall_Left", "Wall_Right", "Floor", "Tug_t5", "a320_ceo", "Plate"})
	mat, err := sc.Material("Mat_Tug_t5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Color, test.ShouldResemble, cfg.Tug.Color)

	// the towbar sits 7m ahead of and 2.4m below the caster at the start
	ac, err := sc.Object("a320_ceo")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(ac.Location, r3.Vector{X: -7, Z: 2.4}, 1e-9), test.ShouldBeTrue)

	tug, aircraft, err := p.Poses()
	test.That(t, err, test.ShouldBeNil)
	caster, err := tug.LinkPosition("caster")
	test.That(t, err, test.ShouldBeNil)
	towbar, err := aircraft.LinkPosition("towbar")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(caster, towbar, 1e-9), test.ShouldBeTrue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Build(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestBuildErrors(t *testing.T) {
	t.Run("missing mesh", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Aircraft.Mesh = filepath.Join(t.TempDir(), "nope.stl")
		p, err := NewPlanner(scene.New(nil), nil, cfg, nil)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Build(context.Background())
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "a320_ceo")
	})
	t.Run("unknown hitch link", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Hitch.TugLink = "pintle"
		p, err := NewPlanner(scene.New(nil), nil, cfg, nil)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Build(context.Background())
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "pintle")
	})
	t.Run("surface named like a vehicle", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Surfaces[0].Name = "Tug_t5"
		p, err := NewPlanner(scene.New(nil), nil, cfg, nil)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Build(context.Background())
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestPrepare(t *testing.T) {
	cfg := testConfig(t)
	built := scene.New(nil)
	p, err := NewPlanner(built, nil, cfg, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Prepare(context.Background()), test.ShouldBeNil)

	cfg.Scene.LoadFromFile = true
	loaded := scene.New(nil)
	p, err = NewPlanner(loaded, nil, cfg, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Prepare(context.Background()), test.ShouldBeNil)
	test.That(t, loaded.Names(), test.ShouldResemble, built.Names())

	cfg.Scene.Path = filepath.Join(t.TempDir(), "missing")
	p, err = NewPlanner(scene.New(nil), nil, cfg, nil)
	test.That(t, err, test.ShouldBeNil)
	err = p.Prepare(context.Background())
	test.That(t, errors.Is(err, os.ErrNotExist), test.ShouldBeTrue)
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scan.Enabled = true
	cfg.Visualize = true
	sc := scene.New(nil)
	engine := &recordingEngine{scene: sc}
	logger, logs := logging.NewObservedTestLogger(t)
	p, err := NewPlanner(sc, engine, cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = p.Build(context.Background())
	test.That(t, err, test.ShouldBeNil)
	sc.CreateCamera("Cam", r3.Vector{}, r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})

	report, err := p.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Surfaces, test.ShouldResemble, []string{"Plate"})
	test.That(t, report.Skipped, test.ShouldResemble, []string{"Ghost", "Cam"})
	test.That(t, logs.FilterMessage("skipping surface").Len(), test.ShouldEqual, 2)
	test.That(t, report.Orientations, test.ShouldHaveLength, 2)

	plate, err := sc.Object("Plate")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, plate.Parent, test.ShouldEqual, "Tug_t5")

	// turned 90 degrees the caster is at (0, 2), so the aircraft towbar moves from (2, 0)
	test.That(t, report.Orientations[0].Correction.Norm(), test.ShouldAlmostEqual, 0)
	test.That(t, spatialmath.R3VectorAlmostEqual(report.Orientations[1].Correction, r3.Vector{X: -2, Y: 2}, 1e-9),
		test.ShouldBeTrue)
	tug, aircraft, err := p.Poses()
	test.That(t, err, test.ShouldBeNil)
	caster, err := tug.LinkPosition("caster")
	test.That(t, err, test.ShouldBeNil)
	towbar, err := aircraft.LinkPosition("towbar")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(caster, r3.Vector{Y: 2, Z: 0.3}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(towbar, caster, 1e-9), test.ShouldBeTrue)

	placements := report.Placements()
	test.That(t, placements, test.ShouldHaveLength, 4)
	names := make([]string, 0, len(placements))
	for _, pl := range placements {
		names = append(names, pl.Name)
		test.That(t, pl.Scan, test.ShouldNotBeNil)
		test.That(t, pl.Position.Z-pl.Sample.Z, test.ShouldAlmostEqual, cfg.Lidar.ZOffset)
		test.That(t, pl.Sample.Z, test.ShouldAlmostEqual, 1.01+cfg.Grid.HeightOffset)
	}
	test.That(t, names, test.ShouldResemble, []string{
		"yaw_000_Plate_scan_001", "yaw_000_Plate_scan_002",
		"yaw_090_Plate_scan_001", "yaw_090_Plate_scan_002",
	})

	// the plate follows the tug: centred on (1, 0) then (0, 1)
	for i, want := range []r3.Vector{{X: 1}, {Y: 1}} {
		pls := report.Orientations[i].Placements
		mid := pls[0].Sample.Add(pls[1].Sample).Mul(0.5)
		test.That(t, mid.X, test.ShouldAlmostEqual, want.X)
		test.That(t, mid.Y, test.ShouldAlmostEqual, want.Y)
	}

	test.That(t, engine.scans, test.ShouldHaveLength, 4)
	for i, s := range engine.scans {
		test.That(t, s.sensor, test.ShouldEqual, "lidar")
		test.That(t, s.out.Name, test.ShouldEqual, names[i])
		test.That(t, s.out.Dir, test.ShouldEqual, cfg.Scan.ExportDir)
		test.That(t, spatialmath.R3VectorAlmostEqual(s.position, placements[i].Position, 1e-9), test.ShouldBeTrue)
	}
	cam, err := sc.Object("lidar")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.Kind, test.ShouldEqual, scene.KindCamera)
	test.That(t, sc.Collection("Grid_Plate"), test.ShouldHaveLength, 2)
}

func TestRunSamplingOnly(t *testing.T) {
	cfg := testConfig(t)
	sc := scene.New(nil)
	p, err := NewPlanner(sc, nil, cfg, nil)
	test.That(t, err, test.ShouldBeNil)
	_, err = p.Build(context.Background())
	test.That(t, err, test.ShouldBeNil)

	report, err := p.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	for _, pl := range report.Placements() {
		test.That(t, pl.Scan, test.ShouldBeNil)
	}
	test.That(t, report.Placements(), test.ShouldHaveLength, 4)
	test.That(t, sc.Collections(), test.ShouldBeEmpty)
}

func TestRunWithScanner(t *testing.T) {
	cfg := testConfig(t)
	cfg.Orientations = []float64{45}
	cfg.Surfaces = cfg.Surfaces[:1]
	cfg.Scan.Enabled = true
	cfg.Scan.Params.XStepDegree = 90
	cfg.Scan.Params.FovY = 0
	cfg.Scan.Params.YStepDegree = 1

	sc := scene.New(logging.NewTestLogger(t))
	engine, err := lidar.NewRotatingScanner(sc, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	p, err := NewPlanner(sc, engine, cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Prepare(context.Background()), test.ShouldBeNil)

	report, err := p.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	placements := report.Placements()
	test.That(t, placements, test.ShouldHaveLength, 2)
	for _, pl := range placements {
		test.That(t, pl.Scan.Rays, test.ShouldEqual, 4)
		test.That(t, pl.Scan.Files, test.ShouldResemble, []string{filepath.Join(cfg.Scan.ExportDir, pl.Name+".csv")})
		_, err := os.Stat(pl.Scan.Files[0])
		test.That(t, err, test.ShouldBeNil)
		_, err = sc.Object(pl.Name)
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, placements[0].Name, test.ShouldEqual, "yaw_045_Plate_scan_001")
}

func TestRunErrors(t *testing.T) {
	cfg := testConfig(t)
	p, err := NewPlanner(scene.New(nil), nil, cfg, nil)
	test.That(t, err, test.ShouldBeNil)
	_, err = p.Run(context.Background())
	test.That(t, errors.Is(err, ErrMissingVehicle), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Tug_t5")

	sc := scene.New(nil)
	p, err = NewPlanner(sc, nil, cfg, nil)
	test.That(t, err, test.ShouldBeNil)
	_, err = p.Build(context.Background())
	test.That(t, err, test.ShouldBeNil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
