// Package scanplan drives the placement workflow: it builds or loads the scene, aligns the
// aircraft to the tug for every tug orientation, samples mounting positions on the configured
// surfaces and scans from each of them.
package scanplan

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/airside-sim/tugscan/config"
	"github.com/airside-sim/tugscan/lidar"
	"github.com/airside-sim/tugscan/logging"
	"github.com/airside-sim/tugscan/referenceframe"
	"github.com/airside-sim/tugscan/scene"
	"github.com/airside-sim/tugscan/topface"
)

// ErrMissingVehicle is returned by Run when the tug or the aircraft is not in the scene.
var ErrMissingVehicle = errors.New("required vehicle not found in scene")

// Planner runs the workflow over a scene.
type Planner struct {
	scene  *scene.Scene
	engine lidar.Engine
	cfg    *config.Config
	logger logging.Logger

	tugModel      *referenceframe.Model
	aircraftModel *referenceframe.Model
}

// NewPlanner returns a planner. engine may be nil when scanning is disabled.
func NewPlanner(sc *scene.Scene, engine lidar.Engine, cfg *config.Config, logger logging.Logger) (*Planner, error) {
	if sc == nil {
		return nil, errors.New("planner needs a scene")
	}
	if cfg == nil {
		return nil, errors.New("planner needs a config")
	}
	if cfg.Scan.Enabled && engine == nil {
		return nil, errors.New("scanning is enabled but no scan engine was given")
	}
	if logger == nil {
		logger = logging.Global().Named("planner")
	}
	return &Planner{scene: sc, engine: engine, cfg: cfg, logger: logger}, nil
}

// Prepare loads the scene file when configured to and builds a new scene otherwise.
func (p *Planner) Prepare(ctx context.Context) error {
	if !p.cfg.Scene.LoadFromFile {
		_, err := p.Build(ctx)
		return err
	}
	if err := p.scene.Load(p.cfg.Scene.Path); err != nil {
		return errors.Wrap(err, "loading scene")
	}
	p.logger.Infow("scene loaded", "path", scene.ScenePath(p.cfg.Scene.Path), "objects", len(p.scene.Names()))
	return p.loadModels()
}

// Build creates the scene from scratch, aligns the aircraft towbar to the tug hitch and saves
// the scene. It returns the path of the saved scene file.
func (p *Planner) Build(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.scene.Clear()
	if _, err := p.scene.CreateBoundaryWalls(p.cfg.Scene.WallSize, p.cfg.Scene.WallDistance); err != nil {
		return "", err
	}
	for _, v := range []config.Vehicle{p.cfg.Tug, p.cfg.Aircraft} {
		if err := p.importVehicle(v); err != nil {
			return "", err
		}
	}
	for _, s := range p.cfg.Surfaces {
		if s.Dimensions == (r3.Vector{}) {
			p.logger.Warnw("surface has no dimensions, expecting it in a loaded scene", "surface", s.Name)
			continue
		}
		name, err := p.scene.AddBox(s.Name, s.Dimensions, s.Location)
		if err != nil {
			return "", errors.Wrapf(err, "surface %q", s.Name)
		}
		if name != s.Name {
			return "", errors.Errorf("surface %q collides with an existing object", s.Name)
		}
	}
	if err := p.loadModels(); err != nil {
		return "", err
	}
	if _, err := p.realign(); err != nil {
		return "", err
	}
	return p.scene.Save(p.cfg.Scene.Path)
}

func (p *Planner) importVehicle(v config.Vehicle) error {
	name, err := p.scene.ImportMesh(v.Mesh, v.Name)
	if err != nil {
		return errors.Wrapf(err, "importing %q", v.Name)
	}
	if name != v.Name {
		return errors.Errorf("vehicle %q collides with an existing object", v.Name)
	}
	if err := p.scene.AssignMaterial(name, v.Color, v.Roughness); err != nil {
		return err
	}
	return p.scene.SetPosition(name, v.Location)
}

func (p *Planner) loadModels() error {
	if p.tugModel != nil && p.aircraftModel != nil {
		return nil
	}
	tug, err := referenceframe.LoadAndVerify(p.cfg.Tug.URDF)
	if err != nil {
		return errors.Wrap(err, "tug description")
	}
	aircraft, err := referenceframe.LoadAndVerify(p.cfg.Aircraft.URDF)
	if err != nil {
		return errors.Wrap(err, "aircraft description")
	}
	p.tugModel, p.aircraftModel = tug, aircraft
	p.logger.Debugw("robot descriptions loaded", "tug", tug.Name(), "aircraft", aircraft.Name())
	return nil
}

// Poses returns the world link poses of the tug and the aircraft as they stand in the scene.
func (p *Planner) Poses() (tug, aircraft referenceframe.Poses, err error) {
	if err := p.loadModels(); err != nil {
		return nil, nil, err
	}
	tug, err = p.vehiclePoses(p.tugModel, p.cfg.Tug.Name)
	if err != nil {
		return nil, nil, err
	}
	aircraft, err = p.vehiclePoses(p.aircraftModel, p.cfg.Aircraft.Name)
	if err != nil {
		return nil, nil, err
	}
	return tug, aircraft, nil
}

func (p *Planner) vehiclePoses(model *referenceframe.Model, object string) (referenceframe.Poses, error) {
	tf, err := p.scene.WorldTransform(object)
	if err != nil {
		return nil, err
	}
	return referenceframe.LinkPositions(model, nil, tf.WithoutScale())
}

// realign moves the aircraft so its towbar link sits on the tug's hitch link and returns the
// translation applied.
func (p *Planner) realign() (r3.Vector, error) {
	tugPoses, acPoses, err := p.Poses()
	if err != nil {
		return r3.Vector{}, err
	}
	correction, err := referenceframe.HitchCorrection(tugPoses, acPoses, p.cfg.Hitch.TugLink, p.cfg.Hitch.AircraftLink)
	if err != nil {
		return r3.Vector{}, errors.Wrap(err, "aligning aircraft to tug")
	}
	ac, err := p.scene.Object(p.cfg.Aircraft.Name)
	if err != nil {
		return r3.Vector{}, err
	}
	if err := p.scene.SetPosition(ac.Name, ac.Location.Add(correction)); err != nil {
		return r3.Vector{}, err
	}
	p.logger.Debugw("aircraft realigned", "correction", correction, "location", ac.Location.Add(correction))
	return correction, nil
}

// Placement is one sensor position and, when scanning is enabled, its scan.
type Placement struct {
	YawDeg   float64
	Surface  string
	Index    int // 1-based over all surfaces of one orientation
	Grid     topface.GridIndex
	Sample   r3.Vector
	Position r3.Vector
	Name     string
	Scan     *lidar.ScanResult
}

// Orientation is the outcome of one tug yaw.
type Orientation struct {
	YawDeg     float64
	Correction r3.Vector
	Placements []Placement
}

// Report is the outcome of Run.
type Report struct {
	Surfaces     []string
	Skipped      []string
	Orientations []Orientation
}

// Placements returns every placement of every orientation.
func (r *Report) Placements() []Placement {
	var out []Placement
	for _, o := range r.Orientations {
		out = append(out, o.Placements...)
	}
	return out
}

// Run attaches the surfaces to the tug and, for every configured yaw, turns the tug, realigns
// the aircraft, samples every surface and scans from every sample.
func (p *Planner) Run(ctx context.Context) (*Report, error) {
	if err := p.checkVehicles(); err != nil {
		return nil, err
	}
	if err := p.loadModels(); err != nil {
		return nil, err
	}
	if p.cfg.Scan.Enabled && p.cfg.Scan.ExportDir != "" {
		if err := os.MkdirAll(p.cfg.Scan.ExportDir, 0o750); err != nil {
			return nil, errors.Wrap(err, "creating export directory")
		}
	}

	report := &Report{}
	for _, s := range p.cfg.Surfaces {
		if _, _, err := p.scene.MeshObject(s.Name); err != nil {
			if errors.Is(err, scene.ErrObjectNotFound) || errors.Is(err, scene.ErrNotAMesh) {
				p.logger.Warnw("skipping surface", "surface", s.Name, "reason", err)
				report.Skipped = append(report.Skipped, s.Name)
				continue
			}
			return nil, err
		}
		if err := p.scene.SetParent(s.Name, p.cfg.Tug.Name); err != nil {
			return nil, err
		}
		report.Surfaces = append(report.Surfaces, s.Name)
	}

	lidarName := ""
	for _, yaw := range p.cfg.Orientations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.scene.SetRotation(p.cfg.Tug.Name, r3.Vector{Z: yaw}); err != nil {
			return nil, err
		}
		correction, err := p.realign()
		if err != nil {
			return nil, err
		}
		orientation := Orientation{YawDeg: yaw, Correction: correction}
		tag := fmt.Sprintf("yaw_%03d", int(math.Round(yaw)))
		p.logger.Infow("scanning orientation", "yaw_deg", yaw)

		type sample struct {
			surface string
			point   topface.SamplePoint
		}
		var samples []sample
		for _, name := range report.Surfaces {
			res, err := topface.SampleObject(p.scene, name, p.cfg.Grid, p.visualization(name))
			if err != nil {
				return nil, err
			}
			for _, sp := range res.Samples {
				samples = append(samples, sample{surface: name, point: sp})
			}
		}
		if len(samples) > 0 && lidarName == "" {
			lidarName = p.ensureLidar(samples[0].point.Position)
		}

		for i, s := range samples {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pl := Placement{
				YawDeg:   yaw,
				Surface:  s.surface,
				Index:    i + 1,
				Grid:     s.point.Index,
				Sample:   s.point.Position,
				Position: s.point.Position.Add(r3.Vector{Z: p.cfg.Lidar.ZOffset}),
				Name:     fmt.Sprintf("%s_%s_scan_%03d", tag, s.surface, i+1),
			}
			if err := p.scene.SetPosition(lidarName, pl.Position); err != nil {
				return nil, err
			}
			p.logger.Infow("placement", "name", pl.Name, "index", pl.Index, "of", len(samples), "position", pl.Position)
			if p.cfg.Scan.Enabled {
				res, err := p.engine.Scan(ctx, lidarName, p.cfg.Scan.Params, p.cfg.ScanOutput(pl.Name))
				if err != nil {
					return nil, errors.Wrapf(err, "scan %q", pl.Name)
				}
				pl.Scan = res
			}
			orientation.Placements = append(orientation.Placements, pl)
		}
		report.Orientations = append(report.Orientations, orientation)
	}
	return report, nil
}

func (p *Planner) checkVehicles() error {
	var missing []string
	for _, name := range []string{p.cfg.Tug.Name, p.cfg.Aircraft.Name} {
		if _, err := p.scene.Object(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrMissingVehicle, "missing %v", missing)
	}
	return nil
}

// ensureLidar returns the scanner object, creating it at position when the scene has none.
func (p *Planner) ensureLidar(position r3.Vector) string {
	l := p.cfg.Lidar
	if _, err := p.scene.Object(l.Name); err == nil {
		return l.Name
	}
	return p.scene.CreateCamera(l.Name, position, l.RotationDeg, l.Scale)
}

func (p *Planner) visualization(surface string) *topface.Visualization {
	if !p.cfg.Visualize {
		return nil
	}
	return &topface.Visualization{Sink: p.scene, Collection: "Grid_" + surface}
}
