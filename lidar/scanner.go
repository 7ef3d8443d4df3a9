package lidar

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/airside-sim/tugscan/logging"
	"github.com/airside-sim/tugscan/pointcloud"
	"github.com/airside-sim/tugscan/scene"
	"github.com/airside-sim/tugscan/spatialmath"
)

// Engine runs a scan from a named sensor object.
type Engine interface {
	Scan(ctx context.Context, sensorName string, params ScanParams, out Output) (*ScanResult, error)
}

// SceneView is what a scanner needs from a scene.
type SceneView interface {
	WorldTransform(name string) (spatialmath.Transform, error)
	ScannableMeshes() ([]scene.MeshInstance, error)
	AddPointCloud(name string, points []r3.Vector) string
}

// Hit is a single return. Intensity is the cosine of the incidence angle.
type Hit struct {
	Position  r3.Vector
	Distance  float64
	Object    string
	Intensity float64
}

// Every surface is an ideal diffuse reflector.
const surfaceReflectivity = 1.0

// ScanResult is the outcome of one scan.
type ScanResult struct {
	Sensor     string
	Origin     r3.Vector
	Rays       int
	Hits       []Hit
	Cloud      pointcloud.PointCloud
	Files      []string
	MeshObject string // name of the added point cloud object, if any
	Duration   time.Duration
}

// RotatingScanner casts a spinning fan of rays from the sensor object. Forward is the sensor's
// local -Z axis; the horizontal sweep turns about its local Y axis and the vertical angle
// tilts toward local Y.
type RotatingScanner struct {
	scene  SceneView
	logger logging.Logger
}

var _ Engine = (*RotatingScanner)(nil)

// NewRotatingScanner returns a scanner over the given scene.
func NewRotatingScanner(sc SceneView, logger logging.Logger) (*RotatingScanner, error) {
	if sc == nil {
		return nil, errors.New("rotating scanner needs a scene")
	}
	if logger == nil {
		logger = logging.Global().Named("lidar")
	}
	return &RotatingScanner{scene: sc, logger: logger}, nil
}

type target struct {
	name      string
	index     int
	box       spatialmath.AABB
	triangles []*spatialmath.Triangle
}

// Scan sweeps the sensor's field of view, writes the requested outputs and returns every
// return kept. The context is checked once per horizontal step.
func (rs *RotatingScanner) Scan(ctx context.Context, sensorName string, params ScanParams, out Output) (*ScanResult, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "scan parameters")
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	sensorTf, err := rs.scene.WorldTransform(sensorName)
	if err != nil {
		return nil, errors.Wrap(err, "scanner object")
	}
	targets, err := rs.targets()
	if err != nil {
		return nil, err
	}

	var noise *distuv.Normal
	if params.Noise.Enabled {
		noise = &distuv.Normal{
			Mu:    params.Noise.Mu,
			Sigma: params.Noise.Sigma,
			Src:   rand.NewPCG(params.Noise.Seed, params.Noise.Seed^0x9e3779b97f4a7c15),
		}
	}

	start := time.Now()
	origin := sensorTf.Translation()
	rigid := sensorTf.WithoutScale()
	res := &ScanResult{Sensor: sensorName, Origin: origin, Cloud: pointcloud.New()}
	hs := angles(params.FovX, params.XStepDegree)
	vs := angles(params.FovY, params.YStepDegree)

	for _, h := range hs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hRad := h * math.Pi / 180
		for _, v := range vs {
			vRad := v * math.Pi / 180
			local := r3.Vector{
				X: -math.Sin(hRad) * math.Cos(vRad),
				Y: math.Sin(vRad),
				Z: -math.Cos(hRad) * math.Cos(vRad),
			}
			dir := rigid.ApplyVector(local).Normalize()
			res.Rays++

			hit, ok := castRay(targets, origin, dir, params.DistanceUpper)
			if !ok || hit.Distance < params.DistanceLower {
				continue
			}
			if surfaceReflectivity < params.reflectivityThreshold(hit.Distance) {
				continue
			}
			if noise != nil {
				d := hit.Distance
				d += noise.Rand() + params.Noise.AbsoluteOffset + params.Noise.RelativeOffset*d
				hit.Distance = d
				hit.Position = origin.Add(dir.Mul(d))
			}
			res.Hits = append(res.Hits, hit.Hit)
			data := pointcloud.NewValueData(hit.index).SetIntensity(uint16(math.Round(hit.Intensity * math.MaxUint16)))
			if err := res.Cloud.Set(hit.Position, data); err != nil {
				return nil, err
			}
		}
	}
	res.Duration = time.Since(start)

	if err := rs.writeOutputs(res, out); err != nil {
		return nil, err
	}
	rs.logger.Infow("scan complete",
		"sensor", sensorName, "rays", res.Rays, "hits", len(res.Hits), "duration", res.Duration)
	return res, nil
}

func (rs *RotatingScanner) targets() ([]target, error) {
	meshes, err := rs.scene.ScannableMeshes()
	if err != nil {
		return nil, err
	}
	out := make([]target, 0, len(meshes))
	for i, m := range meshes {
		tris := m.Mesh.Triangles(m.Transform)
		if len(tris) == 0 {
			continue
		}
		pts := make([]r3.Vector, 0, 3*len(tris))
		for _, tri := range tris {
			pts = append(pts, tri.Points()...)
		}
		box, _ := spatialmath.NewAABB(pts)
		out = append(out, target{name: m.Name, index: i, box: box, triangles: tris})
	}
	return out, nil
}

type indexedHit struct {
	Hit
	index int
}

// castRay returns the nearest intersection within maxDist.
func castRay(targets []target, origin, dir r3.Vector, maxDist float64) (indexedHit, bool) {
	best := indexedHit{Hit: Hit{Distance: math.Inf(1)}}
	var bestTri *spatialmath.Triangle
	for i := range targets {
		tg := &targets[i]
		if !tg.box.IntersectsRay(origin, dir, math.Min(maxDist, best.Distance)) {
			continue
		}
		for _, tri := range tg.triangles {
			d, ok := tri.IntersectRay(origin, dir)
			if !ok || d >= best.Distance || d > maxDist {
				continue
			}
			best.Distance = d
			best.Object = tg.name
			best.index = tg.index
			bestTri = tri
		}
	}
	if bestTri == nil {
		return best, false
	}
	best.Position = origin.Add(dir.Mul(best.Distance))
	best.Intensity = math.Abs(bestTri.Normal().Dot(dir))
	return best, true
}
