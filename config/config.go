// Package config defines the tugscan workflow configuration and how it is read from disk.
package config

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/airside-sim/tugscan/lidar"
	"github.com/airside-sim/tugscan/scene"
	"github.com/airside-sim/tugscan/topface"
)

// Config is the whole workflow configuration.
type Config struct {
	ConfigFilePath string `json:"-"`

	Tug          Vehicle        `json:"tug"`
	Aircraft     Vehicle        `json:"aircraft"`
	Hitch        Hitch          `json:"hitch"`
	Scene        SceneConfig    `json:"scene"`
	Orientations []float64      `json:"tug_orientations_deg"`
	Surfaces     []Surface      `json:"surfaces"`
	Grid         topface.Params `json:"grid"`
	Visualize    bool           `json:"visualize_grid"`
	Lidar        LidarConfig    `json:"lidar"`
	Scan         ScanConfig     `json:"scan"`
}

// Vehicle is a model with a robot description and a mesh.
type Vehicle struct {
	Name      string      `json:"name"`
	URDF      string      `json:"urdf"`
	Mesh      string      `json:"mesh"`
	Location  r3.Vector   `json:"location"`
	Color     scene.Color `json:"color"`
	Roughness float64     `json:"roughness"`
}

// Hitch names the links that are brought together when aligning the aircraft to the tug.
type Hitch struct {
	TugLink      string `json:"tug_link"`
	AircraftLink string `json:"aircraft_link"`
}

// SceneConfig controls where the scene is kept and how the boundary is built.
type SceneConfig struct {
	Path         string  `json:"path"`
	LoadFromFile bool    `json:"load_from_file"`
	WallSize     float64 `json:"wall_size"`
	WallDistance float64 `json:"wall_distance"`
}

// Surface is a mounting plate sampled for sensor positions. When the scene is built, a box
// of Dimensions is created at Location; a zero Dimensions means the surface must already
// exist in a loaded scene.
type Surface struct {
	Name       string    `json:"name"`
	Dimensions r3.Vector `json:"dimensions"`
	Location   r3.Vector `json:"location"`
}

// LidarConfig places the scanner object.
type LidarConfig struct {
	Name        string    `json:"name"`
	RotationDeg r3.Vector `json:"rotation_deg"`
	Scale       r3.Vector `json:"scale"`
	ZOffset     float64   `json:"z_offset"`
}

// ScanConfig selects whether and how every placement is scanned.
type ScanConfig struct {
	Enabled   bool             `json:"enabled"`
	ExportDir string           `json:"export_dir"`
	Params    lidar.ScanParams `json:"params"`
	CSV       bool             `json:"csv"`
	LAS       bool             `json:"las"`
	PCD       bool             `json:"pcd"`
	AddMesh   bool             `json:"add_mesh"`
}

// Default returns the configuration every file is decoded on top of.
func Default() *Config {
	return &Config{
		Tug: Vehicle{
			Name:      "Tug_t5",
			Color:     scene.Color{0.8, 0.1, 0.1, 1.0},
			Roughness: 0.5,
		},
		Aircraft: Vehicle{
			Name:      "a320_ceo",
			Color:     scene.Color{0.9, 0.9, 0.9, 1.0},
			Roughness: 0.5,
		},
		Hitch: Hitch{TugLink: "caster", AircraftLink: "towbar"},
		Scene: SceneConfig{
			Path:         "scene",
			WallSize:     scene.DefaultWallSize,
			WallDistance: scene.DefaultWallDistance,
		},
		Orientations: []float64{45},
		Grid:         topface.DefaultParams(),
		Lidar: LidarConfig{
			Name:        "lidar",
			RotationDeg: r3.Vector{X: 90, Y: 0, Z: 90},
			Scale:       r3.Vector{X: 0.15, Y: 0.15, Z: 0.15},
			ZOffset:     0.1,
		},
		Scan: ScanConfig{
			Enabled:   true,
			ExportDir: "Outputs",
			Params:    lidar.DefaultScanParams(),
			CSV:       true,
			AddMesh:   true,
		},
	}
}

// Validate returns every problem found in the config, not just the first.
func (c *Config) Validate() error {
	var err error
	err = multierr.Append(err, c.Tug.validate("tug", !c.Scene.LoadFromFile))
	err = multierr.Append(err, c.Aircraft.validate("aircraft", !c.Scene.LoadFromFile))
	if c.Tug.Name != "" && c.Tug.Name == c.Aircraft.Name {
		err = multierr.Append(err, utils.NewConfigValidationError("aircraft",
			errors.Errorf("name %q is already used by the tug", c.Aircraft.Name)))
	}
	if c.Hitch.TugLink == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError("hitch", "tug_link"))
	}
	if c.Hitch.AircraftLink == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError("hitch", "aircraft_link"))
	}
	if c.Scene.Path == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError("scene", "path"))
	}
	if !c.Scene.LoadFromFile && (c.Scene.WallSize <= 0 || c.Scene.WallDistance <= 0) {
		err = multierr.Append(err, utils.NewConfigValidationError("scene",
			errors.New("wall_size and wall_distance must be positive")))
	}
	if len(c.Orientations) == 0 {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError("", "tug_orientations_deg"))
	}
	for i, o := range c.Orientations {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			err = multierr.Append(err, utils.NewConfigValidationError(fmt.Sprintf("tug_orientations_deg.%d", i),
				errors.Errorf("%v is not a finite angle", o)))
		}
	}
	for i, s := range c.Surfaces {
		path := fmt.Sprintf("surfaces.%d", i)
		if s.Name == "" {
			err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "name"))
		}
		if s.Dimensions.X < 0 || s.Dimensions.Y < 0 || s.Dimensions.Z < 0 {
			err = multierr.Append(err, utils.NewConfigValidationError(path, errors.New("dimensions must not be negative")))
		}
	}
	if dups := lo.FindDuplicates(lo.Map(c.Surfaces, func(s Surface, _ int) string { return s.Name })); len(dups) > 0 {
		err = multierr.Append(err, utils.NewConfigValidationError("surfaces", errors.Errorf("duplicate names %v", dups)))
	}
	if gerr := c.Grid.Validate(); gerr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError("grid", gerr))
	}
	if c.Lidar.Name == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError("lidar", "name"))
	}
	if c.Scan.Enabled {
		if perr := c.Scan.Params.Validate(); perr != nil {
			err = multierr.Append(err, utils.NewConfigValidationError("scan.params", perr))
		}
		if (c.Scan.CSV || c.Scan.LAS || c.Scan.PCD) && c.Scan.ExportDir == "" {
			err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError("scan", "export_dir"))
		}
	}
	return err
}

func (v *Vehicle) validate(path string, needMesh bool) error {
	var err error
	if v.Name == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "name"))
	}
	if v.URDF == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "urdf"))
	}
	if needMesh && v.Mesh == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "mesh"))
	}
	if !v.Color.Valid() {
		err = multierr.Append(err, utils.NewConfigValidationError(path+".color",
			errors.Errorf("channels must lie in [0, 1], got %v", v.Color)))
	}
	return err
}

// ScanOutput returns the scan output for a placement name.
func (c *Config) ScanOutput(name string) lidar.Output {
	return lidar.Output{
		Dir:     c.Scan.ExportDir,
		Name:    name,
		CSV:     c.Scan.CSV,
		LAS:     c.Scan.LAS,
		PCD:     c.Scan.PCD,
		AddMesh: c.Scan.AddMesh,
	}
}
