// Package lidar simulates LiDAR scans over a scene.
package lidar

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// NoiseParams adds range noise along each ray. The measured distance is
// d + N(Mu, Sigma) + AbsoluteOffset + RelativeOffset*d.
type NoiseParams struct {
	Enabled        bool    `json:"enabled"`
	Type           string  `json:"type"`
	Mu             float64 `json:"mu"`
	Sigma          float64 `json:"sigma"`
	AbsoluteOffset float64 `json:"absolute_offset"`
	RelativeOffset float64 `json:"relative_offset"`
	Seed           uint64  `json:"seed"`
}

// ScanParams describes the sweep of a rotating scanner. Angles are in degrees, distances in
// meters. A return is kept when the surface reflectivity reaches the threshold interpolated
// linearly from ReflectivityLower at DistanceLower to ReflectivityUpper at DistanceUpper.
type ScanParams struct {
	XStepDegree       float64     `json:"x_step_degree"`
	FovX              float64     `json:"fov_x"`
	YStepDegree       float64     `json:"y_step_degree"`
	FovY              float64     `json:"fov_y"`
	ReflectivityLower float64     `json:"reflectivity_lower"`
	ReflectivityUpper float64     `json:"reflectivity_upper"`
	DistanceLower     float64     `json:"distance_lower"`
	DistanceUpper     float64     `json:"distance_upper"`
	Noise             NoiseParams `json:"noise"`
}

// DefaultScanParams returns a detailed full-turn sweep with noise off.
func DefaultScanParams() ScanParams {
	return ScanParams{
		XStepDegree:       0.4,
		FovX:              360,
		YStepDegree:       0.33,
		FovY:              270,
		ReflectivityLower: 1.0,
		ReflectivityUpper: 1.0,
		DistanceLower:     0,
		DistanceUpper:     99999.9,
		Noise: NoiseParams{
			Type:  NoiseGaussian,
			Mu:    0,
			Sigma: 0.01,
		},
	}
}

// NoiseGaussian is the only supported noise type.
const NoiseGaussian = "gaussian"

// Validate returns every problem with the parameters.
func (p ScanParams) Validate() error {
	var err error
	if p.XStepDegree <= 0 || p.YStepDegree <= 0 {
		err = multierr.Append(err, errors.Errorf("angular steps must be positive, got x=%v y=%v", p.XStepDegree, p.YStepDegree))
	}
	if p.FovX <= 0 || p.FovX > 360 {
		err = multierr.Append(err, errors.Errorf("horizontal field of view must be in (0, 360], got %v", p.FovX))
	}
	if p.FovY < 0 || p.FovY > 360 {
		err = multierr.Append(err, errors.Errorf("vertical field of view must be in [0, 360], got %v", p.FovY))
	}
	if p.DistanceLower < 0 || p.DistanceUpper <= p.DistanceLower {
		err = multierr.Append(err, errors.Errorf("distance bounds must satisfy 0 <= lower < upper, got [%v, %v]",
			p.DistanceLower, p.DistanceUpper))
	}
	if p.Noise.Enabled {
		if p.Noise.Type != NoiseGaussian {
			err = multierr.Append(err, errors.Errorf("unsupported noise type %q", p.Noise.Type))
		}
		if p.Noise.Sigma < 0 {
			err = multierr.Append(err, errors.Errorf("noise sigma must not be negative, got %v", p.Noise.Sigma))
		}
	}
	return err
}

// reflectivityThreshold returns the minimum reflectivity detectable at distance d.
func (p ScanParams) reflectivityThreshold(d float64) float64 {
	span := p.DistanceUpper - p.DistanceLower
	if span <= 0 {
		return p.ReflectivityLower
	}
	f := (d - p.DistanceLower) / span
	return p.ReflectivityLower + f*(p.ReflectivityUpper-p.ReflectivityLower)
}

// angles returns the sweep angles for a field of view centred on zero. A full turn omits
// its closing angle, which would repeat the first.
func angles(fov, step float64) []float64 {
	n := int(fov/step + 1e-9)
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, -fov/2+float64(i)*step)
	}
	if fov >= 360 && len(out) > 1 && out[len(out)-1] >= fov/2-1e-9 {
		out = out[:len(out)-1]
	}
	return out
}
