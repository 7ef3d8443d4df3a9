package referenceframe

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/airside-sim/tugscan/spatialmath"
)

type frame struct {
	Link string `xml:"link,attr"`
}

type limit struct {
	XMLName xml.Name `xml:"limit"`
	Lower   float64  `xml:"lower,attr"` // translation limits are in meters, revolute limits are in radians
	Upper   float64  `xml:"upper,attr"` // translation limits are in meters, revolute limits are in radians
}

type axis struct {
	XMLName xml.Name `xml:"axis"`
	XYZ     string   `xml:"xyz,attr"`
}

// Parse returns the joint axis. A missing element means the URDF default, the x axis.
func (a *axis) Parse() (r3.Vector, error) {
	if a == nil {
		return r3.Vector{X: 1}, nil
	}
	return parseVector("xyz", a.XYZ)
}

type pose struct {
	XMLName xml.Name `xml:"origin"`
	RPY     string   `xml:"rpy,attr"` // Fixed frame angle "r p y" format, in radians
	XYZ     string   `xml:"xyz,attr"` // "x y z" format, in meters
}

// Parse returns the transform from the child frame into the parent frame. A missing element
// or attribute means zero.
func (p *pose) Parse() (spatialmath.Transform, error) {
	if p == nil {
		return spatialmath.NewIdentityTransform(), nil
	}
	xyz, err := parseVector("xyz", p.XYZ)
	if err != nil {
		return spatialmath.Transform{}, err
	}
	rpy, err := parseVector("rpy", p.RPY)
	if err != nil {
		return spatialmath.Transform{}, err
	}
	return spatialmath.NewTransformFromTRS(
		xyz,
		spatialmath.EulerAngles{Roll: rpy.X, Pitch: rpy.Y, Yaw: rpy.Z},
		r3.Vector{X: 1, Y: 1, Z: 1},
	), nil
}

func parseVector(attr, s string) (r3.Vector, error) {
	if strings.TrimSpace(s) == "" {
		return r3.Vector{}, nil
	}
	vals := spaceDelimitedStringToFloatSlice(s)
	if len(vals) != 3 {
		return r3.Vector{}, NewIncorrectInputLengthError(attr, len(vals))
	}
	for _, v := range vals {
		if math.IsNaN(v) {
			return r3.Vector{}, errors.Errorf("attribute %q has a non-numeric value in %q", attr, s)
		}
	}
	return r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// spaceDelimitedStringToFloatSlice is a helper method to split up space-delimited fields in a string and converts them to floats.
func spaceDelimitedStringToFloatSlice(s string) []float64 {
	var converted []float64
	slice := strings.Fields(s)
	for _, value := range slice {
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			value = math.NaN()
		}
		converted = append(converted, value)
	}
	return converted
}
