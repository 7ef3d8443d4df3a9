package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles are rotations in radians about the fixed X, Y and Z axes, applied in that order.
// This is both the URDF roll-pitch-yaw convention and the XYZ Euler mode of most modelling tools.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAnglesFromDegrees converts degrees about X, Y and Z into EulerAngles.
func NewEulerAnglesFromDegrees(x, y, z float64) EulerAngles {
	return EulerAngles{Roll: x * degToRad, Pitch: y * degToRad, Yaw: z * degToRad}
}

// NewEulerAnglesFromVectorDegrees is NewEulerAnglesFromDegrees for a vector of degrees.
func NewEulerAnglesFromVectorDegrees(v r3.Vector) EulerAngles {
	return NewEulerAnglesFromDegrees(v.X, v.Y, v.Z)
}

// Degrees returns the angles as a vector of degrees.
func (ea EulerAngles) Degrees() r3.Vector {
	return r3.Vector{X: ea.Roll * radToDeg, Y: ea.Pitch * radToDeg, Z: ea.Yaw * radToDeg}
}

// RotationMatrix returns the homogeneous rotation matrix Rz * Ry * Rx.
func (ea EulerAngles) RotationMatrix() mgl64.Mat4 {
	return mgl64.HomogRotate3DZ(ea.Yaw).Mul4(
		mgl64.HomogRotate3DY(ea.Pitch).Mul4(
			mgl64.HomogRotate3DX(ea.Roll)))
}

// Quaternion returns the unit quaternion of the rotation.
func (ea EulerAngles) Quaternion() quat.Number {
	return matToQuat(ea.RotationMatrix().Mat3())
}

// QuaternionAlmostEqual is an equality test for two quaternions, treating q and -q as the same rotation.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := func(a, b quat.Number) bool {
		return quat.Abs(quat.Sub(a, b)) < tol
	}
	return same(a, b) || same(a, quat.Scale(-1, b))
}

func matToQuat(m mgl64.Mat3) quat.Number {
	q := mgl64.Mat4ToQuat(m.Mat4()).Normalize()
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}
