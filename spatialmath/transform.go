package spatialmath

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Transform is an affine map from a local frame into its parent frame (usually the world).
// It may carry rotation, translation and non-uniform scale. The zero value is not usable;
// start from NewIdentityTransform.
type Transform struct {
	mat mgl64.Mat4
}

// NewIdentityTransform returns the transform that maps every point onto itself.
func NewIdentityTransform() Transform {
	return Transform{mgl64.Ident4()}
}

// NewTransformFromMatrix wraps a homogeneous 4x4 matrix.
func NewTransformFromMatrix(m mgl64.Mat4) Transform {
	return Transform{m}
}

// NewTranslation returns a pure translation.
func NewTranslation(v r3.Vector) Transform {
	return Transform{mgl64.Translate3D(v.X, v.Y, v.Z)}
}

// NewTransformFromTRS builds T * R * S from a location, a rotation and a per-axis scale.
func NewTransformFromTRS(location r3.Vector, rotation EulerAngles, scale r3.Vector) Transform {
	m := mgl64.Translate3D(location.X, location.Y, location.Z).
		Mul4(rotation.RotationMatrix()).
		Mul4(mgl64.Scale3D(scale.X, scale.Y, scale.Z))
	return Transform{m}
}

// NewTransformFromAxisAngle returns a rotation of angle radians about axis, followed by a translation.
func NewTransformFromAxisAngle(translation, axis r3.Vector, angle float64) Transform {
	rot := mgl64.Ident4()
	if n := axis.Norm(); n > floatEpsilon && angle != 0 {
		a := axis.Mul(1 / n)
		rot = mgl64.HomogRotate3D(angle, mgl64.Vec3{a.X, a.Y, a.Z})
	}
	return Transform{mgl64.Translate3D(translation.X, translation.Y, translation.Z).Mul4(rot)}
}

// Compose returns the transform that applies child first and parent second. If child maps
// a link frame into its parent's frame, and parent maps that frame into the world, the
// result maps the link frame into the world.
func Compose(parent, child Transform) Transform {
	return Transform{parent.mat.Mul4(child.mat)}
}

// Matrix returns the homogeneous matrix.
func (t Transform) Matrix() mgl64.Mat4 {
	return t.mat
}

// Apply maps a point.
func (t Transform) Apply(p r3.Vector) r3.Vector {
	v := t.mat.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// ApplyVector maps a direction: rotation and scale, no translation.
func (t Transform) ApplyVector(d r3.Vector) r3.Vector {
	v := t.mat.Mat3().Mul3x1(mgl64.Vec3{d.X, d.Y, d.Z})
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// ApplyNormal maps a surface normal with the inverse transpose of the linear part and
// normalizes the result. A singular transform yields the zero vector.
func (t Transform) ApplyNormal(n r3.Vector) r3.Vector {
	lin := t.mat.Mat3()
	if math.Abs(lin.Det()) < floatEpsilon {
		return r3.Vector{}
	}
	v := lin.Inv().Transpose().Mul3x1(mgl64.Vec3{n.X, n.Y, n.Z})
	out := r3.Vector{X: v[0], Y: v[1], Z: v[2]}
	if out.Norm() < floatEpsilon {
		return r3.Vector{}
	}
	return out.Normalize()
}

// Inverse returns the transform mapping back into the local frame.
func (t Transform) Inverse() Transform {
	return Transform{t.mat.Inv()}
}

// Translation returns the origin of the local frame expressed in the parent frame.
func (t Transform) Translation() r3.Vector {
	c := t.mat.Col(3)
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}
}

// Scale returns the length of each local axis in the parent frame.
func (t Transform) Scale() r3.Vector {
	return r3.Vector{
		X: t.mat.Col(0).Vec3().Len(),
		Y: t.mat.Col(1).Vec3().Len(),
		Z: t.mat.Col(2).Vec3().Len(),
	}
}

// Rotation returns the rotation with any scale divided out of the columns.
func (t Transform) Rotation() mgl64.Mat3 {
	cols := [3]mgl64.Vec3{}
	for i := range cols {
		c := t.mat.Col(i).Vec3()
		if l := c.Len(); l > floatEpsilon {
			c = c.Mul(1 / l)
		}
		cols[i] = c
	}
	return mgl64.Mat3FromCols(cols[0], cols[1], cols[2])
}

// Orientation returns the rotation part as a unit quaternion.
func (t Transform) Orientation() quat.Number {
	return matToQuat(t.Rotation())
}

// WithoutScale returns the rigid part of the transform.
func (t Transform) WithoutScale() Transform {
	m := t.Rotation().Mat4()
	p := t.Translation()
	m.SetCol(3, mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return Transform{m}
}

// AlmostEqual reports whether every matrix entry differs by less than tol.
func (t Transform) AlmostEqual(other Transform, tol float64) bool {
	return t.mat.ApproxEqualThreshold(other.mat, tol)
}

// IsZero reports whether t is the unusable zero value.
func (t Transform) IsZero() bool {
	return t.mat == mgl64.Mat4{}
}

// String implements fmt.Stringer.
func (t Transform) String() string {
	p := t.Translation()
	return fmt.Sprintf("Transform{t: (%.4f, %.4f, %.4f), q: %v}", p.X, p.Y, p.Z, t.Orientation())
}

// MarshalJSON encodes the matrix in column-major order.
func (t Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal([16]float64(t.mat))
}

// UnmarshalJSON decodes a column-major matrix.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var m [16]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	t.mat = mgl64.Mat4(m)
	return nil
}
