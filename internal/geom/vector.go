package geom

import "math"

// Real is the scalar type used by the whole kernel.
type Real = float64

// Epsilon is the tolerance used by every approximate comparison.
const Epsilon = 1e-5

// Equal reports whether a and b are within Epsilon. NaN equals NaN so that
// degenerate results compare stable.
func Equal(a, b Real) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if a == b {
		return true
	}
	return math.Abs(a-b) < Epsilon
}

// Vector4 is a homogeneous 4-tuple: W=1 marks a point, W=0 a direction.
type Vector4 struct {
	X, Y, Z, W Real
}

// Point returns a position (W=1).
func Point(x, y, z Real) Vector4 { return Vector4{x, y, z, 1} }

// Vector returns a direction (W=0).
func Vector(x, y, z Real) Vector4 { return Vector4{x, y, z, 0} }

// Vector functions
func (a Vector4) Add(b Vector4) Vector4 { return Vector4{a.X + b.X, a.Y + b.Y, a.Z + b.Z, a.W + b.W} }
func (a Vector4) Sub(b Vector4) Vector4 { return Vector4{a.X - b.X, a.Y - b.Y, a.Z - b.Z, a.W - b.W} }
func (v Vector4) Mul(s Real) Vector4    { return Vector4{v.X * s, v.Y * s, v.Z * s, v.W * s} }
func (v Vector4) Neg() Vector4          { return Vector4{-v.X, -v.Y, -v.Z, -v.W} }

// IsPoint reports whether W is 1.
func (v Vector4) IsPoint() bool { return v.W == 1 }

// Dot returns the 4-component dot product.
func (a Vector4) Dot(b Vector4) Real {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}

// Cross returns the 3D cross product; W of the result is 0.
func (a Vector4) Cross(b Vector4) Vector4 {
	return Vector4{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
		0,
	}
}

// Len returns the Euclidean length of the vector.
func (v Vector4) Len() Real { return math.Sqrt(v.Dot(v)) }

// Norm returns a unit-length version of the vector.
// A zero vector is returned unchanged.
func (v Vector4) Norm() Vector4 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return Vector4{v.X / l, v.Y / l, v.Z / l, v.W / l}
}

// Axis returns component 0..2 (X, Y, Z).
func (v Vector4) Axis(i int) Real {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// WithAxis returns a copy with component i (0..2) replaced.
func (v Vector4) WithAxis(i int, x Real) Vector4 {
	switch i {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	default:
		v.Z = x
	}
	return v
}

// Equal compares all four components with Equal.
func (a Vector4) Equal(b Vector4) bool {
	return Equal(a.X, b.X) && Equal(a.Y, b.Y) && Equal(a.Z, b.Z) && Equal(a.W, b.W)
}

// Reflect mirrors in about the normal n.
func Reflect(in, n Vector4) Vector4 {
	return in.Sub(n.Mul(2 * in.Dot(n)))
}
