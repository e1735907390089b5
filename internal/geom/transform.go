package geom

import "math"

func Translation(x, y, z Real) Mat4 {
	M := I4()
	M.M[0][3], M.M[1][3], M.M[2][3] = x, y, z
	return M
}

func Scaling(x, y, z Real) Mat4 {
	M := I4()
	M.M[0][0], M.M[1][1], M.M[2][2] = x, y, z
	return M
}

func RotationX(a Real) Mat4 {
	c, s := math.Cos(a), math.Sin(a)
	M := I4()
	M.M[1][1], M.M[1][2] = c, -s
	M.M[2][1], M.M[2][2] = s, c
	return M
}

func RotationY(a Real) Mat4 {
	c, s := math.Cos(a), math.Sin(a)
	M := I4()
	M.M[0][0], M.M[0][2] = c, s
	M.M[2][0], M.M[2][2] = -s, c
	return M
}

func RotationZ(a Real) Mat4 {
	c, s := math.Cos(a), math.Sin(a)
	M := I4()
	M.M[0][0], M.M[0][1] = c, -s
	M.M[1][0], M.M[1][1] = s, c
	return M
}

// Shearing moves each component in proportion to the other two.
func Shearing(xy, xz, yx, yz, zx, zy Real) Mat4 {
	M := I4()
	M.M[0][1], M.M[0][2] = xy, xz
	M.M[1][0], M.M[1][2] = yx, yz
	M.M[2][0], M.M[2][1] = zx, zy
	return M
}

// Chain composes transforms in application order: Chain(a, b, c) applies a first.
func Chain(ms ...Mat4) Mat4 {
	R := I4()
	for _, m := range ms {
		R = m.Mul(R)
	}
	return R
}

// ViewTransform orients the world relative to an eye looking at "to".
func ViewTransform(from, to, up Vector4) Mat4 {
	forward := to.Sub(from).Norm()
	left := forward.Cross(up.Norm())
	trueUp := left.Cross(forward)
	orientation := Mat4{M: [4][4]Real{
		{left.X, left.Y, left.Z, 0},
		{trueUp.X, trueUp.Y, trueUp.Z, 0},
		{-forward.X, -forward.Y, -forward.Z, 0},
		{0, 0, 0, 1},
	}}
	return orientation.Mul(Translation(-from.X, -from.Y, -from.Z))
}
