package geom

// 4×4 matrix (row-major)
type Mat4 struct {
	M [4][4]Real
}

func I4() Mat4 {
	return Mat4{M: [4][4]Real{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}}
}

// NewMat4 builds a matrix from 16 row-major values.
func NewMat4(v [16]Real) Mat4 {
	var R Mat4
	for i := 0; i < 16; i++ {
		R.M[i/4][i%4] = v[i]
	}
	return R
}

// Flat returns the 16 row-major values.
func (A Mat4) Flat() [16]Real {
	var v [16]Real
	for i := 0; i < 16; i++ {
		v[i] = A.M[i/4][i%4]
	}
	return v
}

func (A Mat4) Mul(B Mat4) Mat4 {
	var R Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += A.M[r][k] * B.M[k][c]
			}
			R.M[r][c] = sum
		}
	}
	return R
}

func (A Mat4) MulVec(v Vector4) Vector4 {
	return Vector4{
		A.M[0][0]*v.X + A.M[0][1]*v.Y + A.M[0][2]*v.Z + A.M[0][3]*v.W,
		A.M[1][0]*v.X + A.M[1][1]*v.Y + A.M[1][2]*v.Z + A.M[1][3]*v.W,
		A.M[2][0]*v.X + A.M[2][1]*v.Y + A.M[2][2]*v.Z + A.M[2][3]*v.W,
		A.M[3][0]*v.X + A.M[3][1]*v.Y + A.M[3][2]*v.Z + A.M[3][3]*v.W,
	}
}

func (A Mat4) Transpose() Mat4 {
	var R Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			R.M[r][c] = A.M[c][r]
		}
	}
	return R
}

// Determinant by cofactor expansion along the first row.
func (A Mat4) Determinant() Real {
	var det Real
	for c := 0; c < 4; c++ {
		det += A.M[0][c] * A.cofactor(0, c)
	}
	return det
}

func (A Mat4) minor(row, col int) Real {
	var s [3][3]Real
	ri := 0
	for r := 0; r < 4; r++ {
		if r == row {
			continue
		}
		ci := 0
		for c := 0; c < 4; c++ {
			if c == col {
				continue
			}
			s[ri][ci] = A.M[r][c]
			ci++
		}
		ri++
	}
	return s[0][0]*(s[1][1]*s[2][2]-s[1][2]*s[2][1]) -
		s[0][1]*(s[1][0]*s[2][2]-s[1][2]*s[2][0]) +
		s[0][2]*(s[1][0]*s[2][1]-s[1][1]*s[2][0])
}

func (A Mat4) cofactor(row, col int) Real {
	m := A.minor(row, col)
	if (row+col)%2 == 1 {
		return -m
	}
	return m
}

// Invertible reports a non-zero determinant.
func (A Mat4) Invertible() bool { return A.Determinant() != 0 }

// Inverse returns A^-1, or the zero matrix when A is singular.
func (A Mat4) Inverse() Mat4 {
	det := A.Determinant()
	if det == 0 {
		return Mat4{}
	}
	var R Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			// transposed cofactor
			R.M[c][r] = A.cofactor(r, c) / det
		}
	}
	return R
}

// Equal compares element-wise with Equal.
func (A Mat4) Equal(B Mat4) bool {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if !Equal(A.M[r][c], B.M[r][c]) {
				return false
			}
		}
	}
	return true
}

// IsZero reports the singular-inverse sentinel.
func (A Mat4) IsZero() bool { return A == Mat4{} }
