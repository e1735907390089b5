package geom

import "math"

// AABB is an axis-aligned box. Only X, Y and Z of Min/Max are meaningful;
// both corners are stored as points.
type AABB struct {
	Min, Max Vector4
}

// EmptyAABB returns an inverted box that any Add/Merge replaces.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: Point(inf, inf, inf), Max: Point(-inf, -inf, -inf)}
}

// NewAABB returns the box spanning the two corners.
func NewAABB(min, max Vector4) AABB {
	return AABB{Min: Point(min.X, min.Y, min.Z), Max: Point(max.X, max.Y, max.Z)}
}

// IsEmpty reports an inverted box.
func (b AABB) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// IsInfinite reports whether any extent is unbounded.
func (b AABB) IsInfinite() bool {
	for i := 0; i < 3; i++ {
		if math.IsInf(b.Min.Axis(i), 0) || math.IsInf(b.Max.Axis(i), 0) {
			return true
		}
	}
	return false
}

func (b AABB) AddPoint(p Vector4) AABB {
	return AABB{
		Min: Point(math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)),
		Max: Point(math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)),
	}
}

func (b AABB) Merge(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	return b.AddPoint(o.Min).AddPoint(o.Max)
}

func (b AABB) ContainsPoint(p Vector4) bool {
	return p.X >= b.Min.X-Epsilon && p.X <= b.Max.X+Epsilon &&
		p.Y >= b.Min.Y-Epsilon && p.Y <= b.Max.Y+Epsilon &&
		p.Z >= b.Min.Z-Epsilon && p.Z <= b.Max.Z+Epsilon
}

func (b AABB) ContainsBox(o AABB) bool {
	if o.IsEmpty() {
		return true
	}
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// mulInf is x*y with 0*Inf treated as 0, so infinite boxes survive rotation.
func mulInf(x, y Real) Real {
	if x == 0 || y == 0 {
		return 0
	}
	return x * y
}

func transformPoint(m Mat4, p Vector4) Vector4 {
	row := func(r int) Real {
		return mulInf(m.M[r][0], p.X) + mulInf(m.M[r][1], p.Y) + mulInf(m.M[r][2], p.Z) + m.M[r][3]
	}
	return Point(row(0), row(1), row(2))
}

// Transform returns the box enclosing all eight transformed corners.
func (b AABB) Transform(m Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out = out.AddPoint(transformPoint(m, c))
	}
	return out
}

// LongestAxis returns 0, 1 or 2.
func (b AABB) LongestAxis() int {
	dx, dy, dz := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y, b.Max.Z-b.Min.Z
	axis := 0
	if dy > dx {
		axis = 1
		dx = dy
	}
	if dz > dx {
		axis = 2
	}
	return axis
}

// Split cuts the box at the midpoint of its longest axis. Unbounded or
// empty boxes cannot be split.
func (b AABB) Split() (left, right AABB, ok bool) {
	if b.IsEmpty() || b.IsInfinite() {
		return b, b, false
	}
	axis := b.LongestAxis()
	mid := (b.Min.Axis(axis) + b.Max.Axis(axis)) / 2
	left = AABB{Min: b.Min, Max: b.Max.WithAxis(axis, mid)}
	right = AABB{Min: b.Min.WithAxis(axis, mid), Max: b.Max}
	return left, right, true
}

// CheckAxis is the per-axis slab test shared by cubes and boxes. A near-zero
// direction yields ±Inf with the sign of the numerator.
func CheckAxis(origin, direction, min, max Real) (tmin, tmax Real) {
	tminNum := min - origin
	tmaxNum := max - origin
	if math.Abs(direction) >= Epsilon {
		tmin = tminNum / direction
		tmax = tmaxNum / direction
	} else {
		tmin = signedInf(tminNum, -1)
		tmax = signedInf(tmaxNum, 1)
	}
	if tmin > tmax {
		tmin, tmax = tmax, tmin
	}
	return tmin, tmax
}

func signedInf(num Real, zero int) Real {
	switch {
	case num > 0:
		return math.Inf(1)
	case num < 0:
		return math.Inf(-1)
	default:
		return math.Inf(zero)
	}
}

// Intersects is the slab test against the box.
func (b AABB) Intersects(r Ray) bool {
	if b.IsEmpty() {
		return false
	}
	xmin, xmax := CheckAxis(r.Origin.X, r.Direction.X, b.Min.X, b.Max.X)
	ymin, ymax := CheckAxis(r.Origin.Y, r.Direction.Y, b.Min.Y, b.Max.Y)
	zmin, zmax := CheckAxis(r.Origin.Z, r.Direction.Z, b.Min.Z, b.Max.Z)
	tmin := math.Max(xmin, math.Max(ymin, zmin))
	tmax := math.Min(xmax, math.Min(ymax, zmax))
	return tmin <= tmax
}

// BoundingSphere returns a sphere enclosing the box. Unbounded boxes give
// an infinite radius.
func (b AABB) BoundingSphere() (center Vector4, radius Real) {
	if b.IsInfinite() || b.IsEmpty() {
		return Point(0, 0, 0), math.Inf(1)
	}
	center = Point((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2, (b.Min.Z+b.Max.Z)/2)
	return center, b.Max.Sub(center).Len()
}
