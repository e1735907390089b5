package kernel

import (
	"math"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

const eps = geom.Epsilon

func primitiveBounds(s *Shape) geom.AABB {
	inf := math.Inf(1)
	switch s.Kind {
	case KindSphere, KindCube:
		return geom.NewAABB(geom.Point(-1, -1, -1), geom.Point(1, 1, 1))
	case KindPlane:
		return geom.NewAABB(geom.Point(-inf, 0, -inf), geom.Point(inf, 0, inf))
	case KindCylinder:
		return geom.NewAABB(geom.Point(-1, s.Min, -1), geom.Point(1, s.Max, 1))
	case KindCone:
		r := math.Max(math.Abs(s.Min), math.Abs(s.Max))
		return geom.NewAABB(geom.Point(-r, s.Min, -r), geom.Point(r, s.Max, r))
	}
	return geom.EmptyAABB()
}

// localIntersect appends the hits of a primitive for a ray already in its
// object space.
func localIntersect(st Store, s *Shape, idx int, r geom.Ray, mat int, xs Intersections) Intersections {
	add := func(t geom.Real) {
		xs = append(xs, Intersection{T: t, Shape: idx, Material: mat})
	}
	switch s.Kind {
	case KindSphere:
		t0, t1, ok := sphereRoots(r)
		if ok {
			add(t0)
			add(t1)
		}
	case KindPlane:
		if math.Abs(r.Direction.Y) < eps {
			return xs
		}
		add(-r.Origin.Y / r.Direction.Y)
	case KindCube:
		tmin, tmax, ok := cubeRoots(r)
		if ok {
			add(tmin)
			add(tmax)
		}
	case KindCylinder:
		xs = intersectCylinder(s, idx, r, mat, xs)
	case KindCone:
		xs = intersectCone(s, idx, r, mat, xs)
	case KindTriangle, KindSmoothTriangle:
		var tri Triangle
		st.Triangle(s.Tri, &tri)
		if t, u, v, ok := triangleRoot(&tri, r); ok {
			xs = append(xs, Intersection{T: t, Shape: idx, U: u, V: v, Material: mat})
		}
	}
	return xs
}

func sphereRoots(r geom.Ray) (t0, t1 geom.Real, ok bool) {
	toRay := geom.Vector(r.Origin.X, r.Origin.Y, r.Origin.Z)
	a := r.Direction.Dot(r.Direction)
	b := 2 * r.Direction.Dot(toRay)
	c := toRay.Dot(toRay) - 1
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(disc)
	t0 = (-b - sq) / (2 * a)
	t1 = (-b + sq) / (2 * a)
	return t0, t1, true
}

func cubeRoots(r geom.Ray) (tmin, tmax geom.Real, ok bool) {
	xmin, xmax := geom.CheckAxis(r.Origin.X, r.Direction.X, -1, 1)
	ymin, ymax := geom.CheckAxis(r.Origin.Y, r.Direction.Y, -1, 1)
	zmin, zmax := geom.CheckAxis(r.Origin.Z, r.Direction.Z, -1, 1)
	tmin = math.Max(xmin, math.Max(ymin, zmin))
	tmax = math.Min(xmax, math.Min(ymax, zmax))
	return tmin, tmax, tmin <= tmax
}

// checkCap tests whether the ray at t lies within radius of the y axis.
func checkCap(r geom.Ray, t, radius geom.Real) bool {
	x := r.Origin.X + t*r.Direction.X
	z := r.Origin.Z + t*r.Direction.Z
	return x*x+z*z <= radius*radius+eps
}

func intersectCylinder(s *Shape, idx int, r geom.Ray, mat int, xs Intersections) Intersections {
	a := r.Direction.X*r.Direction.X + r.Direction.Z*r.Direction.Z
	if math.Abs(a) >= eps {
		b := 2*r.Origin.X*r.Direction.X + 2*r.Origin.Z*r.Direction.Z
		c := r.Origin.X*r.Origin.X + r.Origin.Z*r.Origin.Z - 1
		disc := b*b - 4*a*c
		if disc < 0 {
			return xs
		}
		sq := math.Sqrt(disc)
		t0 := (-b - sq) / (2 * a)
		t1 := (-b + sq) / (2 * a)
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		for _, t := range [2]geom.Real{t0, t1} {
			y := r.Origin.Y + t*r.Direction.Y
			if s.Min < y && y < s.Max {
				xs = append(xs, Intersection{T: t, Shape: idx, Material: mat})
			}
		}
	}
	if !s.Closed || math.Abs(r.Direction.Y) < eps {
		return xs
	}
	if t := (s.Min - r.Origin.Y) / r.Direction.Y; checkCap(r, t, 1) {
		xs = append(xs, Intersection{T: t, Shape: idx, Material: mat})
	}
	if t := (s.Max - r.Origin.Y) / r.Direction.Y; checkCap(r, t, 1) {
		xs = append(xs, Intersection{T: t, Shape: idx, Material: mat})
	}
	return xs
}

func intersectCone(s *Shape, idx int, r geom.Ray, mat int, xs Intersections) Intersections {
	o, d := r.Origin, r.Direction
	a := d.X*d.X - d.Y*d.Y + d.Z*d.Z
	b := 2*o.X*d.X - 2*o.Y*d.Y + 2*o.Z*d.Z
	c := o.X*o.X - o.Y*o.Y + o.Z*o.Z
	inRange := func(t geom.Real) bool {
		y := o.Y + t*d.Y
		return s.Min < y && y < s.Max
	}
	switch {
	case math.Abs(a) < eps:
		if math.Abs(b) >= eps {
			if t := -c / (2 * b); inRange(t) {
				xs = append(xs, Intersection{T: t, Shape: idx, Material: mat})
			}
		}
	default:
		disc := b*b - 4*a*c
		if disc < 0 {
			break
		}
		sq := math.Sqrt(disc)
		t0 := (-b - sq) / (2 * a)
		t1 := (-b + sq) / (2 * a)
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if inRange(t0) {
			xs = append(xs, Intersection{T: t0, Shape: idx, Material: mat})
		}
		if inRange(t1) {
			xs = append(xs, Intersection{T: t1, Shape: idx, Material: mat})
		}
	}
	if !s.Closed || math.Abs(d.Y) < eps {
		return xs
	}
	if t := (s.Min - o.Y) / d.Y; checkCap(r, t, math.Abs(s.Min)) {
		xs = append(xs, Intersection{T: t, Shape: idx, Material: mat})
	}
	if t := (s.Max - o.Y) / d.Y; checkCap(r, t, math.Abs(s.Max)) {
		xs = append(xs, Intersection{T: t, Shape: idx, Material: mat})
	}
	return xs
}

// triangleRoot is Möller–Trumbore.
func triangleRoot(tri *Triangle, r geom.Ray) (t, u, v geom.Real, ok bool) {
	dirCrossE2 := r.Direction.Cross(tri.E2)
	det := tri.E1.Dot(dirCrossE2)
	if math.Abs(det) < eps {
		return 0, 0, 0, false
	}
	f := 1 / det
	p1ToOrigin := r.Origin.Sub(tri.P1)
	p1ToOrigin.W = 0
	u = f * p1ToOrigin.Dot(dirCrossE2)
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	originCrossE1 := p1ToOrigin.Cross(tri.E1)
	v = f * r.Direction.Dot(originCrossE1)
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	return f * tri.E2.Dot(originCrossE1), u, v, true
}

// localNormal is the object-space normal of a primitive at p.
func localNormal(st Store, s *Shape, p geom.Vector4, hit Intersection) geom.Vector4 {
	switch s.Kind {
	case KindSphere:
		return geom.Vector(p.X, p.Y, p.Z)
	case KindPlane:
		return geom.Vector(0, 1, 0)
	case KindCube:
		ax, ay, az := math.Abs(p.X), math.Abs(p.Y), math.Abs(p.Z)
		m := math.Max(ax, math.Max(ay, az))
		switch m {
		case ax:
			return geom.Vector(p.X, 0, 0)
		case ay:
			return geom.Vector(0, p.Y, 0)
		}
		return geom.Vector(0, 0, p.Z)
	case KindCylinder:
		dist := p.X*p.X + p.Z*p.Z
		if dist < 1 && p.Y >= s.Max-eps {
			return geom.Vector(0, 1, 0)
		}
		if dist < 1 && p.Y <= s.Min+eps {
			return geom.Vector(0, -1, 0)
		}
		return geom.Vector(p.X, 0, p.Z)
	case KindCone:
		dist := p.X*p.X + p.Z*p.Z
		if dist < s.Max*s.Max && p.Y >= s.Max-eps {
			return geom.Vector(0, 1, 0)
		}
		if dist < s.Min*s.Min && p.Y <= s.Min+eps {
			return geom.Vector(0, -1, 0)
		}
		y := math.Sqrt(dist)
		if p.Y > 0 {
			y = -y
		}
		return geom.Vector(p.X, y, p.Z)
	case KindTriangle:
		var tri Triangle
		st.Triangle(s.Tri, &tri)
		return tri.Normal
	case KindSmoothTriangle:
		var tri Triangle
		st.Triangle(s.Tri, &tri)
		n := tri.N2.Mul(hit.U).Add(tri.N3.Mul(hit.V)).Add(tri.N1.Mul(1 - hit.U - hit.V))
		n.W = 0
		return n.Norm()
	}
	panic("kernel: normal requested on composite shape " + s.Kind.String())
}
