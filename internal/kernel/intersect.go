package kernel

import (
	"math"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// sphereMiss is the cheap pre-test: false means the ray may hit shape i.
// r is in the shape's parent space.
func sphereMiss(st Store, i int, r geom.Ray) bool {
	c, rad := st.BoundingSphere(i)
	if math.IsInf(rad, 1) {
		return false
	}
	oc := r.Origin.Sub(c)
	oc.W = 0
	a := r.Direction.Dot(r.Direction)
	b := 2 * r.Direction.Dot(oc)
	cc := oc.Dot(oc) - rad*rad
	return b*b-4*a*cc < 0
}

func effectiveMaterial(own, inherited int) int {
	if own >= 0 {
		return own
	}
	return inherited
}

// Intersect appends the intersections of shape idx with r (given in the
// shape's parent space) to xs. inherited is the material of the closest
// ancestor that sets one. The result is unsorted.
func Intersect(st Store, idx int, r geom.Ray, inherited int, xs Intersections) Intersections {
	var s Shape
	st.Shape(idx, &s)
	mat := effectiveMaterial(s.Material, inherited)
	local := r.Transform(s.Inverse)
	switch s.Kind {
	case KindGroup:
		if !s.Bounds.Intersects(local) {
			return xs
		}
		if s.BVH >= 0 {
			return intersectNode(st, &s, s.BVH, local, mat, xs)
		}
		return intersectChildren(st, &s, 0, s.NumChildren(), local, mat, xs)
	case KindCSG:
		return intersectCSG(st, &s, local, mat, xs)
	}
	return localIntersect(st, &s, idx, local, mat, xs)
}

func intersectChildren(st Store, s *Shape, start, end int, r geom.Ray, mat int, xs Intersections) Intersections {
	for k := start; k < end; k++ {
		c := s.Child(k)
		if sphereMiss(st, c, r) {
			continue
		}
		xs = Intersect(st, c, r, mat, xs)
	}
	return xs
}

func intersectNode(st Store, s *Shape, ni int, r geom.Ray, mat int, xs Intersections) Intersections {
	var n Node
	st.Node(ni, &n)
	if !n.Bounds.Intersects(r) {
		return xs
	}
	if n.Leaf() {
		return intersectChildren(st, s, n.Start, n.End, r, mat, xs)
	}
	for _, c := range n.Children[:n.NumChildren] {
		xs = intersectNode(st, s, c, r, mat, xs)
	}
	return xs
}

// Intersects returns every intersection of shape idx with r, sorted by t.
func Intersects(st Store, idx int, r geom.Ray) Intersections {
	xs := Intersect(st, idx, r, 0, nil)
	xs.Sort()
	return xs
}

// Hits reports whether shape idx is hit at some 0 <= t < maxDistance.
// Shapes flagged NoShadow never hit.
func Hits(st Store, idx int, r geom.Ray, maxDistance geom.Real) bool {
	var s Shape
	st.Shape(idx, &s)
	if s.NoShadow {
		return false
	}
	local := r.Transform(s.Inverse)
	switch s.Kind {
	case KindGroup:
		if !s.Bounds.Intersects(local) {
			return false
		}
		if s.BVH >= 0 {
			return hitsNode(st, &s, s.BVH, local, maxDistance)
		}
		return hitsChildren(st, &s, 0, s.NumChildren(), local, maxDistance)
	case KindCSG:
		return anyWithin(intersectCSG(st, &s, local, 0, nil), maxDistance)
	}
	var buf [4]Intersection
	return anyWithin(localIntersect(st, &s, idx, local, 0, buf[:0]), maxDistance)
}

func anyWithin(xs Intersections, maxDistance geom.Real) bool {
	for _, x := range xs {
		if x.T >= 0 && x.T < maxDistance {
			return true
		}
	}
	return false
}

func hitsChildren(st Store, s *Shape, start, end int, r geom.Ray, maxDistance geom.Real) bool {
	for k := start; k < end; k++ {
		c := s.Child(k)
		if sphereMiss(st, c, r) {
			continue
		}
		if Hits(st, c, r, maxDistance) {
			return true
		}
	}
	return false
}

func hitsNode(st Store, s *Shape, ni int, r geom.Ray, maxDistance geom.Real) bool {
	var n Node
	st.Node(ni, &n)
	if !n.Bounds.Intersects(r) {
		return false
	}
	if n.Leaf() {
		return hitsChildren(st, s, n.Start, n.End, r, maxDistance)
	}
	for _, c := range n.Children[:n.NumChildren] {
		if hitsNode(st, s, c, r, maxDistance) {
			return true
		}
	}
	return false
}

// WorldToObject maps a world point into the object space of shape idx,
// applying ancestors' inverses outermost first.
func WorldToObject(st Store, idx int, p geom.Vector4) geom.Vector4 {
	var s Shape
	st.Shape(idx, &s)
	if s.Parent >= 0 {
		p = WorldToObject(st, s.Parent, p)
	}
	return s.Inverse.MulVec(p)
}

// NormalToWorld maps an object-space normal of shape idx back to world space.
func NormalToWorld(st Store, idx int, n geom.Vector4) geom.Vector4 {
	var s Shape
	st.Shape(idx, &s)
	n = s.InverseTranspose.MulVec(n)
	n.W = 0
	n = n.Norm()
	if s.Parent >= 0 {
		n = NormalToWorld(st, s.Parent, n)
	}
	return n
}

// NormalAt is the world-space surface normal of primitive idx at p.
// It panics for groups and CSG nodes.
func NormalAt(st Store, idx int, p geom.Vector4, hit Intersection) geom.Vector4 {
	var s Shape
	st.Shape(idx, &s)
	if s.Kind.Composite() {
		panic("kernel: normal requested on composite shape " + s.Kind.String())
	}
	local := WorldToObject(st, idx, p)
	return NormalToWorld(st, idx, localNormal(st, &s, local, hit))
}
