package kernel

import (
	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// Op is a CSG boolean operation.
type Op int32

const (
	OpUnion Op = iota
	OpIntersection
	OpDifference
)

func (o Op) String() string {
	switch o {
	case OpUnion:
		return "union"
	case OpIntersection:
		return "intersection"
	case OpDifference:
		return "difference"
	}
	return "unknown"
}

// ValidIntersection decides whether a hit on the left (leftHit) or right
// operand survives op, given whether the ray is currently inside each operand.
func ValidIntersection(op Op, leftHit, inLeft, inRight bool) bool {
	switch op {
	case OpUnion:
		return (leftHit && !inRight) || (!leftHit && !inLeft)
	case OpIntersection:
		return (leftHit && inRight) || (!leftHit && inLeft)
	case OpDifference:
		return (leftHit && !inRight) || (!leftHit && inLeft)
	}
	return false
}

// includes reports whether shape is operand or one of its descendants.
func includes(st Store, operand, shape int) bool {
	for cur := shape; cur >= 0; cur = st.Parent(cur) {
		if cur == operand {
			return true
		}
	}
	return false
}

// FilterCSG keeps the intersections of sorted xs that lie on the surface
// of the combined solid.
func FilterCSG(st Store, op Op, left int, xs Intersections) Intersections {
	out := xs[:0]
	inLeft, inRight := false, false
	for _, x := range xs {
		leftHit := includes(st, left, x.Shape)
		if ValidIntersection(op, leftHit, inLeft, inRight) {
			out = append(out, x)
		}
		if leftHit {
			inLeft = !inLeft
		} else {
			inRight = !inRight
		}
	}
	return out
}

func intersectCSG(st Store, s *Shape, r geom.Ray, mat int, xs Intersections) Intersections {
	if !s.Bounds.Intersects(r) {
		return xs
	}
	var both Intersections
	both = Intersect(st, s.Left, r, mat, both)
	both = Intersect(st, s.Right, r, mat, both)
	both.Sort()
	return append(xs, FilterCSG(st, s.Op, s.Left, both)...)
}
