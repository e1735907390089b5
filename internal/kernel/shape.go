package kernel

import (
	"math"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// Kind is the shape variant tag; values match the flat encoding.
type Kind int32

const (
	KindSphere Kind = iota
	KindPlane
	KindCube
	KindCylinder
	KindCone
	KindTriangle
	KindSmoothTriangle
	KindGroup
	KindCSG
)

var kindNames = [...]string{"sphere", "plane", "cube", "cylinder", "cone", "triangle", "smooth-triangle", "group", "csg"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Composite reports groups and CSG nodes.
func (k Kind) Composite() bool { return k == KindGroup || k == KindCSG }

// Shape is one record of the shape arena. Cross references are indices:
// -1 means "none" (no parent, inherit material, no BVH, ...).
type Shape struct {
	Kind             Kind
	Transform        geom.Mat4
	Inverse          geom.Mat4
	InverseTranspose geom.Mat4
	Material         int
	Parent           int
	// Bounds is the local-space box.
	Bounds geom.AABB

	// cylinder / cone
	Min, Max geom.Real
	Closed   bool

	// NoShadow excludes the shape (and its subtree) from shadow rays.
	NoShadow bool

	// CSG operands
	Op          Op
	Left, Right int

	// Group children: Children in the object model, a contiguous
	// [ChildStart, ChildStart+ChildCount) range when decoded from buffers.
	Children   []int
	ChildStart int
	ChildCount int
	BVH        int

	// triangle record index
	Tri int
}

func newShape(kind Kind) Shape {
	return Shape{
		Kind:             kind,
		Transform:        geom.I4(),
		Inverse:          geom.I4(),
		InverseTranspose: geom.I4(),
		Material:         -1,
		Parent:           -1,
		Min:              math.Inf(-1),
		Max:              math.Inf(1),
		Left:             -1,
		Right:            -1,
		BVH:              -1,
		Tri:              -1,
	}
}

func NewSphere() Shape { return newShape(KindSphere) }
func NewPlane() Shape  { return newShape(KindPlane) }
func NewCube() Shape   { return newShape(KindCube) }

// NewCylinder returns a unit-radius cylinder between min and max on Y.
func NewCylinder(min, max geom.Real, closed bool) Shape {
	s := newShape(KindCylinder)
	s.Min, s.Max, s.Closed = min, max, closed
	return s
}

// NewCone returns a double-napped cone truncated to [min,max] on Y.
func NewCone(min, max geom.Real, closed bool) Shape {
	s := newShape(KindCone)
	s.Min, s.Max, s.Closed = min, max, closed
	return s
}

func NewGroup() Shape { return newShape(KindGroup) }

// SetTransform replaces the transform and refreshes both cached inverses.
func (s *Shape) SetTransform(m geom.Mat4) {
	s.Transform = m
	s.Inverse = m.Inverse()
	s.InverseTranspose = s.Inverse.Transpose()
}

// NumChildren is the number of direct group children.
func (s *Shape) NumChildren() int {
	if s.Children != nil {
		return len(s.Children)
	}
	return s.ChildCount
}

// Child returns the arena index of child k.
func (s *Shape) Child(k int) int {
	if s.Children != nil {
		return s.Children[k]
	}
	return s.ChildStart + k
}

// Triangle holds the vertex data of a (smooth) triangle.
type Triangle struct {
	P1, P2, P3 geom.Vector4
	E1, E2     geom.Vector4
	Normal     geom.Vector4
	N1, N2, N3 geom.Vector4
}

// NewTriangle precomputes edges and the face normal.
func NewTriangle(p1, p2, p3 geom.Vector4) Triangle {
	e1 := p2.Sub(p1)
	e2 := p3.Sub(p1)
	n := e2.Cross(e1).Norm()
	return Triangle{P1: p1, P2: p2, P3: p3, E1: e1, E2: e2, Normal: n, N1: n, N2: n, N3: n}
}

// NewSmoothTriangle is NewTriangle with per-vertex normals.
func NewSmoothTriangle(p1, p2, p3, n1, n2, n3 geom.Vector4) Triangle {
	t := NewTriangle(p1, p2, p3)
	t.N1, t.N2, t.N3 = n1, n2, n3
	return t
}

func (t Triangle) bounds() geom.AABB {
	return geom.EmptyAABB().AddPoint(t.P1).AddPoint(t.P2).AddPoint(t.P3)
}
