package geom

import (
	"math"
	"testing"
)

func TestEqualTolerance(t *testing.T) {
	if !Equal(1, 1+Epsilon/2) {
		t.Fatal("values within epsilon should be equal")
	}
	if Equal(1, 1+2*Epsilon) {
		t.Fatal("values beyond epsilon should differ")
	}
	if !Equal(math.NaN(), math.NaN()) {
		t.Fatal("NaN must equal NaN")
	}
	if Equal(math.NaN(), 0) {
		t.Fatal("NaN must not equal a number")
	}
}

func TestPointAndVector(t *testing.T) {
	p := Point(4, -4, 3)
	v := Vector(4, -4, 3)
	if !p.IsPoint() || v.IsPoint() {
		t.Fatalf("w flags wrong: %+v %+v", p, v)
	}
	if got := p.Sub(p); got.W != 0 {
		t.Fatalf("point-point must be a vector: %+v", got)
	}
}

func TestCrossAndNorm(t *testing.T) {
	a, b := Vector(1, 2, 3), Vector(2, 3, 4)
	if got := a.Cross(b); !got.Equal(Vector(-1, 2, -1)) {
		t.Fatalf("a×b = %+v", got)
	}
	if got := b.Cross(a); !got.Equal(Vector(1, -2, 1)) {
		t.Fatalf("b×a = %+v", got)
	}
	n := Vector(1, 2, 3).Norm()
	if !Equal(n.Len(), 1) {
		t.Fatalf("norm length %v", n.Len())
	}
}

func TestReflect(t *testing.T) {
	v := Vector(0, -1, 0)
	n := Vector(math.Sqrt2/2, math.Sqrt2/2, 0)
	if got := Reflect(v, n); !got.Equal(Vector(1, 0, 0)) {
		t.Fatalf("reflect = %+v", got)
	}
}

func TestColorOps(t *testing.T) {
	a := Color{0.9, 0.6, 0.75}
	b := Color{0.7, 0.1, 0.25}
	if got := a.Add(b); !got.Equal(Color{1.6, 0.7, 1.0}) {
		t.Fatalf("add %+v", got)
	}
	if got := (Color{1, 0.2, 0.4}).Hadamard(Color{0.9, 1, 0.1}); !got.Equal(Color{0.9, 0.2, 0.04}) {
		t.Fatalf("hadamard %+v", got)
	}
	if got := (Color{-1, 0.5, 3}).Clamp01(); got != (Color{0, 0.5, 1}) {
		t.Fatalf("clamp %+v", got)
	}
}

func TestRayPositionAndTransform(t *testing.T) {
	r := NewRay(Point(2, 3, 4), Vector(1, 0, 0))
	if got := r.Position(-1); !got.Equal(Point(1, 3, 4)) {
		t.Fatalf("position %+v", got)
	}
	r2 := NewRay(Point(1, 2, 3), Vector(0, 1, 0)).Transform(Scaling(2, 3, 4))
	if !r2.Origin.Equal(Point(2, 6, 12)) || !r2.Direction.Equal(Vector(0, 3, 0)) {
		t.Fatalf("scaled ray %+v", r2)
	}
}

func TestAABBTransformAndContains(t *testing.T) {
	b := NewAABB(Point(-1, -1, -1), Point(1, 1, 1))
	tb := b.Transform(RotationX(math.Pi / 4).Mul(RotationY(math.Pi / 4)))
	want := NewAABB(Point(-1.41421, -1.70711, -1.70711), Point(1.41421, 1.70711, 1.70711))
	if !tb.Min.Equal(want.Min) || !tb.Max.Equal(want.Max) {
		t.Fatalf("rotated box %+v", tb)
	}
	if !tb.ContainsBox(b) {
		t.Fatal("rotated box should contain original")
	}
}

func TestAABBInfiniteTransform(t *testing.T) {
	inf := math.Inf(1)
	plane := NewAABB(Point(-inf, 0, -inf), Point(inf, 0, inf))
	tb := plane.Transform(RotationX(math.Pi / 2))
	if math.IsNaN(tb.Min.X) || math.IsNaN(tb.Max.Z) || !tb.IsInfinite() {
		t.Fatalf("infinite box became %+v", tb)
	}
}

func TestAABBSplit(t *testing.T) {
	b := NewAABB(Point(-1, -4, -5), Point(9, 6, 5))
	l, r, ok := b.Split()
	if !ok {
		t.Fatal("split failed")
	}
	if !l.Max.Equal(Point(4, 6, 5)) || !r.Min.Equal(Point(4, -4, -5)) {
		t.Fatalf("split x: %+v %+v", l, r)
	}
	inf := math.Inf(1)
	if _, _, ok := NewAABB(Point(-inf, 0, 0), Point(inf, 1, 1)).Split(); ok {
		t.Fatal("infinite box must not split")
	}
}

func TestAABBIntersects(t *testing.T) {
	b := NewAABB(Point(5, -2, 0), Point(11, 4, 7))
	cases := []struct {
		o, d Vector4
		want bool
	}{
		{Point(15, 1, 2), Vector(-1, 0, 0), true},
		{Point(-5, -1, 4), Vector(1, 0, 0), true},
		{Point(7, 6, 5), Vector(0, -1, 0), true},
		{Point(9, -5, 6), Vector(0, 1, 0), true},
		{Point(8, 2, 12), Vector(0, 0, -1), true},
		{Point(8, 1, 3.5), Vector(0, 0, 1), true},
		{Point(9, -1, -8), Vector(2, 4, 6), false},
		{Point(12, 5, 4), Vector(-1, 0, 0), false},
		{Point(8, 3, -4), Vector(0, 0, 1), true},
		{Point(0, 5, 4), Vector(0, 0, 1), false},
	}
	for i, c := range cases {
		if got := b.Intersects(NewRay(c.o, c.d.Norm())); got != c.want {
			t.Errorf("case %d: got %v want %v", i, got, c.want)
		}
	}
}

func TestCheckAxisParallel(t *testing.T) {
	tmin, tmax := CheckAxis(0, 0, -1, 1)
	if !math.IsInf(tmin, -1) || !math.IsInf(tmax, 1) {
		t.Fatalf("inside parallel slab: %v %v", tmin, tmax)
	}
	tmin, tmax = CheckAxis(2, 0, -1, 1)
	if !math.IsInf(tmin, -1) || !math.IsInf(tmax, -1) {
		t.Fatalf("outside parallel slab: %v %v", tmin, tmax)
	}
}

func TestBoundingSphere(t *testing.T) {
	c, r := NewAABB(Point(-1, -1, -1), Point(1, 1, 1)).BoundingSphere()
	if !c.Equal(Point(0, 0, 0)) || !Equal(r, math.Sqrt(3)) {
		t.Fatalf("sphere %+v %v", c, r)
	}
}
