package kernel

import (
	"math"
	"testing"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

func p3(x, y, z geom.Real) geom.Vector4 { return geom.Point(x, y, z) }
func v3(x, y, z geom.Real) geom.Vector4 { return geom.Vector(x, y, z) }

func almostEq(a, b, tol geom.Real) bool { return math.Abs(a-b) <= tol }

func colorNear(t *testing.T, got, want geom.Color, tol geom.Real) {
	t.Helper()
	if !almostEq(got.R, want.R, tol) || !almostEq(got.G, want.G, tol) || !almostEq(got.B, want.B, tol) {
		t.Fatalf("color = %+v, want %+v", got, want)
	}
}

func vecNear(t *testing.T, got, want geom.Vector4, tol geom.Real) {
	t.Helper()
	if !almostEq(got.X, want.X, tol) || !almostEq(got.Y, want.Y, tol) || !almostEq(got.Z, want.Z, tol) || !almostEq(got.W, want.W, tol) {
		t.Fatalf("vector = %+v, want %+v", got, want)
	}
}

func ts(xs Intersections) []geom.Real {
	out := make([]geom.Real, len(xs))
	for i, x := range xs {
		out[i] = x.T
	}
	return out
}

func wantTs(t *testing.T, xs Intersections, want ...geom.Real) {
	t.Helper()
	if len(xs) != len(want) {
		t.Fatalf("got %d intersections %v, want %v", len(xs), ts(xs), want)
	}
	for i := range want {
		if !almostEq(xs[i].T, want[i], 1e-4) {
			t.Fatalf("t[%d] = %.6f, want %.6f (all %v)", i, xs[i].T, want[i], ts(xs))
		}
	}
}

// single builds a world holding one root shape.
func single(s Shape) (*World, int) {
	w := NewWorld()
	i := w.Add(s)
	return w, i
}
