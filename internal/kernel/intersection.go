package kernel

import (
	"slices"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// Intersection is one ray/primitive hit. U and V are barycentric
// coordinates for triangles; Material is the material in effect.
type Intersection struct {
	T        geom.Real
	Shape    int
	U, V     geom.Real
	Material int
}

type Intersections []Intersection

// Sort orders by t ascending, keeping insertion order on ties.
func (xs Intersections) Sort() {
	slices.SortStableFunc(xs, func(a, b Intersection) int {
		switch {
		case a.T < b.T:
			return -1
		case a.T > b.T:
			return 1
		}
		return 0
	})
}

// Hit returns the intersection with the smallest non-negative t.
func (xs Intersections) Hit() (Intersection, bool) {
	best, found := Intersection{}, false
	for _, x := range xs {
		if x.T >= 0 && (!found || x.T < best.T) {
			best, found = x, true
		}
	}
	return best, found
}

// HitSorted returns the first non-negative t; xs must already be sorted.
func (xs Intersections) HitSorted() (Intersection, bool) {
	for _, x := range xs {
		if x.T >= 0 {
			return x, true
		}
	}
	return Intersection{}, false
}
