package kernel

import (
	"math"
	"math/rand"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

type LightKind int32

const (
	LightPoint LightKind = iota
	LightArea
)

// Light is a point light or a rectangular area light. For an area light
// Position is the corner and UVec/VVec are the size of one cell.
type Light struct {
	Kind        LightKind
	Position    geom.Vector4
	UVec, VVec  geom.Vector4
	USteps      int
	VSteps      int
	Intensity   geom.Color
	MaxSamples  int
	Sensitivity geom.Real
	Jitter      bool
}

func NewPointLight(pos geom.Vector4, intensity geom.Color) Light {
	return Light{Kind: LightPoint, Position: pos, USteps: 1, VSteps: 1, Intensity: intensity}
}

// NewAreaLight spans full edges u and v from corner, split into usteps×vsteps cells.
func NewAreaLight(corner, u geom.Vector4, usteps int, v geom.Vector4, vsteps int, intensity geom.Color) Light {
	usteps, vsteps = max(usteps, 1), max(vsteps, 1)
	return Light{
		Kind:      LightArea,
		Position:  corner,
		UVec:      u.Mul(1 / geom.Real(usteps)),
		VVec:      v.Mul(1 / geom.Real(vsteps)),
		USteps:    usteps,
		VSteps:    vsteps,
		Intensity: intensity,
	}
}

// Cells is the number of sample cells.
func (l *Light) Cells() int {
	if l.Kind == LightPoint {
		return 1
	}
	return l.USteps * l.VSteps
}

// Center is the middle of the light.
func (l *Light) Center() geom.Vector4 {
	if l.Kind == LightPoint {
		return l.Position
	}
	return l.Position.Add(l.UVec.Mul(geom.Real(l.USteps) / 2)).Add(l.VVec.Mul(geom.Real(l.VSteps) / 2))
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// sampleStride is a step coprime to n near n/phi, so consecutive samples
// land far apart on the grid.
func sampleStride(n int) int {
	if n <= 2 {
		return 1
	}
	p := int(math.Round(float64(n) / math.Phi))
	for gcd(p, n) != 1 {
		p++
	}
	return p
}

// PassSize is the number of samples evaluated between convergence checks.
func PassSize(n int) int {
	return max(1, int(math.Sqrt(float64(n))))
}

// Samples returns the sample positions in evaluation order, capped at
// MaxSamples when set. Jittered lights draw offsets from rng; a nil rng
// samples cell centres.
func (l *Light) Samples(rng *rand.Rand) []geom.Vector4 {
	if l.Kind == LightPoint {
		return []geom.Vector4{l.Position}
	}
	n := l.Cells()
	count := n
	if l.MaxSamples > 0 && l.MaxSamples < n {
		count = l.MaxSamples
	}
	stride := sampleStride(n)
	out := make([]geom.Vector4, count)
	for k := range out {
		c := (k * stride) % n
		u, v := c%l.USteps, c/l.USteps
		ju, jv := 0.5, 0.5
		if l.Jitter && rng != nil {
			ju, jv = rng.Float64(), rng.Float64()
		}
		out[k] = l.Position.Add(l.UVec.Mul(geom.Real(u) + ju)).Add(l.VVec.Mul(geom.Real(v) + jv))
	}
	return out
}

// AdaptiveAverage averages visible(k) over n samples in passes of
// PassSize(n), stopping once the running average moves by less than
// sensitivity between two passes. The result is in [0,1].
func AdaptiveAverage(n int, sensitivity geom.Real, visible func(k int) bool) geom.Real {
	if n == 0 {
		return 0
	}
	pass := PassSize(n)
	lit, count := 0, 0
	prev := geom.Real(-1)
	for start := 0; start < n; start += pass {
		for k := start; k < min(start+pass, n); k++ {
			if visible(k) {
				lit++
			}
			count++
		}
		avg := geom.Real(lit) / geom.Real(count)
		if prev >= 0 && math.Abs(avg-prev) < sensitivity {
			return avg
		}
		prev = avg
	}
	return geom.Real(lit) / geom.Real(count)
}
