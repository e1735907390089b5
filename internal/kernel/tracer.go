package kernel

import (
	"math"
	"math/rand"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// minContribution stops recursion into weak reflection/refraction.
const minContribution = 0.001

// Tracer is the shading evaluator of one worker. It owns its RNG and ray
// statistics and must not be shared between goroutines.
type Tracer struct {
	Store    Store
	MaxDepth int
	Rand     *rand.Rand
	Stats    RayStats
}

func NewTracer(st Store, maxDepth int, seed int64) *Tracer {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Tracer{Store: st, MaxDepth: maxDepth, Rand: rand.New(rand.NewSource(seed))}
}

// IntersectWorld intersects every root shape with r and sorts the result.
func (t *Tracer) IntersectWorld(r geom.Ray) Intersections {
	var xs Intersections
	for k, n := 0, t.Store.NumRoots(); k < n; k++ {
		root := t.Store.Root(k)
		if sphereMiss(t.Store, root, r) {
			continue
		}
		xs = Intersect(t.Store, root, r, 0, xs)
	}
	xs.Sort()
	return xs
}

// IsShadowed reports whether anything lies between point and lightPos.
func (t *Tracer) IsShadowed(point, lightPos geom.Vector4) bool {
	v := lightPos.Sub(point)
	dist := v.Len()
	r := geom.NewRay(point, v.Norm())
	for k, n := 0, t.Store.NumRoots(); k < n; k++ {
		root := t.Store.Root(k)
		if sphereMiss(t.Store, root, r) {
			continue
		}
		if Hits(t.Store, root, r, dist) {
			t.Stats.Add(Shadow)
			return true
		}
	}
	return false
}

// IntensityAt is the visible fraction of light l from point.
func (t *Tracer) IntensityAt(l *Light, samples []geom.Vector4, point geom.Vector4) geom.Real {
	return AdaptiveAverage(len(samples), l.Sensitivity, func(k int) bool {
		return !t.IsShadowed(point, samples[k])
	})
}

// ColorAt traces r with remaining bounces left.
func (t *Tracer) ColorAt(r geom.Ray, remaining int) geom.Color {
	xs := t.IntersectWorld(r)
	hit, ok := xs.HitSorted()
	if !ok {
		t.Stats.Add(Miss)
		return geom.Black
	}
	t.Stats.Add(Hit)
	comps := PrepareComputations(t.Store, hit, r, xs)
	return t.ShadeHit(&comps, remaining)
}

// ShadeHit sums the lights at the hit plus reflected and refracted colour,
// blended with Schlick when the material both reflects and transmits.
func (t *Tracer) ShadeHit(c *Computations, remaining int) geom.Color {
	var m Material
	t.Store.Material(c.Material, &m)
	color := surfaceColor(t.Store, &m, c.Shape, c.OverPoint)
	surface := geom.Black
	var l Light
	for i, n := 0, t.Store.NumLights(); i < n; i++ {
		t.Store.Light(i, &l)
		samples := l.Samples(t.Rand)
		intensity := t.IntensityAt(&l, samples, c.OverPoint)
		surface = surface.Add(Lighting(&m, color, &l, samples, c.OverPoint, c.EyeV, c.NormalV, intensity))
	}
	reflected := t.ReflectedColor(c, &m, remaining)
	refracted := t.RefractedColor(c, &m, remaining)
	if m.Reflective > 0 && m.Transparency > 0 {
		reflectance := Schlick(c)
		return surface.Add(reflected.Mul(reflectance)).Add(refracted.Mul(1 - reflectance))
	}
	return surface.Add(reflected).Add(refracted)
}

func (t *Tracer) ReflectedColor(c *Computations, m *Material, remaining int) geom.Color {
	if m.Reflective < minContribution {
		return geom.Black
	}
	if remaining <= 0 {
		t.Stats.Add(RecursionLimit)
		return geom.Black
	}
	t.Stats.Add(Reflect)
	r := geom.NewRay(c.OverPoint, c.ReflectV)
	return t.ColorAt(r, remaining-1).Mul(m.Reflective)
}

func (t *Tracer) RefractedColor(c *Computations, m *Material, remaining int) geom.Color {
	if m.Transparency < minContribution {
		return geom.Black
	}
	if remaining <= 0 {
		t.Stats.Add(RecursionLimit)
		return geom.Black
	}
	nRatio := c.N1 / c.N2
	cosI := c.EyeV.Dot(c.NormalV)
	sin2t := nRatio * nRatio * (1 - cosI*cosI)
	if sin2t > 1 {
		t.Stats.Add(TIR)
		return geom.Black
	}
	t.Stats.Add(Refract)
	cosT := math.Sqrt(1 - sin2t)
	dir := c.NormalV.Mul(nRatio*cosI - cosT).Sub(c.EyeV.Mul(nRatio))
	r := geom.NewRay(c.UnderPoint, dir)
	return t.ColorAt(r, remaining-1).Mul(m.Transparency)
}

// RenderPixel averages the camera rays of pixel (x,y).
func (t *Tracer) RenderPixel(cam *Camera, x, y int) geom.Color {
	rays := cam.RaysForPixel(x, y, t.Rand)
	sum := geom.Black
	for _, r := range rays {
		sum = sum.Add(t.ColorAt(r, t.MaxDepth))
	}
	return sum.Mul(1 / geom.Real(len(rays)))
}
