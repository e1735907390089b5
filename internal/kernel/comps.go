package kernel

import (
	"math"
	"slices"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// Computations is the shading bundle derived from a hit.
type Computations struct {
	T          geom.Real
	Shape      int
	Material   int
	Hit        Intersection
	Point      geom.Vector4
	EyeV       geom.Vector4
	NormalV    geom.Vector4
	ReflectV   geom.Vector4
	OverPoint  geom.Vector4
	UnderPoint geom.Vector4
	Inside     bool
	N1, N2     geom.Real
}

func refractiveIndex(st Store, mat int) geom.Real {
	var m Material
	st.Material(mat, &m)
	return m.RefractiveIndex
}

// PrepareComputations fills the bundle for hit on ray r. xs is the sorted
// list hit came from and drives the n1/n2 containers walk.
func PrepareComputations(st Store, hit Intersection, r geom.Ray, xs Intersections) Computations {
	c := Computations{T: hit.T, Shape: hit.Shape, Material: hit.Material, Hit: hit}
	c.Point = r.Position(hit.T)
	c.EyeV = r.Direction.Neg()
	c.NormalV = NormalAt(st, hit.Shape, c.Point, hit)
	if c.NormalV.Dot(c.EyeV) < 0 {
		c.Inside = true
		c.NormalV = c.NormalV.Neg()
	}
	c.ReflectV = geom.Reflect(r.Direction, c.NormalV)
	c.OverPoint = c.Point.Add(c.NormalV.Mul(eps))
	c.UnderPoint = c.Point.Sub(c.NormalV.Mul(eps))

	c.N1, c.N2 = 1, 1
	var containers []Intersection
	for _, x := range xs {
		if x == hit && len(containers) > 0 {
			c.N1 = refractiveIndex(st, containers[len(containers)-1].Material)
		}
		if k := slices.IndexFunc(containers, func(y Intersection) bool { return y.Shape == x.Shape }); k >= 0 {
			containers = slices.Delete(containers, k, k+1)
		} else {
			containers = append(containers, x)
		}
		if x == hit {
			if len(containers) > 0 {
				c.N2 = refractiveIndex(st, containers[len(containers)-1].Material)
			}
			break
		}
	}
	return c
}

// Schlick approximates Fresnel reflectance at the hit.
func Schlick(c *Computations) geom.Real {
	cos := c.EyeV.Dot(c.NormalV)
	if c.N1 > c.N2 {
		n := c.N1 / c.N2
		sin2t := n * n * (1 - cos*cos)
		if sin2t > 1 {
			return 1
		}
		cos = math.Sqrt(1 - sin2t)
	}
	r0 := (c.N1 - c.N2) / (c.N1 + c.N2)
	r0 *= r0
	return r0 + (1-r0)*math.Pow(1-cos, 5)
}
