package kernel

import (
	"math"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// Lighting is Phong shading of one light. color is the surface colour at
// point (material colour or pattern), samples are the light positions and
// intensity is the visible fraction of the light in [0,1]. Diffuse and
// specular terms are averaged over samples; ambient is always applied.
func Lighting(m *Material, color geom.Color, l *Light, samples []geom.Vector4, point, eyev, normalv geom.Vector4, intensity geom.Real) geom.Color {
	effective := color.Hadamard(l.Intensity)
	ambient := effective.Mul(m.Ambient)
	if intensity == 0 || len(samples) == 0 {
		return ambient
	}
	sum := geom.Black
	for _, pos := range samples {
		lightv := pos.Sub(point).Norm()
		ldn := lightv.Dot(normalv)
		if ldn < 0 {
			continue
		}
		sum = sum.Add(effective.Mul(m.Diffuse * ldn))
		reflectv := geom.Reflect(lightv.Neg(), normalv)
		if rde := reflectv.Dot(eyev); rde > 0 {
			sum = sum.Add(l.Intensity.Mul(m.Specular * math.Pow(rde, m.Shininess)))
		}
	}
	return ambient.Add(sum.Mul(intensity / geom.Real(len(samples))))
}
