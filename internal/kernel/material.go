package kernel

import "github.com/lukaszgryglicki/raytracer/internal/geom"

// Material holds Phong coefficients plus reflection/refraction data.
// Pattern is a pattern index or -1 for the flat Color.
type Material struct {
	Color           geom.Color
	Pattern         int
	Ambient         geom.Real
	Diffuse         geom.Real
	Specular        geom.Real
	Shininess       geom.Real
	Reflective      geom.Real
	Transparency    geom.Real
	RefractiveIndex geom.Real
}

const (
	DefaultAmbient         = 0.1
	DefaultDiffuse         = 0.9
	DefaultSpecular        = 0.9
	DefaultShininess       = 200.0
	DefaultRefractiveIndex = 1.0
)

func DefaultMaterial() Material {
	return Material{
		Color:           geom.White,
		Pattern:         -1,
		Ambient:         DefaultAmbient,
		Diffuse:         DefaultDiffuse,
		Specular:        DefaultSpecular,
		Shininess:       DefaultShininess,
		RefractiveIndex: DefaultRefractiveIndex,
	}
}

// GlassMaterial is the default material made fully transparent with
// refractive index 1.5.
func GlassMaterial() Material {
	m := DefaultMaterial()
	m.Transparency = 1
	m.RefractiveIndex = 1.5
	return m
}

// surfaceColor is the material colour at a world point of shape idx.
func surfaceColor(st Store, m *Material, idx int, worldPoint geom.Vector4) geom.Color {
	if m.Pattern < 0 {
		return m.Color
	}
	return PatternAt(st, m.Pattern, WorldToObject(st, idx, worldPoint))
}
