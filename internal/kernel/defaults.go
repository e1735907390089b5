package kernel

import "github.com/lukaszgryglicki/raytracer/internal/geom"

// NewDefaultWorld is the two-sphere reference scene: a white point light
// at (-10,10,-10), a green-ish unit sphere and a white sphere scaled by 0.5
// inside it.
func NewDefaultWorld() *World {
	w := NewWorld()
	w.AddLight(NewPointLight(geom.Point(-10, 10, -10), geom.White))

	m := DefaultMaterial()
	m.Color = geom.Color{R: 0.8, G: 1.0, B: 0.6}
	m.Diffuse = 0.7
	m.Specular = 0.2
	s1 := w.Add(NewSphere())
	w.SetMaterial(s1, w.AddMaterial(m))

	s2 := w.Add(NewSphere())
	w.SetTransform(s2, geom.Scaling(0.5, 0.5, 0.5))
	w.Prepare()
	return w
}
