package geom

// Color stores linear RGB; channels are not clamped during shading.
type Color struct {
	R, G, B Real
}

var (
	Black = Color{0, 0, 0}
	White = Color{1, 1, 1}
)

func (a Color) Add(b Color) Color      { return Color{a.R + b.R, a.G + b.G, a.B + b.B} }
func (a Color) Sub(b Color) Color      { return Color{a.R - b.R, a.G - b.G, a.B - b.B} }
func (c Color) Mul(s Real) Color       { return Color{c.R * s, c.G * s, c.B * s} }
func (a Color) Hadamard(b Color) Color { return Color{a.R * b.R, a.G * b.G, a.B * b.B} }

// Equal compares channels with Equal.
func (a Color) Equal(b Color) bool {
	return Equal(a.R, b.R) && Equal(a.G, b.G) && Equal(a.B, b.B)
}

// Clamp01 clamps each channel to [0,1].
func (c Color) Clamp01() Color {
	cl := func(x Real) Real {
		if x < 0 {
			return 0
		}
		if x > 1 {
			return 1
		}
		return x
	}
	return Color{cl(c.R), cl(c.G), cl(c.B)}
}
