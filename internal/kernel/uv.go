package kernel

import (
	"math"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

func posMod(x, m geom.Real) geom.Real {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// UVMap projects p with mapping m. MapCube picks the face first.
func UVMap(m Mapping, p geom.Vector4) (u, v geom.Real) {
	switch m {
	case MapPlanar:
		return posMod(p.X, 1), posMod(p.Z, 1)
	case MapCylindrical:
		theta := math.Atan2(p.X, p.Z)
		u = 1 - (theta/(2*math.Pi) + 0.5)
		return u, posMod(p.Y, 1)
	case MapCube:
		return CubeFaceUV(CubeFace(p), p)
	}
	theta := math.Atan2(p.X, p.Z)
	radius := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
	if radius == 0 {
		return 0.5, 0.5
	}
	phi := math.Acos(p.Y / radius)
	u = 1 - (theta/(2*math.Pi) + 0.5)
	v = 1 - phi/math.Pi
	return u, v
}

// CubeFace returns the face of the unit cube p projects onto.
func CubeFace(p geom.Vector4) int {
	coord := math.Max(math.Abs(p.X), math.Max(math.Abs(p.Y), math.Abs(p.Z)))
	switch coord {
	case p.X:
		return FaceRight
	case -p.X:
		return FaceLeft
	case p.Y:
		return FaceUp
	case -p.Y:
		return FaceDown
	case p.Z:
		return FaceFront
	}
	return FaceBack
}

// CubeFaceUV maps p onto the (u,v) square of face.
func CubeFaceUV(face int, p geom.Vector4) (u, v geom.Real) {
	switch face {
	case FaceFront:
		return posMod(p.X+1, 2) / 2, posMod(p.Y+1, 2) / 2
	case FaceBack:
		return posMod(1-p.X, 2) / 2, posMod(p.Y+1, 2) / 2
	case FaceLeft:
		return posMod(p.Z+1, 2) / 2, posMod(p.Y+1, 2) / 2
	case FaceRight:
		return posMod(1-p.Z, 2) / 2, posMod(p.Y+1, 2) / 2
	case FaceUp:
		return posMod(p.X+1, 2) / 2, posMod(1-p.Z, 2) / 2
	}
	return posMod(p.X+1, 2) / 2, posMod(p.Z+1, 2) / 2
}

// UVPatternAt evaluates UV pattern pi at (u,v). Non-UV patterns are
// sampled on the y=0 plane.
func UVPatternAt(st Store, pi int, u, v geom.Real) geom.Color {
	if pi < 0 {
		return geom.Black
	}
	var p Pattern
	st.Pattern(pi, &p)
	switch p.Kind {
	case PatternUVCheckers, PatternUVAlignCheck, PatternUVImage:
		return uvColor(st, &p, u, v)
	}
	return PatternAt(st, pi, geom.Point(u, 0, v))
}

func uvColor(st Store, p *Pattern, u, v geom.Real) geom.Color {
	switch p.Kind {
	case PatternUVCheckers:
		s := math.Floor(u*p.Width) + math.Floor(v*p.Height)
		if int64(s)%2 == 0 {
			return p.Colors[0]
		}
		return p.Colors[1]
	case PatternUVAlignCheck:
		switch {
		case v > 0.8 && u < 0.2:
			return p.Colors[1]
		case v > 0.8 && u > 0.8:
			return p.Colors[2]
		case v < 0.2 && u < 0.2:
			return p.Colors[3]
		case v < 0.2 && u > 0.8:
			return p.Colors[4]
		}
		return p.Colors[0]
	case PatternUVImage:
		if p.Texture < 0 {
			return geom.Black
		}
		w, h := st.TextureSize(p.Texture)
		if w == 0 || h == 0 {
			return geom.Black
		}
		x := math.Round(u * geom.Real(w-1))
		y := math.Round((1 - v) * geom.Real(h-1))
		return st.Texel(p.Texture, int(x), int(y))
	}
	return p.Colors[0]
}
