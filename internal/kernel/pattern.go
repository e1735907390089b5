package kernel

import (
	"math"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

type PatternKind int32

const (
	PatternSolid PatternKind = iota
	PatternStripe
	PatternGradient
	PatternRing
	PatternCheckers
	PatternRadialGradient
	PatternBlended
	PatternTextureMap
	PatternCubeMap
	PatternUVCheckers
	PatternUVAlignCheck
	PatternUVImage
)

// Mapping projects an object-space point onto (u,v) in [0,1).
type Mapping int32

const (
	MapSpherical Mapping = iota
	MapPlanar
	MapCylindrical
	MapCube
)

// Cube faces, in the order of Pattern.Faces.
const (
	FaceLeft = iota
	FaceFront
	FaceRight
	FaceBack
	FaceUp
	FaceDown
)

// Pattern is a tagged procedural colour source with its own transform.
//
// Colors: two-colour patterns use [0] and [1]; UVAlignCheck uses main,
// upper-left, upper-right, bottom-left, bottom-right. A and B are
// sub-pattern indices (Blended uses both, TextureMap uses A as its UV
// pattern); Faces holds the six UV patterns of a cube map.
type Pattern struct {
	Kind          PatternKind
	Transform     geom.Mat4
	Inverse       geom.Mat4
	Colors        [5]geom.Color
	A, B          int
	Faces         [6]int
	Mapping       Mapping
	Width, Height geom.Real
	Texture       int
}

func newPattern(kind PatternKind, colors ...geom.Color) Pattern {
	p := Pattern{
		Kind:      kind,
		Transform: geom.I4(),
		Inverse:   geom.I4(),
		A:         -1,
		B:         -1,
		Faces:     [6]int{-1, -1, -1, -1, -1, -1},
		Texture:   -1,
	}
	copy(p.Colors[:], colors)
	return p
}

func SolidPattern(c geom.Color) Pattern { return newPattern(PatternSolid, c) }
func StripePattern(a, b geom.Color) Pattern {
	return newPattern(PatternStripe, a, b)
}
func GradientPattern(a, b geom.Color) Pattern {
	return newPattern(PatternGradient, a, b)
}
func RingPattern(a, b geom.Color) Pattern {
	return newPattern(PatternRing, a, b)
}
func CheckersPattern(a, b geom.Color) Pattern {
	return newPattern(PatternCheckers, a, b)
}
func RadialGradientPattern(a, b geom.Color) Pattern {
	return newPattern(PatternRadialGradient, a, b)
}

// BlendedPattern averages patterns a and b.
func BlendedPattern(a, b int) Pattern {
	p := newPattern(PatternBlended)
	p.A, p.B = a, b
	return p
}

// TextureMapPattern applies UV pattern uv through mapping m.
func TextureMapPattern(m Mapping, uv int) Pattern {
	p := newPattern(PatternTextureMap)
	p.Mapping, p.A = m, uv
	return p
}

// CubeMapPattern takes one UV pattern per face: left, front, right, back, up, down.
func CubeMapPattern(faces [6]int) Pattern {
	p := newPattern(PatternCubeMap)
	p.Mapping, p.Faces = MapCube, faces
	return p
}

func UVCheckersPattern(w, h geom.Real, a, b geom.Color) Pattern {
	p := newPattern(PatternUVCheckers, a, b)
	p.Width, p.Height = w, h
	return p
}

func UVAlignCheckPattern(main, ul, ur, bl, br geom.Color) Pattern {
	return newPattern(PatternUVAlignCheck, main, ul, ur, bl, br)
}

func UVImagePattern(texture int) Pattern {
	p := newPattern(PatternUVImage)
	p.Texture = texture
	return p
}

func (p *Pattern) SetTransform(m geom.Mat4) {
	p.Transform = m
	p.Inverse = m.Inverse()
}

func floorParity(x geom.Real) bool {
	return int64(math.Floor(x))%2 == 0
}

// PatternAt evaluates pattern pi at an object-space point.
func PatternAt(st Store, pi int, objectPoint geom.Vector4) geom.Color {
	var p Pattern
	st.Pattern(pi, &p)
	pt := p.Inverse.MulVec(objectPoint)
	a, b := p.Colors[0], p.Colors[1]
	switch p.Kind {
	case PatternSolid:
		return a
	case PatternStripe:
		if floorParity(pt.X) {
			return a
		}
		return b
	case PatternGradient:
		return a.Add(b.Sub(a).Mul(pt.X - math.Floor(pt.X)))
	case PatternRing:
		if floorParity(math.Hypot(pt.X, pt.Z)) {
			return a
		}
		return b
	case PatternCheckers:
		if int64(math.Floor(pt.X)+math.Floor(pt.Y)+math.Floor(pt.Z))%2 == 0 {
			return a
		}
		return b
	case PatternRadialGradient:
		d := math.Hypot(pt.X, pt.Z)
		return a.Add(b.Sub(a).Mul(d - math.Floor(d)))
	case PatternBlended:
		return PatternAt(st, p.A, pt).Add(PatternAt(st, p.B, pt)).Mul(0.5)
	case PatternTextureMap:
		u, v := UVMap(p.Mapping, pt)
		return UVPatternAt(st, p.A, u, v)
	case PatternCubeMap:
		face := CubeFace(pt)
		u, v := CubeFaceUV(face, pt)
		return UVPatternAt(st, p.Faces[face], u, v)
	case PatternUVCheckers, PatternUVAlignCheck, PatternUVImage:
		u, v := UVMap(p.Mapping, pt)
		return uvColor(st, &p, u, v)
	}
	return a
}
