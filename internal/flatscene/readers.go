package flatscene

import (
	"github.com/lukaszgryglicki/raytracer/internal/geom"
	"github.com/lukaszgryglicki/raytracer/internal/kernel"
)

// Readers are small values with an Index cursor over one shared buffer.
// A reader is not safe for concurrent use; give every goroutine its own.

type ShapeReader struct {
	buf   []byte
	Index int
}

func NewShapeReader(buf []byte) ShapeReader { return ShapeReader{buf: buf} }

func (r *ShapeReader) rec() []byte { return r.buf[r.Index*ShapeStride:][:ShapeStride] }
func (r *ShapeReader) Len() int    { return len(r.buf) / ShapeStride }

func (r *ShapeReader) Kind() kernel.Kind { return kernel.Kind(getI32(r.rec(), shKind)) }
func (r *ShapeReader) Closed() bool      { return getI32(r.rec(), shFlags)&flagClosed != 0 }
func (r *ShapeReader) NoShadow() bool    { return getI32(r.rec(), shFlags)&flagNoShadow != 0 }
func (r *ShapeReader) Material() int     { return getI32(r.rec(), shMaterial) }
func (r *ShapeReader) Parent() int       { return getI32(r.rec(), shParent) }
func (r *ShapeReader) ChildStart() int   { return getI32(r.rec(), shChildStart) }
func (r *ShapeReader) ChildCount() int   { return getI32(r.rec(), shChildCount) }
func (r *ShapeReader) Left() int         { return getI32(r.rec(), shLeft) }
func (r *ShapeReader) Right() int        { return getI32(r.rec(), shRight) }
func (r *ShapeReader) Op() kernel.Op     { return kernel.Op(getI32(r.rec(), shOp)) }
func (r *ShapeReader) BVH() int          { return getI32(r.rec(), shBVH) }
func (r *ShapeReader) Triangle() int     { return getI32(r.rec(), shTri) }
func (r *ShapeReader) Transform() geom.Mat4 {
	return getMat(r.rec(), shTransform)
}
func (r *ShapeReader) Inverse() geom.Mat4 { return getMat(r.rec(), shInverse) }
func (r *ShapeReader) InverseTranspose() geom.Mat4 {
	return getMat(r.rec(), shInvTranspos)
}
func (r *ShapeReader) Bounds() geom.AABB { return getBox(r.rec(), shBoundsMin, shBoundsMax) }

// Decode fills dst from the current record. Group children come back as a
// contiguous range; dst.Children is nil.
func (r *ShapeReader) Decode(dst *kernel.Shape) {
	b := r.rec()
	flags := getI32(b, shFlags)
	*dst = kernel.Shape{
		Kind:             kernel.Kind(getI32(b, shKind)),
		Transform:        getMat(b, shTransform),
		Inverse:          getMat(b, shInverse),
		InverseTranspose: getMat(b, shInvTranspos),
		Material:         getI32(b, shMaterial),
		Parent:           getI32(b, shParent),
		Bounds:           getBox(b, shBoundsMin, shBoundsMax),
		Min:              getF64(b, shMin),
		Max:              getF64(b, shMax),
		Closed:           flags&flagClosed != 0,
		NoShadow:         flags&flagNoShadow != 0,
		Op:               kernel.Op(getI32(b, shOp)),
		Left:             getI32(b, shLeft),
		Right:            getI32(b, shRight),
		ChildStart:       getI32(b, shChildStart),
		ChildCount:       getI32(b, shChildCount),
		BVH:              getI32(b, shBVH),
		Tri:              getI32(b, shTri),
	}
}

// PrimitiveReader reads the per-shape bounding spheres.
type PrimitiveReader struct {
	buf   []byte
	Index int
}

func NewPrimitiveReader(buf []byte) PrimitiveReader { return PrimitiveReader{buf: buf} }

func (r *PrimitiveReader) rec() []byte { return r.buf[r.Index*PrimitiveStride:][:PrimitiveStride] }

func (r *PrimitiveReader) Shape() int             { return getI32(r.rec(), prShape) }
func (r *PrimitiveReader) Center() geom.Vector4   { return getXYZ(r.rec(), prCenter, 1) }
func (r *PrimitiveReader) Radius() geom.Real      { return getF64(r.rec(), prRadius) }

type TriangleReader struct {
	buf   []byte
	Index int
}

func NewTriangleReader(buf []byte) TriangleReader { return TriangleReader{buf: buf} }

func (r *TriangleReader) Decode(dst *kernel.Triangle) {
	b := r.buf[r.Index*TriangleStride:][:TriangleStride]
	*dst = kernel.Triangle{
		P1:     getXYZ(b, 0, 1),
		P2:     getXYZ(b, 24, 1),
		P3:     getXYZ(b, 48, 1),
		E1:     getXYZ(b, 72, 0),
		E2:     getXYZ(b, 96, 0),
		Normal: getXYZ(b, 120, 0),
		N1:     getXYZ(b, 144, 0),
		N2:     getXYZ(b, 168, 0),
		N3:     getXYZ(b, 192, 0),
	}
}

type NodeReader struct {
	buf   []byte
	Index int
}

func NewNodeReader(buf []byte) NodeReader { return NodeReader{buf: buf} }

func (r *NodeReader) rec() []byte { return r.buf[r.Index*NodeStride:][:NodeStride] }

func (r *NodeReader) Bounds() geom.AABB { return getBox(r.rec(), ndMin, ndMax) }
func (r *NodeReader) Start() int        { return getI32(r.rec(), ndStart) }
func (r *NodeReader) End() int          { return getI32(r.rec(), ndEnd) }
func (r *NodeReader) NumChildren() int  { return getI32(r.rec(), ndCount) }
func (r *NodeReader) Child(k int) int   { return getI32(r.rec(), ndChildren+4*k) }

func (r *NodeReader) Decode(dst *kernel.Node) {
	b := r.rec()
	dst.Bounds = getBox(b, ndMin, ndMax)
	dst.Start = getI32(b, ndStart)
	dst.End = getI32(b, ndEnd)
	dst.NumChildren = getI32(b, ndCount)
	for k := range dst.Children {
		dst.Children[k] = getI32(b, ndChildren+4*k)
	}
}

type MaterialReader struct {
	buf   []byte
	Index int
}

func NewMaterialReader(buf []byte) MaterialReader { return MaterialReader{buf: buf} }

func (r *MaterialReader) Decode(dst *kernel.Material) {
	b := r.buf[r.Index*MaterialStride:][:MaterialStride]
	*dst = kernel.Material{
		Color:           getColor(b, maColor),
		Pattern:         getI32(b, maPattern),
		Ambient:         getF64(b, maAmbient),
		Diffuse:         getF64(b, maDiffuse),
		Specular:        getF64(b, maSpecular),
		Shininess:       getF64(b, maShininess),
		Reflective:      getF64(b, maReflective),
		Transparency:    getF64(b, maTransparency),
		RefractiveIndex: getF64(b, maRefractive),
	}
}

type PatternReader struct {
	buf   []byte
	Index int
}

func NewPatternReader(buf []byte) PatternReader { return PatternReader{buf: buf} }

// Decode fills dst. Only the inverse transform is stored, so
// dst.Transform is left as the zero matrix.
func (r *PatternReader) Decode(dst *kernel.Pattern) {
	b := r.buf[r.Index*PatternStride:][:PatternStride]
	*dst = kernel.Pattern{
		Kind:    kernel.PatternKind(getI32(b, paKind)),
		Mapping: kernel.Mapping(getI32(b, paMapping)),
		A:       getI32(b, paA),
		B:       getI32(b, paB),
		Texture: getI32(b, paTexture),
		Width:   getF64(b, paWidth),
		Height:  getF64(b, paHeight),
		Inverse: getMat(b, paInverse),
	}
	for k := range dst.Faces {
		dst.Faces[k] = getI32(b, paFaces+4*k)
	}
	for k := range dst.Colors {
		dst.Colors[k] = getColor(b, paColors+24*k)
	}
}

type LightReader struct {
	buf   []byte
	Index int
}

func NewLightReader(buf []byte) LightReader { return LightReader{buf: buf} }

func (r *LightReader) Decode(dst *kernel.Light) {
	b := r.buf[r.Index*LightStride:][:LightStride]
	*dst = kernel.Light{
		Kind:        kernel.LightKind(getI32(b, liKind)),
		Position:    getXYZ(b, liPosition, 1),
		UVec:        getXYZ(b, liUVec, 0),
		VVec:        getXYZ(b, liVVec, 0),
		USteps:      getI32(b, liUSteps),
		VSteps:      getI32(b, liVSteps),
		Intensity:   getColor(b, liIntensity),
		MaxSamples:  getI32(b, liMaxSamples),
		Sensitivity: getF64(b, liSensitivity),
		Jitter:      getI32(b, liFlags)&flagJitter != 0,
	}
}

// DecodeCamera rebuilds a camera, recomputing the derived pixel sizes.
func DecodeCamera(b []byte) kernel.Camera {
	c := kernel.NewCamera(getI32(b, caHSize), getI32(b, caVSize), getF64(b, caFOV))
	c.Samples = getI32(b, caSamples)
	c.MaxDepth = getI32(b, caMaxDepth)
	c.Aperture = getF64(b, caAperture)
	c.FocalDistance = getF64(b, caFocal)
	c.Transform = getMat(b, caTransform)
	c.Inverse = getMat(b, caInverse)
	c.Origin = c.Inverse.MulVec(geom.Point(0, 0, 0))
	return c
}
