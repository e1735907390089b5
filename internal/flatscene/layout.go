// Package flatscene packs a kernel.World into fixed-stride byte buffers
// and reads it back through small cursor readers.
//
// All values are little-endian. Integers are int32, reals are float64.
// Points and vectors are stored as three reals (x,y,z); w is implied by
// the field. Matrices are 16 reals, row-major. Cross references are int32
// indices, -1 for none.
//
// Shape record (ShapeStride = 496):
//
//	  0 kind            int32
//	  4 flags           int32   bit0 closed, bit1 no-shadow
//	  8 material        int32
//	 12 parent          int32
//	 16 child start     int32   children are [start, start+count)
//	 20 child count     int32
//	 24 csg left        int32
//	 28 csg right       int32
//	 32 csg op          int32
//	 36 bvh root        int32
//	 40 triangle        int32
//	 48 transform       16 real
//	176 inverse         16 real
//	304 inv. transpose  16 real
//	432 bounds min      3 real
//	456 bounds max      3 real
//	480 min (cyl/cone)  real
//	488 max (cyl/cone)  real
//
// Primitive record, one per shape (PrimitiveStride = 40): 0 shape int32,
// 8 bounding-sphere centre (3 real, parent space), 32 radius (+Inf for
// unbounded shapes).
//
// Triangle record (TriangleStride = 216): P1 P2 P3 E1 E2 N N1 N2 N3,
// 3 reals each.
//
// BVH node record (NodeStride = 72): 0 bounds min, 24 bounds max,
// 48 start int32, 52 end int32, 56 children 3×int32, 68 child count int32.
//
// Material record (MaterialStride = 88): 0 colour rgb, 24 ambient,
// 32 diffuse, 40 specular, 48 shininess, 56 reflective, 64 transparency,
// 72 refractive index, 80 pattern int32.
//
// Pattern record (PatternStride = 312): 0 kind, 4 mapping, 8 a, 12 b,
// 16 texture (int32 each), 24 faces 6×int32, 48 width, 56 height,
// 64 colours 5×rgb, 184 inverse transform.
//
// Light record (LightStride = 128): 0 kind, 4 usteps, 8 vsteps,
// 12 max samples, 16 flags (bit0 jitter) int32; 24 position, 48 uvec,
// 72 vvec, 96 intensity rgb, 120 sensitivity.
//
// Camera record (CameraStride = 296): 0 hsize, 4 vsize, 8 samples,
// 12 max depth int32; 16 fov, 24 aperture, 32 focal distance,
// 40 transform, 168 inverse.
//
// Texture table (TextureStride = 16): 0 texel offset int64, 8 width,
// 12 height int32. Texels are RGBA8 rows in a separate buffer.
package flatscene

import (
	"encoding/binary"
	"math"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

const (
	ShapeStride     = 496
	PrimitiveStride = 40
	TriangleStride  = 216
	NodeStride      = 72
	MaterialStride  = 88
	PatternStride   = 312
	LightStride     = 128
	CameraStride    = 296
	TextureStride   = 16
)

// shape offsets
const (
	shKind        = 0
	shFlags       = 4
	shMaterial    = 8
	shParent      = 12
	shChildStart  = 16
	shChildCount  = 20
	shLeft        = 24
	shRight       = 28
	shOp          = 32
	shBVH         = 36
	shTri         = 40
	shTransform   = 48
	shInverse     = 176
	shInvTranspos = 304
	shBoundsMin   = 432
	shBoundsMax   = 456
	shMin         = 480
	shMax         = 488

	flagClosed   = 1
	flagNoShadow = 2
)

// primitive offsets
const (
	prShape  = 0
	prCenter = 8
	prRadius = 32
)

// node offsets
const (
	ndMin      = 0
	ndMax      = 24
	ndStart    = 48
	ndEnd      = 52
	ndChildren = 56
	ndCount    = 68
)

// material offsets
const (
	maColor        = 0
	maAmbient      = 24
	maDiffuse      = 32
	maSpecular     = 40
	maShininess    = 48
	maReflective   = 56
	maTransparency = 64
	maRefractive   = 72
	maPattern      = 80
)

// pattern offsets
const (
	paKind    = 0
	paMapping = 4
	paA       = 8
	paB       = 12
	paTexture = 16
	paFaces   = 24
	paWidth   = 48
	paHeight  = 56
	paColors  = 64
	paInverse = 184
)

// light offsets
const (
	liKind        = 0
	liUSteps      = 4
	liVSteps      = 8
	liMaxSamples  = 12
	liFlags       = 16
	liPosition    = 24
	liUVec        = 48
	liVVec        = 72
	liIntensity   = 96
	liSensitivity = 120

	flagJitter = 1
)

// camera offsets
const (
	caHSize     = 0
	caVSize     = 4
	caSamples   = 8
	caMaxDepth  = 12
	caFOV       = 16
	caAperture  = 24
	caFocal     = 32
	caTransform = 40
	caInverse   = 168
)

var le = binary.LittleEndian

func getI32(b []byte, off int) int     { return int(int32(le.Uint32(b[off:]))) }
func putI32(b []byte, off int, v int)  { le.PutUint32(b[off:], uint32(int32(v))) }
func getF64(b []byte, off int) float64 { return math.Float64frombits(le.Uint64(b[off:])) }
func putF64(b []byte, off int, v float64) {
	le.PutUint64(b[off:], math.Float64bits(v))
}

func getXYZ(b []byte, off int, w geom.Real) geom.Vector4 {
	return geom.Vector4{X: getF64(b, off), Y: getF64(b, off+8), Z: getF64(b, off+16), W: w}
}

func putXYZ(b []byte, off int, v geom.Vector4) {
	putF64(b, off, v.X)
	putF64(b, off+8, v.Y)
	putF64(b, off+16, v.Z)
}

func getColor(b []byte, off int) geom.Color {
	return geom.Color{R: getF64(b, off), G: getF64(b, off+8), B: getF64(b, off+16)}
}

func putColor(b []byte, off int, c geom.Color) {
	putF64(b, off, c.R)
	putF64(b, off+8, c.G)
	putF64(b, off+16, c.B)
}

func getMat(b []byte, off int) geom.Mat4 {
	var v [16]geom.Real
	for i := range v {
		v[i] = getF64(b, off+8*i)
	}
	return geom.NewMat4(v)
}

func putMat(b []byte, off int, m geom.Mat4) {
	for i, x := range m.Flat() {
		putF64(b, off+8*i, x)
	}
}

func getBox(b []byte, minOff, maxOff int) geom.AABB {
	return geom.AABB{Min: getXYZ(b, minOff, 1), Max: getXYZ(b, maxOff, 1)}
}

func putBox(b []byte, minOff, maxOff int, box geom.AABB) {
	putXYZ(b, minOff, box.Min)
	putXYZ(b, maxOff, box.Max)
}
