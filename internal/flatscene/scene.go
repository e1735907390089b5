package flatscene

import (
	"github.com/pkg/errors"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
	"github.com/lukaszgryglicki/raytracer/internal/kernel"
)

// Scene is a kernel.Store backed by shared Buffers. It owns one reader per
// record kind and is therefore not safe for concurrent use: each worker
// builds its own Scene over the same Buffers.
type Scene struct {
	buf    *Buffers
	shapes ShapeReader
	prims  PrimitiveReader
	tris   TriangleReader
	nodes  NodeReader
	mats   MaterialReader
	pats   PatternReader
	lights LightReader
}

var _ kernel.Store = (*Scene)(nil)

// Validate checks that every buffer is a whole number of records and that
// every cross reference lands inside its table, so a Scene over b cannot
// index out of range.
func (b *Buffers) Validate() error {
	checks := []struct {
		name   string
		n      int
		stride int
	}{
		{"shapes", len(b.Shapes), ShapeStride},
		{"primitives", len(b.Primitives), PrimitiveStride},
		{"triangles", len(b.Triangles), TriangleStride},
		{"nodes", len(b.Nodes), NodeStride},
		{"materials", len(b.Materials), MaterialStride},
		{"patterns", len(b.Patterns), PatternStride},
		{"lights", len(b.Lights), LightStride},
		{"textures", len(b.Textures), TextureStride},
	}
	for _, c := range checks {
		if c.n%c.stride != 0 {
			return errors.Errorf("%s buffer: %d bytes is not a multiple of %d", c.name, c.n, c.stride)
		}
	}
	if b.NumShapes() != len(b.Primitives)/PrimitiveStride {
		return errors.Errorf("%d shapes but %d primitives", b.NumShapes(), len(b.Primitives)/PrimitiveStride)
	}
	if b.Roots < 0 || b.Roots > b.NumShapes() {
		return errors.Errorf("%d roots for %d shapes", b.Roots, b.NumShapes())
	}
	if b.NumMaterials() == 0 {
		return errors.New("no default material")
	}
	if n := len(b.Camera); n != 0 && n != CameraStride {
		return errors.Errorf("camera record is %d bytes", n)
	}
	if len(b.Camera) != 0 {
		if w, h := getI32(b.Camera, caHSize), getI32(b.Camera, caVSize); w <= 0 || h <= 0 {
			return errors.Errorf("camera is %dx%d", w, h)
		}
	}
	return b.validateRefs()
}

// inRange reports whether i is a valid index into n records, or -1 when
// none is allowed.
func inRange(i, n int, none bool) bool {
	return (none && i == -1) || (i >= 0 && i < n)
}

// validateRefs checks cross references. Shapes are laid out breadth-first,
// so parents precede their children and BVH nodes precede their children;
// both rules also rule out cycles.
func (b *Buffers) validateRefs() error {
	nShapes, nNodes, nMats := b.NumShapes(), b.NumNodes(), b.NumMaterials()
	nTris, nPats, nTex := b.NumTriangles(), b.NumPatterns(), b.NumTextures()

	sh := NewShapeReader(b.Shapes)
	for i := range nShapes {
		sh.Index = i
		if k := sh.Kind(); k < kernel.KindSphere || k > kernel.KindCSG {
			return errors.Errorf("shape %d: bad kind %d", i, k)
		}
		if !inRange(sh.Material(), nMats, true) {
			return errors.Errorf("shape %d: material %d of %d", i, sh.Material(), nMats)
		}
		if p := sh.Parent(); !inRange(p, i, true) {
			return errors.Errorf("shape %d: parent %d", i, p)
		}
		switch sh.Kind() {
		case kernel.KindGroup:
			start, count := sh.ChildStart(), sh.ChildCount()
			if count < 0 || (count > 0 && (start <= i || start+count > nShapes)) {
				return errors.Errorf("shape %d: children [%d,+%d)", i, start, count)
			}
			if !inRange(sh.BVH(), nNodes, true) {
				return errors.Errorf("shape %d: bvh node %d of %d", i, sh.BVH(), nNodes)
			}
		case kernel.KindCSG:
			if l, r := sh.Left(), sh.Right(); l <= i || r <= i || l >= nShapes || r >= nShapes {
				return errors.Errorf("shape %d: csg operands %d, %d", i, l, r)
			}
		case kernel.KindTriangle, kernel.KindSmoothTriangle:
			if !inRange(sh.Triangle(), nTris, false) {
				return errors.Errorf("shape %d: triangle %d of %d", i, sh.Triangle(), nTris)
			}
		}
	}
	if err := b.validateNodes(); err != nil {
		return err
	}

	for i := range nMats {
		if p := getI32(b.Materials[i*MaterialStride:], maPattern); !inRange(p, nPats, true) {
			return errors.Errorf("material %d: pattern %d of %d", i, p, nPats)
		}
	}
	for i := range nPats {
		rec := b.Patterns[i*PatternStride:]
		refs := []int{getI32(rec, paA), getI32(rec, paB)}
		for k := range 6 {
			refs = append(refs, getI32(rec, paFaces+4*k))
		}
		for _, r := range refs {
			if !inRange(r, nPats, true) {
				return errors.Errorf("pattern %d: sub-pattern %d of %d", i, r, nPats)
			}
		}
		if t := getI32(rec, paTexture); !inRange(t, nTex, true) {
			return errors.Errorf("pattern %d: texture %d of %d", i, t, nTex)
		}
	}
	for i := range nTex {
		rec := b.Textures[i*TextureStride:]
		off, w, h := le.Uint64(rec), getI32(rec, 8), getI32(rec, 12)
		if w <= 0 || h <= 0 || off > uint64(len(b.Texels)) || uint64(w)*uint64(h)*4 > uint64(len(b.Texels))-off {
			return errors.Errorf("texture %d: %dx%d at %d overruns %d texel bytes", i, w, h, off, len(b.Texels))
		}
	}
	return nil
}

// validateNodes walks every group's BVH: each node is owned by one tree,
// its children come after it and its child range fits the group.
func (b *Buffers) validateNodes() error {
	nNodes := b.NumNodes()
	owned := make([]bool, nNodes)
	sh := NewShapeReader(b.Shapes)
	nd := NewNodeReader(b.Nodes)
	for i := range b.NumShapes() {
		sh.Index = i
		if sh.Kind() != kernel.KindGroup || sh.BVH() < 0 {
			continue
		}
		count := sh.ChildCount()
		stack := []int{sh.BVH()}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if owned[n] {
				return errors.Errorf("bvh node %d is shared", n)
			}
			owned[n] = true
			nd.Index = n
			if nd.Start() < 0 || nd.Start() > nd.End() || nd.End() > count {
				return errors.Errorf("bvh node %d: range [%d,%d) for %d children", n, nd.Start(), nd.End(), count)
			}
			nc := nd.NumChildren()
			if nc < 0 || nc > 3 {
				return errors.Errorf("bvh node %d: %d children", n, nc)
			}
			for k := range nc {
				c := nd.Child(k)
				if c <= n || c >= nNodes {
					return errors.Errorf("bvh node %d: child %d", n, c)
				}
				stack = append(stack, c)
			}
		}
	}
	return nil
}

func NewScene(b *Buffers) (*Scene, error) {
	if err := b.Validate(); err != nil {
		return nil, errors.Wrap(err, "flat scene")
	}
	return &Scene{
		buf:    b,
		shapes: NewShapeReader(b.Shapes),
		prims:  NewPrimitiveReader(b.Primitives),
		tris:   NewTriangleReader(b.Triangles),
		nodes:  NewNodeReader(b.Nodes),
		mats:   NewMaterialReader(b.Materials),
		pats:   NewPatternReader(b.Patterns),
		lights: NewLightReader(b.Lights),
	}, nil
}

// Buffers returns the shared buffers.
func (s *Scene) Buffers() *Buffers { return s.buf }

// Camera decodes the camera record.
func (s *Scene) Camera() (kernel.Camera, error) {
	if len(s.buf.Camera) == 0 {
		return kernel.Camera{}, errors.New("scene has no camera")
	}
	return DecodeCamera(s.buf.Camera), nil
}

func (s *Scene) Shape(i int, dst *kernel.Shape) {
	s.shapes.Index = i
	s.shapes.Decode(dst)
}

func (s *Scene) Parent(i int) int {
	s.shapes.Index = i
	return s.shapes.Parent()
}

func (s *Scene) Triangle(i int, dst *kernel.Triangle) {
	s.tris.Index = i
	s.tris.Decode(dst)
}

func (s *Scene) Node(i int, dst *kernel.Node) {
	s.nodes.Index = i
	s.nodes.Decode(dst)
}

func (s *Scene) Material(i int, dst *kernel.Material) {
	s.mats.Index = i
	s.mats.Decode(dst)
}

func (s *Scene) Pattern(i int, dst *kernel.Pattern) {
	s.pats.Index = i
	s.pats.Decode(dst)
}

func (s *Scene) Light(i int, dst *kernel.Light) {
	s.lights.Index = i
	s.lights.Decode(dst)
}

func (s *Scene) NumLights() int { return s.buf.NumLights() }
func (s *Scene) NumRoots() int  { return s.buf.Roots }
func (s *Scene) Root(k int) int { return k }

func (s *Scene) BoundingSphere(i int) (geom.Vector4, geom.Real) {
	s.prims.Index = i
	return s.prims.Center(), s.prims.Radius()
}

func (s *Scene) texture(tex int) (off, w, h int) {
	rec := s.buf.Textures[tex*TextureStride:][:TextureStride]
	return int(le.Uint64(rec)), getI32(rec, 8), getI32(rec, 12)
}

func (s *Scene) TextureSize(tex int) (int, int) {
	_, w, h := s.texture(tex)
	return w, h
}

func (s *Scene) Texel(tex, x, y int) geom.Color {
	off, w, h := s.texture(tex)
	return kernel.TexelAt(s.buf.Texels[off:], w, h, x, y)
}
