package flatscene

import (
	"math"

	"github.com/pkg/errors"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
	"github.com/lukaszgryglicki/raytracer/internal/kernel"
	"github.com/lukaszgryglicki/raytracer/internal/logging"
)

// Buffers holds one byte slice per record kind. After Encode returns the
// buffers are never written again and may be shared by any number of
// readers.
type Buffers struct {
	Shapes     []byte
	Primitives []byte
	Triangles  []byte
	Nodes      []byte
	Materials  []byte
	Patterns   []byte
	Lights     []byte
	Textures   []byte
	Texels     []byte
	Camera     []byte
	// Roots is the number of root shapes; they occupy shape records [0, Roots).
	Roots int
}

func (b *Buffers) NumShapes() int    { return len(b.Shapes) / ShapeStride }
func (b *Buffers) NumTriangles() int { return len(b.Triangles) / TriangleStride }
func (b *Buffers) NumNodes() int     { return len(b.Nodes) / NodeStride }
func (b *Buffers) NumMaterials() int { return len(b.Materials) / MaterialStride }
func (b *Buffers) NumPatterns() int  { return len(b.Patterns) / PatternStride }
func (b *Buffers) NumLights() int    { return len(b.Lights) / LightStride }
func (b *Buffers) NumTextures() int  { return len(b.Textures) / TextureStride }

// Size is the total byte size of all buffers.
func (b *Buffers) Size() int {
	return len(b.Shapes) + len(b.Primitives) + len(b.Triangles) + len(b.Nodes) + len(b.Materials) +
		len(b.Patterns) + len(b.Lights) + len(b.Textures) + len(b.Texels) + len(b.Camera)
}

// Encode packs w (and cam, when non-nil) into flat buffers. Shapes are laid
// out breadth-first from the roots so that roots come first and each
// group's children are contiguous; shapes unreachable from a root are
// dropped.
func Encode(w *kernel.World, cam *kernel.Camera) (*Buffers, error) {
	w.Prepare()
	order, remap := layoutOrder(w)
	if len(order) > math.MaxInt32 || len(w.Nodes) > math.MaxInt32 {
		return nil, errors.Errorf("scene too large: %d shapes, %d nodes", len(order), len(w.Nodes))
	}
	centers, radii := w.BoundingSpheres()

	b := &Buffers{Roots: len(w.Roots)}
	b.Shapes = make([]byte, len(order)*ShapeStride)
	b.Primitives = make([]byte, len(order)*PrimitiveStride)
	for ni, old := range order {
		s := &w.Shapes[old]
		rec := b.Shapes[ni*ShapeStride : (ni+1)*ShapeStride]
		if err := encodeShape(rec, s, remap); err != nil {
			return nil, errors.Wrapf(err, "shape %d", old)
		}
		pr := b.Primitives[ni*PrimitiveStride : (ni+1)*PrimitiveStride]
		putI32(pr, prShape, ni)
		putXYZ(pr, prCenter, centers[old])
		putF64(pr, prRadius, radii[old])
	}

	b.Triangles = make([]byte, len(w.Triangles)*TriangleStride)
	for i := range w.Triangles {
		encodeTriangle(b.Triangles[i*TriangleStride:], &w.Triangles[i])
	}
	b.Nodes = make([]byte, len(w.Nodes)*NodeStride)
	for i := range w.Nodes {
		encodeNode(b.Nodes[i*NodeStride:], &w.Nodes[i])
	}
	b.Materials = make([]byte, len(w.Materials)*MaterialStride)
	for i := range w.Materials {
		encodeMaterial(b.Materials[i*MaterialStride:], &w.Materials[i])
	}
	b.Patterns = make([]byte, len(w.Patterns)*PatternStride)
	for i := range w.Patterns {
		encodePattern(b.Patterns[i*PatternStride:], &w.Patterns[i])
	}
	b.Lights = make([]byte, len(w.Lights)*LightStride)
	for i := range w.Lights {
		encodeLight(b.Lights[i*LightStride:], &w.Lights[i])
	}
	b.Textures = make([]byte, len(w.Textures)*TextureStride)
	for i := range w.Textures {
		t := &w.Textures[i]
		if len(t.Pix) != t.Width*t.Height*4 {
			return nil, errors.Errorf("texture %d: %d bytes for %dx%d", i, len(t.Pix), t.Width, t.Height)
		}
		rec := b.Textures[i*TextureStride:]
		le.PutUint64(rec[0:], uint64(len(b.Texels)))
		putI32(rec, 8, t.Width)
		putI32(rec, 12, t.Height)
		b.Texels = append(b.Texels, t.Pix...)
	}
	if cam != nil {
		b.Camera = make([]byte, CameraStride)
		encodeCamera(b.Camera, cam)
	}
	logging.DebugLog("flatscene: %d shapes (%d dropped), %d triangles, %d nodes, %d bytes",
		len(order), len(w.Shapes)-len(order), len(w.Triangles), len(w.Nodes), b.Size())
	return b, nil
}

// layoutOrder returns the breadth-first shape order and the old→new map
// (-1 for unreachable shapes).
func layoutOrder(w *kernel.World) (order, remap []int) {
	remap = make([]int, len(w.Shapes))
	for i := range remap {
		remap[i] = -1
	}
	order = make([]int, 0, len(w.Shapes))
	push := func(i int) {
		if remap[i] >= 0 {
			return
		}
		remap[i] = len(order)
		order = append(order, i)
	}
	for _, r := range w.Roots {
		push(r)
	}
	for k := 0; k < len(order); k++ {
		s := &w.Shapes[order[k]]
		switch s.Kind {
		case kernel.KindGroup:
			for _, c := range s.Children {
				push(c)
			}
		case kernel.KindCSG:
			push(s.Left)
			push(s.Right)
		}
	}
	return order, remap
}

func mapIndex(remap []int, i int) int {
	if i < 0 {
		return -1
	}
	return remap[i]
}

func encodeShape(rec []byte, s *kernel.Shape, remap []int) error {
	flags := 0
	if s.Closed {
		flags |= flagClosed
	}
	if s.NoShadow {
		flags |= flagNoShadow
	}
	putI32(rec, shKind, int(s.Kind))
	putI32(rec, shFlags, flags)
	putI32(rec, shMaterial, s.Material)
	putI32(rec, shParent, mapIndex(remap, s.Parent))
	start, count := -1, 0
	if s.Kind == kernel.KindGroup && len(s.Children) > 0 {
		start, count = remap[s.Children[0]], len(s.Children)
		for k, c := range s.Children {
			if remap[c] != start+k {
				return errors.Errorf("group children not contiguous at %d", k)
			}
		}
	}
	putI32(rec, shChildStart, start)
	putI32(rec, shChildCount, count)
	putI32(rec, shLeft, mapIndex(remap, s.Left))
	putI32(rec, shRight, mapIndex(remap, s.Right))
	putI32(rec, shOp, int(s.Op))
	putI32(rec, shBVH, s.BVH)
	putI32(rec, shTri, s.Tri)
	putMat(rec, shTransform, s.Transform)
	putMat(rec, shInverse, s.Inverse)
	putMat(rec, shInvTranspos, s.InverseTranspose)
	putBox(rec, shBoundsMin, shBoundsMax, s.Bounds)
	putF64(rec, shMin, s.Min)
	putF64(rec, shMax, s.Max)
	return nil
}

func encodeTriangle(rec []byte, t *kernel.Triangle) {
	for i, v := range [9]geom.Vector4{t.P1, t.P2, t.P3, t.E1, t.E2, t.Normal, t.N1, t.N2, t.N3} {
		putXYZ(rec, 24*i, v)
	}
}

func encodeNode(rec []byte, n *kernel.Node) {
	putBox(rec, ndMin, ndMax, n.Bounds)
	putI32(rec, ndStart, n.Start)
	putI32(rec, ndEnd, n.End)
	for k, c := range n.Children {
		if k >= n.NumChildren {
			c = -1
		}
		putI32(rec, ndChildren+4*k, c)
	}
	putI32(rec, ndCount, n.NumChildren)
}

func encodeMaterial(rec []byte, m *kernel.Material) {
	putColor(rec, maColor, m.Color)
	putF64(rec, maAmbient, m.Ambient)
	putF64(rec, maDiffuse, m.Diffuse)
	putF64(rec, maSpecular, m.Specular)
	putF64(rec, maShininess, m.Shininess)
	putF64(rec, maReflective, m.Reflective)
	putF64(rec, maTransparency, m.Transparency)
	putF64(rec, maRefractive, m.RefractiveIndex)
	putI32(rec, maPattern, m.Pattern)
}

func encodePattern(rec []byte, p *kernel.Pattern) {
	putI32(rec, paKind, int(p.Kind))
	putI32(rec, paMapping, int(p.Mapping))
	putI32(rec, paA, p.A)
	putI32(rec, paB, p.B)
	putI32(rec, paTexture, p.Texture)
	for k, f := range p.Faces {
		putI32(rec, paFaces+4*k, f)
	}
	putF64(rec, paWidth, p.Width)
	putF64(rec, paHeight, p.Height)
	for k, c := range p.Colors {
		putColor(rec, paColors+24*k, c)
	}
	putMat(rec, paInverse, p.Inverse)
}

func encodeLight(rec []byte, l *kernel.Light) {
	putI32(rec, liKind, int(l.Kind))
	putI32(rec, liUSteps, l.USteps)
	putI32(rec, liVSteps, l.VSteps)
	putI32(rec, liMaxSamples, l.MaxSamples)
	flags := 0
	if l.Jitter {
		flags |= flagJitter
	}
	putI32(rec, liFlags, flags)
	putXYZ(rec, liPosition, l.Position)
	putXYZ(rec, liUVec, l.UVec)
	putXYZ(rec, liVVec, l.VVec)
	putColor(rec, liIntensity, l.Intensity)
	putF64(rec, liSensitivity, l.Sensitivity)
}

func encodeCamera(rec []byte, c *kernel.Camera) {
	putI32(rec, caHSize, c.HSize)
	putI32(rec, caVSize, c.VSize)
	putI32(rec, caSamples, c.Samples)
	putI32(rec, caMaxDepth, c.MaxDepth)
	putF64(rec, caFOV, c.FieldOfView)
	putF64(rec, caAperture, c.Aperture)
	putF64(rec, caFocal, c.FocalDistance)
	putMat(rec, caTransform, c.Transform)
	putMat(rec, caInverse, c.Inverse)
}
