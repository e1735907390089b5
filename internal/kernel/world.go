package kernel

import (
	"sync"
	"sync/atomic"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// World is the object model: one arena per record kind plus ordered roots
// and lights. Material 0 is always the default material.
//
// Derived data (bounds, bounding spheres) is refreshed on the first read
// after any mutation made through World methods or At. Reads may run
// concurrently; mutations may not run alongside reads.
type World struct {
	Shapes    []Shape
	Triangles []Triangle
	Nodes     []Node
	Materials []Material
	Patterns  []Pattern
	Textures  []Texture
	Roots     []int
	Lights    []Light

	spheres []boundingSphere
	stale   atomic.Bool
	mu      sync.Mutex
}

type boundingSphere struct {
	center geom.Vector4
	radius geom.Real
}

// NewWorld returns an empty world with the default material at index 0.
func NewWorld() *World {
	return &World{Materials: []Material{DefaultMaterial()}}
}

// AddShape appends s to the arena without making it a root.
func (w *World) AddShape(s Shape) int {
	w.Shapes = append(w.Shapes, s)
	w.stale.Store(true)
	return len(w.Shapes) - 1
}

// Add appends s and registers it as a root.
func (w *World) Add(s Shape) int {
	i := w.AddShape(s)
	w.Roots = append(w.Roots, i)
	return i
}

// AddRoot registers an existing arena shape as a root.
func (w *World) AddRoot(i int) {
	w.Roots = append(w.Roots, i)
}

// At gives mutable access to shape i.
func (w *World) At(i int) *Shape {
	w.stale.Store(true)
	return &w.Shapes[i]
}

// SetTransform sets the transform of shape i.
func (w *World) SetTransform(i int, m geom.Mat4) {
	w.At(i).SetTransform(m)
}

// SetMaterial assigns material index mat to shape i.
func (w *World) SetMaterial(i, mat int) {
	w.Shapes[i].Material = mat
}

// AddChild reparents child under group g.
func (w *World) AddChild(g, child int) {
	w.Shapes[child].Parent = g
	w.Shapes[g].Children = append(w.Shapes[g].Children, child)
	w.stale.Store(true)
}

// AddTriangle stores a flat triangle record and a shape pointing at it.
func (w *World) AddTriangle(p1, p2, p3 geom.Vector4) int {
	w.Triangles = append(w.Triangles, NewTriangle(p1, p2, p3))
	s := newShape(KindTriangle)
	s.Tri = len(w.Triangles) - 1
	return w.AddShape(s)
}

// AddSmoothTriangle is AddTriangle with per-vertex normals.
func (w *World) AddSmoothTriangle(p1, p2, p3, n1, n2, n3 geom.Vector4) int {
	w.Triangles = append(w.Triangles, NewSmoothTriangle(p1, p2, p3, n1, n2, n3))
	s := newShape(KindSmoothTriangle)
	s.Tri = len(w.Triangles) - 1
	return w.AddShape(s)
}

// AddCSG combines left and right with op; both operands are reparented.
func (w *World) AddCSG(op Op, left, right int) int {
	s := newShape(KindCSG)
	s.Op, s.Left, s.Right = op, left, right
	i := w.AddShape(s)
	w.Shapes[left].Parent = i
	w.Shapes[right].Parent = i
	return i
}

func (w *World) AddMaterial(m Material) int {
	w.Materials = append(w.Materials, m)
	return len(w.Materials) - 1
}

func (w *World) AddPattern(p Pattern) int {
	w.Patterns = append(w.Patterns, p)
	return len(w.Patterns) - 1
}

func (w *World) AddTexture(t Texture) int {
	w.Textures = append(w.Textures, t)
	return len(w.Textures) - 1
}

func (w *World) AddLight(l Light) {
	w.Lights = append(w.Lights, l)
}

// Prepare recomputes local bounds for every shape and the parent-space
// bounding spheres used by the intersection pre-test.
func (w *World) Prepare() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prepare()
}

func (w *World) prepare() {
	done := make([]bool, len(w.Shapes))
	for i := range w.Shapes {
		w.computeBounds(i, done)
	}
	w.spheres = w.spheres[:0]
	for i := range w.Shapes {
		c, r := w.parentBox(i).BoundingSphere()
		w.spheres = append(w.spheres, boundingSphere{c, r})
	}
	w.stale.Store(false)
}

func (w *World) ensure() {
	if !w.stale.Load() {
		return
	}
	w.mu.Lock()
	if w.stale.Load() {
		w.prepare()
	}
	w.mu.Unlock()
}

func (w *World) computeBounds(i int, done []bool) geom.AABB {
	if done[i] {
		return w.Shapes[i].Bounds
	}
	s := &w.Shapes[i]
	var b geom.AABB
	switch s.Kind {
	case KindGroup:
		b = geom.EmptyAABB()
		for _, c := range s.Children {
			w.computeBounds(c, done)
			b = b.Merge(w.parentBox(c))
		}
	case KindCSG:
		w.computeBounds(s.Left, done)
		w.computeBounds(s.Right, done)
		b = w.parentBox(s.Left).Merge(w.parentBox(s.Right))
	case KindTriangle, KindSmoothTriangle:
		b = w.Triangles[s.Tri].bounds()
	default:
		b = primitiveBounds(s)
	}
	s.Bounds = b
	done[i] = true
	return b
}

// parentBox is the bounds of shape i in its parent's space.
func (w *World) parentBox(i int) geom.AABB {
	s := &w.Shapes[i]
	return s.Bounds.Transform(s.Transform)
}

// Store implementation.

func (w *World) Shape(i int, dst *Shape) {
	w.ensure()
	*dst = w.Shapes[i]
}

func (w *World) Parent(i int) int              { return w.Shapes[i].Parent }
func (w *World) Triangle(i int, dst *Triangle) { *dst = w.Triangles[i] }
func (w *World) Node(i int, dst *Node)         { *dst = w.Nodes[i] }
func (w *World) Material(i int, dst *Material) { *dst = w.Materials[i] }
func (w *World) Pattern(i int, dst *Pattern)   { *dst = w.Patterns[i] }
func (w *World) Light(i int, dst *Light)       { *dst = w.Lights[i] }
func (w *World) NumLights() int                { return len(w.Lights) }
func (w *World) NumRoots() int                 { return len(w.Roots) }
func (w *World) Root(k int) int                { return w.Roots[k] }

func (w *World) BoundingSphere(i int) (geom.Vector4, geom.Real) {
	w.ensure()
	s := w.spheres[i]
	return s.center, s.radius
}

func (w *World) TextureSize(tex int) (int, int) {
	t := &w.Textures[tex]
	return t.Width, t.Height
}

func (w *World) Texel(tex, x, y int) geom.Color {
	t := &w.Textures[tex]
	return TexelAt(t.Pix, t.Width, t.Height, x, y)
}

// BoundingSpheres exposes the prepared spheres to the encoder.
func (w *World) BoundingSpheres() (centers []geom.Vector4, radii []geom.Real) {
	w.ensure()
	centers = make([]geom.Vector4, len(w.spheres))
	radii = make([]geom.Real, len(w.spheres))
	for i, s := range w.spheres {
		centers[i], radii[i] = s.center, s.radius
	}
	return centers, radii
}
