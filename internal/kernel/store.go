package kernel

import "github.com/lukaszgryglicki/raytracer/internal/geom"

// Store is the read-only view of a scene that every kernel algorithm walks.
// Records are decoded into caller-owned values so recursion never aliases.
//
// The object model (*World) and the buffer readers (flatscene.Scene) both
// implement it. Implementations need not be safe for concurrent use.
type Store interface {
	Shape(i int, dst *Shape)
	Parent(i int) int
	Triangle(i int, dst *Triangle)
	Node(i int, dst *Node)
	Material(i int, dst *Material)
	Pattern(i int, dst *Pattern)
	Light(i int, dst *Light)
	NumLights() int
	NumRoots() int
	Root(k int) int
	// BoundingSphere encloses shape i in its parent's space.
	BoundingSphere(i int) (center geom.Vector4, radius geom.Real)
	TextureSize(tex int) (w, h int)
	Texel(tex, x, y int) geom.Color
}
