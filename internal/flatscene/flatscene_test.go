package flatscene

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
	"github.com/lukaszgryglicki/raytracer/internal/kernel"
)

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func colorNear(t *testing.T, got, want geom.Color, eps float64) {
	t.Helper()
	if !near(got.R, want.R, eps) || !near(got.G, want.G, eps) || !near(got.B, want.B, eps) {
		t.Fatalf("color %+v, want %+v", got, want)
	}
}

func mustScene(t *testing.T, w *kernel.World, cam *kernel.Camera) *Scene {
	t.Helper()
	b, err := Encode(w, cam)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s, err := NewScene(b)
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	return s
}

// sameHits checks that both stores give the same hit distances and
// materials for r.
func sameHits(t *testing.T, w *kernel.World, s *Scene, r geom.Ray) {
	t.Helper()
	a := kernel.NewTracer(w, 0, 1).IntersectWorld(r)
	b := kernel.NewTracer(s, 0, 1).IntersectWorld(r)
	if len(a) != len(b) {
		t.Fatalf("ray %+v: %d vs %d intersections", r, len(a), len(b))
	}
	for i := range a {
		if !near(a[i].T, b[i].T, 1e-9) || a[i].Material != b[i].Material {
			t.Fatalf("ray %+v: intersection %d: %+v vs %+v", r, i, a[i], b[i])
		}
	}
}

func TestDefaultWorldRoundTrip(t *testing.T) {
	w := kernel.NewDefaultWorld()
	s := mustScene(t, w, nil)
	r := geom.NewRay(geom.Point(0, 0, -5), geom.Vector(0, 0, 1))
	want := geom.Color{R: 0.38066, G: 0.47583, B: 0.2855}
	colorNear(t, kernel.NewTracer(w, 5, 1).ColorAt(r, 5), want, 1e-4)
	colorNear(t, kernel.NewTracer(s, 5, 1).ColorAt(r, 5), want, 1e-4)
	if s.NumRoots() != 2 || s.NumLights() != 1 {
		t.Fatalf("roots %d lights %d", s.NumRoots(), s.NumLights())
	}
	if _, err := s.Camera(); err == nil {
		t.Fatal("camera without record")
	}
}

func TestShapeFieldsSurvive(t *testing.T) {
	w := kernel.NewWorld()
	cyl := kernel.NewCylinder(-1, 2, true)
	cyl.NoShadow = true
	i := w.Add(cyl)
	w.SetTransform(i, geom.Translation(1, 2, 3))
	s := mustScene(t, w, nil)

	var got kernel.Shape
	s.Shape(0, &got)
	if got.Kind != kernel.KindCylinder || !got.Closed || !got.NoShadow || got.Min != -1 || got.Max != 2 {
		t.Fatalf("decoded %+v", got)
	}
	if !got.Transform.Equal(geom.Translation(1, 2, 3)) || !got.Inverse.Equal(geom.Translation(-1, -2, -3)) {
		t.Fatal("transforms not preserved")
	}
	if got.Parent != -1 || got.Material != -1 || got.Children != nil {
		t.Fatalf("links %+v", got)
	}
}

func TestGroupsAreContiguousAndUnreachableDropped(t *testing.T) {
	w := kernel.NewWorld()
	g := w.Add(kernel.NewGroup())
	inner := w.AddShape(kernel.NewGroup())
	w.AddShape(kernel.NewSphere()) // never attached
	a := w.AddShape(kernel.NewSphere())
	w.AddChild(g, a)
	w.AddChild(g, inner)
	b := w.AddShape(kernel.NewCube())
	w.AddChild(inner, b)

	buf, err := Encode(w, nil)
	if err != nil {
		t.Fatal(err)
	}
	if buf.NumShapes() != 4 {
		t.Fatalf("%d shapes, want 4", buf.NumShapes())
	}
	s, _ := NewScene(buf)
	var root, sub kernel.Shape
	s.Shape(0, &root)
	if root.ChildStart != 1 || root.ChildCount != 2 || root.NumChildren() != 2 {
		t.Fatalf("root children %d+%d", root.ChildStart, root.ChildCount)
	}
	s.Shape(root.Child(1), &sub)
	if sub.Kind != kernel.KindGroup || s.Parent(sub.Child(0)) != root.Child(1) {
		t.Fatalf("nested group %+v", sub)
	}
}

func TestBVHGroupRoundTrip(t *testing.T) {
	w := kernel.NewWorld()
	g := w.Add(kernel.NewGroup())
	for x := -3; x <= 3; x++ {
		for y := -3; y <= 3; y++ {
			c := w.AddShape(kernel.NewSphere())
			w.SetTransform(c, geom.Translation(float64(3*x), float64(3*y), 0))
			w.AddChild(g, c)
		}
	}
	w.AddLight(kernel.NewPointLight(geom.Point(0, 0, -20), geom.White))
	w.Divide(g, 4)
	s := mustScene(t, w, nil)

	ws, ss := kernel.StatsBVH(w, g), kernel.StatsBVH(s, 0)
	if ws != ss || ws.Leaves < 2 {
		t.Fatalf("bvh stats %+v vs %+v", ws, ss)
	}
	for x := -10.0; x <= 10; x += 0.75 {
		for _, y := range []float64{-9, -3, 0, 0.5, 6} {
			sameHits(t, w, s, geom.NewRay(geom.Point(x, y, -10), geom.Vector(0, 0, 1)))
		}
	}
	sameHits(t, w, s, geom.NewRay(geom.Point(-20, 0.2, 0), geom.Vector(1, 0, 0)))
}

func TestCSGRoundTrip(t *testing.T) {
	w := kernel.NewWorld()
	glass := w.AddMaterial(kernel.GlassMaterial())
	l := w.AddShape(kernel.NewCube())
	r := w.AddShape(kernel.NewSphere())
	w.SetTransform(r, geom.Translation(0.5, 0, 0))
	w.SetMaterial(r, glass)
	c := w.AddCSG(kernel.OpDifference, l, r)
	w.AddRoot(c)
	s := mustScene(t, w, nil)

	var got kernel.Shape
	s.Shape(0, &got)
	if got.Kind != kernel.KindCSG || got.Op != kernel.OpDifference || s.Parent(got.Left) != 0 || s.Parent(got.Right) != 0 {
		t.Fatalf("csg %+v", got)
	}
	for _, y := range []float64{-1.5, -0.9, 0, 0.3, 0.99} {
		sameHits(t, w, s, geom.NewRay(geom.Point(-4, y, 0), geom.Vector(1, 0, 0)))
		sameHits(t, w, s, geom.NewRay(geom.Point(0.7, y, -4), geom.Vector(0, 0, 1)))
	}
}

func TestTrianglesMaterialsPatternsLights(t *testing.T) {
	w := kernel.NewWorld()
	w.AddLight(kernel.NewAreaLight(geom.Point(-1, 2, -1), geom.Vector(2, 0, 0), 4, geom.Vector(0, 0, 2), 3, geom.White))
	pat := w.AddPattern(kernel.CheckersPattern(geom.White, geom.Black))
	w.Patterns[pat].SetTransform(geom.Scaling(0.25, 0.25, 0.25))
	m := kernel.DefaultMaterial()
	m.Pattern = pat
	m.Reflective = 0.3
	mat := w.AddMaterial(m)
	g := w.Add(kernel.NewGroup())
	w.SetMaterial(g, mat)
	tri := w.AddSmoothTriangle(geom.Point(0, 1, 0), geom.Point(-1, 0, 0), geom.Point(1, 0, 0),
		geom.Vector(0, 1, 0), geom.Vector(-1, 0, 0), geom.Vector(1, 0, 0))
	w.AddChild(g, tri)
	s := mustScene(t, w, nil)

	var wl, sl kernel.Light
	w.Light(0, &wl)
	s.Light(0, &sl)
	if wl != sl {
		t.Fatalf("light %+v vs %+v", wl, sl)
	}
	var wm, sm kernel.Material
	w.Material(mat, &wm)
	s.Material(mat, &sm)
	if wm != sm {
		t.Fatalf("material %+v vs %+v", wm, sm)
	}
	var wt, st kernel.Triangle
	w.Triangle(0, &wt)
	s.Triangle(0, &st)
	if wt != st {
		t.Fatalf("triangle %+v vs %+v", wt, st)
	}
	p := geom.Point(0.3, 0.1, 0.7)
	if a, b := kernel.PatternAt(w, pat, p), kernel.PatternAt(s, pat, p); a != b {
		t.Fatalf("pattern %v vs %v", a, b)
	}
	r := geom.NewRay(geom.Point(-0.2, 0.3, -2), geom.Vector(0, 0, 1))
	sameHits(t, w, s, r)
	a := kernel.NewTracer(w, 3, 7).ColorAt(r, 3)
	b := kernel.NewTracer(s, 3, 7).ColorAt(r, 3)
	colorNear(t, a, b, 1e-12)
}

func TestTextures(t *testing.T) {
	w := kernel.NewWorld()
	w.AddTexture(kernel.Texture{Width: 1, Height: 1, Pix: []byte{255, 0, 0, 255}})
	tex := w.AddTexture(kernel.Texture{Width: 2, Height: 1, Pix: []byte{0, 0, 0, 255, 0, 255, 0, 255}})
	s := mustScene(t, w, nil)
	if wd, ht := s.TextureSize(tex); wd != 2 || ht != 1 {
		t.Fatalf("size %dx%d", wd, ht)
	}
	if c := s.Texel(tex, 1, 0); c != (geom.Color{G: 1}) {
		t.Fatalf("texel %v", c)
	}
	if c := s.Texel(0, 5, 5); c != (geom.Color{R: 1}) {
		t.Fatalf("clamped texel %v", c)
	}

	w.Textures[0].Pix = w.Textures[0].Pix[:3]
	if _, err := Encode(w, nil); err == nil {
		t.Fatal("short texture accepted")
	}
}

func TestCameraRecord(t *testing.T) {
	cam := kernel.NewCamera(160, 90, math.Pi/3)
	cam.Aperture = 0.1
	cam.FocalDistance = 4
	cam.Samples = 8
	cam.MaxDepth = 6
	cam.SetTransform(geom.ViewTransform(geom.Point(0, 1.5, -5), geom.Point(0, 1, 0), geom.Vector(0, 1, 0)))
	s := mustScene(t, kernel.NewDefaultWorld(), &cam)
	got, err := s.Camera()
	if err != nil {
		t.Fatal(err)
	}
	if got.HSize != 160 || got.VSize != 90 || got.Samples != 8 || got.MaxDepth != 6 ||
		got.Aperture != 0.1 || got.FocalDistance != 4 || !near(got.PixelSize, cam.PixelSize, 1e-12) {
		t.Fatalf("camera %+v", got)
	}
	a, b := cam.RayForPixel(10, 20), got.RayForPixel(10, 20)
	if !a.Origin.Equal(b.Origin) || !a.Direction.Equal(b.Direction) {
		t.Fatalf("rays %+v vs %+v", a, b)
	}
}

func TestMsgpRoundTrip(t *testing.T) {
	cam := kernel.NewCamera(10, 10, math.Pi/2)
	buf, err := Encode(kernel.NewDefaultWorld(), &cam)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "scene.msgp")
	if err := buf.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Roots != buf.Roots || got.Size() != buf.Size() || string(got.Shapes) != string(buf.Shapes) ||
		string(got.Camera) != string(buf.Camera) {
		t.Fatal("buffers differ after round trip")
	}
	data, _ := buf.MarshalMsg(nil)
	if len(data) > buf.Msgsize() {
		t.Fatalf("msgsize %d below encoded %d", buf.Msgsize(), len(data))
	}
	var b2 Buffers
	if _, err := b2.UnmarshalMsg(data[:len(data)/2]); err == nil {
		t.Fatal("truncated message accepted")
	}
}

func TestRejectsBadLengths(t *testing.T) {
	buf, err := Encode(kernel.NewDefaultWorld(), nil)
	if err != nil {
		t.Fatal(err)
	}
	bad := *buf
	bad.Shapes = bad.Shapes[:len(bad.Shapes)-1]
	if _, err := NewScene(&bad); err == nil {
		t.Fatal("ragged shape buffer accepted")
	}
	bad = *buf
	bad.Primitives = bad.Primitives[:PrimitiveStride]
	if _, err := NewScene(&bad); err == nil {
		t.Fatal("primitive count mismatch accepted")
	}
	bad = *buf
	bad.Roots = 99
	if _, err := NewScene(&bad); err == nil {
		t.Fatal("root count accepted")
	}
	bad = *buf
	bad.Camera = make([]byte, 10)
	if _, err := NewScene(&bad); err == nil {
		t.Fatal("short camera accepted")
	}
}

func refWorld() *kernel.World {
	w := kernel.NewWorld()
	tex := w.AddTexture(kernel.Texture{Width: 2, Height: 2, Pix: make([]byte, 16)})
	uv := w.AddPattern(kernel.UVImagePattern(tex))
	m := kernel.DefaultMaterial()
	m.Pattern = w.AddPattern(kernel.TextureMapPattern(kernel.MapSpherical, uv))
	mat := w.AddMaterial(m)

	g := w.Add(kernel.NewGroup())
	w.SetMaterial(g, mat)
	for x := range 6 {
		c := w.AddShape(kernel.NewSphere())
		w.SetTransform(c, geom.Translation(float64(3*x), 0, 0))
		w.AddChild(g, c)
	}
	w.AddChild(g, w.AddTriangle(geom.Point(0, 1, 0), geom.Point(-1, 0, 0), geom.Point(1, 0, 0)))
	w.Divide(g, 2)
	w.AddRoot(w.AddCSG(kernel.OpDifference, w.AddShape(kernel.NewCube()), w.AddShape(kernel.NewSphere())))
	return w
}

func TestRejectsBadReferences(t *testing.T) {
	buf, err := Encode(refWorld(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Validate(); err != nil {
		t.Fatalf("encoded scene rejected: %v", err)
	}
	clone := func(b []byte) []byte { return append([]byte(nil), b...) }
	find := func(kind kernel.Kind) int {
		r := NewShapeReader(buf.Shapes)
		for i := range buf.NumShapes() {
			r.Index = i
			if r.Kind() == kind {
				return i
			}
		}
		t.Fatalf("no shape of kind %d", kind)
		return -1
	}
	group, csg, tri := find(kernel.KindGroup), find(kernel.KindCSG), find(kernel.KindTriangle)
	shapeField := func(i, off, v int) Buffers {
		b := *buf
		b.Shapes = clone(buf.Shapes)
		putI32(b.Shapes[i*ShapeStride:], off, v)
		return b
	}
	r := NewShapeReader(buf.Shapes)
	r.Index = group
	rootNode := r.BVH()
	if rootNode < 0 {
		t.Fatal("group has no bvh")
	}

	cases := map[string]Buffers{
		"material":     shapeField(group, shMaterial, 99),
		"parent after": shapeField(group, shParent, buf.NumShapes()-1),
		"child range":  shapeField(group, shChildCount, 1000),
		"csg cycle":    shapeField(csg, shLeft, csg),
		"triangle":     shapeField(tri, shTri, 7),
		"bvh node":     shapeField(group, shBVH, buf.NumNodes()),
		"shape kind":   shapeField(tri, shKind, 42),
	}
	b := *buf
	b.Nodes = clone(buf.Nodes)
	putI32(b.Nodes[rootNode*NodeStride:], ndChildren, rootNode)
	cases["node cycle"] = b
	b = *buf
	b.Nodes = clone(buf.Nodes)
	putI32(b.Nodes[rootNode*NodeStride:], ndEnd, 50)
	cases["node range"] = b
	b = *buf
	b.Materials = clone(buf.Materials)
	putI32(b.Materials[MaterialStride:], maPattern, 42)
	cases["material pattern"] = b
	b = *buf
	b.Patterns = clone(buf.Patterns)
	putI32(b.Patterns, paTexture, 3)
	cases["pattern texture"] = b
	b = *buf
	b.Patterns = clone(buf.Patterns)
	putI32(b.Patterns[PatternStride:], paA, -2)
	cases["sub-pattern"] = b
	b = *buf
	b.Textures = clone(buf.Textures)
	putI32(b.Textures, 8, 1000)
	cases["texels"] = b
	b = *buf
	b.Textures = clone(buf.Textures)
	le.PutUint64(b.Textures, 1<<40)
	cases["texel offset"] = b

	for name, bad := range cases {
		if _, err := NewScene(&bad); err == nil {
			t.Fatalf("%s: corrupt reference accepted", name)
		}
	}

	path := filepath.Join(t.TempDir(), "bad.msgp")
	bad := cases["texels"]
	if err := bad.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("corrupt dump loaded")
	}
}
