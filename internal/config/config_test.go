package config

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
	"github.com/lukaszgryglicki/raytracer/internal/kernel"
)

const defaultWorldJSON = `{
  "camera": {"width": 11, "height": 11, "fovDeg": 90, "from": [0, 0, -5], "to": [0, 0, 0]},
  "lights": [{"position": [-10, 10, -10], "intensity": [1, 1, 1]}],
  "materials": [{"name": "green", "color": [0.8, 1.0, 0.6], "diffuse": 0.7, "specular": 0.2}],
  "shapes": [
    {"type": "sphere", "material": "green"},
    {"type": "sphere", "transform": [{"op": "scale", "args": [0.5]}]}
  ]
}`

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"camera": {"to": [0, 0, 1]}, "lights": [{}], "shapes": []}`))
	if err != nil {
		t.Fatal(err)
	}
	c := cfg.Camera
	if c.Width != Width || c.Height != Height || c.FOVDeg != FOVDeg || c.Up != (Vec3{0, 1, 0}) ||
		c.MaxDepth != kernel.DefaultMaxDepth || c.Samples != 1 {
		t.Fatalf("camera defaults %+v", c)
	}
	r := cfg.Render
	if r.Gamma != Gamma || r.Out != Out || r.BVHThreshold != BVHThreshold || r.TextureMaxSize != TextureMaxSize {
		t.Fatalf("render defaults %+v", r)
	}

	if _, err := Parse([]byte(`{"camera": {"to": [0, 0, 1]}}`)); err == nil {
		t.Fatal("config without lights accepted")
	}
	if _, err := Parse([]byte(`{"lights": [{}]}`)); err == nil {
		t.Fatal("camera looking at itself accepted")
	}
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Fatal("bad json accepted")
	}
}

func TestBuildTransform(t *testing.T) {
	m, err := BuildTransform([]TransformCfg{
		{Op: "rotateX", Args: []geom.Real{90}},
		{Op: "scale", Args: []geom.Real{5}},
		{Op: "translate", Args: []geom.Real{10, 5, 7}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.MulVec(geom.Point(1, 0, 1)); !got.Equal(geom.Point(15, 0, 7)) {
		t.Fatalf("chained transform gives %+v", got)
	}
	if m, _ := BuildTransform(nil); !m.Equal(geom.I4()) {
		t.Fatal("empty transform is not identity")
	}
	for _, bad := range [][]TransformCfg{
		{{Op: "translate", Args: []geom.Real{1}}},
		{{Op: "scale", Args: []geom.Real{1, 2}}},
		{{Op: "twist", Args: []geom.Real{1}}},
		{{Op: "scale", Args: []geom.Real{0}}},
		{{Op: "shear", Args: []geom.Real{1, 0, 0}}},
	} {
		if _, err := BuildTransform(bad); err == nil {
			t.Fatalf("transform %+v accepted", bad)
		}
	}
}

func TestBuildDefaultWorld(t *testing.T) {
	cfg, err := Parse([]byte(defaultWorldJSON))
	if err != nil {
		t.Fatal(err)
	}
	sc, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Skipped != 0 || len(sc.World.Roots) != 2 {
		t.Fatalf("skipped %d, roots %d", sc.Skipped, len(sc.World.Roots))
	}
	tr := kernel.NewTracer(sc.World, 5, 1)
	got := tr.ColorAt(geom.NewRay(geom.Point(0, 0, -5), geom.Vector(0, 0, 1)), 5)
	want := geom.Color{R: 0.38066, G: 0.47583, B: 0.2855}
	if math.Abs(got.R-want.R) > 1e-4 || math.Abs(got.G-want.G) > 1e-4 || math.Abs(got.B-want.B) > 1e-4 {
		t.Fatalf("color %+v, want %+v", got, want)
	}
	r := sc.Camera.RayForPixel(5, 5)
	if !r.Origin.Equal(geom.Point(0, 0, -5)) || !r.Direction.Equal(geom.Vector(0, 0, 1)) {
		t.Fatalf("camera ray %+v", r)
	}
}

func TestBuildSkipsMalformed(t *testing.T) {
	cfg, err := Parse([]byte(`{
	  "camera": {"from": [0, 2, -6], "to": [0, 0, 0]},
	  "render": {"bvhThreshold": 2},
	  "lights": [
	    {"type": "area", "position": [-1, 5, -1], "u": [2, 0, 0], "v": [0, 0, 2], "usteps": 4, "vsteps": 4, "jitter": true},
	    {"type": "spot"},
	    {"type": "area", "usteps": 2, "vsteps": 2}
	  ],
	  "patterns": [
	    {"name": "a", "type": "stripe", "colors": [[1, 1, 1], [0, 0, 0]], "transform": [{"op": "scale", "args": [0.2]}]},
	    {"name": "b", "type": "checkers", "colors": [[1, 0, 0]]},
	    {"name": "c", "type": "blended", "a": "a", "b": "missing"},
	    {"name": "uv", "type": "uv_checkers", "width": 4, "height": 2, "colors": [[1, 1, 1], [0, 0, 0]]},
	    {"name": "map", "type": "texture_map", "mapping": "spherical", "uv": "uv"}
	  ],
	  "materials": [
	    {"name": "glass", "preset": "glass", "reflective": 0.9},
	    {"name": "striped", "pattern": "a"},
	    {"name": "broken", "pattern": "b"},
	    {"name": "weird", "preset": "chrome"}
	  ],
	  "shapes": [
	    {"type": "plane", "material": "striped", "transform": [{"op": "translate", "args": [0, -1, 0]}]},
	    {"type": "group", "material": "glass", "children": [
	      {"type": "sphere"}, {"type": "cube"}, {"type": "blob"},
	      {"type": "cylinder", "min": 0, "max": 1, "closed": true},
	      {"type": "cone", "min": 2, "max": 1},
	      {"type": "triangle", "points": [[0, 0, 0], [1, 0, 0], [0, 1, 0]]},
	      {"type": "smooth_triangle", "points": [[0, 0, 0], [1, 0, 0], [0, 1, 0]], "normals": [[0, 0, -1], [0, 0, -1], [0, 0, -1]]}
	    ]},
	    {"type": "csg", "op": "difference", "noShadow": true,
	      "left": {"type": "cube"}, "right": {"type": "sphere", "material": "nope"}},
	    {"type": "csg", "op": "intersection", "left": {"type": "cube"}, "right": {"type": "sphere"}},
	    {"type": "triangle", "points": [[0, 0, 0], [1, 1, 1], [2, 2, 2]]}
	  ]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	sc, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	// spot light, empty area light, pattern b, pattern c, material broken,
	// material weird, blob, bad cone, csg with unknown material, flat triangle
	if sc.Skipped != 10 {
		t.Fatalf("skipped %d, want 10", sc.Skipped)
	}
	w := sc.World
	if len(w.Lights) != 1 || !w.Lights[0].Jitter || w.Lights[0].Kind != kernel.LightArea {
		t.Fatalf("lights %+v", w.Lights)
	}
	if len(w.Patterns) != 3 || len(w.Materials) != 3 || len(w.Roots) != 3 {
		t.Fatalf("patterns %d materials %d roots %d", len(w.Patterns), len(w.Materials), len(w.Roots))
	}
	g := w.Shapes[w.Roots[1]]
	if g.Kind != kernel.KindGroup || len(g.Children) != 5 || g.BVH < 0 {
		t.Fatalf("group %+v", g)
	}
	c := w.Shapes[w.Roots[2]]
	if c.Kind != kernel.KindCSG || c.Op != kernel.OpIntersection {
		t.Fatalf("csg %+v", c)
	}
	if w.Materials[1].Transparency != 1 || w.Materials[1].Reflective != 0.9 || w.Materials[2].Pattern != 0 {
		t.Fatalf("materials %+v", w.Materials)
	}
}

func TestBuildNothingUsable(t *testing.T) {
	cfg, err := Parse([]byte(`{"camera": {"to": [0, 0, 1]}, "lights": [{}], "shapes": [{"type": "blob"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.Build(); err == nil {
		t.Fatal("world without shapes built")
	}
}

func TestLoadWithTexture(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 1, color.NRGBA{B: 255, A: 255})
	f, err := os.Create(filepath.Join(dir, "tex.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfgPath := filepath.Join(dir, "scene.json")
	doc := `{
	  "camera": {"from": [0, 0, -5], "to": [0, 0, 0]},
	  "lights": [{"position": [0, 5, -5], "intensity": [1, 1, 1]}],
	  "textures": [{"name": "t", "path": "tex.png"}, {"name": "gone", "path": "missing.png"}],
	  "patterns": [{"name": "img", "type": "uv_image", "texture": "t"},
	               {"name": "cube", "type": "cube_map", "faces": ["img", "img", "img", "img", "img", "img"]}],
	  "materials": [{"name": "m", "pattern": "cube"}],
	  "shapes": [{"type": "cube", "material": "m"}]
	}`
	if err := os.WriteFile(cfgPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Skipped != 1 || len(sc.World.Textures) != 1 {
		t.Fatalf("skipped %d, textures %d", sc.Skipped, len(sc.World.Textures))
	}
	if c := sc.World.Texel(0, 0, 0); c != (geom.Color{R: 1}) {
		t.Fatalf("texel %+v", c)
	}
	if _, err := Load(filepath.Join(dir, "nope.json")); err == nil {
		t.Fatal("missing config loaded")
	}
}
