// Package config reads the JSON render description and builds the kernel
// world and camera from it.
package config

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
	"github.com/lukaszgryglicki/raytracer/internal/kernel"
	"github.com/lukaszgryglicki/raytracer/internal/logging"
)

const (
	Width          = 320
	Height         = 240
	FOVDeg         = 60
	Samples        = 1
	Gamma          = 1.0
	Out            = "render.png"
	BVHThreshold   = 8
	TextureMaxSize = 2048
)

// Vec3 is a JSON triple: a point, a vector or an RGB colour by context.
type Vec3 [3]geom.Real

func (v Vec3) Point() geom.Vector4  { return geom.Point(v[0], v[1], v[2]) }
func (v Vec3) Vector() geom.Vector4 { return geom.Vector(v[0], v[1], v[2]) }
func (v Vec3) Color() geom.Color    { return geom.Color{R: v[0], G: v[1], B: v[2]} }

// TransformCfg is one step of a transform list. Steps apply in list order.
// Rotations are in degrees.
//
//	translate x y z | scale x y z | scale s | rotateX a | rotateY a | rotateZ a
//	shear xy xz yx yz zx zy
type TransformCfg struct {
	Op   string      `json:"op"`
	Args []geom.Real `json:"args"`
}

type CameraCfg struct {
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	FOVDeg        geom.Real `json:"fovDeg"`
	From          Vec3      `json:"from"`
	To            Vec3      `json:"to"`
	Up            Vec3      `json:"up"`
	Aperture      geom.Real `json:"aperture,omitempty"`
	FocalDistance geom.Real `json:"focalDistance,omitempty"`
	Samples       int       `json:"samples,omitempty"`
	MaxDepth      int       `json:"maxDepth,omitempty"`
}

type RenderCfg struct {
	Workers        int       `json:"workers,omitempty"`
	StripHeight    int       `json:"stripHeight,omitempty"`
	Shuffle        bool      `json:"shuffle,omitempty"`
	Seed           int64     `json:"seed,omitempty"`
	Gamma          geom.Real `json:"gamma,omitempty"`
	Out            string    `json:"out,omitempty"`
	BVHThreshold   int       `json:"bvhThreshold,omitempty"`
	TextureMaxSize int       `json:"textureMaxSize,omitempty"`
}

type LightCfg struct {
	Type        string    `json:"type"` // "point" (default) or "area"
	Position    Vec3      `json:"position"`
	Intensity   Vec3      `json:"intensity"`
	U           Vec3      `json:"u,omitempty"`
	V           Vec3      `json:"v,omitempty"`
	USteps      int       `json:"usteps,omitempty"`
	VSteps      int       `json:"vsteps,omitempty"`
	Jitter      bool      `json:"jitter,omitempty"`
	MaxSamples  int       `json:"maxSamples,omitempty"`
	Sensitivity geom.Real `json:"sensitivity,omitempty"`
}

type TextureCfg struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// PatternCfg references sub-patterns and textures by name; they must be
// declared earlier in the file.
type PatternCfg struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Colors    []Vec3         `json:"colors,omitempty"`
	Transform []TransformCfg `json:"transform,omitempty"`
	A         string         `json:"a,omitempty"`
	B         string         `json:"b,omitempty"`
	UV        string         `json:"uv,omitempty"`
	Mapping   string         `json:"mapping,omitempty"`
	Faces     []string       `json:"faces,omitempty"`
	Width     geom.Real      `json:"width,omitempty"`
	Height    geom.Real      `json:"height,omitempty"`
	Texture   string         `json:"texture,omitempty"`
}

// MaterialCfg overrides the default material (or the glass preset)
// field by field.
type MaterialCfg struct {
	Name            string     `json:"name"`
	Preset          string     `json:"preset,omitempty"`
	Color           *Vec3      `json:"color,omitempty"`
	Pattern         string     `json:"pattern,omitempty"`
	Ambient         *geom.Real `json:"ambient,omitempty"`
	Diffuse         *geom.Real `json:"diffuse,omitempty"`
	Specular        *geom.Real `json:"specular,omitempty"`
	Shininess       *geom.Real `json:"shininess,omitempty"`
	Reflective      *geom.Real `json:"reflective,omitempty"`
	Transparency    *geom.Real `json:"transparency,omitempty"`
	RefractiveIndex *geom.Real `json:"refractiveIndex,omitempty"`
}

type ShapeCfg struct {
	Type      string         `json:"type"`
	Material  string         `json:"material,omitempty"`
	Transform []TransformCfg `json:"transform,omitempty"`
	Min       *geom.Real     `json:"min,omitempty"`
	Max       *geom.Real     `json:"max,omitempty"`
	Closed    bool           `json:"closed,omitempty"`
	NoShadow  bool           `json:"noShadow,omitempty"`
	Children  []ShapeCfg     `json:"children,omitempty"`
	Op        string         `json:"op,omitempty"`
	Left      *ShapeCfg      `json:"left,omitempty"`
	Right     *ShapeCfg      `json:"right,omitempty"`
	Points    []Vec3         `json:"points,omitempty"`
	Normals   []Vec3         `json:"normals,omitempty"`
}

type Config struct {
	Camera    CameraCfg     `json:"camera"`
	Render    RenderCfg     `json:"render"`
	Lights    []LightCfg    `json:"lights"`
	Textures  []TextureCfg  `json:"textures,omitempty"`
	Patterns  []PatternCfg  `json:"patterns,omitempty"`
	Materials []MaterialCfg `json:"materials,omitempty"`
	Shapes    []ShapeCfg    `json:"shapes"`

	// dir resolves relative texture paths.
	dir string
}

func radians(deg geom.Real) geom.Real { return deg * math.Pi / 180 }

// Load reads path and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	cfg.dir = filepath.Dir(path)
	logging.DebugLog("Loaded config from %s: %dx%d, fov=%g, lights=%d, shapes=%d, gamma=%g",
		path, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FOVDeg, len(cfg.Lights), len(cfg.Shapes), cfg.Render.Gamma)
	return cfg, nil
}

// Parse decodes a config document and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	c := &cfg.Camera
	if c.Width <= 0 {
		c.Width = Width
	}
	if c.Height <= 0 {
		c.Height = Height
	}
	if c.FOVDeg <= 0 || c.FOVDeg >= 180 {
		c.FOVDeg = FOVDeg
	}
	if c.Up == (Vec3{}) {
		c.Up = Vec3{0, 1, 0}
	}
	if c.Samples <= 0 {
		c.Samples = Samples
	}
	if c.FocalDistance <= 0 {
		c.FocalDistance = kernel.DefaultFocalDistance
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = kernel.DefaultMaxDepth
	}
	r := &cfg.Render
	if r.Gamma <= 0 {
		r.Gamma = Gamma
	}
	if r.Out == "" {
		r.Out = Out
	}
	if r.BVHThreshold == 0 {
		r.BVHThreshold = BVHThreshold
	}
	if r.TextureMaxSize == 0 {
		r.TextureMaxSize = TextureMaxSize
	}
	if c.From == c.To {
		return nil, errors.New("camera from and to coincide")
	}
	if len(cfg.Lights) == 0 {
		return nil, errors.New("config has no lights")
	}
	return &cfg, nil
}

// BuildTransform composes steps, first step applied first.
func BuildTransform(steps []TransformCfg) (geom.Mat4, error) {
	ms := make([]geom.Mat4, 0, len(steps))
	for i, s := range steps {
		a := s.Args
		var m geom.Mat4
		switch strings.ToLower(s.Op) {
		case "translate":
			if len(a) != 3 {
				return geom.Mat4{}, errors.Errorf("step %d: translate needs 3 args, got %d", i, len(a))
			}
			m = geom.Translation(a[0], a[1], a[2])
		case "scale":
			switch len(a) {
			case 1:
				m = geom.Scaling(a[0], a[0], a[0])
			case 3:
				m = geom.Scaling(a[0], a[1], a[2])
			default:
				return geom.Mat4{}, errors.Errorf("step %d: scale needs 1 or 3 args, got %d", i, len(a))
			}
		case "rotatex", "rotatey", "rotatez":
			if len(a) != 1 {
				return geom.Mat4{}, errors.Errorf("step %d: %s needs 1 arg, got %d", i, s.Op, len(a))
			}
			m = map[string]func(geom.Real) geom.Mat4{
				"rotatex": geom.RotationX,
				"rotatey": geom.RotationY,
				"rotatez": geom.RotationZ,
			}[strings.ToLower(s.Op)](radians(a[0]))
		case "shear":
			if len(a) != 6 {
				return geom.Mat4{}, errors.Errorf("step %d: shear needs 6 args, got %d", i, len(a))
			}
			m = geom.Shearing(a[0], a[1], a[2], a[3], a[4], a[5])
		default:
			return geom.Mat4{}, errors.Errorf("step %d: unknown transform %q", i, s.Op)
		}
		ms = append(ms, m)
	}
	t := geom.Chain(ms...)
	if !t.Invertible() {
		return geom.Mat4{}, errors.New("transform is singular")
	}
	return t, nil
}

// BuildCamera builds the kernel camera.
func (c *Config) BuildCamera() kernel.Camera {
	cc := c.Camera
	cam := kernel.NewCamera(cc.Width, cc.Height, radians(cc.FOVDeg))
	cam.Aperture = cc.Aperture
	cam.FocalDistance = cc.FocalDistance
	cam.Samples = cc.Samples
	cam.MaxDepth = cc.MaxDepth
	cam.SetTransform(geom.ViewTransform(cc.From.Point(), cc.To.Point(), cc.Up.Vector()))
	return cam
}

// Scene is the result of Build.
type Scene struct {
	World  *kernel.World
	Camera kernel.Camera
	// Skipped counts malformed objects that were left out.
	Skipped int
}

type builder struct {
	cfg       *Config
	w         *kernel.World
	textures  map[string]int
	patterns  map[string]int
	materials map[string]int
	skipped   int
}

func (b *builder) skip(kind string, i int, err error) {
	b.skipped++
	logging.Logger().Warn("config: skipping malformed object", "kind", kind, "index", i, "err", err)
}

// Build turns the config into a prepared world and camera. Malformed
// textures, patterns, materials, lights and shapes are skipped with a
// warning and counted; only an empty result is an error.
func (c *Config) Build() (*Scene, error) {
	b := &builder{
		cfg:       c,
		w:         kernel.NewWorld(),
		textures:  map[string]int{},
		patterns:  map[string]int{},
		materials: map[string]int{},
	}
	for i := range c.Textures {
		if err := b.texture(&c.Textures[i]); err != nil {
			b.skip("texture", i, err)
		}
	}
	for i := range c.Patterns {
		if err := b.pattern(&c.Patterns[i]); err != nil {
			b.skip("pattern", i, err)
		}
	}
	for i := range c.Materials {
		if err := b.material(&c.Materials[i]); err != nil {
			b.skip("material", i, err)
		}
	}
	for i := range c.Lights {
		l, err := buildLight(&c.Lights[i])
		if err != nil {
			b.skip("light", i, err)
			continue
		}
		b.w.AddLight(l)
	}
	for i := range c.Shapes {
		idx, err := b.shape(&c.Shapes[i])
		if err != nil {
			b.skip("shape", i, err)
			continue
		}
		b.w.AddRoot(idx)
	}
	if len(b.w.Lights) == 0 {
		return nil, errors.New("no usable lights")
	}
	if len(b.w.Roots) == 0 {
		return nil, errors.New("no usable shapes")
	}
	if t := c.Render.BVHThreshold; t > 0 {
		for _, r := range b.w.Roots {
			b.w.Divide(r, t)
		}
	}
	b.w.Prepare()
	if b.skipped > 0 {
		logging.Logger().Warn("config: malformed objects skipped", "count", b.skipped)
	}
	return &Scene{World: b.w, Camera: c.BuildCamera(), Skipped: b.skipped}, nil
}

func (b *builder) texture(tc *TextureCfg) error {
	if tc.Name == "" || tc.Path == "" {
		return errors.New("texture needs name and path")
	}
	path := tc.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.cfg.dir, path)
	}
	t, err := kernel.LoadTexture(path, b.cfg.Render.TextureMaxSize)
	if err != nil {
		return err
	}
	b.textures[tc.Name] = b.w.AddTexture(t)
	return nil
}

func lookup(m map[string]int, kind, name string) (int, error) {
	i, ok := m[name]
	if !ok {
		return -1, errors.Errorf("unknown %s %q", kind, name)
	}
	return i, nil
}

var mappings = map[string]kernel.Mapping{
	"spherical":   kernel.MapSpherical,
	"planar":      kernel.MapPlanar,
	"cylindrical": kernel.MapCylindrical,
	"cube":        kernel.MapCube,
}

func (b *builder) pattern(pc *PatternCfg) error {
	if pc.Name == "" {
		return errors.New("pattern needs a name")
	}
	colors := lo.Map(pc.Colors, func(v Vec3, _ int) geom.Color { return v.Color() })
	need := func(n int) error {
		if len(colors) < n {
			return errors.Errorf("%s pattern needs %d colors, got %d", pc.Type, n, len(colors))
		}
		return nil
	}
	var p kernel.Pattern
	switch strings.ToLower(pc.Type) {
	case "solid":
		if err := need(1); err != nil {
			return err
		}
		p = kernel.SolidPattern(colors[0])
	case "stripe", "gradient", "ring", "checkers", "radial_gradient":
		if err := need(2); err != nil {
			return err
		}
		p = map[string]func(a, b geom.Color) kernel.Pattern{
			"stripe":          kernel.StripePattern,
			"gradient":        kernel.GradientPattern,
			"ring":            kernel.RingPattern,
			"checkers":        kernel.CheckersPattern,
			"radial_gradient": kernel.RadialGradientPattern,
		}[strings.ToLower(pc.Type)](colors[0], colors[1])
	case "blended":
		a, err := lookup(b.patterns, "pattern", pc.A)
		if err != nil {
			return err
		}
		bb, err := lookup(b.patterns, "pattern", pc.B)
		if err != nil {
			return err
		}
		p = kernel.BlendedPattern(a, bb)
	case "uv_checkers":
		if err := need(2); err != nil {
			return err
		}
		if pc.Width <= 0 || pc.Height <= 0 {
			return errors.New("uv_checkers needs positive width and height")
		}
		p = kernel.UVCheckersPattern(pc.Width, pc.Height, colors[0], colors[1])
	case "uv_align_check":
		if err := need(5); err != nil {
			return err
		}
		p = kernel.UVAlignCheckPattern(colors[0], colors[1], colors[2], colors[3], colors[4])
	case "uv_image":
		t, err := lookup(b.textures, "texture", pc.Texture)
		if err != nil {
			return err
		}
		p = kernel.UVImagePattern(t)
	case "texture_map":
		m, ok := mappings[strings.ToLower(pc.Mapping)]
		if !ok {
			return errors.Errorf("unknown mapping %q", pc.Mapping)
		}
		uv, err := lookup(b.patterns, "pattern", pc.UV)
		if err != nil {
			return err
		}
		p = kernel.TextureMapPattern(m, uv)
	case "cube_map":
		if len(pc.Faces) != 6 {
			return errors.Errorf("cube_map needs 6 faces, got %d", len(pc.Faces))
		}
		var faces [6]int
		for k, name := range pc.Faces {
			f, err := lookup(b.patterns, "pattern", name)
			if err != nil {
				return errors.Wrapf(err, "face %d", k)
			}
			faces[k] = f
		}
		p = kernel.CubeMapPattern(faces)
	default:
		return errors.Errorf("unknown pattern type %q", pc.Type)
	}
	if len(pc.Transform) > 0 {
		m, err := BuildTransform(pc.Transform)
		if err != nil {
			return errors.Wrapf(err, "pattern %s", pc.Name)
		}
		p.SetTransform(m)
	}
	b.patterns[pc.Name] = b.w.AddPattern(p)
	return nil
}

func (b *builder) material(mc *MaterialCfg) error {
	if mc.Name == "" {
		return errors.New("material needs a name")
	}
	var m kernel.Material
	switch strings.ToLower(mc.Preset) {
	case "", "default":
		m = kernel.DefaultMaterial()
	case "glass":
		m = kernel.GlassMaterial()
	default:
		return errors.Errorf("unknown material preset %q", mc.Preset)
	}
	if mc.Color != nil {
		m.Color = mc.Color.Color()
	}
	if mc.Pattern != "" {
		p, err := lookup(b.patterns, "pattern", mc.Pattern)
		if err != nil {
			return err
		}
		m.Pattern = p
	}
	for _, f := range []struct {
		src *geom.Real
		dst *geom.Real
	}{
		{mc.Ambient, &m.Ambient},
		{mc.Diffuse, &m.Diffuse},
		{mc.Specular, &m.Specular},
		{mc.Shininess, &m.Shininess},
		{mc.Reflective, &m.Reflective},
		{mc.Transparency, &m.Transparency},
		{mc.RefractiveIndex, &m.RefractiveIndex},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if m.RefractiveIndex <= 0 {
		return errors.Errorf("material %s: refractive index %g", mc.Name, m.RefractiveIndex)
	}
	b.materials[mc.Name] = b.w.AddMaterial(m)
	return nil
}

func buildLight(lc *LightCfg) (kernel.Light, error) {
	switch strings.ToLower(lc.Type) {
	case "", "point":
		return kernel.NewPointLight(lc.Position.Point(), lc.Intensity.Color()), nil
	case "area":
		if lc.USteps <= 0 || lc.VSteps <= 0 {
			return kernel.Light{}, errors.Errorf("area light needs positive steps, got %dx%d", lc.USteps, lc.VSteps)
		}
		if lc.U.Vector().Cross(lc.V.Vector()).Len() < geom.Epsilon {
			return kernel.Light{}, errors.New("area light edges are degenerate")
		}
		l := kernel.NewAreaLight(lc.Position.Point(), lc.U.Vector(), lc.USteps, lc.V.Vector(), lc.VSteps, lc.Intensity.Color())
		l.Jitter = lc.Jitter
		l.MaxSamples = lc.MaxSamples
		l.Sensitivity = lc.Sensitivity
		return l, nil
	}
	return kernel.Light{}, errors.Errorf("unknown light type %q", lc.Type)
}

var csgOps = map[string]kernel.Op{
	"union":        kernel.OpUnion,
	"intersection": kernel.OpIntersection,
	"difference":   kernel.OpDifference,
}

// shape adds sc (and its subtree) to the arena and returns its index. A
// malformed group child is skipped; a malformed CSG operand fails the CSG.
func (b *builder) shape(sc *ShapeCfg) (int, error) {
	var transform geom.Mat4
	if len(sc.Transform) > 0 {
		m, err := BuildTransform(sc.Transform)
		if err != nil {
			return -1, errors.Wrapf(err, "%s transform", sc.Type)
		}
		transform = m
	} else {
		transform = geom.I4()
	}
	mat := -1
	if sc.Material != "" {
		m, err := lookup(b.materials, "material", sc.Material)
		if err != nil {
			return -1, err
		}
		mat = m
	}
	bound := func(p *geom.Real, def geom.Real) geom.Real {
		if p == nil {
			return def
		}
		return *p
	}

	var idx int
	switch strings.ToLower(sc.Type) {
	case "sphere":
		idx = b.w.AddShape(kernel.NewSphere())
	case "plane":
		idx = b.w.AddShape(kernel.NewPlane())
	case "cube":
		idx = b.w.AddShape(kernel.NewCube())
	case "cylinder", "cone":
		minY, maxY := bound(sc.Min, math.Inf(-1)), bound(sc.Max, math.Inf(1))
		if minY > maxY {
			return -1, errors.Errorf("%s min %g > max %g", sc.Type, minY, maxY)
		}
		if strings.ToLower(sc.Type) == "cylinder" {
			idx = b.w.AddShape(kernel.NewCylinder(minY, maxY, sc.Closed))
		} else {
			idx = b.w.AddShape(kernel.NewCone(minY, maxY, sc.Closed))
		}
	case "triangle":
		if len(sc.Points) != 3 {
			return -1, errors.Errorf("triangle needs 3 points, got %d", len(sc.Points))
		}
		p := lo.Map(sc.Points, func(v Vec3, _ int) geom.Vector4 { return v.Point() })
		if p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Len() < geom.Epsilon {
			return -1, errors.New("degenerate triangle")
		}
		idx = b.w.AddTriangle(p[0], p[1], p[2])
	case "smooth_triangle":
		if len(sc.Points) != 3 || len(sc.Normals) != 3 {
			return -1, errors.Errorf("smooth triangle needs 3 points and 3 normals, got %d/%d", len(sc.Points), len(sc.Normals))
		}
		p := lo.Map(sc.Points, func(v Vec3, _ int) geom.Vector4 { return v.Point() })
		n := lo.Map(sc.Normals, func(v Vec3, _ int) geom.Vector4 { return v.Vector() })
		idx = b.w.AddSmoothTriangle(p[0], p[1], p[2], n[0], n[1], n[2])
	case "group":
		idx = b.w.AddShape(kernel.NewGroup())
		for k := range sc.Children {
			c, err := b.shape(&sc.Children[k])
			if err != nil {
				b.skip("group child", k, err)
				continue
			}
			b.w.AddChild(idx, c)
		}
	case "csg":
		op, ok := csgOps[strings.ToLower(sc.Op)]
		if !ok {
			return -1, errors.Errorf("unknown csg op %q", sc.Op)
		}
		if sc.Left == nil || sc.Right == nil {
			return -1, errors.New("csg needs left and right")
		}
		l, err := b.shape(sc.Left)
		if err != nil {
			return -1, errors.Wrap(err, "csg left")
		}
		r, err := b.shape(sc.Right)
		if err != nil {
			return -1, errors.Wrap(err, "csg right")
		}
		idx = b.w.AddCSG(op, l, r)
	default:
		return -1, errors.Errorf("unknown shape type %q", sc.Type)
	}
	b.w.SetTransform(idx, transform)
	b.w.SetMaterial(idx, mat)
	b.w.At(idx).NoShadow = sc.NoShadow
	return idx, nil
}
