package kernel

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

func TestCameraPixelSize(t *testing.T) {
	if c := NewCamera(200, 125, math.Pi/2); !almostEq(c.PixelSize, 0.01, 1e-9) {
		t.Fatalf("horizontal canvas pixel size %v", c.PixelSize)
	}
	if c := NewCamera(125, 200, math.Pi/2); !almostEq(c.PixelSize, 0.01, 1e-9) {
		t.Fatalf("vertical canvas pixel size %v", c.PixelSize)
	}
}

func TestRayForPixel(t *testing.T) {
	c := NewCamera(201, 101, math.Pi/2)
	r := c.RayForPixel(100, 50)
	vecNear(t, r.Origin, p3(0, 0, 0), 1e-9)
	vecNear(t, r.Direction, v3(0, 0, -1), 1e-9)

	r = c.RayForPixel(0, 0)
	vecNear(t, r.Direction, v3(0.66519, 0.33259, -0.66851), 1e-4)

	c.SetTransform(geom.RotationY(math.Pi / 4).Mul(geom.Translation(0, -2, 5)))
	r = c.RayForPixel(100, 50)
	vecNear(t, r.Origin, p3(0, 2, -5), 1e-9)
	vecNear(t, r.Direction, v3(math.Sqrt2/2, 0, -math.Sqrt2/2), 1e-9)
}

func TestRaysForPixelThinLens(t *testing.T) {
	c := NewCamera(21, 21, math.Pi/3)
	if n := len(c.RaysForPixel(3, 4, nil)); n != 1 {
		t.Fatalf("pinhole gives %d rays", n)
	}
	c.Aperture = 0.2
	c.FocalDistance = 6
	c.Samples = 16
	c.SetTransform(geom.ViewTransform(p3(1, 2, -8), p3(0, 0, 0), v3(0, 1, 0)))
	center := c.RayForPixel(3, 4)
	focal := center.Position(c.FocalDistance)
	for _, rng := range []*rand.Rand{nil, rand.New(rand.NewSource(5))} {
		rays := c.RaysForPixel(3, 4, rng)
		if len(rays) != 16 {
			t.Fatalf("%d rays", len(rays))
		}
		for i, r := range rays {
			if d := r.Origin.Sub(c.Origin).Len(); d > c.Aperture+1e-9 {
				t.Fatalf("ray %d origin %v off the lens", i, d)
			}
			toFocal := focal.Sub(r.Origin)
			along := r.Position(toFocal.Len())
			vecNear(t, along, focal, 1e-6)
		}
	}

	c.Samples = 1
	rays := c.RaysForPixel(3, 4, nil)
	if len(rays) != 1 || rays[0].Origin.Equal(c.Origin) {
		t.Fatalf("single lens sample %+v", rays)
	}
	vecNear(t, rays[0].Position(focal.Sub(rays[0].Origin).Len()), focal, 1e-6)
}

func TestCanvasSetRect(t *testing.T) {
	c := NewCanvas(4, 3)
	pix := []geom.Real{1, 0, 0, 0, 1, 0}
	if err := c.SetRect(1, 2, 2, 1, pix); err != nil {
		t.Fatal(err)
	}
	if c.At(1, 2) != (geom.Color{R: 1}) || c.At(2, 2) != (geom.Color{G: 1}) || c.At(0, 2) != black {
		t.Fatalf("rect not placed: %v", c.Pix)
	}
	if err := c.SetRect(3, 2, 2, 1, pix); err == nil {
		t.Fatal("out of bounds rect accepted")
	}
	if err := c.SetRect(0, 0, 2, 1, pix[:3]); err == nil {
		t.Fatal("short pixel slice accepted")
	}
}

func TestCanvasOutputs(t *testing.T) {
	dir := t.TempDir()
	c := NewCanvas(3, 2)
	c.Set(0, 0, geom.Color{R: 1.5, G: 0.5, B: -1})

	pngPath := filepath.Join(dir, "out", "img.png")
	if err := c.SavePNG16(pngPath, 1); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r != 65535 || g != 32768 || b != 0 {
		t.Fatalf("pixel = %d %d %d", r, g, b)
	}

	if err := c.SaveTIFF(filepath.Join(dir, "img.tiff"), 2.2); err != nil {
		t.Fatal(err)
	}

	rawPath := filepath.Join(dir, "img.raw")
	if err := c.SaveRawRGB64(rawPath); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(rawPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 8+3*2*3*8 {
		t.Fatalf("raw size %d", len(raw))
	}
	if w := binary.LittleEndian.Uint32(raw[0:4]); w != 3 {
		t.Fatalf("raw width %d", w)
	}
	if v := math.Float64frombits(binary.LittleEndian.Uint64(raw[8:16])); v != 1.5 {
		t.Fatalf("raw first value %v", v)
	}
}

func TestRayStats(t *testing.T) {
	var a, b RayStats
	a.Add(Hit)
	a.Add(Hit)
	b.Add(Miss)
	b.Add(TIR)
	a.Merge(&b)
	if a.Total() != 4 || a.Counts[Hit] != 2 || a.Counts[TIR] != 1 {
		t.Fatalf("stats %+v", a)
	}
	if s := a.String(); s == "" || Category(99).String() != "unknown" {
		t.Fatalf("string %q", s)
	}
}
