package kernel

import (
	"bufio"
	"encoding/binary"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// Canvas stores linear RGB as W*H*3 floats, row-major from the top-left.
type Canvas struct {
	Width, Height int
	Pix           []geom.Real
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{Width: w, Height: h, Pix: make([]geom.Real, w*h*3)}
}

func (c *Canvas) idx(x, y int) int { return (y*c.Width + x) * 3 }

func (c *Canvas) At(x, y int) geom.Color {
	i := c.idx(x, y)
	return geom.Color{R: c.Pix[i], G: c.Pix[i+1], B: c.Pix[i+2]}
}

func (c *Canvas) Set(x, y int, col geom.Color) {
	i := c.idx(x, y)
	c.Pix[i], c.Pix[i+1], c.Pix[i+2] = col.R, col.G, col.B
}

// SetRect copies a w×h block of RGB triples whose top-left is (x,y).
func (c *Canvas) SetRect(x, y, w, h int, pix []geom.Real) error {
	if x < 0 || y < 0 || x+w > c.Width || y+h > c.Height {
		return errors.Errorf("rect %dx%d at (%d,%d) outside %dx%d canvas", w, h, x, y, c.Width, c.Height)
	}
	if len(pix) != w*h*3 {
		return errors.Errorf("rect %dx%d needs %d values, got %d", w, h, w*h*3, len(pix))
	}
	for row := 0; row < h; row++ {
		copy(c.Pix[c.idx(x, y+row):c.idx(x+w, y+row)], pix[row*w*3:(row+1)*w*3])
	}
	return nil
}

func toU16(v, gamma geom.Real) uint16 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		v = 1
	}
	if gamma != 1 && gamma > 0 {
		v = math.Pow(v, 1/gamma)
	}
	return uint16(math.Round(v * 65535))
}

// Image16 converts to 16-bit NRGBA, clamping each channel to [0,1] and
// applying 1/gamma.
func (c *Canvas) Image16(gamma geom.Real) *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, c.Width, c.Height))
	const pxBytes = 8
	for y := 0; y < c.Height; y++ {
		rowOff := y * img.Stride
		for x := 0; x < c.Width; x++ {
			i := c.idx(x, y)
			p := rowOff + x*pxBytes
			for ch := 0; ch < 3; ch++ {
				v := toU16(c.Pix[i+ch], gamma)
				img.Pix[p+2*ch] = uint8(v >> 8)
				img.Pix[p+2*ch+1] = uint8(v)
			}
			img.Pix[p+6], img.Pix[p+7] = 0xFF, 0xFF
		}
	}
	return img
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "mkdir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	return f, nil
}

// SavePNG16 writes a lossless 16-bit PNG.
func (c *Canvas) SavePNG16(path string, gamma geom.Real) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(f, c.Image16(gamma)); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return f.Close()
}

// SaveTIFF writes a deflate-compressed 16-bit TIFF.
func (c *Canvas) SaveTIFF(path string, gamma geom.Real) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := tiff.Encode(f, c.Image16(gamma), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return f.Close()
}

// SaveRawRGB64 dumps the canvas as int32 width, int32 height, then W*H*3
// float64 values, all little-endian.
func (c *Canvas) SaveRawRGB64(path string) error {
	if len(c.Pix) != c.Width*c.Height*3 {
		return errors.Errorf("pix length mismatch: got %d, expected %d", len(c.Pix), c.Width*c.Height*3)
	}
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, [2]int32{int32(c.Width), int32(c.Height)}); err != nil {
		return errors.Wrap(err, "raw header")
	}
	if err := binary.Write(w, binary.LittleEndian, c.Pix); err != nil {
		return errors.Wrap(err, "raw body")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "raw flush")
	}
	return f.Sync()
}
