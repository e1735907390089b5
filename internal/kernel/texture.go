package kernel

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
	"github.com/lukaszgryglicki/raytracer/internal/logging"
)

// Texture is a decoded image as non-premultiplied RGBA8 rows.
type Texture struct {
	Width, Height int
	Pix           []byte
}

// TexelAt reads pixel (x,y) of an RGBA8 buffer, clamping to the edges.
func TexelAt(pix []byte, w, h, x, y int) geom.Color {
	if w <= 0 || h <= 0 {
		return geom.Black
	}
	x = lo.Clamp(x, 0, w-1)
	y = lo.Clamp(y, 0, h-1)
	off := (y*w + x) * 4
	return geom.Color{
		R: geom.Real(pix[off]) / 255,
		G: geom.Real(pix[off+1]) / 255,
		B: geom.Real(pix[off+2]) / 255,
	}
}

// DecodeTexture reads any registered image format (png, jpeg, bmp, tiff,
// webp). Images wider or taller than maxSize are scaled down with
// Catmull-Rom keeping the aspect ratio; maxSize <= 0 keeps the original.
func DecodeTexture(r io.Reader, maxSize int) (Texture, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Texture{}, errors.Wrap(err, "decode texture")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Texture{}, errors.Errorf("empty %s texture", format)
	}
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		scale := float64(maxSize) / float64(max(w, h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
		logging.DebugLog("texture %s %dx%d scaled to %dx%d", format, b.Dx(), b.Dy(), w, h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	}
	return Texture{Width: w, Height: h, Pix: dst.Pix}, nil
}

// LoadTexture opens and decodes an image file.
func LoadTexture(path string, maxSize int) (Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Texture{}, errors.Wrapf(err, "open texture %s", path)
	}
	defer f.Close()
	t, err := DecodeTexture(f, maxSize)
	if err != nil {
		return Texture{}, errors.Wrapf(err, "texture %s", path)
	}
	return t, nil
}
