package kernel

import (
	"math"
	"math/rand"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

const (
	DefaultMaxDepth      = 4
	DefaultFocalDistance = 1.0
)

// Camera maps pixels to rays through a canvas at z=-1 in camera space.
type Camera struct {
	HSize, VSize  int
	FieldOfView   geom.Real
	Transform     geom.Mat4
	Inverse       geom.Mat4
	Origin        geom.Vector4
	HalfWidth     geom.Real
	HalfHeight    geom.Real
	PixelSize     geom.Real
	Aperture      geom.Real
	FocalDistance geom.Real
	// Samples is the number of lens samples per pixel when Aperture > 0.
	Samples  int
	MaxDepth int
}

func NewCamera(hsize, vsize int, fov geom.Real) Camera {
	c := Camera{
		HSize:         hsize,
		VSize:         vsize,
		FieldOfView:   fov,
		FocalDistance: DefaultFocalDistance,
		Samples:       1,
		MaxDepth:      DefaultMaxDepth,
	}
	c.SetTransform(geom.I4())
	c.computePixelSize()
	return c
}

func (c *Camera) computePixelSize() {
	halfView := math.Tan(c.FieldOfView / 2)
	aspect := geom.Real(c.HSize) / geom.Real(c.VSize)
	if aspect >= 1 {
		c.HalfWidth = halfView
		c.HalfHeight = halfView / aspect
	} else {
		c.HalfWidth = halfView * aspect
		c.HalfHeight = halfView
	}
	c.PixelSize = c.HalfWidth * 2 / geom.Real(c.HSize)
}

// SetTransform sets the view transform and caches its inverse and the
// world-space eye position.
func (c *Camera) SetTransform(m geom.Mat4) {
	c.Transform = m
	c.Inverse = m.Inverse()
	c.Origin = c.Inverse.MulVec(geom.Point(0, 0, 0))
}

// canvasPoint is the camera-space point on the z=-1 canvas for pixel
// coordinates (fx, fy) measured from the top-left corner.
func (c *Camera) canvasPoint(fx, fy geom.Real) geom.Vector4 {
	return geom.Point(c.HalfWidth-fx*c.PixelSize, c.HalfHeight-fy*c.PixelSize, -1)
}

// RayForPixel is the ray through the centre of pixel (x,y).
func (c *Camera) RayForPixel(x, y int) geom.Ray {
	pixel := c.Inverse.MulVec(c.canvasPoint(geom.Real(x)+0.5, geom.Real(y)+0.5))
	return geom.NewRay(c.Origin, pixel.Sub(c.Origin).Norm())
}

// RaysForPixel returns the rays to average for pixel (x,y). With an
// aperture it places Samples origins (at least one) on the lens disk and
// aims each at the point FocalDistance along the pixel's world ray. A nil
// rng uses a fixed spiral over the disk.
func (c *Camera) RaysForPixel(x, y int, rng *rand.Rand) []geom.Ray {
	center := c.RayForPixel(x, y)
	if c.Aperture <= 0 {
		return []geom.Ray{center}
	}
	focal := center.Position(c.FocalDistance)
	// orthonormal lens axes in world space
	u := c.Inverse.MulVec(geom.Vector(1, 0, 0)).Norm()
	v := c.Inverse.MulVec(geom.Vector(0, 1, 0))
	v = v.Sub(u.Mul(v.Dot(u))).Norm()
	rays := make([]geom.Ray, max(1, c.Samples))
	goldenAngle := math.Pi * (3 - math.Sqrt(5))
	for k := range rays {
		var r, theta geom.Real
		if rng != nil {
			r = c.Aperture * math.Sqrt(rng.Float64())
			theta = 2 * math.Pi * rng.Float64()
		} else {
			r = c.Aperture * math.Sqrt((geom.Real(k)+0.5)/geom.Real(len(rays)))
			theta = geom.Real(k) * goldenAngle
		}
		origin := c.Origin.Add(u.Mul(r * math.Cos(theta))).Add(v.Mul(r * math.Sin(theta)))
		rays[k] = geom.NewRay(origin, focal.Sub(origin).Norm())
	}
	return rays
}
