// Package render splits the canvas into row strips and renders them on a
// pool of workers, each reading the same flat scene buffers.
package render

import (
	"github.com/samber/lo"
)

// MaxStripHeight bounds the rows handed to a worker at once.
const MaxStripHeight = 16

// Strip is a full-width band of rows [Y, Y+H).
type Strip struct {
	X, Y, W, H int
}

// Strips partitions a width×height canvas into strips of at most height
// rows (clamped to [1, MaxStripHeight]); the last strip may be shorter.
// With shuffle the order is randomised so expensive regions spread over
// the workers.
func Strips(width, height, stripHeight int, shuffle bool) []Strip {
	if width <= 0 || height <= 0 {
		return nil
	}
	stripHeight = lo.Clamp(stripHeight, 1, MaxStripHeight)
	n := (height + stripHeight - 1) / stripHeight
	strips := lo.Times(n, func(i int) Strip {
		y := i * stripHeight
		return Strip{X: 0, Y: y, W: width, H: min(stripHeight, height-y)}
	})
	if shuffle {
		strips = lo.Shuffle(strips)
	}
	return strips
}

// Pixels is the number of pixels covered by strips.
func Pixels(strips []Strip) int {
	return lo.SumBy(strips, func(s Strip) int { return s.W * s.H })
}
