package kernel

import (
	"fmt"
	"log/slog"
	"strings"
)

type Category uint8

const (
	Hit            Category = iota // primary or secondary ray hit something
	Miss                           // ray left the scene
	Reflect                        // reflected ray spawned
	Refract                        // refracted ray spawned
	TIR                            // total internal reflection, refracted term black
	RecursionLimit                 // depth exhausted
	Shadow                         // shadow ray blocked
	numCategories
)

var categoryNames = [numCategories]string{"hit", "miss", "reflect", "refract", "tir", "recursion_limit", "shadow"}

func (c Category) String() string {
	if c < numCategories {
		return categoryNames[c]
	}
	return "unknown"
}

// RayStats counts rays per category. It belongs to one tracer and is not
// synchronised; merge per-worker stats after the workers stop.
type RayStats struct {
	Counts [numCategories]uint64
}

func (s *RayStats) Add(c Category) { s.Counts[c]++ }

func (s *RayStats) Merge(o *RayStats) {
	for i, n := range o.Counts {
		s.Counts[i] += n
	}
}

func (s *RayStats) Total() (n uint64) {
	for _, c := range s.Counts {
		n += c
	}
	return n
}

func (s *RayStats) String() string {
	var b strings.Builder
	for i, n := range s.Counts {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%d", Category(i), n)
	}
	return b.String()
}

// LogValue renders the counters as a slog group.
func (s *RayStats) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, numCategories)
	for i, n := range s.Counts {
		attrs = append(attrs, slog.Uint64(Category(i).String(), n))
	}
	return slog.GroupValue(attrs...)
}
