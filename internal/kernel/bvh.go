package kernel

import (
	"fmt"
	"io"
	"strings"

	"github.com/lukaszgryglicki/raytracer/internal/geom"
)

// Node is a BVH node over the children of one group. A leaf owns the
// child positions [Start, End); inner nodes have two or three children
// (left half, right half, straddlers).
type Node struct {
	Bounds      geom.AABB
	Start, End  int
	Children    [3]int
	NumChildren int
}

// Leaf reports whether the node owns children directly.
func (n *Node) Leaf() bool { return n.NumChildren == 0 }

// Divide builds or refines BVH trees below shape idx. Any group with more
// than threshold direct children gets a tree; existing leaves over the
// threshold are split further. Child groups and CSG operands are divided
// recursively.
func (w *World) Divide(idx, threshold int) {
	w.ensure()
	w.divide(idx, max(threshold, 1))
}

func (w *World) divide(idx, threshold int) {
	s := &w.Shapes[idx]
	switch s.Kind {
	case KindCSG:
		w.divide(s.Left, threshold)
		w.divide(s.Right, threshold)
	case KindGroup:
		for _, c := range s.Children {
			w.divide(c, threshold)
		}
		if s.BVH < 0 {
			if len(s.Children) <= threshold {
				return
			}
			w.Shapes[idx].BVH = w.newNode(idx, 0, len(s.Children))
		}
		for _, leaf := range w.leaves(w.Shapes[idx].BVH, nil) {
			w.splitNode(idx, leaf, threshold)
		}
	}
}

func (w *World) newNode(g, start, end int) int {
	b := geom.EmptyAABB()
	for _, c := range w.Shapes[g].Children[start:end] {
		b = b.Merge(w.parentBox(c))
	}
	w.Nodes = append(w.Nodes, Node{Bounds: b, Start: start, End: end})
	return len(w.Nodes) - 1
}

func (w *World) leaves(ni int, acc []int) []int {
	n := &w.Nodes[ni]
	if n.Leaf() {
		return append(acc, ni)
	}
	for _, c := range n.Children[:n.NumChildren] {
		acc = w.leaves(c, acc)
	}
	return acc
}

// splitNode partitions leaf ni at the midpoint of its longest axis.
// The group's children are permuted so each bucket stays contiguous.
func (w *World) splitNode(g, ni, threshold int) {
	n := w.Nodes[ni]
	if n.End-n.Start <= threshold {
		return
	}
	left, right, ok := n.Bounds.Split()
	if !ok {
		return
	}
	run := w.Shapes[g].Children[n.Start:n.End]
	var buckets [3][]int
	for _, c := range run {
		box := w.parentBox(c)
		switch {
		case left.ContainsBox(box):
			buckets[0] = append(buckets[0], c)
		case right.ContainsBox(box):
			buckets[1] = append(buckets[1], c)
		default:
			buckets[2] = append(buckets[2], c)
		}
	}
	nonEmpty := 0
	for _, b := range buckets {
		if len(b) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return
	}
	pos := 0
	var kids [3]int
	nk := 0
	for _, b := range buckets {
		if len(b) == 0 {
			continue
		}
		copy(run[pos:], b)
		kids[nk] = w.newNode(g, n.Start+pos, n.Start+pos+len(b))
		nk++
		pos += len(b)
	}
	w.Nodes[ni].Children = kids
	w.Nodes[ni].NumChildren = nk
	for _, k := range kids[:nk] {
		w.splitNode(g, k, threshold)
	}
}

// BVHStats summarises the tree below a group.
type BVHStats struct {
	Nodes    int
	Leaves   int
	Objects  int
	MaxLeaf  int
	MaxDepth int
}

// StatsBVH walks the BVH of group idx; a group without a tree reports zeros.
func StatsBVH(st Store, idx int) BVHStats {
	var s Shape
	st.Shape(idx, &s)
	var out BVHStats
	if s.Kind != KindGroup || s.BVH < 0 {
		return out
	}
	var walk func(ni, depth int)
	walk = func(ni, depth int) {
		var n Node
		st.Node(ni, &n)
		out.Nodes++
		out.MaxDepth = max(out.MaxDepth, depth)
		if n.Leaf() {
			out.Leaves++
			out.Objects += n.End - n.Start
			out.MaxLeaf = max(out.MaxLeaf, n.End-n.Start)
			return
		}
		for _, c := range n.Children[:n.NumChildren] {
			walk(c, depth+1)
		}
	}
	walk(s.BVH, 0)
	return out
}

// DumpBVH prints the BVH of group idx with one tab per level.
func DumpBVH(out io.Writer, st Store, idx int) {
	var s Shape
	st.Shape(idx, &s)
	if s.Kind != KindGroup || s.BVH < 0 {
		fmt.Fprintln(out, "[BVH] <empty>")
		return
	}
	stats := StatsBVH(st, idx)
	fmt.Fprintf(out, "[BVH] root: nodes=%d leaves=%d objs=%d depth=%d\n", stats.Nodes, stats.Leaves, stats.Objects, stats.MaxDepth)
	var dump func(ni, depth int)
	dump = func(ni, depth int) {
		var n Node
		st.Node(ni, &n)
		ind := strings.Repeat("\t", depth)
		b := n.Bounds
		if n.Leaf() {
			fmt.Fprintf(out, "%sLEAF  objs=%d | min=(%.5g,%.5g,%.5g) max=(%.5g,%.5g,%.5g)\n",
				ind, n.End-n.Start, b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
			return
		}
		fmt.Fprintf(out, "%sNODE  children=%d | min=(%.5g,%.5g,%.5g) max=(%.5g,%.5g,%.5g)\n",
			ind, n.NumChildren, b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		for _, c := range n.Children[:n.NumChildren] {
			dump(c, depth+1)
		}
	}
	dump(s.BVH, 0)
}
