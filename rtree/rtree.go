// Package rtree provides a static, bulk-loaded bounding-box tree for
// broad-phase point queries over a fixed sequence of regions.
//
// The tree is packed once with the Sort-Tile-Recursive (STR) algorithm and is
// never mutated afterwards; a dataset reload builds a new tree rather than
// updating an existing one. Queries return index handles into the original
// input sequence, never geometry, and perform only bounding-box overlap
// tests: the result is a superset of the true hits and the caller runs the
// exact narrow-phase test on each candidate.
package rtree

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// nodeCapacity is the maximum number of children per node. 16 keeps the tree
// shallow for typical administrative datasets (tens of thousands of regions
// reach depth 4) while candidate lists stay short.
const nodeCapacity = 16

type node struct {
	bound    orb.Bound
	children []*node
	// leaf entries; nil for interior nodes
	indices     []int
	entryBounds []orb.Bound
}

// Tree is an immutable STR-packed bounding-box tree. The zero value is not
// usable; call Build. A Tree is safe for concurrent use by multiple readers.
type Tree struct {
	root *node
	size int
}

// Build packs a tree over the given bounding boxes. The input slice is read
// but never retained or mutated; boxes[i] must be the bound of element i of
// the caller's sequence, and query results index into that sequence.
//
// An empty input yields a valid empty tree whose Query always returns nil.
func Build(bounds []orb.Bound) *Tree {
	if len(bounds) == 0 {
		return &Tree{size: 0}
	}

	entries := make([]entry, len(bounds))
	for i, b := range bounds {
		entries[i] = entry{bound: b, index: i}
	}

	leaves := packLeaves(entries)
	root := packUp(leaves)
	return &Tree{root: root, size: len(bounds)}
}

// Len returns the number of indexed elements.
func (t *Tree) Len() int { return t.size }

// Query returns the indices of all elements whose bounding box contains pt.
// The order is a pure function of the build and the point, so repeated
// queries against the same tree are reproducible. Candidate order carries no
// geometric meaning.
func (t *Tree) Query(pt orb.Point) []int {
	if t.root == nil {
		return nil
	}
	var out []int
	walk(t.root, pt, &out)
	return out
}

func walk(n *node, pt orb.Point, out *[]int) {
	if !n.bound.Contains(pt) {
		return
	}
	if n.indices != nil {
		for i, idx := range n.indices {
			if n.entryBounds[i].Contains(pt) {
				*out = append(*out, idx)
			}
		}
		return
	}
	for _, c := range n.children {
		walk(c, pt, out)
	}
}

type entry struct {
	bound orb.Bound
	index int
}

// packLeaves runs one STR tiling pass over the raw entries: sort by center X,
// cut into vertical slices of ~sqrt(n/M) tiles, sort each slice by center Y,
// and fill leaves of up to nodeCapacity entries.
func packLeaves(entries []entry) []*node {
	sort.Slice(entries, func(i, j int) bool {
		ci, cj := centerX(entries[i].bound), centerX(entries[j].bound)
		if ci != cj {
			return ci < cj
		}
		// Stable fallback keeps the packing deterministic for ties.
		return entries[i].index < entries[j].index
	})

	leafCount := (len(entries) + nodeCapacity - 1) / nodeCapacity
	sliceCount := int(math.Ceil(math.Sqrt(float64(leafCount))))
	sliceSize := sliceCount * nodeCapacity

	var leaves []*node
	for start := 0; start < len(entries); start += sliceSize {
		end := start + sliceSize
		if end > len(entries) {
			end = len(entries)
		}
		slice := entries[start:end]
		sort.Slice(slice, func(i, j int) bool {
			ci, cj := centerY(slice[i].bound), centerY(slice[j].bound)
			if ci != cj {
				return ci < cj
			}
			return slice[i].index < slice[j].index
		})
		for ls := 0; ls < len(slice); ls += nodeCapacity {
			le := ls + nodeCapacity
			if le > len(slice) {
				le = len(slice)
			}
			leaves = append(leaves, newLeaf(slice[ls:le]))
		}
	}
	return leaves
}

// packUp builds interior levels until a single root remains. Nodes are
// grouped in packing order, which STR already arranged spatially.
func packUp(level []*node) *node {
	for len(level) > 1 {
		var next []*node
		for start := 0; start < len(level); start += nodeCapacity {
			end := start + nodeCapacity
			if end > len(level) {
				end = len(level)
			}
			next = append(next, newInterior(level[start:end]))
		}
		level = next
	}
	return level[0]
}

func newLeaf(entries []entry) *node {
	n := &node{
		indices:     make([]int, len(entries)),
		entryBounds: make([]orb.Bound, len(entries)),
	}
	n.bound = entries[0].bound
	for i, e := range entries {
		n.indices[i] = e.index
		n.entryBounds[i] = e.bound
		n.bound = n.bound.Union(e.bound)
	}
	return n
}

func newInterior(children []*node) *node {
	n := &node{children: make([]*node, len(children))}
	copy(n.children, children)
	n.bound = children[0].bound
	for _, c := range children[1:] {
		n.bound = n.bound.Union(c.bound)
	}
	return n
}

func centerX(b orb.Bound) float64 { return (b.Min[0] + b.Max[0]) / 2 }
func centerY(b orb.Bound) float64 { return (b.Min[1] + b.Max[1]) / 2 }
