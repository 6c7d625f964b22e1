package spatial

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
)

// entry is an indexed item location; idx is -1 for query points and bounds.
type entry struct {
	geom.Point
	idx int
}

// Compare implements kdtree.Comparable.
func (e entry) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(entry)
	switch d {
	case 0:
		return e.X - q.X
	case 1:
		return e.Y - q.Y
	case 2:
		return e.Z - q.Z
	default:
		panic("spatial: illegal dimension")
	}
}

// Dims implements kdtree.Comparable.
func (e entry) Dims() int { return 3 }

// Distance implements kdtree.Comparable. It returns the squared distance.
func (e entry) Distance(c kdtree.Comparable) float64 {
	return e.Dist2(c.(entry).Point)
}

// entries satisfies kdtree.Interface.
type entries []entry

func (es entries) Index(i int) kdtree.Comparable         { return es[i] }
func (es entries) Len() int                              { return len(es) }
func (es entries) Slice(start, end int) kdtree.Interface { return es[start:end] }

// Pivot implements kdtree.Interface with a deterministic median of medians.
func (es entries) Pivot(d kdtree.Dim) int {
	p := plane{entries: es, Dim: d}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// plane sorts entries along one dimension; it satisfies kdtree.SortSlicer.
type plane struct {
	entries
	kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.entries[i].X < p.entries[j].X
	case 1:
		return p.entries[i].Y < p.entries[j].Y
	case 2:
		return p.entries[i].Z < p.entries[j].Z
	default:
		panic("spatial: illegal dimension")
	}
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{entries: p.entries[start:end], Dim: p.Dim}
}

func (p plane) Swap(i, j int) {
	p.entries[i], p.entries[j] = p.entries[j], p.entries[i]
}
