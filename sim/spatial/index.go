// Package spatial provides a bulk-loaded spatial index over point, segment and grid
// cell sources. It is built once per data set and then queried concurrently.
package spatial

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
	"github.com/mcrf-sim/mcrf-sim/sim/search"
)

// Source is an indexable collection of items, each with a representative location
// and a bounding box.
type Source interface {
	Len() int
	// Location is the point used for distance and containment tests.
	Location(i int) geom.Point
	// Bounds is the item's box; tolerance pads boxes of zero-size items.
	Bounds(i int, tolerance float64) geom.Box
}

// Index answers nearest-neighbor and neighborhood queries over a Source snapshot.
// Queries are read-only and safe for concurrent use; Fill and Clear are not.
type Index struct {
	tree    *kdtree.Tree
	locs    []geom.Point
	boxes   []geom.Box
	maxHalf float64
	stale   bool
}

// New returns an empty index.
func New() *Index { return &Index{} }

// Fill clears the index and bulk-loads every item of src.
func (x *Index) Fill(src Source, tolerance float64) {
	x.Clear()
	n := src.Len()
	if n == 0 {
		return
	}
	x.locs = make([]geom.Point, n)
	x.boxes = make([]geom.Box, n)
	es := make(entries, n)
	for i := 0; i < n; i++ {
		loc := src.Location(i)
		b := src.Bounds(i, tolerance)
		x.locs[i] = loc
		x.boxes[i] = b
		es[i] = entry{Point: loc, idx: i}
		// Items are keyed by location, so the box query must reach as far as the
		// farthest box edge from its own location.
		if h := maxOffset(b, loc); h > x.maxHalf {
			x.maxHalf = h
		}
	}
	x.tree = kdtree.New(es, false)
}

func maxOffset(b geom.Box, p geom.Point) float64 {
	m := math.Max(math.Abs(b.Max.X-p.X), math.Abs(p.X-b.Min.X))
	m = math.Max(m, math.Max(math.Abs(b.Max.Y-p.Y), math.Abs(p.Y-b.Min.Y)))
	return math.Max(m, math.Max(math.Abs(b.Max.Z-p.Z), math.Abs(p.Z-b.Min.Z)))
}

// Clear empties the index.
func (x *Index) Clear() {
	x.tree = nil
	x.locs = nil
	x.boxes = nil
	x.maxHalf = 0
	x.stale = false
}

// Len is the number of indexed items.
func (x *Index) Len() int { return len(x.locs) }

// IsEmpty reports whether the index holds no item.
func (x *Index) IsEmpty() bool { return len(x.locs) == 0 }

// MarkStale flags the index as out of date with its source. Queries keep answering
// from the loaded snapshot until Fill is called again.
func (x *Index) MarkStale() { x.stale = true }

// Stale reports whether MarkStale was called since the last Fill.
func (x *Index) Stale() bool { return x.stale }

// Nearest returns the indices of the k items closest to p, nearest first. Ties are
// ordered by index.
func (x *Index) Nearest(p geom.Point, k int) []int {
	return candidateIndices(x.knn(p, k, -1))
}

// NearestTo returns the k items closest to item index, excluding the item itself.
func (x *Index) NearestTo(index, k int) []int {
	if index < 0 || index >= x.Len() {
		return nil
	}
	return candidateIndices(x.knn(x.locs[index], k, index))
}

// NearestWithin is NearestTo limited to items strictly closer than maxDistance.
func (x *Index) NearestWithin(index, k int, maxDistance float64) []int {
	if index < 0 || index >= x.Len() || k <= 0 || maxDistance <= 0 {
		return nil
	}
	p := x.locs[index]
	limit := maxDistance * maxDistance
	got := x.within(p, limit, index)
	kept := got[:0]
	for _, c := range got {
		if c.Dist2 < limit {
			kept = append(kept, c)
		}
	}
	if len(kept) > k {
		kept = kept[:k]
	}
	return candidateIndices(kept)
}

// NearestWithinStrategy collects the items selected by s around center. Items
// rejected by accept (when non-nil) are ignored before any selection rule applies.
func (x *Index) NearestWithinStrategy(center geom.Point, s *search.Strategy, accept func(int) bool) []search.Candidate {
	if x.IsEmpty() || s == nil || s.Neighborhood == nil {
		return nil
	}
	q := s.Neighborhood.BoundingBox(center)
	reach := q.Pad(x.maxHalf + boundsSlack(q))
	var found []search.Candidate
	x.tree.DoBounded(&kdtree.Bounding{
		Min: entry{Point: reach.Min, idx: -1},
		Max: entry{Point: reach.Max, idx: -1},
	}, func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
		e := c.(entry)
		if !x.boxes[e.idx].Intersects(q) {
			return false
		}
		if accept != nil && !accept(e.idx) {
			return false
		}
		found = append(found, search.Candidate{Index: e.idx, Location: e.Point, Dist2: e.Point.Dist2(center)})
		return false
	})
	return s.Refine(center, found)
}

// boundsSlack keeps items lying exactly on a split plane inside the traversal.
func boundsSlack(b geom.Box) float64 {
	m := math.Max(math.Abs(b.Min.X), math.Abs(b.Max.X))
	m = math.Max(m, math.Max(math.Abs(b.Min.Y), math.Abs(b.Max.Y)))
	m = math.Max(m, math.Max(math.Abs(b.Min.Z), math.Abs(b.Max.Z)))
	if m > 1e12 {
		m = 1e12
	}
	return 1e-9 * (1 + m)
}

// knn finds the k nearest items, skipping item skip when it is non-negative.
func (x *Index) knn(p geom.Point, k, skip int) []search.Candidate {
	if x.IsEmpty() || k <= 0 {
		return nil
	}
	want := k
	if skip >= 0 {
		want++
	}
	keeper := kdtree.NewNKeeper(want)
	x.tree.NearestSet(keeper, entry{Point: p, idx: -1})
	got := x.drain(keeper.Heap, p, -1)
	if len(got) >= want {
		// Items tied with the farthest kept one may have been dropped by the
		// keeper; gather every item at that distance so ties resolve by index.
		got = x.within(p, got[len(got)-1].Dist2, -1)
	}
	out := got[:0]
	for _, c := range got {
		if c.Index != skip {
			out = append(out, c)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// within returns all items with squared distance ≤ limit2, sorted.
func (x *Index) within(p geom.Point, limit2 float64, skip int) []search.Candidate {
	keeper := kdtree.NewDistKeeper(limit2)
	x.tree.NearestSet(keeper, entry{Point: p, idx: -1})
	return x.drain(keeper.Heap, p, skip)
}

func (x *Index) drain(h kdtree.Heap, p geom.Point, skip int) []search.Candidate {
	out := make([]search.Candidate, 0, len(h))
	for _, cd := range h {
		if cd.Comparable == nil {
			continue
		}
		e := cd.Comparable.(entry)
		if e.idx == skip {
			continue
		}
		out = append(out, search.Candidate{Index: e.idx, Location: e.Point, Dist2: e.Point.Dist2(p)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dist2 != out[j].Dist2 {
			return out[i].Dist2 < out[j].Dist2
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func candidateIndices(c []search.Candidate) []int {
	if len(c) == 0 {
		return nil
	}
	out := make([]int, len(c))
	for i := range c {
		out[i] = c[i].Index
	}
	return out
}
