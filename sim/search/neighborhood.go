// Package search defines the search neighborhoods used to collect conditioning data
// around a simulation cell, and the search strategy that refines the raw candidates
// returned by a spatial index into the final, distance-ordered neighbor list.
//
// Every shape is immutable after construction and safe for concurrent use.
package search

import (
	"math"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
)

// Neighborhood is a search shape centered at a query location.
type Neighborhood interface {
	// BoundingBox returns an axis-aligned box enclosing the shape centered at center.
	BoundingBox(center geom.Point) geom.Box
	// Contains reports whether p is inside the shape centered at center.
	Contains(center, p geom.Point) bool
	// HasSpatialFiltering is true when the final selection needs more than a
	// containment test (e.g. sector quotas).
	HasSpatialFiltering() bool
	// SpatialFilter refines candidates in place and returns the kept prefix.
	SpatialFilter(center geom.Point, candidates []Candidate, s *Strategy) []Candidate
}

// Candidate is one item found by a spatial query.
type Candidate struct {
	Index    int        // index of the item in its source
	Location geom.Point // representative location of the item
	Dist2    float64    // squared distance to the query center
}

// infiniteZ is used by 2D shapes whose bounding box is unbounded vertically.
var infiniteZ = math.MaxFloat64

// noFilter is embedded by shapes without spatial filtering.
type noFilter struct{}

func (noFilter) HasSpatialFiltering() bool { return false }

func (noFilter) SpatialFilter(_ geom.Point, candidates []Candidate, _ *Strategy) []Candidate {
	return candidates
}

// degenerateBox is the bounding box of a shape that contains nothing.
func degenerateBox(center geom.Point) geom.Box {
	return geom.Box{Min: center, Max: center}
}
