package search

import (
	"fmt"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
)

// Strategy bundles a neighborhood with the rules that turn raw candidates into the
// final neighbor list.
type Strategy struct {
	Neighborhood              Neighborhood
	MaxSamples                int     // 0 means unlimited
	MinDistanceBetweenSamples float64 // 0 disables the spacing pass
	MinSamples                int     // fewer kept neighbors yields an empty result
}

// NewStrategy validates and builds a Strategy.
func NewStrategy(nb Neighborhood, maxSamples int, minDistance float64, minSamples int) (*Strategy, error) {
	if nb == nil {
		return nil, fmt.Errorf("search strategy requires a neighborhood")
	}
	if maxSamples < 0 {
		return nil, fmt.Errorf("max samples must be non-negative, got %d", maxSamples)
	}
	if minSamples < 0 {
		return nil, fmt.Errorf("min samples must be non-negative, got %d", minSamples)
	}
	if maxSamples > 0 && minSamples > maxSamples {
		return nil, fmt.Errorf("min samples (%d) exceeds max samples (%d)", minSamples, maxSamples)
	}
	if minDistance < 0 {
		return nil, fmt.Errorf("min distance between samples must be non-negative, got %g", minDistance)
	}
	return &Strategy{
		Neighborhood:              nb,
		MaxSamples:                maxSamples,
		MinDistanceBetweenSamples: minDistance,
		MinSamples:                minSamples,
	}, nil
}

// Refine applies the precise containment test, the minimum-spacing pass, sector
// filtering (or the MaxSamples cut) and the MinSamples check to candidates whose
// bounding boxes overlap the neighborhood. candidates is reused as storage. The
// result is ordered by distance, ties broken by index.
func (s *Strategy) Refine(center geom.Point, candidates []Candidate) []Candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		if s.Neighborhood.Contains(center, c.Location) {
			kept = append(kept, c)
		}
	}
	sortByDistance(kept)

	filtering := s.Neighborhood.HasSpatialFiltering()
	if s.MinDistanceBetweenSamples > 0 {
		kept = s.spaceOut(kept, filtering)
	}
	if filtering {
		kept = s.Neighborhood.SpatialFilter(center, kept, s)
	} else if s.MaxSamples > 0 && len(kept) > s.MaxSamples {
		kept = kept[:s.MaxSamples]
	}
	if len(kept) < s.MinSamples || len(kept) == 0 {
		return nil
	}
	return kept
}

// spaceOut greedily keeps candidates, nearest first, that are at least
// MinDistanceBetweenSamples away from every candidate already kept.
func (s *Strategy) spaceOut(sorted []Candidate, filtering bool) []Candidate {
	minD2 := s.MinDistanceBetweenSamples * s.MinDistanceBetweenSamples
	kept := sorted[:0]
	for _, c := range sorted {
		if !filtering && s.MaxSamples > 0 && len(kept) >= s.MaxSamples {
			break
		}
		ok := true
		for _, k := range kept {
			if k.Location.Dist2(c.Location) < minD2 {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, c)
		}
	}
	return kept
}
