package sim

import (
	"math"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
	"github.com/mcrf-sim/mcrf-sim/sim/search"
)

// Evidence sources of the tau model.
const (
	sourceVertical = iota
	sourceLateral
	sourceSecondary
	numSources
)

const degToRad = math.Pi / 180

// neighbor is a conditioning datum or an already simulated cell.
type neighbor struct {
	code int
	loc  geom.Point
	grad float64 // gradation value, NaN when unused
}

// transition is one neighbor's contribution to a transiography source. With
// datumIsHead the datum is the head (datum → cell), otherwise the cell is.
type transition struct {
	code        int
	h           float64
	datumIsHead bool
}

// === Neighbor search ===

// neighbors collects the primary data and the simulated cells around center.
func (r *realizationRun) neighbors(center geom.Point, sp, sg *search.Strategy) []neighbor {
	var out []neighbor
	for _, c := range r.plan.primaryIndex.NearestWithinStrategy(center, sp, nil) {
		item := r.plan.primaryItems[c.Index]
		out = append(out, neighbor{
			code: r.plan.primary.Category(item),
			loc:  c.Location,
			grad: r.primaryGradation(item),
		})
	}
	for _, c := range r.gridNeighbors(center, sg) {
		out = append(out, neighbor{
			code: r.values[c.Index],
			loc:  c.Location,
			grad: r.cellGradation(c.Index),
		})
	}
	return out
}

// gridNeighbors returns simulated cells. Hard cells are left out since the
// primary data search already reaches the data they were snapped from.
func (r *realizationRun) gridNeighbors(center geom.Point, s *search.Strategy) []search.Candidate {
	ndv := r.plan.grid.NoDataValue
	accept := func(c int) bool {
		return r.plan.hardCode[c] == ndv && r.values[c] != ndv
	}
	if r.plan.gridIndex != nil {
		return r.plan.gridIndex.NearestWithinStrategy(center, s, accept)
	}
	return r.plan.windowSearch(center, s, accept)
}

func (r *realizationRun) primaryGradation(item int) float64 {
	if r.gradSet < 0 {
		return math.NaN()
	}
	return r.plan.primaryGradCols[r.gradSet][item]
}

func (r *realizationRun) cellGradation(c int) float64 {
	if r.gradSet < 0 {
		return math.NaN()
	}
	return r.plan.gridGradCols[r.gradSet][c]
}

// === Transitions ===

// verticalTransitions turns neighbors above and below the cell into vertical lags.
// A datum below is the head of its transition, a datum above is the tail.
func (r *realizationRun) verticalTransitions(center geom.Point, nbs []neighbor) []transition {
	eps := 1e-9 * r.plan.grid.DZ
	var ts []transition
	for _, nb := range nbs {
		dz := nb.loc.Z - center.Z
		switch {
		case dz < -eps:
			ts = append(ts, transition{code: nb.code, h: -dz, datumIsHead: true})
		case dz > eps:
			ts = append(ts, transition{code: nb.code, h: dz})
		}
	}
	return ts
}

// lateralTransitions measures lags in the local anisotropy ellipse of cell c.
// The lag is the normalized ellipse distance scaled to the longest transiogram
// range; neighbors outside the ellipse are skipped.
func (r *realizationRun) lateralTransitions(c int, center geom.Point, nbs []neighbor) []transition {
	sim := r.plan.sim
	a, b := sim.LVASemiMajor[c], sim.LVASemiMinor[c]
	if !(a > 0 && b > 0) {
		return nil
	}
	tail := sim.Lateral == LateralTailOnly
	if sim.Lateral == LateralHeadOrTailAtRandom {
		tail = r.path.Float64() < 0.5
	}
	sinA, cosA := math.Sincos(sim.LVAAzimuth[c] * degToRad)
	longest := r.transiogram.LongestRange()
	var ts []transition
	for _, nb := range nbs {
		dx, dy := nb.loc.X-center.X, nb.loc.Y-center.Y
		along := dx*sinA + dy*cosA
		across := dx*cosA - dy*sinA
		hn := math.Hypot(along/a, across/b)
		if hn == 0 || hn > 1 {
			continue
		}
		ts = append(ts, transition{code: nb.code, h: hn * longest, datumIsHead: tail})
	}
	return ts
}

// gradationalTransitions measures lags in (depth, gradation) space. Only data
// at or below the cell that precede it along the gradation convention count, and
// data already in the vertical neighborhood are skipped.
func (r *realizationRun) gradationalTransitions(c int, center geom.Point, nbs []neighbor) []transition {
	gc := r.cellGradation(c)
	if math.IsNaN(gc) {
		return nil
	}
	invert := r.plan.sim.InvertGradationConvention
	eps := 1e-9 * r.plan.grid.DZ
	var ts []transition
	for _, nb := range nbs {
		if math.IsNaN(nb.grad) || nb.loc.Z > center.Z+eps {
			continue
		}
		if r.plan.vertical.Contains(center, nb.loc) {
			continue
		}
		if (!invert && nb.grad > gc) || (invert && nb.grad <= gc) {
			continue
		}
		dz := (center.Z - nb.loc.Z) / r.plan.vertAniso
		ts = append(ts, transition{code: nb.code, h: math.Hypot(dz, nb.grad-gc), datumIsHead: true})
	}
	return ts
}

// transitionEvidence multiplies the transition probabilities of every category
// into out and normalizes. It reports false when there is no usable evidence,
// in which case the source must stay inactive.
func (r *realizationRun) transitionEvidence(out []float64, ts []transition) bool {
	if len(ts) == 0 {
		return false
	}
	cd := r.plan.cd
	sum := 0.0
	for k := range out {
		code := cd.Code(k)
		p := 1.0
		for _, t := range ts {
			if t.datumIsHead {
				p *= r.transiogram.TransitionProbability(t.code, code, t.h)
			} else {
				p *= r.transiogram.TransitionProbability(code, t.code, t.h)
			}
		}
		out[k] = p
		sum += p
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return false
	}
	for k := range out {
		out[k] /= sum
	}
	return true
}

// secondaryEvidence reads the probability fields at cell c. Missing values take
// the global PDF.
func (r *realizationRun) secondaryEvidence(c int, out []float64) {
	sim := r.plan.sim
	ndv := float64(r.plan.grid.NoDataValue)
	for k := range out {
		var v float64
		if sim.Mode == ModeBayesian {
			v = sim.ProbFieldSets[k][r.probSet][c]
		} else {
			v = sim.ProbFields[k][c]
		}
		if math.IsNaN(v) || v == ndv {
			v = r.plan.prior[k]
		}
		out[k] = v
	}
	normalizeInPlace(out)
}
