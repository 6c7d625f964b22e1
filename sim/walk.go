package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mcrf-sim/mcrf-sim/sim/trace"
)

// progressEvery is the number of simulated cells between progress reports.
const progressEvery = 1000

// realizationRun simulates one realization. It is owned by a single worker.
type realizationRun struct {
	plan   *runPlan
	index  int
	worker int
	path   *rand.Rand
	hyper  *rand.Rand

	transiogram *TransiogramModel
	tauTrans    float64
	tauSec      float64
	gradSet     int // -1 when no gradation field is used
	probSet     int // -1 when no probability fields are used

	tau    *TauModel
	pdf    *CategoryPDF
	vert   []float64
	lat    []float64
	sec    []float64
	values []int
	cells  int64
}

func newRealizationRun(plan *runPlan, index, worker int, rng *PartitionedRNG) *realizationRun {
	sim := plan.sim
	r := &realizationRun{
		plan:        plan,
		index:       index,
		worker:      worker,
		path:        rng.ForRealization(index, StreamPath),
		hyper:       rng.ForRealization(index, StreamHyper),
		transiogram: sim.Transiogram.Clone(),
		tauTrans:    sim.Tau.Transiography,
		tauSec:      sim.Tau.Secondary,
		gradSet:     -1,
		probSet:     -1,
		tau:         NewTauModel(plan.nCat, numSources),
		pdf:         &CategoryPDF{cd: plan.cd, probs: make([]float64, plan.nCat)},
		vert:        make([]float64, plan.nCat),
		lat:         make([]float64, plan.nCat),
		sec:         make([]float64, plan.nCat),
	}
	if len(plan.gridGradCols) > 0 {
		r.gradSet = 0
	}
	if plan.useSecondary && sim.Mode == ModeNormal {
		r.probSet = 0
	}
	if sim.Mode == ModeBayesian {
		r.drawHyperparameters()
	}
	_ = r.tau.SetMarginal(plan.prior)
	r.applyTaus()
	return r
}

// === Bayesian draws ===

// drawHyperparameters samples this realization's tau factors, gradation field,
// probability field set and transiogram from the hyper stream, in that order.
func (r *realizationRun) drawHyperparameters() {
	r.drawTaus()
	if n := len(r.plan.gridGradCols); n > 0 {
		r.gradSet = r.hyper.Intn(n)
	}
	if r.plan.useSecondary {
		r.probSet = r.hyper.Intn(r.plan.nProbSets)
	}

	lo, hi := r.plan.sim.Transiogram, r.plan.sim.Transiogram2
	for i := 0; i < r.plan.nCat; i++ {
		for j := 0; j < r.plan.nCat; j++ {
			a, b := lo.Entry(i, j), hi.Entry(i, j)
			r.transiogram.SetSill(i, j, r.uniform(a.Sill, b.Sill))
			r.transiogram.SetRange(i, j, r.uniform(a.Range, b.Range))
		}
	}
	r.transiogram.UnitizeRowwiseSills()
}

func (r *realizationRun) drawTaus() {
	t := r.plan.sim.Tau
	r.tauTrans = r.uniform(t.TransiographyRange.Start, t.TransiographyRange.End)
	r.tauSec = r.uniform(t.SecondaryRange.Start, t.SecondaryRange.End)
}

// uniform draws from [min(a,b), max(a,b)] on the hyper stream.
func (r *realizationRun) uniform(a, b float64) float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	return lo + r.hyper.Float64()*(hi-lo)
}

func (r *realizationRun) applyTaus() {
	_ = r.tau.SetTauFactor(sourceVertical, r.tauTrans)
	_ = r.tau.SetTauFactor(sourceLateral, r.tauTrans)
	_ = r.tau.SetTauFactor(sourceSecondary, r.tauSec)
}

// === Random walk ===

// permutation returns a uniformly random ordering of [0, n) (Fisher–Yates).
func permutation(n int, rng *rand.Rand) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// simulate visits every simulable cell along a random path. progress receives
// the number of cells simulated since its previous call.
func (r *realizationRun) simulate(progress func(int64)) (*Realization, error) {
	plan := r.plan
	real := NewRealization(plan.grid, r.index)
	r.values = real.Values
	copy(r.values, plan.hardCode)

	pending := int64(0)
	for _, c := range permutation(plan.grid.CellCount(), r.path) {
		if !plan.simulable[c] {
			continue
		}
		code, err := r.simulateCell(c)
		if err != nil {
			if pending > 0 {
				progress(pending)
			}
			return nil, &RealizationError{Index: r.index, Cell: c, Err: err}
		}
		r.values[c] = code
		r.cells++
		if pending++; pending == progressEvery {
			progress(pending)
			pending = 0
		}
	}
	if pending > 0 {
		progress(pending)
	}
	return real, nil
}

// simulateCell combines the evidence around cell c and draws its category.
func (r *realizationRun) simulateCell(c int) (int, error) {
	plan := r.plan
	sim := plan.sim
	if sim.cellCheck != nil {
		if err := sim.cellCheck(r.index, c); err != nil {
			return NoFacies, err
		}
	}
	if sim.Mode == ModeBayesian && sim.TauPolicy == TauPerCell {
		r.drawTaus()
		r.applyTaus()
	}
	center := plan.grid.CellCenter(c)
	r.tau.ClearSources()

	vn := r.neighbors(center, plan.vertPrimary, plan.vertGrid)
	if r.transitionEvidence(r.vert, r.verticalTransitions(center, vn)) {
		if err := r.tau.SetSource(sourceVertical, r.vert); err != nil {
			return NoFacies, err
		}
	}

	var lateral []transition
	if sim.Lateral == LateralGradationalField {
		ln := r.neighbors(center, plan.mainPrimary, plan.mainGrid)
		lateral = r.gradationalTransitions(c, center, ln)
	} else {
		ln := r.neighbors(center, plan.latPrimary, plan.latGrid)
		lateral = r.lateralTransitions(c, center, ln)
	}
	if r.transitionEvidence(r.lat, lateral) {
		if err := r.tau.SetSource(sourceLateral, r.lat); err != nil {
			return NoFacies, err
		}
	}

	if plan.useSecondary {
		r.secondaryEvidence(c, r.sec)
		if err := r.tau.SetSource(sourceSecondary, r.sec); err != nil {
			return NoFacies, err
		}
	}

	post, err := r.tau.Posterior()
	if err != nil {
		return NoFacies, err
	}
	r.pdf.setProbs(post)
	u := r.path.Float64()
	code := r.pdf.FaciesFromCumulativeFrequency(u)
	if code == NoFacies {
		return NoFacies, fmt.Errorf("drawing with u=%g: %w", u, ErrSamplingFailed)
	}
	return code, nil
}

// record describes the realization for the run trace.
func (r *realizationRun) record() trace.RealizationRecord {
	return trace.RealizationRecord{
		Index:            r.index,
		Worker:           r.worker,
		TauTransiography: r.tauTrans,
		TauSecondary:     r.tauSec,
		GradationSet:     r.gradSet,
		ProbFieldSet:     r.probSet,
		CellsSimulated:   r.cells,
	}
}
