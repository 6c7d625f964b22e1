package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// oddsEpsilon keeps probabilities away from 0 and 1 before taking odds.
const oddsEpsilon = 1e-9

// TauModel combines a marginal distribution with several conditional distributions
// through Journel's tau model. Probabilities are combined per category with odds
// ratios and the result is renormalized over categories.
//
// A TauModel is cheap to copy with Clone and is not safe for concurrent use.
type TauModel struct {
	nCategories int
	marginal    []float64
	sources     [][]float64
	active      []bool
	taus        []float64
}

// NewTauModel creates a model for nCategories categories and nSources sources.
// Every tau factor starts at 1 and every source starts inactive.
func NewTauModel(nCategories, nSources int) *TauModel {
	m := &TauModel{
		nCategories: nCategories,
		marginal:    make([]float64, nCategories),
		sources:     make([][]float64, nSources),
		active:      make([]bool, nSources),
		taus:        make([]float64, nSources),
	}
	for s := range m.sources {
		m.sources[s] = make([]float64, nCategories)
		m.taus[s] = 1
	}
	return m
}

// SetMarginal sets the prior probabilities.
func (m *TauModel) SetMarginal(probs []float64) error {
	if len(probs) != m.nCategories {
		return fmt.Errorf("marginal has %d probabilities, want %d", len(probs), m.nCategories)
	}
	copy(m.marginal, probs)
	return nil
}

// SetSource sets the probabilities of one source and marks it active.
func (m *TauModel) SetSource(source int, probs []float64) error {
	if source < 0 || source >= len(m.sources) {
		return fmt.Errorf("source %d out of range [0, %d)", source, len(m.sources))
	}
	if len(probs) != m.nCategories {
		return fmt.Errorf("source %d has %d probabilities, want %d", source, len(probs), m.nCategories)
	}
	copy(m.sources[source], probs)
	m.active[source] = true
	return nil
}

// ClearSource marks a source inactive; it no longer contributes to the posterior.
func (m *TauModel) ClearSource(source int) {
	if source >= 0 && source < len(m.active) {
		m.active[source] = false
	}
}

// ClearSources marks every source inactive.
func (m *TauModel) ClearSources() {
	for s := range m.active {
		m.active[s] = false
	}
}

// SetTauFactor sets the weight of a source. Negative factors are rejected.
func (m *TauModel) SetTauFactor(source int, tau float64) error {
	if source < 0 || source >= len(m.taus) {
		return fmt.Errorf("source %d out of range [0, %d)", source, len(m.taus))
	}
	if tau < 0 || math.IsNaN(tau) {
		return fmt.Errorf("tau factor for source %d must be non-negative, got %g", source, tau)
	}
	m.taus[source] = tau
	return nil
}

// TauFactor returns the weight of a source.
func (m *TauModel) TauFactor(source int) float64 { return m.taus[source] }

func clampProb(p float64) float64 {
	return math.Min(math.Max(p, oddsEpsilon), 1-oddsEpsilon)
}

func odds(p float64) float64 {
	p = clampProb(p)
	return p / (1 - p)
}

func logOdds(p float64) float64 { return math.Log(odds(p)) }

// logLogistic returns log(1/(1+e^-l)) without overflowing for large |l|.
func logLogistic(l float64) float64 {
	if l > 0 {
		return -math.Log1p(math.Exp(-l))
	}
	return l - math.Log1p(math.Exp(l))
}

// Posterior returns the combined distribution, summing to one. Odds are combined
// in log space, log x = log x0 + Σ τ_i·(log x_i − log x0), so large tau factors
// saturate instead of overflowing.
func (m *TauModel) Posterior() ([]float64, error) {
	logPost := make([]float64, m.nCategories)
	for k := range logPost {
		prior := logOdds(m.marginal[k])
		l := prior
		for s, probs := range m.sources {
			if !m.active[s] || m.taus[s] == 0 {
				continue
			}
			l += m.taus[s] * (logOdds(probs[k]) - prior)
		}
		if math.IsNaN(l) {
			return nil, fmt.Errorf("log-odds of category %d is NaN: %w", k, ErrDegeneratePosterior)
		}
		logPost[k] = logLogistic(l)
	}
	norm := floats.LogSumExp(logPost)
	if math.IsInf(norm, 0) || math.IsNaN(norm) {
		return nil, fmt.Errorf("posterior log-normalizer is %g: %w", norm, ErrDegeneratePosterior)
	}
	post := make([]float64, m.nCategories)
	for k, lp := range logPost {
		post[k] = math.Exp(lp - norm)
	}
	return post, nil
}

// Clone returns an independent copy.
func (m *TauModel) Clone() *TauModel {
	c := NewTauModel(m.nCategories, len(m.sources))
	copy(c.marginal, m.marginal)
	copy(c.active, m.active)
	copy(c.taus, m.taus)
	for s := range m.sources {
		copy(c.sources[s], m.sources[s])
	}
	return c
}
