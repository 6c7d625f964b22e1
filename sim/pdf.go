package sim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// NoFacies is returned when a category cannot be drawn from a distribution.
const NoFacies = -1

// cumulativeTolerance is the slack allowed on the uniform value passed to
// FaciesFromCumulativeFrequency.
const cumulativeTolerance = 1e-6

// DefaultSumTolerance is the tolerance used when checking that a PDF sums to one.
const DefaultSumTolerance = 0.001

// CategoryPDF is a probability mass function over the categories of a definition.
type CategoryPDF struct {
	cd    *CategoryDefinition
	probs []float64
}

// NewCategoryPDF builds a PDF whose probabilities are aligned with cd's order.
func NewCategoryPDF(cd *CategoryDefinition, probs []float64) (*CategoryPDF, error) {
	if cd == nil {
		return nil, fmt.Errorf("category PDF requires a category definition")
	}
	if len(probs) != cd.Count() {
		return nil, fmt.Errorf("category PDF has %d probabilities, definition %q has %d categories",
			len(probs), cd.DefinitionName(), cd.Count())
	}
	p := make([]float64, len(probs))
	copy(p, probs)
	return &CategoryPDF{cd: cd, probs: p}, nil
}

// CategoryDefinition returns the definition the PDF refers to.
func (p *CategoryPDF) CategoryDefinition() *CategoryDefinition { return p.cd }

// Len is the number of entries.
func (p *CategoryPDF) Len() int { return len(p.probs) }

// Prob returns the probability of the i-th category.
func (p *CategoryPDF) Prob(i int) float64 { return p.probs[i] }

// ProbOfCode returns the probability of code, 0 when the code is unknown.
func (p *CategoryPDF) ProbOfCode(code int) float64 {
	i := p.cd.Index(code)
	if i < 0 {
		return 0
	}
	return p.probs[i]
}

// Probs returns a copy of the probabilities.
func (p *CategoryPDF) Probs() []float64 {
	out := make([]float64, len(p.probs))
	copy(out, p.probs)
	return out
}

// SumProbs is the total mass.
func (p *CategoryPDF) SumProbs() float64 { return floats.Sum(p.probs) }

// SumsToOne reports whether the total mass is within tol of 1.
func (p *CategoryPDF) SumsToOne(tol float64) bool {
	s := p.SumProbs()
	return s >= 1-tol && s <= 1+tol
}

// HasZeroOrLessProb reports whether any category has no mass.
func (p *CategoryPDF) HasZeroOrLessProb() bool {
	return len(p.probs) > 0 && floats.Min(p.probs) <= 0
}

// HasNegativeProbabilities reports whether any probability is negative.
func (p *CategoryPDF) HasNegativeProbabilities() bool {
	return len(p.probs) > 0 && floats.Min(p.probs) < 0
}

// ForceSumToOne clamps negative entries to zero and rescales the rest to sum one.
// A distribution with no mass left becomes uniform.
func (p *CategoryPDF) ForceSumToOne() {
	normalizeInPlace(p.probs)
}

// normalizeInPlace is ForceSumToOne on a raw slice.
func normalizeInPlace(v []float64) {
	if len(v) == 0 {
		return
	}
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
	s := floats.Sum(v)
	if s <= 0 {
		for i := range v {
			v[i] = 1 / float64(len(v))
		}
		return
	}
	floats.Scale(1/s, v)
}

// FaciesFromCumulativeFrequency returns the first code whose cumulative mass reaches
// u. It returns NoFacies for an empty distribution or u outside [0, 1].
func (p *CategoryPDF) FaciesFromCumulativeFrequency(u float64) int {
	if len(p.probs) == 0 || u < -cumulativeTolerance || u > 1+cumulativeTolerance {
		return NoFacies
	}
	cum := 0.0
	for i, pr := range p.probs {
		cum += pr
		if cum >= u {
			return p.cd.Code(i)
		}
	}
	// Round-off left the total just below u.
	return p.cd.Code(len(p.probs) - 1)
}

// setProbs overwrites the probabilities; v must hold Len values.
func (p *CategoryPDF) setProbs(v []float64) { copy(p.probs, v) }

// Clone returns a deep copy sharing the category definition.
func (p *CategoryPDF) Clone() *CategoryPDF {
	return &CategoryPDF{cd: p.cd, probs: p.Probs()}
}
