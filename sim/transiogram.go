package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Structure is the functional form of a transiogram entry.
type Structure int

const (
	Spherical Structure = iota
	Exponential
	Gaussian
)

var structureNames = map[Structure]string{
	Spherical:   "spherical",
	Exponential: "exponential",
	Gaussian:    "gaussian",
}

// String returns the lowercase structure name.
func (s Structure) String() string {
	if n, ok := structureNames[s]; ok {
		return n
	}
	return fmt.Sprintf("structure(%d)", int(s))
}

// ParseStructure resolves a structure name.
func ParseStructure(name string) (Structure, error) {
	for s, n := range structureNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown transiogram structure %q; valid options: spherical, exponential, gaussian", name)
}

// Gamma evaluates a structure of range a and contribution c at lag h.
// Exponential and Gaussian use the practical range convention.
func Gamma(s Structure, h, a, c float64) float64 {
	if h <= 0 {
		return 0
	}
	if a <= 0 {
		return c
	}
	r := h / a
	switch s {
	case Exponential:
		return c * (1 - math.Exp(-3*r))
	case Gaussian:
		return c * (1 - math.Exp(-3*r*r))
	default:
		if h > a {
			return c
		}
		return c * (1.5*r - 0.5*r*r*r)
	}
}

// TransiogramEntry models the transition from a head category to a tail category.
type TransiogramEntry struct {
	Structure Structure
	Range     float64
	Sill      float64
}

// TransiogramModel is an n×n matrix of entries indexed by (head, tail) category
// indices of its definition. The matrix need not be symmetric.
type TransiogramModel struct {
	cd      *CategoryDefinition
	entries [][]TransiogramEntry
}

// NewTransiogramModel builds a model; entries must be n×n with n the category count.
func NewTransiogramModel(cd *CategoryDefinition, entries [][]TransiogramEntry) (*TransiogramModel, error) {
	if cd == nil {
		return nil, fmt.Errorf("transiogram requires a category definition")
	}
	n := cd.Count()
	if len(entries) != n {
		return nil, fmt.Errorf("transiogram has %d rows, definition %q has %d categories",
			len(entries), cd.DefinitionName(), n)
	}
	m := &TransiogramModel{cd: cd, entries: make([][]TransiogramEntry, n)}
	for i, row := range entries {
		if len(row) != n {
			return nil, fmt.Errorf("transiogram row %d has %d entries, want %d", i, len(row), n)
		}
		m.entries[i] = append([]TransiogramEntry(nil), row...)
	}
	return m, nil
}

// CategoryDefinition returns the definition the model refers to.
func (m *TransiogramModel) CategoryDefinition() *CategoryDefinition { return m.cd }

// Entry returns the entry of head index i and tail index j.
func (m *TransiogramModel) Entry(i, j int) TransiogramEntry { return m.entries[i][j] }

// SetSill changes the sill of entry (i, j).
func (m *TransiogramModel) SetSill(i, j int, sill float64) { m.entries[i][j].Sill = sill }

// SetRange changes the range of entry (i, j).
func (m *TransiogramModel) SetRange(i, j int, r float64) { m.entries[i][j].Range = r }

// TransitionProbability is the probability of finding tailCode at lag h from
// headCode. Unknown codes have probability 0.
func (m *TransiogramModel) TransitionProbability(headCode, tailCode int, h float64) float64 {
	i, j := m.cd.Index(headCode), m.cd.Index(tailCode)
	if i < 0 || j < 0 {
		return 0
	}
	e := m.entries[i][j]
	if i == j {
		return 1 - Gamma(e.Structure, h, e.Range, 1-e.Sill)
	}
	return Gamma(e.Structure, h, e.Range, e.Sill)
}

// LongestRange is the largest range over all entries.
func (m *TransiogramModel) LongestRange() float64 {
	longest := 0.0
	for _, row := range m.entries {
		for _, e := range row {
			longest = math.Max(longest, e.Range)
		}
	}
	return longest
}

// Validate checks that every sill lies in [0, 1] and every range is positive.
func (m *TransiogramModel) Validate() error {
	for i, row := range m.entries {
		for j, e := range row {
			if e.Sill < 0 || e.Sill > 1 || math.IsNaN(e.Sill) {
				return fmt.Errorf("transiogram entry (%s -> %s): sill %g outside [0, 1]",
					m.cd.Name(i), m.cd.Name(j), e.Sill)
			}
			if !(e.Range > 0) {
				return fmt.Errorf("transiogram entry (%s -> %s): range must be positive, got %g",
					m.cd.Name(i), m.cd.Name(j), e.Range)
			}
			if _, ok := structureNames[e.Structure]; !ok {
				return fmt.Errorf("transiogram entry (%s -> %s): unknown structure %d",
					m.cd.Name(i), m.cd.Name(j), int(e.Structure))
			}
		}
	}
	return nil
}

// IsCompatibleWith reports whether other has the same categories and the same
// structure at every position.
func (m *TransiogramModel) IsCompatibleWith(other *TransiogramModel) bool {
	if other == nil || m.cd != other.cd || len(m.entries) != len(other.entries) {
		return false
	}
	for i, row := range m.entries {
		for j, e := range row {
			if other.entries[i][j].Structure != e.Structure {
				return false
			}
		}
	}
	return true
}

// UnitizeRowwiseSills rescales the sills of each row to sum one. Rows with no
// mass are left untouched.
func (m *TransiogramModel) UnitizeRowwiseSills() {
	sills := make([]float64, len(m.entries))
	for _, row := range m.entries {
		for j, e := range row {
			sills[j] = e.Sill
		}
		s := floats.Sum(sills)
		if s <= 0 {
			continue
		}
		for j := range row {
			row[j].Sill /= s
		}
	}
}

// Clone returns a deep copy sharing the category definition.
func (m *TransiogramModel) Clone() *TransiogramModel {
	c := &TransiogramModel{cd: m.cd, entries: make([][]TransiogramEntry, len(m.entries))}
	for i, row := range m.entries {
		c.entries[i] = append([]TransiogramEntry(nil), row...)
	}
	return c
}
