package sim

import (
	"fmt"
	"runtime"
)

const (
	maxRealizations = 99
	maxThreads      = 99
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// IsOKToRun runs the validation gates and records the first failure, available
// from LastError.
func (s *MCRFSim) IsOKToRun() bool {
	if err := s.Validate(); err != nil {
		s.lastError = err.Error()
		return false
	}
	s.lastError = ""
	return true
}

// LastError describes the last validation failure, empty when none.
func (s *MCRFSim) LastError() string { return s.lastError }

// threads returns the effective worker count cap.
func (s *MCRFSim) threads() int {
	if s.MaxThreads == 0 {
		return min(runtime.NumCPU(), maxThreads)
	}
	return s.MaxThreads
}

// Validate checks the configuration; every error wraps ErrInvalidConfig.
// Gates run in a fixed order and the first failure is returned.
func (s *MCRFSim) Validate() error {
	if s.Primary == nil {
		return invalid("categorical variable not provided")
	}
	primaryCols := s.Primary.GradationColumns()
	if s.Lateral == LateralGradationalField {
		if len(primaryCols) == 0 {
			return invalid("gradation field values of the primary data not provided (required by the gradational-field lateral mode)")
		}
		for c, col := range primaryCols {
			if len(col) != s.Primary.Len() {
				return invalid("primary gradation column %d has %d values, primary data has %d items",
					c, len(col), s.Primary.Len())
			}
		}
	}

	if s.Grid == nil {
		return invalid("simulation grid not provided")
	}
	if err := s.Grid.Validate(); err != nil {
		return invalid("simulation grid: %v", err)
	}
	nCells := s.Grid.CellCount()

	if s.PDF == nil {
		return invalid("global PDF not provided")
	}
	cdPrimary := s.Primary.CategoryDefinition()
	if cdPrimary == nil {
		return invalid("category definition of the primary data not found")
	}
	cdPDF := s.PDF.CategoryDefinition()
	if cdPDF == nil {
		return invalid("category definition of the PDF not found")
	}
	if cdPDF != cdPrimary {
		return invalid("the primary data and the PDF must share the same category definition")
	}
	if s.PDF.HasNegativeProbabilities() {
		return invalid("PDF has negative probability values")
	}
	if s.PDF.HasZeroOrLessProb() {
		return invalid("PDF has categories with zero probability")
	}
	if !s.PDF.SumsToOne(DefaultSumTolerance) {
		return invalid("PDF probabilities do not sum up to 1.0, sum = %g", s.PDF.SumProbs())
	}
	if cdPrimary.CodeExists(s.Grid.NoDataValue) {
		return invalid("grid no-data value %d is also a category code", s.Grid.NoDataValue)
	}

	if s.Transiogram == nil {
		return invalid("transiogram model not provided")
	}
	if s.Transiogram.CategoryDefinition() == nil {
		return invalid("category definition of the transiogram model not found")
	}
	if s.Transiogram.CategoryDefinition() != cdPrimary {
		return invalid("the primary data and the transiogram model must share the same category definition")
	}
	if err := s.Transiogram.Validate(); err != nil {
		return invalid("transiogram model: %v", err)
	}
	if s.Transiogram.CategoryDefinition() != cdPDF {
		return invalid("the transiogram model and the PDF must share the same category definition")
	}

	if s.Mode == ModeBayesian {
		if s.Transiogram2 == nil {
			return invalid("Bayesian mode: second transiogram model not provided")
		}
		if s.Transiogram2.CategoryDefinition() != cdPrimary {
			return invalid("Bayesian mode: the primary data and the second transiogram model must share the same category definition")
		}
		if err := s.Transiogram2.Validate(); err != nil {
			return invalid("Bayesian mode: second transiogram model: %v", err)
		}
		if !s.Transiogram.IsCompatibleWith(s.Transiogram2) {
			return invalid("Bayesian mode: the transiogram models that define the band are not compatible")
		}
	}

	switch s.Lateral {
	case LateralGradationalField:
		gridCols := s.gridGradationColumns()
		if len(gridCols) == 0 {
			return invalid("a gradation field in the simulation grid is required by the gradational-field lateral mode")
		}
		for c, col := range gridCols {
			if len(col) != nCells {
				return invalid("simulation grid gradation field %d has %d values, grid has %d cells", c, len(col), nCells)
			}
		}
		if len(gridCols) != len(primaryCols) {
			return invalid("the number of gradation fields must be the same for the primary data (%d) and the simulation grid (%d)",
				len(primaryCols), len(gridCols))
		}
	case LateralTailOnly, LateralHeadOnly, LateralHeadOrTailAtRandom:
		fields := map[string][]float64{
			"azimuth": s.LVAAzimuth, "semi-major axis": s.LVASemiMajor, "semi-minor axis": s.LVASemiMinor,
		}
		for _, name := range []string{"azimuth", "semi-major axis", "semi-minor axis"} {
			if len(fields[name]) == 0 {
				return invalid("lateral anisotropy %s field not provided (required by the head/tail lateral modes)", name)
			}
			if len(fields[name]) != nCells {
				return invalid("lateral anisotropy %s field has %d values, grid has %d cells", name, len(fields[name]), nCells)
			}
		}
	default:
		return invalid("unknown lateral gradation type %d", int(s.Lateral))
	}

	nCat := cdPrimary.Count()
	if s.Mode == ModeNormal && len(s.ProbFields) > 0 {
		if len(s.ProbFields) != nCat {
			return invalid("number of probability fields (%d) differs from the number of categories (%d)",
				len(s.ProbFields), nCat)
		}
		for c, f := range s.ProbFields {
			if len(f) != nCells {
				return invalid("probability field of category %q has %d values, grid has %d cells",
					cdPrimary.Name(c), len(f), nCells)
			}
		}
	}
	if s.Mode == ModeBayesian && len(s.ProbFieldSets) > 0 {
		size := len(s.ProbFieldSets[0])
		for _, set := range s.ProbFieldSets {
			if len(set) != size {
				return invalid("Bayesian mode: number of probability fields must be the same for all categories")
			}
		}
		if size == 0 {
			return invalid("Bayesian mode: probability field sets are empty")
		}
		if len(s.ProbFieldSets) != nCat {
			return invalid("Bayesian mode: number of probability field sets (%d) must match the number of categories (%d)",
				len(s.ProbFieldSets), nCat)
		}
		for c, set := range s.ProbFieldSets {
			for i, f := range set {
				if len(f) != nCells {
					return invalid("probability field %d of category %q has %d values, grid has %d cells",
						i, cdPrimary.Name(c), len(f), nCells)
				}
			}
		}
	}
	if s.ActiveMask != nil && len(s.ActiveMask) != nCells {
		return invalid("active mask has %d values, grid has %d cells", len(s.ActiveMask), nCells)
	}

	if s.Common == nil {
		return invalid("common simulation parameters not provided (seed, realization count, search neighborhood)")
	}
	if n := s.Common.NumRealizations; n < 1 || n > maxRealizations {
		return invalid("number of realizations must be between 1 and %d, got %d", maxRealizations, n)
	}
	if t := s.threads(); t < 1 || t > maxThreads {
		return invalid("max number of threads must be between 1 and %d, got %d", maxThreads, t)
	}
	if s.Common.SearchAlgorithm == SearchCartesianWindow &&
		(s.Common.Azimuth != 0 || s.Common.Dip != 0 || s.Common.Roll != 0) {
		return invalid("cannot set rotation angles with the cartesian-window search algorithm, " +
			"as the search neighborhood becomes a parallelepiped")
	}
	if _, ok := validSearchAlgorithm[s.Common.SearchAlgorithm]; !ok {
		return invalid("unknown search algorithm %d", int(s.Common.SearchAlgorithm))
	}
	if sh := s.Common.SearchShape; sh != ShapeEllipsoid {
		if sh < ShapeEllipsoid || sh > ShapeStratigraphicAnnulus {
			return invalid("unknown search shape %d", int(sh))
		}
		if s.Common.Azimuth != 0 || s.Common.Dip != 0 || s.Common.Roll != 0 || s.Common.NumSectors > 1 {
			return invalid("rotation angles and sectors apply to the ellipsoid search shape only")
		}
		if r := s.Common.SearchInnerRadius; r < 0 || r >= s.Common.HMax {
			return invalid("search inner radius must be in [0, HMax), got %g with HMax %g", r, s.Common.HMax)
		}
	}

	if s.Tau.Transiography < 0 || s.Tau.Secondary < 0 {
		return invalid("tau factors must be non-negative, got transiography=%g secondary=%g",
			s.Tau.Transiography, s.Tau.Secondary)
	}
	if s.Mode == ModeBayesian {
		ranges := []struct {
			name string
			r    TauRange
		}{{"transiography", s.Tau.TransiographyRange}, {"secondary", s.Tau.SecondaryRange}}
		for _, tr := range ranges {
			name, r := tr.name, tr.r
			if r.Start < 0 || r.End < 0 {
				return invalid("Bayesian mode: %s tau range must be non-negative, got [%g, %g]", name, r.Start, r.End)
			}
			if r.Start > r.End {
				return invalid("Bayesian mode: %s tau range start %g exceeds end %g", name, r.Start, r.End)
			}
		}
	}
	return nil
}

var validSearchAlgorithm = map[SearchAlgorithm]bool{SearchIndexed: true, SearchCartesianWindow: true}

// gridGradationColumns returns the candidate gradation fields of the simulation grid.
func (s *MCRFSim) gridGradationColumns() [][]float64 {
	if len(s.GradationFieldSets) > 0 {
		return s.GradationFieldSets
	}
	if s.GradationField != nil {
		return [][]float64{s.GradationField}
	}
	return nil
}
