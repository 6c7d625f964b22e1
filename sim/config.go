package sim

import "fmt"

// MCRFMode selects between a single-model run and a Bayesian run where
// hyperparameters are drawn anew for each realization.
type MCRFMode int

const (
	ModeNormal MCRFMode = iota
	ModeBayesian
)

// LateralGradationType selects how lateral evidence is gathered.
type LateralGradationType int

const (
	// LateralGradationalField measures lateral lags in gradation-value space.
	LateralGradationalField LateralGradationType = iota
	// LateralTailOnly treats lateral neighbors as transition tails (datum → cell).
	LateralTailOnly
	// LateralHeadOnly treats lateral neighbors as transition heads (cell → datum).
	LateralHeadOnly
	// LateralHeadOrTailAtRandom flips a coin per cell between head and tail.
	LateralHeadOrTailAtRandom
)

// TauSamplingPolicy decides how often Bayesian tau factors are drawn.
type TauSamplingPolicy int

const (
	// TauPerRealization draws tau factors once per realization.
	TauPerRealization TauSamplingPolicy = iota
	// TauPerCell redraws tau factors for every simulated cell.
	TauPerCell
)

// SearchAlgorithm selects how already-simulated grid cells are searched.
type SearchAlgorithm int

const (
	// SearchIndexed queries a spatial index of the simulation grid.
	SearchIndexed SearchAlgorithm = iota
	// SearchCartesianWindow scans the IJK window covering the search box; rotation
	// angles are not allowed with it.
	SearchCartesianWindow
)

// SearchShape selects the main search neighborhood. Its outer radius is HMax.
type SearchShape int

const (
	// ShapeEllipsoid is the rotated search ellipsoid, optionally split into sectors.
	ShapeEllipsoid SearchShape = iota
	// ShapeAnnulus is a horizontal ring, unbounded vertically.
	ShapeAnnulus
	// ShapeSphericalShell is the region between two concentric spheres.
	ShapeSphericalShell
	// ShapeStratigraphicAnnulus is a ring limited to the grid layer of the cell.
	ShapeStratigraphicAnnulus
)

// ValidModes is the set of recognized mode names.
// Shared by ParseMode and the CLI config schema.
var ValidModes = map[string]MCRFMode{"": ModeNormal, "normal": ModeNormal, "bayesian": ModeBayesian}

// ValidLateralGradationTypes is the set of recognized lateral policy names.
var ValidLateralGradationTypes = map[string]LateralGradationType{
	"":                       LateralGradationalField,
	"gradational-field":      LateralGradationalField,
	"tail-only":              LateralTailOnly,
	"head-only":              LateralHeadOnly,
	"head-or-tail-at-random": LateralHeadOrTailAtRandom,
}

// ValidTauPolicies is the set of recognized tau sampling policy names.
var ValidTauPolicies = map[string]TauSamplingPolicy{
	"": TauPerRealization, "per-realization": TauPerRealization, "per-cell": TauPerCell,
}

// ValidSearchAlgorithms is the set of recognized search algorithm names.
var ValidSearchAlgorithms = map[string]SearchAlgorithm{
	"": SearchIndexed, "indexed": SearchIndexed, "cartesian-window": SearchCartesianWindow,
}

// ValidSearchShapes is the set of recognized search shape names.
var ValidSearchShapes = map[string]SearchShape{
	"":                      ShapeEllipsoid,
	"ellipsoid":             ShapeEllipsoid,
	"annulus":               ShapeAnnulus,
	"spherical-shell":       ShapeSphericalShell,
	"stratigraphic-annulus": ShapeStratigraphicAnnulus,
}

// ParseMode resolves a mode name.
func ParseMode(name string) (MCRFMode, error) {
	if m, ok := ValidModes[name]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown mode %q; valid options: normal, bayesian", name)
}

// ParseLateralGradationType resolves a lateral policy name.
func ParseLateralGradationType(name string) (LateralGradationType, error) {
	if l, ok := ValidLateralGradationTypes[name]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("unknown lateral gradation type %q; valid options: gradational-field, tail-only, head-only, head-or-tail-at-random", name)
}

// ParseTauPolicy resolves a tau sampling policy name.
func ParseTauPolicy(name string) (TauSamplingPolicy, error) {
	if p, ok := ValidTauPolicies[name]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown tau policy %q; valid options: per-realization, per-cell", name)
}

// ParseSearchAlgorithm resolves a search algorithm name.
func ParseSearchAlgorithm(name string) (SearchAlgorithm, error) {
	if a, ok := ValidSearchAlgorithms[name]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("unknown search algorithm %q; valid options: indexed, cartesian-window", name)
}

// ParseSearchShape resolves a search shape name.
func ParseSearchShape(name string) (SearchShape, error) {
	if sh, ok := ValidSearchShapes[name]; ok {
		return sh, nil
	}
	return 0, fmt.Errorf("unknown search shape %q; valid options: ellipsoid, annulus, spherical-shell, stratigraphic-annulus", name)
}

// TauRange is a closed interval tau factors are drawn from in Bayesian mode.
type TauRange struct {
	Start, End float64
}

// TauFactors weights the evidence sources. Transiography covers both the vertical
// and the lateral evidence.
type TauFactors struct {
	Transiography float64 // default 1
	Secondary     float64 // default 1

	// Bayesian ranges; defaults [1, 5].
	TransiographyRange TauRange
	SecondaryRange     TauRange
}

// DefaultTauFactors returns the factors used when none are configured.
func DefaultTauFactors() TauFactors {
	return TauFactors{
		Transiography:      1,
		Secondary:          1,
		TransiographyRange: TauRange{Start: 1, End: 5},
		SecondaryRange:     TauRange{Start: 1, End: 5},
	}
}

// CommonSimulationParameters groups the parameters shared with other sequential
// simulation methods: seed, realization count and search settings.
type CommonSimulationParameters struct {
	Seed            int64
	NumRealizations int // must be in [1, 99]

	// Search ellipsoid, GSLib angle convention (degrees).
	HMax, HMin, HVert  float64
	Azimuth, Dip, Roll float64

	NumSamples                int // max primary samples per cell (0 = unlimited)
	MinNumSamples             int
	NumSectors                int
	MinSamplesPerSector       int
	MaxSamplesPerSector       int
	MinDistanceBetweenSamples float64
	NumSimulatedNodes         int // max previously simulated cells per cell (0 = unlimited)
	SearchAlgorithm           SearchAlgorithm
	SearchShape               SearchShape
	// SearchInnerRadius is the inner radius of the ring and shell shapes.
	SearchInnerRadius float64

	// Vertical evidence neighborhood; zero values fall back to half the smaller
	// lateral cell size and HVert.
	VerticalRadius float64
	VerticalHeight float64
	// Lateral evidence slab thickness; zero falls back to the grid's DZ.
	LateralThickness float64
}

// Progress reports the state of a run to OnProgress callbacks.
type Progress struct {
	CellsSimulated      int64 // over all realizations so far
	CellsTotal          int64 // simulable cells × realizations
	RealizationsDone    int
	RealizationsFailed  int
	RealizationsPlanned int
}
