package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
	"github.com/mcrf-sim/mcrf-sim/sim/trace"
)

const testNDV = -99

// testCategories returns sand (10), shale (20) and coal (30).
func testCategories(t *testing.T) *CategoryDefinition {
	t.Helper()
	cd, err := NewCategoryDefinition("lithology", []Category{
		{Code: 10, Name: "sand", Color: "#e6c35c"},
		{Code: 20, Name: "shale", Color: "#6b6b6b"},
		{Code: 30, Name: "coal", Color: "#1a1a1a"},
	})
	require.NoError(t, err)
	return cd
}

var testProportions = []float64{0.5, 0.3, 0.2}

func testPDF(t *testing.T, cd *CategoryDefinition) *CategoryPDF {
	t.Helper()
	pdf, err := NewCategoryPDF(cd, testProportions)
	require.NoError(t, err)
	return pdf
}

// testTransiogram returns a model whose rows reach the global proportions at
// the given range.
func testTransiogram(t *testing.T, cd *CategoryDefinition, rng float64) *TransiogramModel {
	t.Helper()
	n := cd.Count()
	entries := make([][]TransiogramEntry, n)
	for i := range entries {
		entries[i] = make([]TransiogramEntry, n)
		for j := range entries[i] {
			entries[i][j] = TransiogramEntry{Structure: Spherical, Range: rng, Sill: testProportions[j]}
		}
	}
	m, err := NewTransiogramModel(cd, entries)
	require.NoError(t, err)
	return m
}

func testGrid(ni, nj, nk int) *CartesianGrid {
	return &CartesianGrid{NI: ni, NJ: nj, NK: nk, DX: 1, DY: 1, DZ: 1, NoDataValue: testNDV}
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// testSim returns a valid normal-mode simulation on a 6x6x3 grid with a few
// point data and the tail-only lateral mode.
func testSim(t *testing.T) *MCRFSim {
	t.Helper()
	cd := testCategories(t)
	g := testGrid(6, 6, 3)
	points, err := NewPointSet(cd, []geom.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 5, Y: 5, Z: 2},
		{X: 2, Y: 3, Z: 1},
	}, []int{10, 20, 30})
	require.NoError(t, err)

	s := NewMCRFSim(ModeNormal)
	s.Primary = points
	s.Grid = g
	s.PDF = testPDF(t, cd)
	s.Transiogram = testTransiogram(t, cd, 4)
	s.Lateral = LateralTailOnly
	n := g.CellCount()
	s.LVAAzimuth = filled(n, 30)
	s.LVASemiMajor = filled(n, 3)
	s.LVASemiMinor = filled(n, 2)
	s.MaxThreads = 1
	s.TraceLevel = trace.TraceLevelRealizations
	s.Common = &CommonSimulationParameters{
		Seed:              42,
		NumRealizations:   2,
		HMax:              4,
		HMin:              4,
		HVert:             2,
		NumSamples:        8,
		NumSimulatedNodes: 12,
	}
	return s
}
