package sim

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
	"github.com/mcrf-sim/mcrf-sim/sim/search"
	"github.com/mcrf-sim/mcrf-sim/sim/trace"
)

func runOK(t *testing.T, s *MCRFSim) *RunResult {
	t.Helper()
	res, err := s.Run()
	require.NoError(t, err)
	require.Empty(t, res.Failures)
	return res
}

func TestRun_DeterministicAcrossThreadCounts(t *testing.T) {
	// GIVEN the same seed run with one and with three workers
	single := testSim(t)
	single.Common.NumRealizations = 4
	multi := testSim(t)
	multi.Common.NumRealizations = 4
	multi.MaxThreads = 3

	a := runOK(t, single)
	b := runOK(t, multi)

	// THEN every realization is identical
	require.Len(t, a.Realizations, 4)
	require.Len(t, b.Realizations, 4)
	for i := range a.Realizations {
		assert.Equal(t, i, a.Realizations[i].Index)
		assert.Equal(t, a.Realizations[i].Values, b.Realizations[i].Values, "realization %d", i)
	}
	assert.Equal(t, 3, b.Diagnostics.Threads)

	// AND a different seed gives a different result
	other := testSim(t)
	other.Common.Seed = 43
	c := runOK(t, other)
	assert.NotEqual(t, a.Realizations[0].Values, c.Realizations[0].Values)
}

func TestRun_RealizationsDiffer(t *testing.T) {
	res := runOK(t, testSim(t))
	require.Len(t, res.Realizations, 2)
	assert.NotEqual(t, res.Realizations[0].Values, res.Realizations[1].Values)
}

func TestRun_HardCellKeepsItsCode(t *testing.T) {
	// GIVEN a 2x2x1 grid with one datum in cell (0,0,0)
	s := testSim(t)
	cd := s.PDF.CategoryDefinition()
	s.Grid = testGrid(2, 2, 1)
	points, err := NewPointSet(cd, []geom.Point{{}}, []int{30})
	require.NoError(t, err)
	s.Primary = points
	s.LVAAzimuth, s.LVASemiMajor, s.LVASemiMinor = filled(4, 0), filled(4, 2), filled(4, 2)
	s.Common.NumRealizations = 5

	res := runOK(t, s)

	// THEN the datum's cell is never simulated and the others are all coded
	assert.Equal(t, int64(3*5), res.Diagnostics.CellsSimulated)
	assert.Equal(t, res.Diagnostics.CellsPlanned, res.Diagnostics.CellsSimulated)
	for _, r := range res.Realizations {
		assert.Equal(t, 30, r.Values[0])
		for _, v := range r.Values[1:] {
			assert.True(t, cd.CodeExists(v), "code %d", v)
		}
	}
}

func TestRun_RoundRobinAssignment(t *testing.T) {
	// GIVEN 4 realizations on 2 workers
	s := testSim(t)
	s.Common.NumRealizations = 4
	s.MaxThreads = 2

	res := runOK(t, s)

	// THEN worker w runs realizations w and w+2, and the trace stays in index order
	summary := trace.Summarize(res.Trace)
	assert.Equal(t, map[int]int{0: 2, 1: 2}, summary.WorkerDistribution)
	require.Len(t, res.Trace.Realizations, 4)
	for i, rec := range res.Trace.Realizations {
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, i%2, rec.Worker)
		assert.Equal(t, trace.StatusDone, rec.Status)
	}
	assert.Equal(t, 4, summary.Succeeded)
}

func TestRun_ThreadsCappedByRealizations(t *testing.T) {
	s := testSim(t)
	s.Common.NumRealizations = 1
	s.MaxThreads = 8

	res := runOK(t, s)

	assert.Equal(t, 1, res.Diagnostics.Threads)
	assert.NotEmpty(t, res.Diagnostics.RunID)
}

func TestRun_Bayesian(t *testing.T) {
	s := bayesianSim(t)
	s.Common.NumRealizations = 3

	res := runOK(t, s)

	require.Len(t, res.Realizations, 3)
	for _, rec := range res.Trace.Realizations {
		assert.GreaterOrEqual(t, rec.TauTransiography, 1.0)
		assert.LessOrEqual(t, rec.TauTransiography, 5.0)
		assert.Contains(t, []int{0, 1}, rec.ProbFieldSet)
	}
}

func TestRun_BayesianPerCellTaus(t *testing.T) {
	s := bayesianSim(t)
	s.TauPolicy = TauPerCell
	runOK(t, s)
}

func TestRun_GradationalField(t *testing.T) {
	s := gradationalSim(t)
	s.Common.NumRealizations = 3

	res := runOK(t, s)

	for _, rec := range res.Trace.Realizations {
		assert.Equal(t, 0, rec.GradationSet)
		assert.Equal(t, -1, rec.ProbFieldSet)
	}
}

func TestRun_CartesianWindowMatchesGridShape(t *testing.T) {
	s := testSim(t)
	s.Common.SearchAlgorithm = SearchCartesianWindow

	res := runOK(t, s)

	for _, r := range res.Realizations {
		for c, v := range r.Values {
			assert.NotEqual(t, testNDV, v, "cell %d", c)
		}
	}
}

func TestRun_OnProgress(t *testing.T) {
	s := testSim(t)
	s.Common.NumRealizations = 3
	var seen []Progress
	s.OnProgress = func(p Progress) { seen = append(seen, p) }

	res := runOK(t, s)

	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i].CellsSimulated, seen[i-1].CellsSimulated)
	}
	last := seen[len(seen)-1]
	assert.Equal(t, 3, last.RealizationsDone)
	assert.Equal(t, 3, last.RealizationsPlanned)
	assert.Equal(t, last.CellsTotal, last.CellsSimulated)
	assert.Equal(t, res.Diagnostics.CellsSimulated, last.CellsSimulated)
}

func TestRun_InvalidConfigStartsNothing(t *testing.T) {
	s := testSim(t)
	s.Common.NumRealizations = 0
	called := false
	s.OnProgress = func(Progress) { called = true }

	res, err := s.Run()

	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.False(t, called)
	assert.Empty(t, s.Realizations())
	assert.NotEmpty(t, s.LastError())
}

func TestRun_TraceDisabled(t *testing.T) {
	s := testSim(t)
	s.TraceLevel = trace.TraceLevelNone

	res := runOK(t, s)

	assert.Empty(t, res.Trace.Realizations)
	assert.Len(t, s.Realizations(), 2)
}

func TestRealizationError_Unwraps(t *testing.T) {
	err := error(&RealizationError{Index: 2, Cell: 7, Err: ErrSamplingFailed})
	assert.True(t, errors.Is(err, ErrSamplingFailed))
	assert.Equal(t, "realization 2, cell 7: category sampling failed", err.Error())

	err = &RealizationError{Index: 1, Cell: -1, Err: ErrDegeneratePosterior}
	assert.Equal(t, "realization 1: degenerate posterior distribution", err.Error())
}

func TestRun_FailedRealizationDoesNotStopOthers(t *testing.T) {
	// GIVEN 4 realizations on 2 workers where realizations 1 and 2 fail at their first cell
	s := testSim(t)
	s.Common.NumRealizations = 4
	s.MaxThreads = 2
	s.Metrics = NewRunMetrics()
	s.cellCheck = func(realization, cell int) error {
		if realization == 1 || realization == 2 {
			return fmt.Errorf("cell %d: %w", cell, ErrDegeneratePosterior)
		}
		return nil
	}
	var last Progress
	s.OnProgress = func(p Progress) { last = p }

	// WHEN the run executes
	res, err := s.Run()

	// THEN the run itself succeeds
	require.NoError(t, err)

	// AND the other realizations complete in index order
	require.Len(t, res.Realizations, 2)
	assert.Equal(t, 0, res.Realizations[0].Index)
	assert.Equal(t, 3, res.Realizations[1].Index)
	assert.Equal(t, res.Realizations, s.Realizations())

	// AND the failures are reported by index with their cause
	require.Len(t, res.Failures, 2)
	for i, want := range []int{1, 2} {
		f := res.Failures[i]
		assert.Equal(t, want, f.Index)
		assert.GreaterOrEqual(t, f.Cell, 0)
		assert.True(t, errors.Is(f, ErrDegeneratePosterior), "got %v", f)
	}

	// AND trace, progress, diagnostics and metrics count them
	summary := trace.Summarize(res.Trace)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, res.Trace.Realizations, 4)
	assert.Equal(t, trace.StatusFailed, res.Trace.Realizations[1].Status)
	assert.NotEmpty(t, res.Trace.Realizations[1].Error)
	assert.Equal(t, trace.StatusDone, res.Trace.Realizations[3].Status)
	assert.Equal(t, 2, last.RealizationsDone)
	assert.Equal(t, 2, last.RealizationsFailed)
	assert.Equal(t, res.Diagnostics.CellsPlanned/2, res.Diagnostics.CellsSimulated)
	assert.Equal(t, 2.0, promtest.ToFloat64(s.Metrics.RealizationsTotal.WithLabelValues(trace.StatusFailed)))
	assert.Equal(t, 2.0, promtest.ToFloat64(s.Metrics.RealizationsTotal.WithLabelValues(trace.StatusDone)))
}

func TestRun_LargeTauFactorsStillDraw(t *testing.T) {
	// GIVEN tau factors far beyond the usual range
	s := testSim(t)
	s.Tau.Transiography = 5000

	// WHEN the run executes
	res := runOK(t, s)

	// THEN every realization completes with valid codes
	cd := s.PDF.CategoryDefinition()
	require.Len(t, res.Realizations, 2)
	for _, r := range res.Realizations {
		for c, v := range r.Values {
			assert.True(t, cd.CodeExists(v), "cell %d code %d", c, v)
		}
	}
}

func TestRun_SearchShapes(t *testing.T) {
	tests := []struct {
		shape SearchShape
		want  search.Neighborhood
	}{
		{ShapeEllipsoid, &search.Ellipsoid{}},
		{ShapeAnnulus, &search.Annulus{}},
		{ShapeSphericalShell, &search.SphericalShell{}},
		{ShapeStratigraphicAnnulus, &search.StratigraphicAnnulus{}},
	}
	for _, tt := range tests {
		for _, algo := range []SearchAlgorithm{SearchIndexed, SearchCartesianWindow} {
			// GIVEN a gradational run searching with the shape
			s := gradationalSim(t)
			s.Common.SearchShape = tt.shape
			s.Common.SearchInnerRadius = 0.5
			s.Common.SearchAlgorithm = algo

			// WHEN the plan is built
			plan, err := s.buildPlan(logrus.StandardLogger())
			require.NoError(t, err)

			// THEN both main strategies use the shape, except the ellipsoid's window box
			assert.IsType(t, tt.want, plan.mainPrimary.Neighborhood)
			if tt.shape == ShapeEllipsoid && algo == SearchCartesianWindow {
				assert.IsType(t, &search.Box{}, plan.mainGrid.Neighborhood)
			} else {
				assert.IsType(t, tt.want, plan.mainGrid.Neighborhood)
			}

			// AND the run completes
			res := runOK(t, s)
			assert.Len(t, res.Realizations, 2)
		}
	}
}

func TestRun_StratigraphicAnnulusStaysInLayer(t *testing.T) {
	// GIVEN a stratigraphic annulus plan
	s := gradationalSim(t)
	s.Common.SearchShape = ShapeStratigraphicAnnulus
	plan, err := s.buildPlan(logrus.StandardLogger())
	require.NoError(t, err)
	nb := plan.mainPrimary.Neighborhood

	// THEN only locations in the cell's own layer are inside
	center := s.Grid.CellCenter(s.Grid.IJKToIndex(2, 2, 1))
	assert.True(t, nb.Contains(center, geom.Point{X: center.X + 1, Y: center.Y, Z: center.Z}))
	assert.False(t, nb.Contains(center, geom.Point{X: center.X + 1, Y: center.Y, Z: center.Z + s.Grid.DZ}))
}

func TestRun_PrimaryIndexReusedUntilMarkedStale(t *testing.T) {
	// GIVEN a simulation run once
	s := testSim(t)
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)
	logger.SetLevel(logrus.WarnLevel)
	s.Logger = logger
	runOK(t, s)
	first := s.primaryCache.index
	require.NotNil(t, first)

	// WHEN it runs again on the same primary data
	runOK(t, s)

	// THEN the index is reused without warnings
	assert.Same(t, first, s.primaryCache.index)
	assert.NotContains(t, logs.String(), "stale")

	// WHEN the data are edited in place and marked changed
	s.Primary.(*PointSet).Categories[0] = 20
	s.MarkPrimaryDataChanged()
	assert.True(t, first.Stale())
	res := runOK(t, s)

	// THEN the index is rebuilt with a warning and the new code conditions the run
	assert.Contains(t, logs.String(), "primary data index is stale")
	assert.False(t, s.primaryCache.index.Stale())
	assert.Equal(t, 20, res.Realizations[0].Values[0])

	// AND replacing the data builds a fresh index
	points, err := NewPointSet(s.PDF.CategoryDefinition(), []geom.Point{{}}, []int{30})
	require.NoError(t, err)
	s.Primary = points
	runOK(t, s)
	assert.NotSame(t, first, s.primaryCache.index)
}
