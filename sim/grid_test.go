package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
)

func TestCartesianGrid_IndexRoundTrip(t *testing.T) {
	g := testGrid(4, 3, 2)
	for idx := 0; idx < g.CellCount(); idx++ {
		i, j, k := g.IndexToIJK(idx)
		assert.Equal(t, idx, g.IJKToIndex(i, j, k))
	}
	assert.Equal(t, 5, g.IJKToIndex(1, 1, 0), "I runs fastest")
	assert.Equal(t, 12, g.IJKToIndex(0, 0, 1))
}

func TestCartesianGrid_XYZToIJK(t *testing.T) {
	g := &CartesianGrid{NI: 3, NJ: 3, NK: 2, X0: 10, Y0: 20, Z0: 0, DX: 2, DY: 2, DZ: 1, NoDataValue: testNDV}

	i, j, k, ok := g.XYZToIJK(12.9, 19.1, 1.4)
	require.True(t, ok)
	assert.Equal(t, []int{1, 0, 1}, []int{i, j, k})

	_, _, _, ok = g.XYZToIJK(8.9, 20, 0)
	assert.False(t, ok, "left of the first cell")

	c := g.CellCenter(g.IJKToIndex(2, 1, 1))
	assert.Equal(t, geom.Point{X: 14, Y: 22, Z: 1}, c)
	assert.Equal(t, 0.5, g.VerticalAnisotropy())
}

func TestCartesianGrid_Validate(t *testing.T) {
	assert.NoError(t, testGrid(1, 1, 1).Validate())
	assert.Error(t, testGrid(0, 1, 1).Validate())
	g := testGrid(2, 2, 2)
	g.DZ = 0
	assert.Error(t, g.Validate())
}

func TestNewRealization_FilledWithNoData(t *testing.T) {
	r := NewRealization(testGrid(2, 2, 1), 3)
	assert.Equal(t, 3, r.Index)
	assert.Equal(t, []int{testNDV, testNDV, testNDV, testNDV}, r.Values)
}

func TestPrimaryData_Variants(t *testing.T) {
	cd := testCategories(t)

	// GIVEN a segment set THEN items sit at segment midpoints and span the segment
	segs, err := NewSegmentSet(cd, []Segment{{From: geom.Point{Z: 0}, To: geom.Point{X: 2, Z: 4}}}, []int{20})
	require.NoError(t, err)
	assert.Equal(t, KindSegmentSet, segs.Kind())
	assert.Equal(t, geom.Point{X: 1, Z: 2}, segs.Location(0))
	b := segs.Bounds(0, 0.5)
	assert.Equal(t, geom.Point{X: -0.5, Y: -0.5, Z: -0.5}, b.Min)
	assert.Equal(t, geom.Point{X: 2.5, Y: 0.5, Z: 4.5}, b.Max)

	// GIVEN grid data THEN cells with the grid's no-data value are not data
	g := testGrid(2, 1, 1)
	gd, err := NewGridData(cd, g, []int{10, testNDV})
	require.NoError(t, err)
	assert.False(t, gd.IsNoData(0))
	assert.True(t, gd.IsNoData(1))
	assert.Equal(t, KindGridData, gd.Kind())

	// GIVEN mismatched lengths THEN construction fails
	_, err = NewPointSet(cd, []geom.Point{{}}, []int{10, 20})
	assert.Error(t, err)
	_, err = NewGridData(cd, g, []int{10})
	assert.Error(t, err)
}

func TestPrimaryData_GradationColumns(t *testing.T) {
	cd := testCategories(t)
	ps, err := NewPointSet(cd, []geom.Point{{}, {X: 1}}, []int{10, 20})
	require.NoError(t, err)
	assert.Nil(t, ps.GradationColumns())

	ps.Gradations = []float64{1, 2}
	assert.Equal(t, [][]float64{{1, 2}}, ps.GradationColumns())

	ps.GradationSets = [][]float64{{1, 2}, {3, 4}}
	assert.Len(t, ps.GradationColumns(), 2, "sets take precedence")
}
