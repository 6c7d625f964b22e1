package sim

import (
	"fmt"
	"math"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
)

// CartesianGrid is a regular 3D grid. Cell centers follow the GSLib convention:
// the center of cell (i, j, k) is (X0 + i·DX, Y0 + j·DY, Z0 + k·DZ). Linear cell
// ids run fastest along I, then J, then K.
type CartesianGrid struct {
	NI, NJ, NK  int
	X0, Y0, Z0  float64
	DX, DY, DZ  float64
	NoDataValue int
}

// Validate checks grid dimensions and cell sizes.
func (g *CartesianGrid) Validate() error {
	if g.NI <= 0 || g.NJ <= 0 || g.NK <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%dx%d", g.NI, g.NJ, g.NK)
	}
	if !(g.DX > 0) || !(g.DY > 0) || !(g.DZ > 0) {
		return fmt.Errorf("grid cell sizes must be positive, got DX=%g DY=%g DZ=%g", g.DX, g.DY, g.DZ)
	}
	return nil
}

// CellCount is NI·NJ·NK.
func (g *CartesianGrid) CellCount() int { return g.NI * g.NJ * g.NK }

// IJKToIndex returns the linear id of cell (i, j, k).
func (g *CartesianGrid) IJKToIndex(i, j, k int) int { return i + j*g.NI + k*g.NI*g.NJ }

// IndexToIJK is the inverse of IJKToIndex.
func (g *CartesianGrid) IndexToIJK(idx int) (i, j, k int) {
	nij := g.NI * g.NJ
	k = idx / nij
	r := idx % nij
	return r % g.NI, r / g.NI, k
}

// CellCenter returns the center of the cell with linear id idx.
func (g *CartesianGrid) CellCenter(idx int) geom.Point {
	i, j, k := g.IndexToIJK(idx)
	return geom.Point{
		X: g.X0 + float64(i)*g.DX,
		Y: g.Y0 + float64(j)*g.DY,
		Z: g.Z0 + float64(k)*g.DZ,
	}
}

// XYZToIJK locates the cell holding a point; ok is false outside the grid.
func (g *CartesianGrid) XYZToIJK(x, y, z float64) (i, j, k int, ok bool) {
	i = int(math.Floor((x-g.X0)/g.DX + 0.5))
	j = int(math.Floor((y-g.Y0)/g.DY + 0.5))
	k = int(math.Floor((z-g.Z0)/g.DZ + 0.5))
	ok = i >= 0 && i < g.NI && j >= 0 && j < g.NJ && k >= 0 && k < g.NK
	return i, j, k, ok
}

// VerticalAnisotropy is DZ / min(DX, DY), used to scale vertical separations
// against lateral ones.
func (g *CartesianGrid) VerticalAnisotropy() float64 {
	return g.DZ / math.Min(g.DX, g.DY)
}

// Len implements spatial.Source.
func (g *CartesianGrid) Len() int { return g.CellCount() }

// Location implements spatial.Source.
func (g *CartesianGrid) Location(i int) geom.Point { return g.CellCenter(i) }

// Bounds implements spatial.Source; a cell's box is the cell itself.
func (g *CartesianGrid) Bounds(i int, _ float64) geom.Box {
	c := g.CellCenter(i)
	return geom.Box{Min: c, Max: c}.PadXYZ(g.DX/2, g.DY/2, g.DZ/2)
}

// LayerOf implements search.LayerLocator.
func (g *CartesianGrid) LayerOf(p geom.Point) (int, bool) {
	_, _, k, ok := g.XYZToIJK(p.X, p.Y, p.Z)
	return k, ok
}

// Realization holds the simulated codes of one realization, indexed by linear
// cell id. It is owned by a single worker until handed back to the orchestrator.
type Realization struct {
	Index  int
	Values []int
}

// NewRealization returns a realization with every cell set to the grid's NDV.
func NewRealization(g *CartesianGrid, index int) *Realization {
	vals := make([]int, g.CellCount())
	for i := range vals {
		vals[i] = g.NoDataValue
	}
	return &Realization{Index: index, Values: vals}
}
