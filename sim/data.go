package sim

import (
	"fmt"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
	"github.com/mcrf-sim/mcrf-sim/sim/spatial"
)

// DataKind tells the primary data variants apart.
type DataKind int

const (
	KindPointSet DataKind = iota
	KindSegmentSet
	KindGridData
)

func (k DataKind) String() string {
	switch k {
	case KindPointSet:
		return "pointset"
	case KindSegmentSet:
		return "segmentset"
	case KindGridData:
		return "grid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PrimaryData is the conditioning data of a simulation. Implementations are
// PointSet, SegmentSet and GridData.
type PrimaryData interface {
	spatial.Source
	Kind() DataKind
	// Category returns the category code of item i.
	Category(i int) int
	// IsNoData reports whether item i carries the no-data value.
	IsNoData(i int) bool
	// GradationColumns returns the candidate gradation values, one slice per
	// column aligned with the items. Bayesian runs draw one column per realization.
	GradationColumns() [][]float64
	CategoryDefinition() *CategoryDefinition
}

// dataAttributes holds what every primary data variant shares.
type dataAttributes struct {
	CD             *CategoryDefinition
	Categories     []int
	Gradations     []float64
	GradationSets  [][]float64
	NoDataValue    int
	HasNoDataValue bool
}

func (d *dataAttributes) Category(i int) int { return d.Categories[i] }

func (d *dataAttributes) IsNoData(i int) bool {
	return d.HasNoDataValue && d.Categories[i] == d.NoDataValue
}

func (d *dataAttributes) GradationColumns() [][]float64 {
	if len(d.GradationSets) > 0 {
		return d.GradationSets
	}
	if d.Gradations != nil {
		return [][]float64{d.Gradations}
	}
	return nil
}

func (d *dataAttributes) CategoryDefinition() *CategoryDefinition { return d.CD }

// SetNoDataValue marks category values equal to v as not data.
func (d *dataAttributes) SetNoDataValue(v int) {
	d.NoDataValue = v
	d.HasNoDataValue = true
}

// SetGradationColumns attaches gradation values aligned with the items. A single
// column is the gradation; several columns are candidate sets.
func (d *dataAttributes) SetGradationColumns(cols [][]float64) {
	d.Gradations, d.GradationSets = nil, nil
	switch len(cols) {
	case 0:
	case 1:
		d.Gradations = cols[0]
	default:
		d.GradationSets = cols
	}
}

// PointSet is a set of sample points.
type PointSet struct {
	dataAttributes
	Points []geom.Point
}

// NewPointSet builds a point set; categories must be aligned with points.
func NewPointSet(cd *CategoryDefinition, points []geom.Point, categories []int) (*PointSet, error) {
	if len(points) != len(categories) {
		return nil, fmt.Errorf("point set has %d points and %d category values", len(points), len(categories))
	}
	return &PointSet{dataAttributes: dataAttributes{CD: cd, Categories: categories}, Points: points}, nil
}

func (p *PointSet) Kind() DataKind            { return KindPointSet }
func (p *PointSet) Len() int                  { return len(p.Points) }
func (p *PointSet) Location(i int) geom.Point { return p.Points[i] }

// Bounds is the cube of half-size tolerance around the point.
func (p *PointSet) Bounds(i int, tolerance float64) geom.Box {
	return geom.PointBox(p.Points[i], tolerance)
}

// Segment is a straight sample interval, e.g. a drill-hole run.
type Segment struct {
	From, To geom.Point
}

// SegmentSet is a set of sample segments, located at their midpoints.
type SegmentSet struct {
	dataAttributes
	Segments []Segment
}

// NewSegmentSet builds a segment set; categories must be aligned with segments.
func NewSegmentSet(cd *CategoryDefinition, segments []Segment, categories []int) (*SegmentSet, error) {
	if len(segments) != len(categories) {
		return nil, fmt.Errorf("segment set has %d segments and %d category values", len(segments), len(categories))
	}
	return &SegmentSet{dataAttributes: dataAttributes{CD: cd, Categories: categories}, Segments: segments}, nil
}

func (s *SegmentSet) Kind() DataKind { return KindSegmentSet }
func (s *SegmentSet) Len() int       { return len(s.Segments) }

func (s *SegmentSet) Location(i int) geom.Point {
	return geom.Midpoint(s.Segments[i].From, s.Segments[i].To)
}

// Bounds is the segment's box padded by tolerance.
func (s *SegmentSet) Bounds(i int, tolerance float64) geom.Box {
	return geom.BoxOf(s.Segments[i].From, s.Segments[i].To).Pad(tolerance)
}

// GridData is a categorical property defined on a Cartesian grid.
type GridData struct {
	dataAttributes
	Grid *CartesianGrid
}

// NewGridData builds grid data; categories are indexed by linear cell id and cells
// holding the grid's no-data value are not data.
func NewGridData(cd *CategoryDefinition, g *CartesianGrid, categories []int) (*GridData, error) {
	if g == nil {
		return nil, fmt.Errorf("grid data requires a grid")
	}
	if len(categories) != g.CellCount() {
		return nil, fmt.Errorf("grid data has %d values, grid has %d cells", len(categories), g.CellCount())
	}
	return &GridData{
		dataAttributes: dataAttributes{
			CD: cd, Categories: categories,
			NoDataValue: g.NoDataValue, HasNoDataValue: true,
		},
		Grid: g,
	}, nil
}

func (d *GridData) Kind() DataKind                  { return KindGridData }
func (d *GridData) Len() int                        { return d.Grid.CellCount() }
func (d *GridData) Location(i int) geom.Point       { return d.Grid.CellCenter(i) }
func (d *GridData) Bounds(i int, t float64) geom.Box { return d.Grid.Bounds(i, t) }

// subset exposes selected items of a source under dense indices [0, len(items)).
type subset struct {
	src   spatial.Source
	items []int
}

func (s *subset) Len() int                        { return len(s.items) }
func (s *subset) Location(i int) geom.Point       { return s.src.Location(s.items[i]) }
func (s *subset) Bounds(i int, t float64) geom.Box { return s.src.Bounds(s.items[i], t) }
