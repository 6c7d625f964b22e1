package sim

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
	"github.com/mcrf-sim/mcrf-sim/sim/search"
	"github.com/mcrf-sim/mcrf-sim/sim/spatial"
)

// runPlan is the read-only state shared by every worker of a run.
type runPlan struct {
	sim       *MCRFSim
	cd        *CategoryDefinition
	nCat      int
	prior     []float64
	grid      *CartesianGrid
	vertAniso float64

	hardCode   []int  // code snapped from primary data, NDV elsewhere
	simulable  []bool // active cells without hard data
	nSimulable int

	primary         PrimaryData
	primaryItems    []int // primary items usable as conditioning data
	primaryIndex    *spatial.Index
	primaryGradCols [][]float64
	gridIndex       *spatial.Index // nil with the cartesian-window search
	gridGradCols    [][]float64

	mainPrimary, mainGrid *search.Strategy
	vertPrimary, vertGrid *search.Strategy
	latPrimary, latGrid   *search.Strategy
	vertical              search.Neighborhood

	useSecondary bool
	nProbSets    int
}

// buildPlan prepares indexes, search strategies and hard data. It assumes the
// configuration passed Validate.
func (s *MCRFSim) buildPlan(log logrus.FieldLogger) (*runPlan, error) {
	g := s.Grid
	cp := s.Common
	p := &runPlan{
		sim:       s,
		cd:        s.PDF.CategoryDefinition(),
		prior:     s.PDF.Probs(),
		grid:      g,
		vertAniso: g.VerticalAnisotropy(),
		primary:   s.Primary,
	}
	p.nCat = p.cd.Count()
	normalizeInPlace(p.prior)

	if s.Lateral == LateralGradationalField {
		p.primaryGradCols = s.Primary.GradationColumns()
		p.gridGradCols = s.gridGradationColumns()
	}
	if s.Mode == ModeBayesian {
		p.useSecondary = len(s.ProbFieldSets) > 0
		if p.useSecondary {
			p.nProbSets = len(s.ProbFieldSets[0])
		}
	} else {
		p.useSecondary = len(s.ProbFields) > 0
	}

	p.selectPrimaryItems(log)
	tol := 1e-4 * math.Min(g.DX, math.Min(g.DY, g.DZ))
	p.primaryIndex = s.indexPrimary(&subset{src: s.Primary, items: p.primaryItems}, tol, log)
	if cp.SearchAlgorithm == SearchIndexed {
		p.gridIndex = spatial.New()
		p.gridIndex.Fill(g, tol)
	}
	p.snapHardData()

	if err := p.buildStrategies(); err != nil {
		return nil, err
	}
	return p, nil
}

// primaryCache keeps the primary data index between runs.
type primaryCache struct {
	src   PrimaryData
	tol   float64
	index *spatial.Index
}

// indexPrimary returns the cached primary index, rebuilding it when Primary was
// replaced, the tolerance changed or the index was marked stale.
func (s *MCRFSim) indexPrimary(src spatial.Source, tol float64, log logrus.FieldLogger) *spatial.Index {
	c := &s.primaryCache
	switch {
	case c.index == nil || c.src != s.Primary || c.tol != tol:
		c.index = spatial.New()
	case c.index.Stale():
		log.Warn("primary data index is stale; rebuilding it")
	default:
		return c.index
	}
	c.index.Fill(src, tol)
	c.src, c.tol = s.Primary, tol
	return c.index
}

// selectPrimaryItems keeps the primary items carrying a known category code.
func (p *runPlan) selectPrimaryItems(log logrus.FieldLogger) {
	noData, unknown := 0, 0
	for i := 0; i < p.primary.Len(); i++ {
		switch {
		case p.primary.IsNoData(i):
			noData++
		case !p.cd.CodeExists(p.primary.Category(i)):
			unknown++
		default:
			p.primaryItems = append(p.primaryItems, i)
		}
	}
	// Grid data routinely has no-data cells; other kinds should not.
	if noData > 0 && p.primary.Kind() != KindGridData {
		log.WithField("items", noData).Warn("primary data has no-data values; they are ignored")
	}
	if unknown > 0 {
		log.WithField("items", unknown).Warn("primary data has category codes missing from the category definition; they are ignored")
	}
}

// snapHardData pre-sets each active cell holding primary data. When several data
// fall in one cell the one nearest the cell center wins, ties going to the lower
// item index.
func (p *runPlan) snapHardData() {
	g := p.grid
	n := g.CellCount()
	p.hardCode = make([]int, n)
	p.simulable = make([]bool, n)
	best := make([]float64, n)
	for c := range p.hardCode {
		p.hardCode[c] = g.NoDataValue
		best[c] = math.Inf(1)
	}
	for _, item := range p.primaryItems {
		loc := p.primary.Location(item)
		i, j, k, ok := g.XYZToIJK(loc.X, loc.Y, loc.Z)
		if !ok {
			continue
		}
		c := g.IJKToIndex(i, j, k)
		if !p.active(c) {
			continue
		}
		if d := loc.Dist2(g.CellCenter(c)); d < best[c] {
			best[c] = d
			p.hardCode[c] = p.primary.Category(item)
		}
	}
	for c := range p.simulable {
		p.simulable[c] = p.active(c) && p.hardCode[c] == g.NoDataValue
		if p.simulable[c] {
			p.nSimulable++
		}
	}
}

func (p *runPlan) active(c int) bool {
	return p.sim.ActiveMask == nil || p.sim.ActiveMask[c]
}

func (p *runPlan) buildStrategies() error {
	cp := p.sim.Common
	g := p.grid

	shape, err := p.mainShape()
	if err != nil {
		return err
	}
	if p.mainPrimary, err = search.NewStrategy(shape, cp.NumSamples, cp.MinDistanceBetweenSamples, cp.MinNumSamples); err != nil {
		return invalid("primary data search: %v", err)
	}
	gridShape := shape
	if cp.SearchAlgorithm == SearchCartesianWindow && cp.SearchShape == ShapeEllipsoid {
		// Unrotated, so the major axis lies along Y.
		gridShape = &search.Box{SizeX: 2 * cp.HMin, SizeY: 2 * cp.HMax, SizeZ: 2 * cp.HVert}
	}
	if p.mainGrid, err = search.NewStrategy(gridShape, cp.NumSimulatedNodes, 0, 0); err != nil {
		return invalid("simulation grid search: %v", err)
	}

	radius := cp.VerticalRadius
	if radius <= 0 {
		radius = math.Min(g.DX, g.DY) / 2
	}
	height := cp.VerticalHeight
	if height <= 0 {
		height = cp.HVert
	}
	p.vertical = &search.VerticalDumbbell{Radius: radius, Height: height}
	if p.vertPrimary, err = search.NewStrategy(p.vertical, cp.NumSamples, 0, 0); err != nil {
		return invalid("vertical search: %v", err)
	}
	if p.vertGrid, err = search.NewStrategy(p.vertical, cp.NumSimulatedNodes, 0, 0); err != nil {
		return invalid("vertical search: %v", err)
	}

	if p.sim.Lateral != LateralGradationalField {
		outer := 0.0
		for _, a := range p.sim.LVASemiMajor {
			if a > outer {
				outer = a
			}
		}
		thickness := cp.LateralThickness
		if thickness <= 0 {
			thickness = g.DZ
		}
		washer := &search.Washer{OuterRadius: outer, Thickness: thickness}
		if p.latPrimary, err = search.NewStrategy(washer, cp.NumSamples, 0, 0); err != nil {
			return invalid("lateral search: %v", err)
		}
		if p.latGrid, err = search.NewStrategy(washer, cp.NumSimulatedNodes, 0, 0); err != nil {
			return invalid("lateral search: %v", err)
		}
	}
	return nil
}

// mainShape builds the neighborhood selected by SearchShape. Ring and shell shapes
// use HMax as their outer radius.
func (p *runPlan) mainShape() (search.Neighborhood, error) {
	cp := p.sim.Common
	switch cp.SearchShape {
	case ShapeAnnulus:
		return &search.Annulus{InnerRadius: cp.SearchInnerRadius, OuterRadius: cp.HMax}, nil
	case ShapeSphericalShell:
		return &search.SphericalShell{InnerRadius: cp.SearchInnerRadius, OuterRadius: cp.HMax}, nil
	case ShapeStratigraphicAnnulus:
		return &search.StratigraphicAnnulus{InnerRadius: cp.SearchInnerRadius, OuterRadius: cp.HMax, Layers: p.grid}, nil
	}
	ellipsoid, err := search.NewEllipsoid(cp.HMax, cp.HMin, cp.HVert, cp.Azimuth, cp.Dip, cp.Roll,
		cp.NumSectors, cp.MinSamplesPerSector, cp.MaxSamplesPerSector)
	if err != nil {
		return nil, invalid("search ellipsoid: %v", err)
	}
	return ellipsoid, nil
}

// windowSearch scans the IJK window under the neighborhood's bounding box.
func (p *runPlan) windowSearch(center geom.Point, s *search.Strategy, accept func(int) bool) []search.Candidate {
	g := p.grid
	bb := s.Neighborhood.BoundingBox(center)
	i0, i1 := cellRange(bb.Min.X, bb.Max.X, g.X0, g.DX, g.NI)
	j0, j1 := cellRange(bb.Min.Y, bb.Max.Y, g.Y0, g.DY, g.NJ)
	k0, k1 := cellRange(bb.Min.Z, bb.Max.Z, g.Z0, g.DZ, g.NK)
	var found []search.Candidate
	for k := k0; k <= k1; k++ {
		for j := j0; j <= j1; j++ {
			for i := i0; i <= i1; i++ {
				c := g.IJKToIndex(i, j, k)
				if accept != nil && !accept(c) {
					continue
				}
				loc := g.CellCenter(c)
				found = append(found, search.Candidate{Index: c, Location: loc, Dist2: loc.Dist2(center)})
			}
		}
	}
	return s.Refine(center, found)
}

// cellRange returns the inclusive range of cell indices whose centers lie in
// [lo, hi]; an empty range has first > last.
func cellRange(lo, hi, origin, d float64, n int) (first, last int) {
	a := math.Ceil((lo-origin)/d - 1e-9)
	b := math.Floor((hi-origin)/d + 1e-9)
	a = math.Max(a, 0)
	b = math.Min(b, float64(n-1))
	if a > b {
		return 0, -1
	}
	return int(a), int(b)
}
