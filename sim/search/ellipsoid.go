package search

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mcrf-sim/mcrf-sim/sim/geom"
)

const deg2rad = math.Pi / 180

// Ellipsoid is a rotated 3D ellipsoid with optional sector quotas.
//
// Angles follow the GSLib convention: azimuth is measured clockwise from north in
// degrees, dip is positive downwards and roll rotates around the major axis.
type Ellipsoid struct {
	HMax, HMin, HVert   float64
	Azimuth, Dip, Roll  float64
	Sectors             int // 0 or 1 disables sector filtering
	MinSamplesPerSector int
	MaxSamplesPerSector int // 0 means unlimited

	degenerate bool
	// transform maps a displacement into the unit-sphere frame of the ellipsoid.
	transform [3][3]float64
	// half extents of the axis-aligned bounding box.
	halfX, halfY, halfZ float64
}

// NewEllipsoid builds an ellipsoid. A non-positive semi-axis yields a legal,
// degenerate ellipsoid that contains no point.
func NewEllipsoid(hMax, hMin, hVert, azimuth, dip, roll float64,
	sectors, minPerSector, maxPerSector int) (*Ellipsoid, error) {
	if sectors < 0 || minPerSector < 0 || maxPerSector < 0 {
		return nil, fmt.Errorf("sector parameters must be non-negative, got sectors=%d min=%d max=%d",
			sectors, minPerSector, maxPerSector)
	}
	if maxPerSector > 0 && minPerSector > maxPerSector {
		return nil, fmt.Errorf("min samples per sector (%d) exceeds max samples per sector (%d)",
			minPerSector, maxPerSector)
	}
	e := &Ellipsoid{
		HMax: hMax, HMin: hMin, HVert: hVert,
		Azimuth: azimuth, Dip: dip, Roll: roll,
		Sectors:             sectors,
		MinSamplesPerSector: minPerSector,
		MaxSamplesPerSector: maxPerSector,
	}
	if hMax <= 0 || hMin <= 0 || hVert <= 0 {
		e.degenerate = true
		return e, nil
	}
	if err := e.buildTransform(); err != nil {
		return nil, err
	}
	return e, nil
}

// rotation returns the GSLib rotation matrix whose rows are the major, minor and
// vertical axes of the ellipsoid.
func rotation(azimuth, dip, roll float64) *mat.Dense {
	var alpha float64
	if azimuth >= 0 && azimuth < 270 {
		alpha = (90 - azimuth) * deg2rad
	} else {
		alpha = (450 - azimuth) * deg2rad
	}
	beta := -dip * deg2rad
	theta := roll * deg2rad
	sina, cosa := math.Sincos(alpha)
	sinb, cosb := math.Sincos(beta)
	sint, cost := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		cosb * cosa, cosb * sina, -sinb,
		-cost*sina + sint*sinb*cosa, cost*cosa + sint*sinb*sina, sint * cosb,
		sint*sina + cost*sinb*cosa, -sint*cosa + cost*sinb*sina, cost * cosb,
	})
}

// buildTransform computes A = diag(1/hmax, 1/hmin, 1/hvert)·R and the bounding box
// from the diagonal of the inverse of the quadric M = AᵀA.
func (e *Ellipsoid) buildTransform() error {
	scale := mat.NewDiagDense(3, []float64{1 / e.HMax, 1 / e.HMin, 1 / e.HVert})
	var a mat.Dense
	a.Mul(scale, rotation(e.Azimuth, e.Dip, e.Roll))
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			e.transform[i][j] = a.At(i, j)
		}
	}

	quadric := mat.NewSymDense(3, nil)
	quadric.SymOuterK(1, a.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(quadric); !ok {
		return fmt.Errorf("ellipsoid quadric is not positive definite (hmax=%g hmin=%g hvert=%g)",
			e.HMax, e.HMin, e.HVert)
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return fmt.Errorf("inverting ellipsoid quadric: %w", err)
	}
	e.halfX = math.Sqrt(inv.At(0, 0))
	e.halfY = math.Sqrt(inv.At(1, 1))
	e.halfZ = math.Sqrt(inv.At(2, 2))
	return nil
}

// local maps a displacement into the ellipsoid's normalized frame.
func (e *Ellipsoid) local(d geom.Point) (float64, float64, float64) {
	t := &e.transform
	return t[0][0]*d.X + t[0][1]*d.Y + t[0][2]*d.Z,
		t[1][0]*d.X + t[1][1]*d.Y + t[1][2]*d.Z,
		t[2][0]*d.X + t[2][1]*d.Y + t[2][2]*d.Z
}

// BoundingBox implements Neighborhood.
func (e *Ellipsoid) BoundingBox(center geom.Point) geom.Box {
	if e.degenerate {
		return degenerateBox(center)
	}
	return geom.Box{Min: center, Max: center}.PadXYZ(e.halfX, e.halfY, e.halfZ)
}

// Contains implements Neighborhood.
func (e *Ellipsoid) Contains(center, p geom.Point) bool {
	if e.degenerate {
		return false
	}
	u, v, w := e.local(p.Sub(center))
	return u*u+v*v+w*w <= 1.0
}

// HasSpatialFiltering implements Neighborhood.
func (e *Ellipsoid) HasSpatialFiltering() bool { return e.Sectors > 1 }

// SpatialFilter implements Neighborhood. The horizontal plane of the ellipsoid frame
// is divided into Sectors equal angular sectors; each sector keeps at most
// MaxSamplesPerSector of its nearest candidates and sectors holding fewer than
// MinSamplesPerSector candidates are discarded.
func (e *Ellipsoid) SpatialFilter(center geom.Point, candidates []Candidate, s *Strategy) []Candidate {
	if len(candidates) == 0 || e.Sectors <= 1 {
		return candidates
	}
	sortByDistance(candidates)
	width := 2 * math.Pi / float64(e.Sectors)
	bySector := make([][]Candidate, e.Sectors)
	for _, c := range candidates {
		u, v, _ := e.local(c.Location.Sub(center))
		angle := math.Atan2(v, u)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		sector := int(angle / width)
		if sector >= e.Sectors {
			sector = e.Sectors - 1
		}
		if e.MaxSamplesPerSector > 0 && len(bySector[sector]) >= e.MaxSamplesPerSector {
			continue
		}
		bySector[sector] = append(bySector[sector], c)
	}
	kept := candidates[:0]
	for _, sc := range bySector {
		if len(sc) < e.MinSamplesPerSector {
			continue
		}
		kept = append(kept, sc...)
	}
	sortByDistance(kept)
	if s != nil && s.MaxSamples > 0 && len(kept) > s.MaxSamples {
		kept = kept[:s.MaxSamples]
	}
	return kept
}

// sortByDistance orders candidates by distance, then by index for ties.
func sortByDistance(c []Candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Dist2 != c[j].Dist2 {
			return c[i].Dist2 < c[j].Dist2
		}
		return c[i].Index < c[j].Index
	})
}
