package search

import (
	"github.com/mcrf-sim/mcrf-sim/sim/geom"
)

// Annulus is a 2D ring in the XY plane, unbounded in Z. Points at exactly the inner
// radius are outside; an inner radius of 0 reduces it to a disk.
type Annulus struct {
	noFilter
	InnerRadius, OuterRadius float64
}

// BoundingBox implements Neighborhood.
func (a *Annulus) BoundingBox(center geom.Point) geom.Box {
	if a.OuterRadius <= 0 {
		return degenerateBox(center)
	}
	return geom.Box{Min: center, Max: center}.PadXYZ(a.OuterRadius, a.OuterRadius, infiniteZ)
}

// Contains implements Neighborhood.
func (a *Annulus) Contains(center, p geom.Point) bool {
	if a.OuterRadius <= 0 {
		return false
	}
	dx, dy := p.X-center.X, p.Y-center.Y
	return inRing(dx*dx+dy*dy, a.InnerRadius, a.OuterRadius)
}

// inRing tests a squared distance against an (inner, outer] ring.
func inRing(d2, inner, outer float64) bool {
	if d2 > outer*outer {
		return false
	}
	return inner <= 0 || d2 > inner*inner
}

// Washer is an annulus limited to a slab of the given thickness centered on the query.
type Washer struct {
	noFilter
	InnerRadius, OuterRadius, Thickness float64
}

// BoundingBox implements Neighborhood.
func (w *Washer) BoundingBox(center geom.Point) geom.Box {
	if w.OuterRadius <= 0 || w.Thickness <= 0 {
		return degenerateBox(center)
	}
	return geom.Box{Min: center, Max: center}.PadXYZ(w.OuterRadius, w.OuterRadius, w.Thickness/2)
}

// Contains implements Neighborhood.
func (w *Washer) Contains(center, p geom.Point) bool {
	if w.OuterRadius <= 0 || w.Thickness <= 0 {
		return false
	}
	dz := p.Z - center.Z
	if dz < -w.Thickness/2 || dz > w.Thickness/2 {
		return false
	}
	dx, dy := p.X-center.X, p.Y-center.Y
	return inRing(dx*dx+dy*dy, w.InnerRadius, w.OuterRadius)
}

// SphericalShell is the 3D region between two concentric spheres.
type SphericalShell struct {
	noFilter
	InnerRadius, OuterRadius float64
}

// BoundingBox implements Neighborhood.
func (s *SphericalShell) BoundingBox(center geom.Point) geom.Box {
	if s.OuterRadius <= 0 {
		return degenerateBox(center)
	}
	return geom.PointBox(center, s.OuterRadius)
}

// Contains implements Neighborhood.
func (s *SphericalShell) Contains(center, p geom.Point) bool {
	if s.OuterRadius <= 0 {
		return false
	}
	return inRing(p.Dist2(center), s.InnerRadius, s.OuterRadius)
}

// Box is an axis-aligned box of full sizes SizeX × SizeY × SizeZ centered on the query.
type Box struct {
	noFilter
	SizeX, SizeY, SizeZ float64
}

func (b *Box) degenerate() bool { return b.SizeX <= 0 || b.SizeY <= 0 || b.SizeZ <= 0 }

// BoundingBox implements Neighborhood.
func (b *Box) BoundingBox(center geom.Point) geom.Box {
	if b.degenerate() {
		return degenerateBox(center)
	}
	return geom.Box{Min: center, Max: center}.PadXYZ(b.SizeX/2, b.SizeY/2, b.SizeZ/2)
}

// Contains implements Neighborhood.
func (b *Box) Contains(center, p geom.Point) bool {
	if b.degenerate() {
		return false
	}
	return b.BoundingBox(center).Contains(p)
}

// VerticalDumbbell is a pair of vertical cylinders of the given radius and height, one
// above and one below the query, separated by a gap of Separation centered on it.
type VerticalDumbbell struct {
	noFilter
	Radius, Height, Separation float64
}

func (d *VerticalDumbbell) degenerate() bool { return d.Radius <= 0 || d.Height <= 0 }

// BoundingBox implements Neighborhood.
func (d *VerticalDumbbell) BoundingBox(center geom.Point) geom.Box {
	if d.degenerate() {
		return degenerateBox(center)
	}
	return geom.Box{Min: center, Max: center}.PadXYZ(d.Radius, d.Radius, d.Separation/2+d.Height)
}

// Contains implements Neighborhood.
func (d *VerticalDumbbell) Contains(center, p geom.Point) bool {
	if d.degenerate() {
		return false
	}
	dz := p.Z - center.Z
	if dz < 0 {
		dz = -dz
	}
	if dz < d.Separation/2 || dz > d.Separation/2+d.Height {
		return false
	}
	dx, dy := p.X-center.X, p.Y-center.Y
	return dx*dx+dy*dy <= d.Radius*d.Radius
}

// LayerLocator resolves the stratigraphic layer holding a location.
type LayerLocator interface {
	LayerOf(p geom.Point) (k int, ok bool)
}

// StratigraphicAnnulus is an annulus restricted to the layer of the query location.
type StratigraphicAnnulus struct {
	noFilter
	InnerRadius, OuterRadius float64
	Layers                   LayerLocator
}

// BoundingBox implements Neighborhood.
func (s *StratigraphicAnnulus) BoundingBox(center geom.Point) geom.Box {
	a := Annulus{InnerRadius: s.InnerRadius, OuterRadius: s.OuterRadius}
	return a.BoundingBox(center)
}

// Contains implements Neighborhood.
func (s *StratigraphicAnnulus) Contains(center, p geom.Point) bool {
	a := Annulus{InnerRadius: s.InnerRadius, OuterRadius: s.OuterRadius}
	if s.Layers == nil || !a.Contains(center, p) {
		return false
	}
	kc, ok := s.Layers.LayerOf(center)
	if !ok {
		return false
	}
	kp, ok := s.Layers.LayerOf(p)
	return ok && kc == kp
}
