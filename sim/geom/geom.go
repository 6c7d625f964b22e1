// Package geom holds the small value types shared by the search neighborhoods and
// the spatial index: 3D points and axis-aligned bounding boxes.
package geom

import "math"

// Point is a location in 3D Cartesian space.
type Point struct {
	X, Y, Z float64
}

// Sub returns p - q as a displacement.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s, p.Z * s} }

// Dist2 is the squared Euclidean distance between p and q.
func (p Point) Dist2(q Point) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return dx*dx + dy*dy + dz*dz
}

// Dist is the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Sqrt(p.Dist2(q)) }

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Point) Point {
	return Point{(p.X + q.X) * 0.5, (p.Y + q.Y) * 0.5, (p.Z + q.Z) * 0.5}
}

// Box is an axis-aligned bounding box. A box with Min > Max on any axis is empty.
type Box struct {
	Min, Max Point
}

// PointBox returns the cube of half-size tol centered at p.
func PointBox(p Point, tol float64) Box {
	return Box{
		Min: Point{p.X - tol, p.Y - tol, p.Z - tol},
		Max: Point{p.X + tol, p.Y + tol, p.Z + tol},
	}
}

// BoxOf returns the smallest box holding both points.
func BoxOf(p, q Point) Box {
	return Box{
		Min: Point{math.Min(p.X, q.X), math.Min(p.Y, q.Y), math.Min(p.Z, q.Z)},
		Max: Point{math.Max(p.X, q.X), math.Max(p.Y, q.Y), math.Max(p.Z, q.Z)},
	}
}

// Empty reports whether the box holds no point.
func (b Box) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Pad grows the box by d on every side.
func (b Box) Pad(d float64) Box {
	return Box{
		Min: Point{b.Min.X - d, b.Min.Y - d, b.Min.Z - d},
		Max: Point{b.Max.X + d, b.Max.Y + d, b.Max.Z + d},
	}
}

// PadXYZ grows the box by a different amount along each axis.
func (b Box) PadXYZ(dx, dy, dz float64) Box {
	return Box{
		Min: Point{b.Min.X - dx, b.Min.Y - dy, b.Min.Z - dz},
		Max: Point{b.Max.X + dx, b.Max.Y + dy, b.Max.Z + dz},
	}
}

// Union returns the smallest box holding both a and b.
func (b Box) Union(o Box) Box {
	return Box{
		Min: Point{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Point{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Contains reports whether p lies in the closed box.
func (b Box) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports whether the closed boxes share at least one point.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Center returns the box centroid.
func (b Box) Center() Point { return Midpoint(b.Min, b.Max) }

// HalfExtent returns the largest half-size of the box over the three axes.
func (b Box) HalfExtent() float64 {
	return 0.5 * math.Max(b.Max.X-b.Min.X, math.Max(b.Max.Y-b.Min.Y, b.Max.Z-b.Min.Z))
}
