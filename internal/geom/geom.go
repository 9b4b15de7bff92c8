// Package geom implements the 2D position/orientation vector algebra
// used to derive a Source's distance and angle relative to the
// listening reference point.
//
// Ground truth: original_source/src/dcarenderer.h's use of
// ssr::Position/ssr::Orientation (length(), orientation(), azimuth).
package geom

import "math"

// Position is a point in the horizontal plane, in meters.
type Position struct {
	X, Y float64
}

// Sub returns p - o.
func (p Position) Sub(o Position) Position {
	return Position{p.X - o.X, p.Y - o.Y}
}

// Length returns the Euclidean norm of p, i.e. its distance from the
// origin.
func (p Position) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Orientation is an azimuth angle in degrees, 0 pointing along +X,
// increasing counter-clockwise.
type Orientation struct {
	Azimuth float64
}

// Sub returns the azimuth difference o - other, in degrees.
func (o Orientation) Sub(other Orientation) Orientation {
	return Orientation{o.Azimuth - other.Azimuth}
}

// OrientationOf returns the azimuth, in degrees, of the direction
// from the origin towards p.
func OrientationOf(p Position) Orientation {
	return Orientation{Azimuth: math.Atan2(p.Y, p.X) * 180 / math.Pi}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180
}
