// Package core provides fundamental types and utilities for the arena.
// It contains no external dependencies so that simulation code stays pure
// and testable.
package core

import "math"

// Epsilon is the tolerance used for near-zero comparisons in physics code.
const Epsilon = 1e-9

// Vec3 is a 3-D vector. The arena plays in the XZ plane; Y is height.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// V3 is shorthand for constructing a Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Len returns the length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// LenXZ returns the length of v projected onto the XZ plane.
func (v Vec3) LenXZ() float64 {
	return math.Hypot(v.X, v.Z)
}

// Flat returns v with the vertical component zeroed.
func (v Vec3) Flat() Vec3 {
	return Vec3{X: v.X, Z: v.Z}
}

// Normalize returns v scaled to unit length, or the zero vector when v is
// too short to have a direction.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < Epsilon {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// IsZero reports whether v has no usable direction.
func (v Vec3) IsZero() bool {
	return v.Len() < Epsilon
}

// Yaw returns the rotation about Y that maps local +Z onto v's XZ direction.
func (v Vec3) Yaw() float64 {
	return math.Atan2(v.X, v.Z)
}

// RotateY rotates v about the Y axis by angle radians.
// RotateY(V3(0,0,1), d.Yaw()) points along d.
func (v Vec3) RotateY(angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// Reflect mirrors v about the plane with the given unit normal.
func (v Vec3) Reflect(normal Vec3) Vec3 {
	return v.Sub(normal.Scale(2 * v.Dot(normal)))
}

// Direction2D returns the unit XZ vector for the given angle, measured from
// +X toward +Z.
func Direction2D(angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	return Vec3{X: cos, Z: sin}
}

// Rect represents an integer axis-aligned rectangle used for screen layout.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Clamp restricts a value to be within [lo, hi].
func Clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// ClampF restricts a float64 value to be within [lo, hi].
func ClampF(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Sign returns -1, 0 or +1 following the sign of x.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Abs returns the absolute value of an integer.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
