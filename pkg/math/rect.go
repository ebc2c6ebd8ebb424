package math

import "math"

// Rect is an axis-aligned bounding box in 2D.
// The zero value is not empty; use EmptyRect to start accumulating points.
type Rect struct {
	Min, Max Vec2
}

// EmptyRect returns a rect that contains no points.
func EmptyRect() Rect {
	inf := float32(math.Inf(1))
	return Rect{
		Min: Vec2{inf, inf},
		Max: Vec2{-inf, -inf},
	}
}

// Empty reports whether the rect contains no points.
func (r Rect) Empty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y
}

// Extend returns r grown to include p.
func (r Rect) Extend(p Vec2) Rect {
	return Rect{
		Min: Vec2{min(r.Min.X, p.X), min(r.Min.Y, p.Y)},
		Max: Vec2{max(r.Max.X, p.X), max(r.Max.Y, p.Y)},
	}
}

// Width returns the horizontal extent, or 0 for an empty rect.
func (r Rect) Width() float32 {
	if r.Empty() {
		return 0
	}
	return r.Max.X - r.Min.X
}

// Height returns the vertical extent, or 0 for an empty rect.
func (r Rect) Height() float32 {
	if r.Empty() {
		return 0
	}
	return r.Max.Y - r.Min.Y
}
