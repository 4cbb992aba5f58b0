// Package geom provides the value types shared by the router, the overlay
// resolver and the exporter: points and axis-aligned boxes.
//
// All types are plain values. Functions return new values and never mutate
// their receivers, so a Box handed to the router can be shared freely.
package geom

import "math"

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Near reports whether p and q are closer than tol on both axes.
func (p Point) Near(q Point, tol float64) bool {
	return math.Abs(p.X-q.X) < tol && math.Abs(p.Y-q.Y) < tol
}

// Lerp interpolates linearly between p (t=0) and q (t=1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Box is an axis-aligned rectangle.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is shorthand for Box{X: x, Y: y, Width: w, Height: h}.
func Rect(x, y, w, h float64) Box { return Box{X: x, Y: y, Width: w, Height: h} }

func (b Box) Right() float64  { return b.X + b.Width }
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Center returns the midpoint of the box.
func (b Box) Center() Point { return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2} }

// Scale multiplies position and size by s.
func (b Box) Scale(s float64) Box {
	return Box{X: b.X * s, Y: b.Y * s, Width: b.Width * s, Height: b.Height * s}
}

// Contains reports whether p lies inside b. Edges count as inside.
func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.Right() && p.Y >= b.Y && p.Y <= b.Bottom()
}

// SpansX reports whether x lies within the horizontal extent of b.
func (b Box) SpansX(x float64) bool { return x >= b.X && x <= b.Right() }

// SpansY reports whether y lies within the vertical extent of b.
func (b Box) SpansY(y float64) bool { return y >= b.Y && y <= b.Bottom() }

// IsEmpty reports whether the box has no area.
func (b Box) IsEmpty() bool { return b.Width <= 0 || b.Height <= 0 }

// Union returns the smallest box containing both b and o.
// An empty-sized zero box is treated as absent.
func (b Box) Union(o Box) Box {
	if b == (Box{}) {
		return o
	}
	if o == (Box{}) {
		return b
	}
	x, y := math.Min(b.X, o.X), math.Min(b.Y, o.Y)
	r, btm := math.Max(b.Right(), o.Right()), math.Max(b.Bottom(), o.Bottom())
	return Box{X: x, Y: y, Width: r - x, Height: btm - y}
}

// Extend returns the smallest box containing b and p.
func (b Box) Extend(p Point) Box {
	if b == (Box{}) {
		return Box{X: p.X, Y: p.Y}
	}
	x, y := math.Min(b.X, p.X), math.Min(b.Y, p.Y)
	r, btm := math.Max(b.Right(), p.X), math.Max(b.Bottom(), p.Y)
	return Box{X: x, Y: y, Width: r - x, Height: btm - y}
}

// Grow returns b expanded by d on every side.
func (b Box) Grow(d float64) Box {
	return Box{X: b.X - d, Y: b.Y - d, Width: b.Width + 2*d, Height: b.Height + 2*d}
}
