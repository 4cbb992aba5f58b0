// Package overlay positions badges relative to diagram elements.
//
// An overlay is attached to a shape or an edge. Resolve turns its alignment,
// offset and size into an absolute rectangle for the current view scale.
// Registry tracks live overlays per cell so they can be removed when the
// owning element is unloaded.
package overlay

import (
	"math"

	"github.com/matzehuels/procdraw/pkg/geom"
)

// DefaultOverlap is the fraction of the overlay that overlaps its anchor.
const DefaultOverlap = 0.5

// Owner is the kind of element an overlay is attached to.
type Owner string

const (
	OwnerShape Owner = "shape"
	OwnerEdge  Owner = "edge"
)

// HAlign selects the horizontal anchor.
type HAlign string

const (
	Left   HAlign = "left"
	Center HAlign = "center"
	Right  HAlign = "right"
)

// VAlign selects the vertical anchor.
type VAlign string

const (
	Top    VAlign = "top"
	Middle VAlign = "middle"
	Bottom VAlign = "bottom"
)

// Overlay describes how a badge is placed.
//
// Width and Height are unscaled. Overlap is the fraction of the badge that
// sits over the anchor point; a zero value means DefaultOverlap when the
// overlay is built with New. Snap rounds the result to whole device units.
type Overlay struct {
	Owner   Owner      `json:"owner"`
	HAlign  HAlign     `json:"horizontal_align,omitempty"`
	VAlign  VAlign     `json:"vertical_align,omitempty"`
	Offset  geom.Point `json:"offset"`
	Scale   float64    `json:"scale,omitempty"`
	Overlap float64    `json:"overlap,omitempty"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	Snap    bool       `json:"snap,omitempty"`
}

// New returns an overlay with default alignment (center/middle), unit scale
// and DefaultOverlap.
func New(owner Owner, width, height float64) Overlay {
	return Overlay{
		Owner:   owner,
		HAlign:  Center,
		VAlign:  Middle,
		Scale:   1,
		Overlap: DefaultOverlap,
		Width:   width,
		Height:  height,
	}
}

// WithDefaults fills zero fields with the same defaults as New.
func (o Overlay) WithDefaults() Overlay {
	if o.Owner == "" {
		o.Owner = OwnerShape
	}
	if o.HAlign == "" {
		o.HAlign = Center
	}
	if o.VAlign == "" {
		o.VAlign = Middle
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Overlap == 0 {
		o.Overlap = DefaultOverlap
	}
	return o
}

// Geometry is the current on-screen geometry of the owning element: the
// bounding box for a shape, the routed points for an edge.
type Geometry struct {
	Box    geom.Box     `json:"box"`
	Points []geom.Point `json:"points,omitempty"`
}

// Anchor returns the point on g the overlay is aligned to.
// The second result is false when g has nothing to anchor to.
func Anchor(o Overlay, g Geometry) (geom.Point, bool) {
	if o.Owner == OwnerEdge {
		return edgeAnchor(o.HAlign, g.Points)
	}
	b := g.Box
	if b == (geom.Box{}) {
		return geom.Point{}, false
	}
	var p geom.Point
	switch o.HAlign {
	case Left:
		p.X = b.X
	case Right:
		p.X = b.Right()
	default:
		p.X = b.X + b.Width/2
	}
	switch o.VAlign {
	case Top:
		p.Y = b.Y
	case Bottom:
		p.Y = b.Bottom()
	default:
		p.Y = b.Y + b.Height/2
	}
	return p, true
}

func edgeAnchor(h HAlign, pts []geom.Point) (geom.Point, bool) {
	n := len(pts)
	if n == 0 {
		return geom.Point{}, false
	}
	switch h {
	case Left:
		return pts[0], true
	case Right:
		return pts[n-1], true
	}
	mid := n / 2
	if n%2 == 1 {
		return pts[mid], true
	}
	return pts[mid-1].Lerp(pts[mid], 0.5), true
}

// Resolve returns the rectangle the overlay occupies in device units.
// Geometry with nothing to anchor to places the anchor at the origin.
func Resolve(o Overlay, g Geometry) geom.Box {
	s := o.Scale
	if s <= 0 {
		s = 1
	}
	p, _ := Anchor(o, g)
	b := geom.Box{
		X:      p.X - (o.Width*o.Overlap-o.Offset.X)*s,
		Y:      p.Y - (o.Height*o.Overlap-o.Offset.Y)*s,
		Width:  o.Width * s,
		Height: o.Height * s,
	}
	if o.Snap {
		b.X, b.Y = math.Round(b.X), math.Round(b.Y)
		b.Width, b.Height = math.Round(b.Width), math.Round(b.Height)
	}
	return b
}
