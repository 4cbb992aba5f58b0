package scene

import (
	"math"

	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/export"
	"github.com/matzehuels/procdraw/pkg/geom"
	"github.com/matzehuels/procdraw/pkg/overlay"
	"github.com/matzehuels/procdraw/pkg/route"
)

// Palette used when shapes and edges carry no colors of their own.
const (
	defaultFill      = "#ffffff"
	defaultStroke    = "#2c3e50"
	defaultFontSize  = 11.0
	defaultFontColor = "#1f2933"
	laneHeader       = 30.0
	arrowSize        = 8.0
	badgeFill        = "#e74c3c"
	badgeColor       = "#ffffff"
	edgeLabelWidth   = 120.0
)

// Paint draws the diagram onto s: containers first, then edges, shapes and
// finally overlay badges.
func (p *Painter) Paint(s export.Surface) error {
	if s == nil {
		return errors.New(errors.ErrCodeInternal, "nil surface")
	}
	k := p.opts.Scale

	for _, sh := range p.diagram.Shapes {
		if !p.unloaded[sh.ID] && (sh.Kind == KindPool || sh.Kind == KindLane) {
			p.paintContainer(s, sh, k)
		}
	}
	for i := range p.diagram.Edges {
		e := &p.diagram.Edges[i]
		if path, ok := p.routes[e.ID]; ok && len(path) > 1 {
			p.paintEdge(s, e, path, k)
		}
	}
	for _, sh := range p.diagram.Shapes {
		if !p.unloaded[sh.ID] && sh.Kind != KindPool && sh.Kind != KindLane {
			p.paintShape(s, sh, k)
		}
	}
	for _, b := range p.Badges() {
		s.Save()
		s.SetStroke(badgeFill, 1)
		s.SetFill(or(b.Spec.Fill, badgeFill))
		s.RoundRect(b.Box, b.Box.Height/2)
		if b.Spec.Text != "" {
			s.SetFont("", b.Box.Height*0.6, or(b.Spec.Color, badgeColor))
			s.Text(b.Box, export.Label{Text: b.Spec.Text, Align: export.AlignCenter, VAlign: export.VAlignMiddle})
		}
		s.Restore()
	}
	return nil
}

func (p *Painter) font(s export.Surface, sh Shape, k float64) {
	size := sh.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	s.SetFont("", size*k, defaultFontColor)
}

func (p *Painter) paintContainer(s export.Surface, sh Shape, k float64) {
	b := sh.Box.Scale(k)
	s.Save()
	defer s.Restore()
	s.SetStroke(or(sh.Stroke, defaultStroke), 1)
	s.SetFill(or(sh.Fill, defaultFill))
	s.Rect(b)

	header := geom.Rect(b.X, b.Y, laneHeader*k, b.Height)
	s.Rect(header)
	if sh.Label != "" {
		p.font(s, sh, k)
		s.Text(header, export.Label{Text: sh.Label, HTML: sh.HTML})
	}
}

func (p *Painter) paintShape(s export.Surface, sh Shape, k float64) {
	b := sh.Box.Scale(k)
	s.Save()
	defer s.Restore()
	s.SetStroke(or(sh.Stroke, defaultStroke), 1.5)
	s.SetFill(or(sh.Fill, defaultFill))
	p.font(s, sh, k)
	label := export.Label{Text: sh.Label, HTML: sh.HTML}

	switch sh.Kind {
	case KindEvent:
		s.Ellipse(b)
		// Event labels sit below the circle.
		s.Text(geom.Rect(b.X-b.Width, b.Bottom()+2*k, b.Width*3, 2*defaultFontSize*k), label)
	case KindGateway:
		c := b.Center()
		s.Polygon([]geom.Point{
			geom.Pt(c.X, b.Y), geom.Pt(b.Right(), c.Y),
			geom.Pt(c.X, b.Bottom()), geom.Pt(b.X, c.Y),
		})
		label.VAlign = export.VAlignBottom
		s.Text(geom.Rect(b.X-b.Width, b.Y-2*defaultFontSize*k-2*k, b.Width*3, 2*defaultFontSize*k), label)
	case KindAnnotation:
		bracket := 10 * k
		s.Polyline([]geom.Point{
			geom.Pt(b.X+bracket, b.Y), geom.Pt(b.X, b.Y),
			geom.Pt(b.X, b.Bottom()), geom.Pt(b.X+bracket, b.Bottom()),
		})
		label.Align = export.AlignLeft
		s.Text(geom.Rect(b.X+4*k, b.Y, b.Width-4*k, b.Height), label)
	case KindSubProcess:
		s.RoundRect(b, 10*k)
		marker := 14 * k
		s.Rect(geom.Rect(b.X+(b.Width-marker)/2, b.Bottom()-marker-2*k, marker, marker))
		s.Text(b, label)
	default:
		s.RoundRect(b, 10*k)
		s.Text(b, label)
	}
}

func (p *Painter) paintEdge(s export.Surface, e *Edge, path route.Path, k float64) {
	pts := append(route.Path(nil), path...)
	// Floating ends start at the shape center; pull them back to the border.
	if len(e.Points) == 0 || e.Points[0] == nil {
		if src := p.diagram.Shape(e.Source); src != nil {
			pts[0] = clip(src.Box.Scale(k), pts[0], pts[1])
		}
	}
	if n := len(e.Points); n < 2 || e.Points[n-1] == nil {
		if dst := p.diagram.Shape(e.Target); dst != nil {
			last := len(pts) - 1
			pts[last] = clip(dst.Box.Scale(k), pts[last], pts[last-1])
		}
	}

	s.Save()
	defer s.Restore()
	s.SetStroke(or(e.Stroke, defaultStroke), 1)
	switch e.Kind {
	case FlowMessage:
		s.SetDash(6, 4)
	case FlowAssociation:
		s.SetDash(2, 3)
	}
	s.Polyline(pts)
	s.SetDash()

	if e.Kind != FlowAssociation {
		tip, from := pts[len(pts)-1], pts[len(pts)-2]
		s.SetFill(or(e.Stroke, defaultStroke))
		s.Polygon(arrowHead(from, tip, arrowSize*k))
	}

	if e.Label != "" {
		mid, _ := overlay.Anchor(overlay.New(overlay.OwnerEdge, 0, 0), overlay.Geometry{Points: pts})
		s.SetFont("", defaultFontSize*k, defaultFontColor)
		w, h := edgeLabelWidth*k, 2*defaultFontSize*k
		s.Text(geom.Rect(mid.X-w/2, mid.Y-h, w, h), export.Label{Text: e.Label, VAlign: export.VAlignBottom})
	}
}

// arrowHead returns a triangle pointing at tip along the segment from->tip.
func arrowHead(from, tip geom.Point, size float64) []geom.Point {
	dx, dy := tip.X-from.X, tip.Y-from.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return nil
	}
	ux, uy := dx/l, dy/l
	base := geom.Pt(tip.X-ux*size, tip.Y-uy*size)
	half := size / 2
	return []geom.Point{
		tip,
		geom.Pt(base.X-uy*half, base.Y+ux*half),
		geom.Pt(base.X+uy*half, base.Y-ux*half),
	}
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
