package scene

import (
	"context"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/procdraw/pkg/geom"
	"github.com/matzehuels/procdraw/pkg/observability"
	"github.com/matzehuels/procdraw/pkg/overlay"
	"github.com/matzehuels/procdraw/pkg/route"
)

// Default badge size when an overlay does not set one.
const defaultBadgeSize = 18.0

// PainterOptions tunes routing and overlay placement.
type PainterOptions struct {
	// Tolerance is the router's merge distance (route.DefaultTolerance).
	Tolerance float64

	// Scale is the view scale routes and badges are computed for.
	Scale float64

	Logger *log.Logger
}

// PlacedBadge is an overlay resolved to its on-screen box.
type PlacedBadge struct {
	ID   string
	Cell string
	Box  geom.Box
	Spec Badge
}

// Painter lays out a diagram and paints it. Routes and badge positions are
// computed once by NewPainter; Unload drops a cell and everything attached
// to it.
type Painter struct {
	diagram  *Diagram
	opts     PainterOptions
	routes   map[string]route.Path
	registry *overlay.Registry
	badges   map[string]Badge // registry id -> spec
	unloaded map[string]bool
}

// NewPainter routes every edge of d and registers its overlays.
func NewPainter(ctx context.Context, d *Diagram, opts PainterOptions) *Painter {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = route.DefaultTolerance
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	p := &Painter{
		diagram:  d,
		opts:     opts,
		routes:   make(map[string]route.Path, len(d.Edges)),
		registry: overlay.NewRegistry(),
		badges:   make(map[string]Badge, len(d.Overlays)),
		unloaded: make(map[string]bool),
	}
	for i := range d.Edges {
		e := &d.Edges[i]
		path := route.Route(p.request(e))
		p.routes[e.ID] = path
		observability.Route().OnRoute(ctx, e.ID, len(e.Hints), len(path))
	}
	for _, b := range d.Overlays {
		id := p.registry.Add(b.Cell, p.overlayFor(b), b.Text)
		p.badges[id] = b
	}
	opts.Logger.Debug("scene laid out", "diagram", d.ID, "edges", len(p.routes), "overlays", p.registry.Len())
	return p
}

func (p *Painter) request(e *Edge) route.Request {
	req := route.Request{
		Points:    e.Points,
		Hints:     e.Hints,
		Scale:     p.opts.Scale,
		Tolerance: p.opts.Tolerance,
	}
	if s := p.diagram.Shape(e.Source); s != nil {
		b := s.Box
		req.Source = &b
	}
	if s := p.diagram.Shape(e.Target); s != nil {
		b := s.Box
		req.Target = &b
	}
	return req
}

func (p *Painter) overlayFor(b Badge) overlay.Overlay {
	owner := overlay.OwnerShape
	if p.diagram.Edge(b.Cell) != nil {
		owner = overlay.OwnerEdge
	}
	w, h := b.Width, b.Height
	if w <= 0 {
		w = defaultBadgeSize
	}
	if h <= 0 {
		h = defaultBadgeSize
	}
	o := overlay.New(owner, w, h)
	if b.HAlign != "" {
		o.HAlign = b.HAlign
	}
	if b.VAlign != "" {
		o.VAlign = b.VAlign
	}
	if b.Overlap != 0 {
		o.Overlap = b.Overlap
	}
	o.Offset = b.Offset
	o.Scale = p.opts.Scale
	return o
}

// Route returns the routed path of an edge in device units.
func (p *Painter) Route(edgeID string) route.Path { return p.routes[edgeID] }

// Badges resolves every live overlay against the current geometry.
func (p *Painter) Badges() []PlacedBadge {
	entries := p.registry.All()
	out := make([]PlacedBadge, 0, len(entries))
	for _, e := range entries {
		out = append(out, PlacedBadge{
			ID:   e.ID,
			Cell: e.CellID,
			Box:  overlay.Resolve(e.Overlay, p.geometry(e.CellID)),
			Spec: p.badges[e.ID],
		})
	}
	return out
}

// geometry returns a cell's on-screen geometry in device units.
func (p *Painter) geometry(cell string) overlay.Geometry {
	if path, ok := p.routes[cell]; ok {
		return overlay.Geometry{Points: path}
	}
	if s := p.diagram.Shape(cell); s != nil {
		return overlay.Geometry{Box: s.Box.Scale(p.opts.Scale)}
	}
	return overlay.Geometry{}
}

// Unload removes a cell from the painted scene. Overlays on the cell are
// destroyed; for a shape, its connected edges and their overlays go too.
// It returns the number of overlays destroyed.
func (p *Painter) Unload(cell string) int {
	n := p.unloadOne(cell)
	if p.diagram.Shape(cell) != nil {
		for _, e := range p.diagram.Edges {
			if e.Source == cell || e.Target == cell {
				n += p.unloadOne(e.ID)
			}
		}
	}
	return n
}

func (p *Painter) unloadOne(cell string) int {
	p.unloaded[cell] = true
	delete(p.routes, cell)
	return p.registry.RemoveCell(cell)
}

// Bounds returns the box enclosing every painted element in device units.
func (p *Painter) Bounds() geom.Box {
	var b geom.Box
	for _, s := range p.diagram.Shapes {
		if p.unloaded[s.ID] {
			continue
		}
		b = b.Union(s.Box.Scale(p.opts.Scale))
	}
	for _, path := range p.routes {
		for _, pt := range path {
			b = b.Extend(pt)
		}
	}
	for _, badge := range p.Badges() {
		b = b.Union(badge.Box)
	}
	return b
}

// clip moves a floating end from the shape's center to its border along the
// first segment.
func clip(box geom.Box, center, toward geom.Point) geom.Point {
	if box.IsEmpty() || box.Contains(toward) {
		return center
	}
	dx, dy := toward.X-center.X, toward.Y-center.Y
	tx, ty := math.Inf(1), math.Inf(1)
	if dx != 0 {
		tx = (box.Width / 2) / math.Abs(dx)
	}
	if dy != 0 {
		ty = (box.Height / 2) / math.Abs(dy)
	}
	t := math.Min(tx, ty)
	if math.IsInf(t, 1) {
		return center
	}
	return geom.Pt(center.X+dx*t, center.Y+dy*t)
}
