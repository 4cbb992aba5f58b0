package route

import (
	"math"

	"github.com/matzehuels/procdraw/pkg/geom"
)

// DefaultTolerance is the merge distance, in device units, used when a
// request does not set one.
const DefaultTolerance = 1.0

// Request describes one edge to route.
//
// Source and Target are the terminal boxes in model coordinates; nil means
// that end is pinned to an explicit waypoint instead of a live shape. Points
// holds the edge's absolute points: the first and last entries may be nil
// when the end floats on a terminal. Hints are user-placed routing points,
// also in model coordinates.
type Request struct {
	Source    *geom.Box     `json:"source,omitempty"`
	Target    *geom.Box     `json:"target,omitempty"`
	Points    []*geom.Point `json:"points,omitempty"`
	Hints     []geom.Point  `json:"hints,omitempty"`
	Scale     float64       `json:"scale,omitempty"`
	Tolerance float64       `json:"tolerance,omitempty"`
}

// Path is an ordered list of routed points in device coordinates. The first
// and last entries are the resolved start and end anchors.
type Path []geom.Point

// Route computes the orthogonal polyline for req.
//
// Route never fails. A request without hints yields the direct path between
// the resolved start and end; a request without any geometry yields an empty
// path. The result depends only on req, so routing the same request twice
// gives identical paths.
func Route(req Request) Path {
	p, ok := newPlan(req)
	if !ok {
		return nil
	}
	if len(p.hints) == 0 {
		return p.assemble(nil)
	}

	p.snapHints()
	first := p.hints[0]
	horizontal, dropFirst := decide(
		end{fixed: p.first, term: p.source, hint: first},
		end{fixed: p.last, term: p.target, hint: p.hints[len(p.hints)-1]},
		len(p.hints),
	)
	hints := p.hints
	if dropFirst {
		hints = hints[1:]
	}

	b := bends{tol: p.tol, last: p.start}
	pt := p.start

	// Corner ahead of the first hint when the start cannot reach it directly.
	if horizontal && leaves(first.Y, p.first, p.source, true) {
		b.push(geom.Pt(pt.X, first.Y))
	} else if !horizontal && leaves(first.X, p.first, p.source, false) {
		b.push(geom.Pt(first.X, pt.Y))
	}
	if horizontal {
		pt.Y = first.Y
	} else {
		pt.X = first.X
	}

	last := first
	for _, h := range hints {
		horizontal = !horizontal
		if horizontal {
			pt.Y = h.Y
		} else {
			pt.X = h.X
		}
		b.push(pt)
		last = h
	}

	// Corner ahead of the end.
	if horizontal && leaves(last.Y, p.last, p.target, true) {
		b.push(geom.Pt(p.end.X, last.Y))
	} else if !horizontal && leaves(last.X, p.last, p.target, false) {
		b.push(geom.Pt(last.X, p.end.Y))
	}

	return p.assemble(p.prune(b.points))
}

// plan is a request normalized into device units.
type plan struct {
	source, target *geom.Box
	first, last    *geom.Point // fixed end waypoints, nil when floating
	start, end     geom.Point
	hints          []geom.Point
	tol            float64
}

func newPlan(req Request) (plan, bool) {
	scale := req.Scale
	if scale <= 0 {
		scale = 1
	}
	p := plan{tol: req.Tolerance}
	if p.tol <= 0 {
		p.tol = DefaultTolerance
	}

	if req.Source != nil {
		b := req.Source.Scale(scale)
		p.source = &b
	}
	if req.Target != nil {
		b := req.Target.Scale(scale)
		p.target = &b
	}

	var known []geom.Point
	for _, pt := range req.Points {
		if pt != nil {
			known = append(known, pt.Scale(scale))
		}
	}
	for _, h := range req.Hints {
		p.hints = append(p.hints, h.Scale(scale))
	}

	n := len(req.Points)
	if n > 0 && req.Points[0] != nil {
		pt := req.Points[0].Scale(scale)
		p.first = &pt
	}
	if n > 1 && req.Points[n-1] != nil {
		pt := req.Points[n-1].Scale(scale)
		p.last = &pt
	}

	var okStart, okEnd bool
	p.start, p.first, okStart = resolve(p.first, p.source, known, p.hints, false)
	p.end, p.last, okEnd = resolve(p.last, p.target, known, p.hints, true)
	switch {
	case okStart && okEnd:
	case okStart:
		p.end, p.last = p.start, &p.start
	case okEnd:
		p.start, p.first = p.end, &p.end
	default:
		return plan{}, false
	}
	return p, true
}

// resolve picks an end anchor: the fixed waypoint, else the terminal's
// routing center, else the nearest known waypoint or hint on that side. A
// fallback anchor is treated as fixed.
func resolve(fixed *geom.Point, term *geom.Box, known, hints []geom.Point, fromEnd bool) (geom.Point, *geom.Point, bool) {
	if fixed != nil {
		return *fixed, fixed, true
	}
	if term != nil {
		return term.Center(), nil, true
	}
	for _, set := range [][]geom.Point{known, hints} {
		if len(set) == 0 {
			continue
		}
		pt := set[0]
		if fromEnd {
			pt = set[len(set)-1]
		}
		return pt, &pt, true
	}
	return geom.Point{}, nil, false
}

// snapHints pulls the first and last hint onto the start and end axes when
// they are within tolerance.
func (p *plan) snapHints() {
	snap := func(h *geom.Point, to geom.Point) {
		if math.Abs(h.X-to.X) < p.tol {
			h.X = to.X
		}
		if math.Abs(h.Y-to.Y) < p.tol {
			h.Y = to.Y
		}
	}
	snap(&p.hints[0], p.start)
	snap(&p.hints[len(p.hints)-1], p.end)
}

// prune drops bends left inside floating terminals and folds a final bend
// that sits on the end point.
func (p *plan) prune(pts []geom.Point) []geom.Point {
	if p.first == nil && p.source != nil {
		for len(pts) > 0 && p.source.Contains(pts[0]) {
			pts = pts[1:]
		}
	}
	if p.last == nil && p.target != nil {
		for len(pts) > 0 && p.target.Contains(pts[len(pts)-1]) {
			pts = pts[:len(pts)-1]
		}
	}

	if n := len(pts); n > 0 && math.Abs(p.end.X-pts[n-1].X) <= p.tol && math.Abs(p.end.Y-pts[n-1].Y) <= p.tol {
		pts = pts[:n-1]
		if n := len(pts); n > 0 {
			if math.Abs(pts[n-1].X-p.end.X) < p.tol {
				pts[n-1].X = p.end.X
			}
			if math.Abs(pts[n-1].Y-p.end.Y) < p.tol {
				pts[n-1].Y = p.end.Y
			}
		}
	}
	return pts
}

// assemble frames the bends with the start and end anchors and removes any
// point within tolerance of its predecessor. Anchors always survive; a bend
// that collides with the end is replaced by it.
func (p *plan) assemble(pts []geom.Point) Path {
	out := Path{p.start}
	for _, pt := range pts {
		if !out[len(out)-1].Near(pt, p.tol) {
			out = append(out, pt)
		}
	}
	for len(out) > 1 && out[len(out)-1].Near(p.end, p.tol) {
		out = out[:len(out)-1]
	}
	if len(out) == 1 && out[0].Near(p.end, p.tol) {
		return out
	}
	return append(out, p.end)
}

// leaves reports whether reaching v on one axis forces the route off the
// end's own line or channel. alongY selects the y axis.
func leaves(v float64, fixed *geom.Point, term *geom.Box, alongY bool) bool {
	switch {
	case fixed != nil && alongY:
		return fixed.Y != v
	case fixed != nil:
		return fixed.X != v
	case term == nil:
		return false
	case alongY:
		return !term.SpansY(v)
	default:
		return !term.SpansX(v)
	}
}

// bends accumulates corner points, skipping any that would land within
// tolerance of the previous one.
type bends struct {
	tol    float64
	last   geom.Point
	points []geom.Point
}

func (b *bends) push(pt geom.Point) {
	pt = geom.Pt(round1(pt.X), round1(pt.Y))
	if b.last.Near(pt, b.tol) {
		return
	}
	b.points = append(b.points, pt)
	b.last = pt
}

// round1 rounds half up to one decimal place.
func round1(v float64) float64 { return math.Floor(v*10+0.5) / 10 }
