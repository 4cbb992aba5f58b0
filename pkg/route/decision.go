package route

import "github.com/matzehuels/procdraw/pkg/geom"

// end is one side of an edge as seen from its nearest hint.
type end struct {
	fixed *geom.Point
	term  *geom.Box
	hint  geom.Point
}

// channels reports whether the hint can be reached from this end by a
// horizontal segment (hoz) or a vertical segment (vert) without a corner.
// A fixed end must share the axis exactly; a floating end only needs the hint
// inside the terminal's band.
func (e end) channels() (hoz, vert bool) {
	switch {
	case e.fixed != nil:
		return e.fixed.Y == e.hint.Y, e.fixed.X == e.hint.X
	case e.term != nil:
		return e.term.SpansY(e.hint.Y), e.term.SpansX(e.hint.X)
	default:
		return false, false
	}
}

// decide picks the orientation of the first segment leaving the start.
//
// The source side decides when exactly one of its channels holds. When both
// hold and the start is fixed, the first hint coincides with the start and is
// dropped. The target side then decides using the parity of the remaining
// hints, since each hint flips the orientation once. With nothing deciding,
// the route leaves horizontally.
func decide(src, tgt end, n int) (horizontal, dropFirst bool) {
	hoz, vert := src.channels()
	switch {
	case hoz && vert:
		if src.fixed != nil {
			dropFirst = true
			n--
		}
	case hoz || vert:
		return hoz, false
	}

	hoz, vert = tgt.channels()
	if hoz || vert {
		if n%2 == 0 {
			return hoz, dropFirst
		}
		return vert, dropFirst
	}
	return true, dropFirst
}
