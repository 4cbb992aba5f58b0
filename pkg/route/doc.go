// Package route computes orthogonal polylines for diagram edges.
//
// An edge connects two ends. Each end is either fixed to an explicit
// waypoint or floats on a terminal box, in which case it leaves from the
// box's center. Between the ends the user may place hints; the router walks
// them in order, alternating horizontal and vertical segments, and inserts
// the corners needed to reach the first hint and the end.
//
// # Orientation
//
// The direction of the first segment comes from a small decision table. The
// source side is consulted first: if the first hint is reachable in a
// straight line on exactly one axis, that axis wins. Otherwise the target
// side is consulted and, because every hint flips the orientation, the
// parity of the hint count maps the target's preferred axis back to the
// start. If neither side decides, the route leaves horizontally.
//
// # Tolerance
//
// All coordinates are scaled to device units first. Points closer than the
// request's Tolerance on both axes are merged, hints within tolerance of an
// end are snapped onto its axes, and emitted corners are rounded to a tenth
// of a device unit.
//
// Route is a pure function. It never returns an error: degenerate input
// yields the simplest valid path.
package route
