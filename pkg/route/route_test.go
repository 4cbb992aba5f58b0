package route

import (
	"reflect"
	"testing"

	"github.com/matzehuels/procdraw/pkg/geom"
)

func pt(x, y float64) *geom.Point {
	p := geom.Pt(x, y)
	return &p
}

func box(x, y, w, h float64) *geom.Box {
	b := geom.Rect(x, y, w, h)
	return &b
}

func path(coords ...float64) Path {
	var p Path
	for i := 0; i+1 < len(coords); i += 2 {
		p = append(p, geom.Pt(coords[i], coords[i+1]))
	}
	return p
}

var routeCases = []struct {
	name string
	req  Request
	want Path
}{
	{
		name: "Empty",
		req:  Request{},
		want: nil,
	},
	{
		name: "SinglePoint",
		req:  Request{Points: []*geom.Point{pt(5, 5)}},
		want: path(5, 5),
	},
	{
		name: "NoHintsFixed",
		req:  Request{Points: []*geom.Point{pt(0, 0), pt(100, 50)}},
		want: path(0, 0, 100, 50),
	},
	{
		name: "NoHintsFloating",
		req:  Request{Source: box(0, 0, 40, 40), Target: box(100, 100, 40, 40)},
		want: path(20, 20, 120, 120),
	},
	{
		name: "Scaled",
		req:  Request{Points: []*geom.Point{pt(0, 0), pt(10, 10)}, Scale: 2},
		want: path(0, 0, 20, 20),
	},
	{
		name: "SourceDecidesVertical",
		req: Request{
			Points: []*geom.Point{pt(0, 0), pt(100, 100)},
			Hints:  []geom.Point{geom.Pt(0.5, 50)},
		},
		want: path(0, 0, 0, 50, 100, 50, 100, 100),
	},
	{
		name: "TargetDecidesHorizontal",
		req: Request{
			Points: []*geom.Point{pt(0, 0), pt(100, 100)},
			Hints:  []geom.Point{geom.Pt(100.4, 50)},
		},
		want: path(0, 0, 0, 50, 100, 50, 100, 100),
	},
	{
		name: "TargetDecidesVertical",
		req: Request{
			Points: []*geom.Point{pt(0, 0), pt(100, 100)},
			Hints:  []geom.Point{geom.Pt(50, 99.5)},
		},
		want: path(0, 0, 50, 0, 50, 100, 100, 100),
	},
	{
		name: "HintOnEndFolds",
		req: Request{
			Points: []*geom.Point{pt(0, 0), pt(100, 100)},
			Hints:  []geom.Point{geom.Pt(99.7, 99.7)},
		},
		want: path(0, 0, 0, 100, 100, 100),
	},
	{
		name: "HintOnStartDropped",
		req: Request{
			Points: []*geom.Point{pt(0, 0), pt(100, 50)},
			Hints:  []geom.Point{geom.Pt(0, 0), geom.Pt(50, 50)},
		},
		want: path(0, 0, 0, 50, 100, 50),
	},
	{
		name: "FloatingStraight",
		req: Request{
			Source: box(0, 0, 40, 40),
			Target: box(200, 0, 40, 40),
			Hints:  []geom.Point{geom.Pt(100, 20)},
		},
		want: path(20, 20, 100, 20, 220, 20),
	},
	{
		name: "PrunesBendInsideSource",
		req: Request{
			Source: box(0, 0, 40, 40),
			Points: []*geom.Point{nil, pt(50, 50)},
			Hints:  []geom.Point{geom.Pt(30, 10)},
		},
		want: path(20, 20, 30, 50, 50, 50),
	},
}

func TestRoute(t *testing.T) {
	for _, tt := range routeCases {
		t.Run(tt.name, func(t *testing.T) {
			got := Route(tt.req)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Route() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRouteIdempotent(t *testing.T) {
	for _, tt := range routeCases {
		t.Run(tt.name, func(t *testing.T) {
			a := Route(tt.req)
			b := Route(tt.req)
			if !reflect.DeepEqual(a, b) {
				t.Errorf("second Route() = %v, first %v", b, a)
			}
		})
	}
}

func TestRouteDoesNotMutateRequest(t *testing.T) {
	req := Request{
		Points: []*geom.Point{pt(0, 0), pt(100, 100)},
		Hints:  []geom.Point{geom.Pt(0.5, 50)},
		Scale:  2,
	}
	Route(req)
	if req.Hints[0] != geom.Pt(0.5, 50) {
		t.Errorf("hint mutated: %v", req.Hints[0])
	}
	if *req.Points[1] != geom.Pt(100, 100) {
		t.Errorf("point mutated: %v", *req.Points[1])
	}
}

func TestRouteToleranceMerge(t *testing.T) {
	reqs := []Request{
		{
			Points: []*geom.Point{pt(0, 0), pt(100, 100)},
			Hints:  []geom.Point{geom.Pt(0.2, 0.3), geom.Pt(50, 0.4), geom.Pt(50.5, 99.9)},
		},
		{
			Source:    box(0, 0, 40, 40),
			Target:    box(60, 60, 40, 40),
			Hints:     []geom.Point{geom.Pt(20, 50), geom.Pt(21, 51), geom.Pt(80, 52)},
			Tolerance: 3,
		},
		{
			Points: []*geom.Point{pt(10, 10), pt(10.5, 10.5)},
		},
	}
	for i, req := range reqs {
		tol := req.Tolerance
		if tol == 0 {
			tol = DefaultTolerance
		}
		got := Route(req)
		if len(got) == 0 {
			t.Fatalf("case %d: empty path", i)
		}
		for j := 1; j < len(got); j++ {
			if got[j-1].Near(got[j], tol) {
				t.Errorf("case %d: points %v and %v within tolerance %v", i, got[j-1], got[j], tol)
			}
		}
	}
}

func TestRouteCoincidentEnds(t *testing.T) {
	got := Route(Request{Points: []*geom.Point{pt(10, 10), pt(10.5, 10.5)}})
	want := path(10, 10)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Route() = %v, want %v", got, want)
	}
}

func TestRouteFallbackToHints(t *testing.T) {
	// No terminals and no points: the hints themselves anchor the path.
	got := Route(Request{Hints: []geom.Point{geom.Pt(0, 0), geom.Pt(50, 50)}})
	if len(got) < 2 {
		t.Fatalf("Route() = %v, want at least two points", got)
	}
	if got[0] != geom.Pt(0, 0) || got[len(got)-1] != geom.Pt(50, 50) {
		t.Errorf("Route() = %v, want anchors (0,0) and (50,50)", got)
	}
}

func TestRouteRoundsBends(t *testing.T) {
	got := Route(Request{
		Points: []*geom.Point{pt(0, 0), pt(100, 100)},
		Hints:  []geom.Point{geom.Pt(33.333, 66.666)},
	})
	for _, p := range got[1 : len(got)-1] {
		if p.X != round1(p.X) || p.Y != round1(p.Y) {
			t.Errorf("bend %v not rounded to 0.1", p)
		}
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		src, tgt end
		n        int
		wantHoz  bool
		wantDrop bool
	}{
		{
			name:    "Nothing",
			src:     end{hint: geom.Pt(5, 5)},
			tgt:     end{hint: geom.Pt(5, 5)},
			n:       1,
			wantHoz: true,
		},
		{
			name:    "FixedSourceSameRow",
			src:     end{fixed: pt(0, 5), hint: geom.Pt(9, 5)},
			n:       1,
			wantHoz: true,
		},
		{
			name:    "FixedSourceSameColumn",
			src:     end{fixed: pt(9, 0), hint: geom.Pt(9, 5)},
			n:       1,
			wantHoz: false,
		},
		{
			name:     "FixedSourceCoincidentDropped",
			src:      end{fixed: pt(9, 5), hint: geom.Pt(9, 5)},
			tgt:      end{fixed: pt(100, 100), hint: geom.Pt(100, 20)},
			n:        3,
			wantHoz:  false,
			wantDrop: true,
		},
		{
			name:    "FloatingSourceAmbiguousDefers",
			src:     end{term: box(0, 0, 40, 40), hint: geom.Pt(10, 10)},
			tgt:     end{fixed: pt(100, 100), hint: geom.Pt(100, 20)},
			n:       2,
			wantHoz: false,
		},
		{
			name:    "TargetParityEven",
			src:     end{fixed: pt(0, 0), hint: geom.Pt(50, 50)},
			tgt:     end{fixed: pt(100, 100), hint: geom.Pt(60, 100)},
			n:       2,
			wantHoz: true,
		},
		{
			name:    "TargetParityOdd",
			src:     end{fixed: pt(0, 0), hint: geom.Pt(50, 50)},
			tgt:     end{fixed: pt(100, 100), hint: geom.Pt(60, 100)},
			n:       1,
			wantHoz: false,
		},
		{
			name:    "FloatingTargetChannel",
			src:     end{hint: geom.Pt(5, 5)},
			tgt:     end{term: box(80, 0, 40, 40), hint: geom.Pt(50, 20)},
			n:       1,
			wantHoz: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hoz, drop := decide(tt.src, tt.tgt, tt.n)
			if hoz != tt.wantHoz || drop != tt.wantDrop {
				t.Errorf("decide() = (%v, %v), want (%v, %v)", hoz, drop, tt.wantHoz, tt.wantDrop)
			}
		})
	}
}
