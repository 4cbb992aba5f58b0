package scene

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/procdraw/pkg/export"
	"github.com/matzehuels/procdraw/pkg/geom"
	"github.com/matzehuels/procdraw/pkg/observability"
	"github.com/matzehuels/procdraw/pkg/overlay"
	"github.com/matzehuels/procdraw/pkg/route"
)

func twoTasks() *Diagram {
	return &Diagram{
		ID: "d",
		Shapes: []Shape{
			{ID: "a", Kind: KindTask, Box: geom.Rect(0, 0, 100, 60), Label: "Check order"},
			{ID: "b", Kind: KindTask, Box: geom.Rect(200, 0, 100, 60), Label: "Ship"},
		},
		Edges: []Edge{
			{ID: "e1", Kind: FlowSequence, Source: "a", Target: "b", Label: "ok"},
		},
		Overlays: []Badge{
			{Cell: "a", HAlign: overlay.Right, VAlign: overlay.Top, Text: "3"},
			{Cell: "e1"},
		},
	}
}

type countingRoutes struct {
	observability.NoopRouteHooks
	edges []string
}

func (c *countingRoutes) OnRoute(_ context.Context, edge string, _, _ int) {
	c.edges = append(c.edges, edge)
}

func TestNewPainterRoutes(t *testing.T) {
	hooks := &countingRoutes{}
	observability.SetRouteHooks(hooks)
	defer observability.Reset()

	p := NewPainter(context.Background(), twoTasks(), PainterOptions{})
	want := route.Path{geom.Pt(50, 30), geom.Pt(250, 30)}
	got := p.Route("e1")
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Route(e1) = %v, want %v", got, want)
	}
	if len(hooks.edges) != 1 || hooks.edges[0] != "e1" {
		t.Errorf("OnRoute calls = %v", hooks.edges)
	}
}

func TestPainterBadges(t *testing.T) {
	p := NewPainter(context.Background(), twoTasks(), PainterOptions{})
	badges := p.Badges()
	if len(badges) != 2 {
		t.Fatalf("Badges() = %d, want 2", len(badges))
	}
	want := map[string]geom.Box{
		"a":  geom.Rect(91, -9, 18, 18),
		"e1": geom.Rect(141, 21, 18, 18),
	}
	for _, b := range badges {
		if b.Box != want[b.Cell] {
			t.Errorf("badge on %s = %+v, want %+v", b.Cell, b.Box, want[b.Cell])
		}
		if b.ID == "" {
			t.Errorf("badge on %s has no id", b.Cell)
		}
	}
}

func TestPainterScale(t *testing.T) {
	p := NewPainter(context.Background(), twoTasks(), PainterOptions{Scale: 2})
	got := p.Route("e1")
	if len(got) != 2 || got[0] != geom.Pt(100, 60) || got[1] != geom.Pt(500, 60) {
		t.Errorf("scaled route = %v", got)
	}
	for _, b := range p.Badges() {
		if b.Cell == "a" && b.Box != geom.Rect(182, -18, 36, 36) {
			t.Errorf("scaled badge = %+v", b.Box)
		}
	}
}

func TestPainterBounds(t *testing.T) {
	p := NewPainter(context.Background(), twoTasks(), PainterOptions{})
	if got, want := p.Bounds(), geom.Rect(0, -9, 300, 69); got != want {
		t.Errorf("Bounds() = %+v, want %+v", got, want)
	}
}

func TestPainterUnload(t *testing.T) {
	p := NewPainter(context.Background(), twoTasks(), PainterOptions{})

	// Unloading the edge drops only its badge.
	if n := p.Unload("e1"); n != 1 {
		t.Errorf("Unload(e1) = %d, want 1", n)
	}
	if p.Route("e1") != nil {
		t.Error("route survived Unload")
	}
	if got := len(p.Badges()); got != 1 {
		t.Errorf("Badges() after edge unload = %d, want 1", got)
	}

	// Unloading a shape takes its badge; the edge is already gone.
	if n := p.Unload("a"); n != 1 {
		t.Errorf("Unload(a) = %d, want 1", n)
	}
	if got := len(p.Badges()); got != 0 {
		t.Errorf("Badges() after shape unload = %d, want 0", got)
	}
	if got, want := p.Bounds(), geom.Rect(200, 0, 100, 60); got != want {
		t.Errorf("Bounds() = %+v, want %+v", got, want)
	}
}

func TestPainterUnloadShapeCascades(t *testing.T) {
	p := NewPainter(context.Background(), twoTasks(), PainterOptions{})
	if n := p.Unload("b"); n != 1 {
		t.Errorf("Unload(b) = %d, want 1 (edge badge)", n)
	}
	if p.Route("e1") != nil {
		t.Error("connected edge survived shape unload")
	}
	if n := p.Unload("missing"); n != 0 {
		t.Errorf("Unload(missing) = %d", n)
	}
}

func TestPaint(t *testing.T) {
	p := NewPainter(context.Background(), twoTasks(), PainterOptions{})
	doc, err := export.Vector(p.Paint, p.Bounds(), 1, export.DefaultOptions())
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	svg := doc.String()
	for _, want := range []string{"Check order", "Ship", ">ok<", ">3<", "<path"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestPaintFile(t *testing.T) {
	doc, err := LoadFile("testdata/order.json")
	if err != nil {
		t.Fatal(err)
	}
	d, _ := doc.Diagram("order")
	p := NewPainter(context.Background(), d, PainterOptions{})
	if got, want := p.Bounds(), geom.Rect(-40, -20, 420, 120); got != want {
		t.Errorf("Bounds() = %+v, want %+v", got, want)
	}

	opts := export.DefaultOptions()
	opts.AllowForeignContent = true
	out, err := export.Vector(p.Paint, p.Bounds(), 1, opts)
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	if !strings.Contains(out.String(), "foreignObject") {
		t.Error("html label not rendered as foreign content")
	}
}

func TestPaintNilSurface(t *testing.T) {
	p := NewPainter(context.Background(), twoTasks(), PainterOptions{})
	if err := p.Paint(nil); err == nil {
		t.Error("Paint(nil) succeeded")
	}
}

func TestClip(t *testing.T) {
	b := geom.Rect(0, 0, 100, 60)
	tests := []struct {
		name           string
		center, toward geom.Point
		want           geom.Point
	}{
		{"Right", geom.Pt(50, 30), geom.Pt(250, 30), geom.Pt(100, 30)},
		{"Below", geom.Pt(50, 30), geom.Pt(50, 90), geom.Pt(50, 60)},
		{"Diagonal", geom.Pt(50, 30), geom.Pt(110, 90), geom.Pt(80, 60)},
		{"Inside", geom.Pt(50, 30), geom.Pt(60, 40), geom.Pt(50, 30)},
	}
	for _, tt := range tests {
		if got := clip(b, tt.center, tt.toward); got != tt.want {
			t.Errorf("%s: clip = %v, want %v", tt.name, got, tt.want)
		}
	}
	if got := clip(geom.Box{}, geom.Pt(1, 1), geom.Pt(9, 9)); got != geom.Pt(1, 1) {
		t.Errorf("clip(empty) = %v", got)
	}
}

func TestArrowHead(t *testing.T) {
	tri := arrowHead(geom.Pt(0, 0), geom.Pt(10, 0), 4)
	if len(tri) != 3 || tri[0] != geom.Pt(10, 0) || tri[1] != geom.Pt(6, 2) || tri[2] != geom.Pt(6, -2) {
		t.Errorf("arrowHead = %v", tri)
	}
	if arrowHead(geom.Pt(1, 1), geom.Pt(1, 1), 4) != nil {
		t.Error("degenerate arrowHead not nil")
	}
}

func TestPaintExampleScene(t *testing.T) {
	doc, err := LoadFile("../../examples/scenes/claims.json")
	if err != nil {
		t.Fatal(err)
	}
	d, _ := doc.Diagram("")
	p := NewPainter(context.Background(), d, PainterOptions{})
	for _, e := range d.Edges {
		if len(p.Route(e.ID)) < 2 {
			t.Errorf("edge %s routed to %v", e.ID, p.Route(e.ID))
		}
	}
	if got := len(p.Badges()); got != 3 {
		t.Errorf("Badges() = %d, want 3", got)
	}
	out, err := export.Vector(p.Paint, p.Bounds(), 1, export.DefaultOptions())
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	if !strings.Contains(out.String(), "Register claim") {
		t.Error("task label missing from output")
	}
}
