// Package scene is the diagram document consumed by the CLI and the API.
//
// A Document holds one or more diagrams whose elements already carry their
// geometry: shapes with boxes, edges with optional waypoints and routing
// hints, and overlay badges attached to either. [Painter] routes the edges,
// places the badges and draws everything onto an export surface.
package scene

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/geom"
	"github.com/matzehuels/procdraw/pkg/overlay"
)

// ShapeKind is the BPMN family a shape belongs to.
type ShapeKind string

const (
	KindTask       ShapeKind = "task"
	KindSubProcess ShapeKind = "subprocess"
	KindEvent      ShapeKind = "event"
	KindGateway    ShapeKind = "gateway"
	KindPool       ShapeKind = "pool"
	KindLane       ShapeKind = "lane"
	KindAnnotation ShapeKind = "annotation"
)

var knownKinds = map[ShapeKind]bool{
	KindTask: true, KindSubProcess: true, KindEvent: true, KindGateway: true,
	KindPool: true, KindLane: true, KindAnnotation: true,
}

// EdgeKind is the BPMN flow type of an edge.
type EdgeKind string

const (
	FlowSequence    EdgeKind = "sequence"
	FlowMessage     EdgeKind = "message"
	FlowAssociation EdgeKind = "association"
)

// Shape is a node of the diagram.
type Shape struct {
	ID       string    `json:"id"`
	Kind     ShapeKind `json:"kind"`
	Box      geom.Box  `json:"box"`
	Label    string    `json:"label,omitempty"`
	HTML     bool      `json:"html,omitempty"`
	FontSize float64   `json:"font_size,omitempty"`
	Fill     string    `json:"fill,omitempty"`
	Stroke   string    `json:"stroke,omitempty"`
}

// Edge connects two shapes. Points are absolute waypoints whose first and
// last entries may be null for ends that float on their shape.
type Edge struct {
	ID     string        `json:"id"`
	Kind   EdgeKind      `json:"kind,omitempty"`
	Source string        `json:"source,omitempty"`
	Target string        `json:"target,omitempty"`
	Points []*geom.Point `json:"points,omitempty"`
	Hints  []geom.Point  `json:"hints,omitempty"`
	Label  string        `json:"label,omitempty"`
	Stroke string        `json:"stroke,omitempty"`
}

// Badge is an overlay attached to a shape or edge.
type Badge struct {
	Cell    string         `json:"cell"`
	HAlign  overlay.HAlign `json:"horizontal_align,omitempty"`
	VAlign  overlay.VAlign `json:"vertical_align,omitempty"`
	Offset  geom.Point     `json:"offset"`
	Width   float64        `json:"width,omitempty"`
	Height  float64        `json:"height,omitempty"`
	Text    string         `json:"text,omitempty"`
	Fill    string         `json:"fill,omitempty"`
	Color   string         `json:"color,omitempty"`
	Overlap float64        `json:"overlap,omitempty"`
}

// Diagram is one process view.
type Diagram struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Shapes   []Shape `json:"shapes"`
	Edges    []Edge  `json:"edges,omitempty"`
	Overlays []Badge `json:"overlays,omitempty"`
}

// Document is the file format read by Load.
type Document struct {
	Version  string    `json:"version,omitempty"`
	Diagrams []Diagram `json:"diagrams"`
}

// Load decodes and validates a document.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode scene")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads a document from path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "scene file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open scene")
	}
	defer f.Close()
	return Load(f)
}

// Validate checks identifiers and references.
func (d *Document) Validate() error {
	if len(d.Diagrams) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scene has no diagrams")
	}
	seen := make(map[string]bool, len(d.Diagrams))
	for i := range d.Diagrams {
		dg := &d.Diagrams[i]
		if dg.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "diagram %d has no id", i)
		}
		if seen[dg.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate diagram id %q", dg.ID)
		}
		seen[dg.ID] = true
		if err := dg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Diagram returns the diagram with the given id, or the first one when id
// is empty.
func (d *Document) Diagram(id string) (*Diagram, error) {
	if id == "" && len(d.Diagrams) > 0 {
		return &d.Diagrams[0], nil
	}
	for i := range d.Diagrams {
		if d.Diagrams[i].ID == id {
			return &d.Diagrams[i], nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "diagram %q not found", id)
}

// Validate checks that ids are unique and that edges and overlays reference
// existing cells.
func (d *Diagram) Validate() error {
	ids := make(map[string]bool, len(d.Shapes)+len(d.Edges))
	for _, s := range d.Shapes {
		if s.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "diagram %s: shape without id", d.ID)
		}
		if ids[s.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "diagram %s: duplicate id %q", d.ID, s.ID)
		}
		if !knownKinds[s.Kind] {
			return errors.New(errors.ErrCodeInvalidInput, "diagram %s: shape %s has unknown kind %q", d.ID, s.ID, s.Kind)
		}
		if s.Box.Width < 0 || s.Box.Height < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "diagram %s: shape %s has negative size", d.ID, s.ID)
		}
		ids[s.ID] = true
	}
	for _, e := range d.Edges {
		if e.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "diagram %s: edge without id", d.ID)
		}
		if ids[e.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "diagram %s: duplicate id %q", d.ID, e.ID)
		}
		for _, ref := range []string{e.Source, e.Target} {
			if ref != "" && d.Shape(ref) == nil {
				return errors.New(errors.ErrCodeInvalidInput, "diagram %s: edge %s references unknown shape %q", d.ID, e.ID, ref)
			}
		}
		ids[e.ID] = true
	}
	for i, o := range d.Overlays {
		if !ids[o.Cell] {
			return errors.New(errors.ErrCodeInvalidInput, "diagram %s: overlay %d references unknown cell %q", d.ID, i, o.Cell)
		}
	}
	return nil
}

// Shape returns the shape with the given id, or nil.
func (d *Diagram) Shape(id string) *Shape {
	for i := range d.Shapes {
		if d.Shapes[i].ID == id {
			return &d.Shapes[i]
		}
	}
	return nil
}

// Edge returns the edge with the given id, or nil.
func (d *Diagram) Edge(id string) *Edge {
	for i := range d.Edges {
		if d.Edges[i].ID == id {
			return &d.Edges[i]
		}
	}
	return nil
}

// Title returns the display name of the diagram.
func (d *Diagram) Title() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}
