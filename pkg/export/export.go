package export

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/geom"
	"github.com/matzehuels/procdraw/pkg/raster"
)

const (
	DefaultScale  = 1.0
	DefaultBorder = 10.0
)

// Options controls the output frame of an export.
type Options struct {
	// Scale is the output scale relative to the model (default 1).
	Scale float64 `json:"scale,omitempty"`

	// Border is padding in device units added on every side.
	Border float64 `json:"border,omitempty"`

	// Crisp shifts the viewBox origin by half a unit so one-unit strokes
	// land on pixel boundaries.
	Crisp bool `json:"crisp,omitempty"`

	// AllowForeignContent lets rich labels be embedded as XHTML instead of
	// being reduced to truncated plain text.
	AllowForeignContent bool `json:"foreign_content,omitempty"`

	// Background fills the whole canvas when set.
	Background string `json:"background,omitempty"`

	// Logger receives truncation warnings. Defaults to log.Default().
	Logger *log.Logger `json:"-"`
}

// DefaultOptions returns crisp output at unit scale with the default border.
func DefaultOptions() Options {
	return Options{Scale: DefaultScale, Border: DefaultBorder, Crisp: true}
}

// Validate checks that the options describe a drawable frame.
func (o Options) Validate() error {
	if err := errors.ValidatePositive("scale", o.Scale); err != nil {
		return err
	}
	return errors.ValidateNonNegative("border", o.Border)
}

func (o Options) withDefaults() Options {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Frame is the output coordinate frame of an export.
type Frame struct {
	Width, Height int
	ViewBox       string
	Translate     geom.Point // applied before Scale, in view units
	Scale         float64
}

// ComputeFrame sizes the canvas for bounds drawn at viewScale.
//
// The canvas is ceil(bounds * scale/viewScale) plus the border on each side,
// at least one unit in each dimension. Painting is translated so the bounds'
// origin lands inside the border.
func ComputeFrame(bounds geom.Box, viewScale float64, o Options) Frame {
	if viewScale <= 0 {
		viewScale = 1
	}
	scale := o.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	s := scale / viewScale
	w := max(1, int(math.Ceil(math.Ceil(bounds.Width*s)+2*o.Border)))
	h := max(1, int(math.Ceil(math.Ceil(bounds.Height*s)+2*o.Border)))

	origin := "0 0"
	if o.Crisp {
		origin = "-0.5 -0.5"
	}
	return Frame{
		Width:   w,
		Height:  h,
		ViewBox: fmt.Sprintf("%s %d %d", origin, w, h),
		Translate: geom.Pt(
			math.Floor((o.Border/scale-bounds.X)/viewScale),
			math.Floor((o.Border/scale-bounds.Y)/viewScale),
		),
		Scale: s,
	}
}

// Document is a standalone SVG document.
type Document struct {
	Width   int
	Height  int
	ViewBox string
	Data    []byte
}

func (d *Document) String() string { return string(d.Data) }

// DataURI returns the document as a percent-encoded data URI.
func (d *Document) DataURI() string { return DataURI(KindSVG, d.Data) }

// Vector paints a diagram into a standalone SVG document.
//
// bounds is the region to export in view units at viewScale. paint is called
// once with a fresh surface already translated and scaled into the frame; an
// error from paint aborts the export and is returned wrapped.
func Vector(paint PaintFunc, bounds geom.Box, viewScale float64, opts Options) (*Document, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f := ComputeFrame(bounds, viewScale, opts)

	var buf bytes.Buffer
	s := newSVGSurface(&buf, opts.AllowForeignContent, opts.Logger)
	s.canvas.Startunit(f.Width, f.Height, "px", fmt.Sprintf(`viewBox="%s"`, f.ViewBox))
	if opts.Background != "" {
		o := 0.0
		if opts.Crisp {
			o = -0.5
		}
		s.canvas.Path(fmt.Sprintf("M %s %s h %d v %d h %d Z", num(o), num(o), f.Width, f.Height, -f.Width),
			"fill:"+opts.Background+";stroke:none")
	}

	s.Translate(f.Translate.X, f.Translate.Y)
	s.Scale(f.Scale)
	if paint != nil {
		if err := paint(s); err != nil {
			return nil, errors.Wrap(errors.ErrCodePaint, err, "paint diagram")
		}
	}
	s.canvas.End()

	return &Document{Width: f.Width, Height: f.Height, ViewBox: f.ViewBox, Data: buf.Bytes()}, nil
}

// Raster exports a diagram as a bitmap.
//
// The vector document is produced first. Foreign content is only embedded
// when both opts and the engine allow it, since engines that cannot draw
// XHTML would otherwise drop those labels.
func Raster(ctx context.Context, engine raster.Engine, paint PaintFunc, bounds geom.Box, viewScale float64, opts Options, ropts raster.Options) (*raster.Image, error) {
	opts.AllowForeignContent = opts.AllowForeignContent && engine.ForeignContent()
	doc, err := Vector(paint, bounds, viewScale, opts)
	if err != nil {
		return nil, err
	}
	return raster.Rasterize(ctx, engine, doc.Data, ropts)
}
