package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/procdraw/pkg/geom"
)

// Align positions a label horizontally inside its box.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// VAlign positions a label vertically inside its box.
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignMiddle VAlign = "middle"
	VAlignBottom VAlign = "bottom"
)

// Label is a text element. When HTML is set, Text holds rich markup.
type Label struct {
	Text   string
	HTML   bool
	Align  Align
	VAlign VAlign
}

// Surface is the drawing target handed to a PaintFunc.
//
// Coordinates passed to drawing calls are transformed by the current
// translation and scale: a point x lands at (x + dx) * scale. Save and Restore
// push and pop the full graphics state.
type Surface interface {
	// ForeignContent reports whether rich labels may be embedded as markup.
	ForeignContent() bool

	Translate(dx, dy float64)
	Scale(s float64)
	Save()
	Restore()

	SetStroke(color string, width float64)
	SetDash(dash ...float64)
	SetFill(color string)
	SetFont(family string, size float64, color string)

	Rect(b geom.Box)
	RoundRect(b geom.Box, r float64)
	Ellipse(b geom.Box)
	Polygon(pts []geom.Point)
	Polyline(pts []geom.Point)
	Text(b geom.Box, l Label)
}

// PaintFunc draws a diagram onto s.
type PaintFunc func(s Surface) error

type state struct {
	dx, dy      float64
	scale       float64
	stroke      string
	strokeWidth float64
	dash        []float64
	fill        string
	fontFamily  string
	fontSize    float64
	fontColor   string
}

func defaultState() state {
	return state{
		scale:       1,
		stroke:      "#000000",
		strokeWidth: 1,
		fill:        "none",
		fontFamily:  "Arial,Helvetica",
		fontSize:    11,
		fontColor:   "#000000",
	}
}

// svgSurface renders onto an svgo canvas. Translation and scale are applied
// to coordinates before they are written.
type svgSurface struct {
	canvas  *svg.SVG
	foreign bool
	logger  *log.Logger
	st      state
	stack   []state
}

func newSVGSurface(w io.Writer, foreign bool, logger *log.Logger) *svgSurface {
	return &svgSurface{canvas: svg.New(w), foreign: foreign, logger: logger, st: defaultState()}
}

func (s *svgSurface) ForeignContent() bool { return s.foreign }

func (s *svgSurface) Translate(dx, dy float64) {
	s.st.dx += dx
	s.st.dy += dy
}

func (s *svgSurface) Scale(f float64) { s.st.scale *= f }

func (s *svgSurface) Save() {
	st := s.st
	st.dash = append([]float64(nil), s.st.dash...)
	s.stack = append(s.stack, st)
}

func (s *svgSurface) Restore() {
	if n := len(s.stack); n > 0 {
		s.st = s.stack[n-1]
		s.stack = s.stack[:n-1]
	}
}

func (s *svgSurface) SetStroke(color string, width float64) {
	s.st.stroke, s.st.strokeWidth = color, width
}

func (s *svgSurface) SetDash(dash ...float64) { s.st.dash = dash }
func (s *svgSurface) SetFill(color string)    { s.st.fill = color }

func (s *svgSurface) SetFont(family string, size float64, color string) {
	if family != "" {
		s.st.fontFamily = family
	}
	if size > 0 {
		s.st.fontSize = size
	}
	if color != "" {
		s.st.fontColor = color
	}
}

func (s *svgSurface) pt(p geom.Point) geom.Point {
	return geom.Pt((p.X+s.st.dx)*s.st.scale, (p.Y+s.st.dy)*s.st.scale)
}

func (s *svgSurface) box(b geom.Box) geom.Box {
	o := s.pt(geom.Pt(b.X, b.Y))
	return geom.Rect(o.X, o.Y, b.Width*s.st.scale, b.Height*s.st.scale)
}

func (s *svgSurface) style(fill bool) string {
	var b strings.Builder
	if fill {
		fmt.Fprintf(&b, "fill:%s;", s.st.fill)
	} else {
		b.WriteString("fill:none;")
	}
	fmt.Fprintf(&b, "stroke:%s;stroke-width:%s", s.st.stroke, num(s.st.strokeWidth*s.st.scale))
	if len(s.st.dash) > 0 {
		parts := make([]string, len(s.st.dash))
		for i, d := range s.st.dash {
			parts[i] = num(d * s.st.scale)
		}
		fmt.Fprintf(&b, ";stroke-dasharray:%s", strings.Join(parts, " "))
	}
	return b.String()
}

func (s *svgSurface) Rect(b geom.Box) { s.RoundRect(b, 0) }

func (s *svgSurface) RoundRect(b geom.Box, r float64) {
	d := s.box(b)
	r *= s.st.scale
	if r <= 0 {
		s.canvas.Path(fmt.Sprintf("M %s %s h %s v %s h %s Z",
			num(d.X), num(d.Y), num(d.Width), num(d.Height), num(-d.Width)), s.style(true))
		return
	}
	r = min(r, d.Width/2, d.Height/2)
	s.canvas.Path(fmt.Sprintf("M %s %s h %s a %s %s 0 0 1 %s %s v %s a %s %s 0 0 1 %s %s h %s a %s %s 0 0 1 %s %s v %s a %s %s 0 0 1 %s %s Z",
		num(d.X+r), num(d.Y), num(d.Width-2*r),
		num(r), num(r), num(r), num(r), num(d.Height-2*r),
		num(r), num(r), num(-r), num(r), num(-(d.Width - 2*r)),
		num(r), num(r), num(-r), num(-r), num(-(d.Height - 2*r)),
		num(r), num(r), num(r), num(-r)), s.style(true))
}

func (s *svgSurface) Ellipse(b geom.Box) {
	d := s.box(b)
	rx, ry := d.Width/2, d.Height/2
	c := d.Center()
	s.canvas.Path(fmt.Sprintf("M %s %s a %s %s 0 1 0 %s 0 a %s %s 0 1 0 %s 0 Z",
		num(c.X-rx), num(c.Y), num(rx), num(ry), num(2*rx), num(rx), num(ry), num(-2*rx)), s.style(true))
}

func (s *svgSurface) Polygon(pts []geom.Point) {
	if len(pts) < 2 {
		return
	}
	s.canvas.Path(s.pathData(pts)+" Z", s.style(true))
}

func (s *svgSurface) Polyline(pts []geom.Point) {
	if len(pts) < 2 {
		return
	}
	s.canvas.Path(s.pathData(pts), s.style(false))
}

func (s *svgSurface) pathData(pts []geom.Point) string {
	var b strings.Builder
	for i, p := range pts {
		p = s.pt(p)
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		fmt.Fprintf(&b, " %s %s", num(p.X), num(p.Y))
	}
	return b.String()
}

const lineSpacing = 1.2

func (s *svgSurface) Text(b geom.Box, l Label) {
	if l.Text == "" {
		return
	}
	d := s.box(b)
	size := s.st.fontSize * s.st.scale
	if l.HTML && s.foreign && wellFormed(l.Text) {
		s.foreignObject(d, l, size)
		return
	}

	text := l.Text
	if l.HTML {
		plain, err := PlainText(text)
		if err != nil {
			s.logger.Warn("label dropped", "err", err)
			return
		}
		text = plain
	}
	widest, lines := lineUnits(text)
	if float64(widest)*size*avgGlyphEm > d.Width || float64(lines)*size*lineSpacing > d.Height {
		text = labelText(s.logger, l, size, d.Width)
	}
	if text == "" {
		return
	}
	s.writeLines(d, l, strings.Split(text, "\n"), size)
}

func (s *svgSurface) writeLines(d geom.Box, l Label, lines []string, size float64) {
	x, anchor := d.X+d.Width/2, "middle"
	switch l.Align {
	case AlignLeft:
		x, anchor = d.X, "start"
	case AlignRight:
		x, anchor = d.Right(), "end"
	}
	lh := size * lineSpacing
	block := float64(len(lines)-1) * lh
	var y float64
	switch l.VAlign {
	case VAlignTop:
		y = d.Y + size
	case VAlignBottom:
		y = d.Bottom() - block - size*0.25
	default:
		y = d.Y + d.Height/2 + size*0.35 - block/2
	}

	style := fmt.Sprintf("font-family:%s;font-size:%spx;fill:%s;text-anchor:%s",
		s.st.fontFamily, num(size), s.st.fontColor, anchor)
	for i, line := range lines {
		s.canvas.Gtransform(fmt.Sprintf("translate(%s,%s)", num(x), num(y+float64(i)*lh)))
		s.canvas.Text(0, 0, line, style)
		s.canvas.Gend()
	}
}

func (s *svgSurface) foreignObject(d geom.Box, l Label, size float64) {
	justify := "center"
	switch l.Align {
	case AlignLeft:
		justify = "flex-start"
	case AlignRight:
		justify = "flex-end"
	}
	items := "center"
	switch l.VAlign {
	case VAlignTop:
		items = "flex-start"
	case VAlignBottom:
		items = "flex-end"
	}
	fmt.Fprintf(s.canvas.Writer,
		`<foreignObject x="%s" y="%s" width="%s" height="%s"><div xmlns="http://www.w3.org/1999/xhtml" style="display:flex;width:100%%;height:100%%;justify-content:%s;align-items:%s;font-family:%s;font-size:%spx;color:%s">%s</div></foreignObject>`+"\n",
		num(d.X), num(d.Y), num(d.Width), num(d.Height),
		justify, items, s.st.fontFamily, num(size), s.st.fontColor, l.Text)
}

// wellFormed reports whether markup parses as an XML fragment. Only such
// markup can be embedded in the document verbatim.
func wellFormed(markup string) bool {
	dec := xml.NewDecoder(strings.NewReader("<div>" + markup + "</div>"))
	dec.Strict = true
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return true
		}
		if err != nil {
			return false
		}
	}
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(float64(int64(v*100+copysign(0.5, v)))/100, 'f', -1, 64)
}

func copysign(h, v float64) float64 {
	if v < 0 {
		return -h
	}
	return h
}
