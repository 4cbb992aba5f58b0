// Package raster turns SVG documents into PNG or JPEG images.
//
// An [Engine] decodes SVG into an in-memory image at the document's natural
// pixel size. Two engines are provided: [Rsvg] shells out to rsvg-convert and
// [Chrome] renders in headless Chrome. The decoded image is drawn once onto
// a fresh off-screen bitmap of the same size and encoded.
//
// Every rasterization is bounded by a context and a timeout; see [Start] for
// the asynchronous form.
package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"
	"time"

	"github.com/fogleman/gg"

	"github.com/matzehuels/procdraw/pkg/errors"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultJPEGQuality = 90
	DefaultBackground  = "#ffffff"
)

// Format is an encoded image format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat accepts png, jpeg and jpg in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported raster format: %q", s)
}

// MIMEType returns the media type for f.
func (f Format) MIMEType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Options controls encoding and the time budget.
type Options struct {
	Format  Format
	Timeout time.Duration

	// Quality is the JPEG quality, 1-100.
	Quality int

	// Background fills the bitmap before the image is drawn. JPEG has no
	// alpha channel, so it always gets one (white by default).
	Background string
}

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = PNG
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultJPEGQuality
	}
	if o.Format == JPEG && o.Background == "" {
		o.Background = DefaultBackground
	}
	return o
}

// Image is an encoded bitmap.
type Image struct {
	Format Format
	Width  int
	Height int
	Data   []byte
}

// DataURI returns the image as a base64 data URI.
func (i *Image) DataURI() string {
	return "data:" + i.Format.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Engine decodes SVG documents into images.
type Engine interface {
	Name() string

	// ForeignContent reports whether the engine can draw XHTML embedded in
	// foreignObject elements.
	ForeignContent() bool

	Decode(ctx context.Context, svg []byte) (image.Image, error)
}

// NewEngine returns the engine registered under name.
func NewEngine(name string) (Engine, error) {
	if err := errors.ValidateEngine(name); err != nil {
		return nil, err
	}
	switch strings.ToLower(name) {
	case "chrome":
		return &Chrome{}, nil
	default:
		return &Rsvg{}, nil
	}
}

// Rasterize decodes svg with e and encodes the result. It blocks until the
// image is ready, ctx is done or the timeout expires.
func Rasterize(ctx context.Context, e Engine, svg []byte, opts Options) (*Image, error) {
	return Start(ctx, e, svg, opts).Wait()
}

// Finish draws img onto a fresh bitmap of its natural size and encodes it.
func Finish(img image.Image, opts Options) (*Image, error) {
	opts = opts.withDefaults()
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New(errors.ErrCodeRaster, "decoded image is empty")
	}

	dc := gg.NewContext(b.Dx(), b.Dy())
	if opts.Background != "" {
		dc.SetHexColor(opts.Background)
		dc.Clear()
	}
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	var buf bytes.Buffer
	switch opts.Format {
	case PNG:
		if err := dc.EncodePNG(&buf); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRaster, err, "encode png")
		}
	case JPEG:
		if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: opts.Quality}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRaster, err, "encode jpeg")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported raster format: %q", opts.Format)
	}
	return &Image{Format: opts.Format, Width: b.Dx(), Height: b.Dy(), Data: buf.Bytes()}, nil
}
