// Package pipeline runs a diagram export: route edges, place overlays, paint
// and encode every requested format, with artifact caching.
//
// The same Runner backs the CLI and the HTTP API, so both entry points get
// identical defaults, cache keys and hooks.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, diagram, pipeline.Options{
//	    Formats: []string{"svg", "png"},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
//
// Routing a single edge without a diagram:
//
//	path, err := runner.Route(ctx, route.Request{...})
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/procdraw/pkg/cache"
	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/export"
	"github.com/matzehuels/procdraw/pkg/raster"
	"github.com/matzehuels/procdraw/pkg/route"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// NormalizeFormat lower-cases f and maps the "jpg" alias to "jpeg".
func NormalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "jpg" {
		return FormatJPEG
	}
	return f
}

// ValidateFormats checks every entry of formats.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures one export run.
type Options struct {
	// Formats to produce. Defaults to svg. Duplicates are dropped.
	Formats []string `json:"formats,omitempty"`

	// Export controls the output frame. The zero value means
	// export.DefaultOptions.
	Export export.Options `json:"export"`

	// Raster controls bitmap encoding; its Format is set per artifact.
	Raster raster.Options `json:"-"`

	// Tolerance is the router merge distance.
	Tolerance float64 `json:"tolerance,omitempty"`

	// ViewScale is the scale the diagram geometry is given at.
	ViewScale float64 `json:"view_scale,omitempty"`

	// Hide lists cells to unload before painting, together with their
	// overlays and, for shapes, their connected edges.
	Hide []string `json:"hide,omitempty"`

	// Refresh bypasses cached artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Engine raster.Engine `json:"-"`
	Logger *log.Logger   `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	seen := make(map[string]bool, len(o.Formats))
	formats := o.Formats[:0:0]
	for _, f := range o.Formats {
		f = NormalizeFormat(f)
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	o.Formats = formats
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Export == (export.Options{}) {
		o.Export = export.DefaultOptions()
	}
	if o.Export.Scale == 0 {
		o.Export.Scale = export.DefaultScale
	}
	if err := o.Export.Validate(); err != nil {
		return err
	}
	if o.Tolerance == 0 {
		o.Tolerance = route.DefaultTolerance
	}
	if err := errors.ValidatePositive("tolerance", o.Tolerance); err != nil {
		return err
	}
	if o.ViewScale == 0 {
		o.ViewScale = 1
	}
	if err := errors.ValidatePositive("view_scale", o.ViewScale); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// NeedsEngine reports whether any requested format is a bitmap.
func (o *Options) NeedsEngine() bool {
	for _, f := range o.Formats {
		if f != FormatSVG {
			return true
		}
	}
	return false
}

// ArtifactKeyOpts returns the cache key options of one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Scale:      o.Export.Scale,
		Border:     o.Export.Border,
		Crisp:      o.Export.Crisp,
		Foreign:    o.Export.AllowForeignContent,
		Background: o.Export.Background,
	}
	if format != FormatSVG {
		if o.Engine != nil {
			k.Engine = o.Engine.Name()
			k.Foreign = k.Foreign && o.Engine.ForeignContent()
		}
		k.Quality = o.Raster.Quality
		if o.Raster.Background != "" {
			k.Background += "/" + o.Raster.Background
		}
	}
	return k
}

// Result holds the outputs of a run.
type Result struct {
	// RequestID identifies the run in logs and hooks.
	RequestID string

	// Diagram is the id of the exported diagram.
	Diagram string

	// DiagramHash is the content hash used for cache keys.
	DiagramHash string

	// Artifacts maps format to encoded bytes.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats describes the exported scene and where time went.
type Stats struct {
	Shapes     int
	Edges      int
	Overlays   int
	Width      int
	Height     int
	LayoutTime time.Duration
	PaintTime  time.Duration
}

// CacheInfo tracks which artifacts came from the cache.
type CacheInfo struct {
	// Hits lists formats served from cache.
	Hits []string

	// AllHit is true when no painting was needed.
	AllHit bool
}
