package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/export"
	"github.com/matzehuels/procdraw/pkg/pipeline"
	"github.com/matzehuels/procdraw/pkg/scene"
)

// exportFlags holds the flags of the export command.
type exportFlags struct {
	formats     string
	output      string
	name        string
	diagram     string
	all         bool
	interactive bool
	engine      string
	scale       float64
	border      float64
	foreign     bool
	background  string
	quality     int
	tolerance   float64
	viewScale   float64
	hide        []string
	noCache     bool
	refresh     bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export <scene.json|->",
		Short: "Render a scene diagram to SVG, PNG or JPEG",
		Long: `Render one or more diagrams of a scene document.

Edges are routed, overlay badges placed and the result encoded in every
requested format. Raster formats go through the configured engine (rsvg or
chrome). Artifacts are cached, so re-exporting an unchanged diagram is free.`,
		Example: `  procdraw export order.json
  procdraw export order.json -f svg,png -o out/
  procdraw export order.json --diagram returns --hide ship --scale 2
  cat order.json | procdraw export - --all -f jpeg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.formats, "format", "f", "", "output formats: svg, png, jpeg (comma-separated)")
	f.StringVarP(&flags.output, "output", "o", ".", "output directory")
	f.StringVarP(&flags.name, "name", "n", "", "base name of the written files (default: diagram name)")
	f.StringVar(&flags.diagram, "diagram", "", "diagram id to export (default: first)")
	f.BoolVar(&flags.all, "all", false, "export every diagram of the scene")
	f.BoolVarP(&flags.interactive, "interactive", "i", false, "pick the diagram interactively")
	f.StringVar(&flags.engine, "engine", "", "raster engine: rsvg, chrome (default from config)")
	f.Float64Var(&flags.scale, "scale", 0, "output scale")
	f.Float64Var(&flags.border, "border", 0, "padding around the diagram in output units")
	f.BoolVar(&flags.foreign, "foreign", false, "embed rich labels as XHTML")
	f.StringVar(&flags.background, "background", "", "background color")
	f.IntVar(&flags.quality, "quality", 0, "JPEG quality 1-100")
	f.Float64Var(&flags.tolerance, "tolerance", 0, "routing merge tolerance")
	f.Float64Var(&flags.viewScale, "view-scale", 0, "scale the scene geometry is given at")
	f.StringSliceVar(&flags.hide, "hide", nil, "cells to leave out (repeatable)")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the artifact cache")
	f.BoolVar(&flags.refresh, "refresh", false, "re-render even when cached")

	cmd.MarkFlagsMutuallyExclusive("diagram", "all", "interactive")
	cmd.MarkFlagsMutuallyExclusive("no-cache", "refresh")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, input string, flags exportFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	doc, err := readScene(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}
	diagrams, err := selectDiagrams(doc, flags)
	if err != nil {
		return err
	}
	if flags.name != "" && len(diagrams) > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "--name needs a single diagram, got %d", len(diagrams))
	}

	opts, err := c.exportOptions(cmd, flags)
	if err != nil {
		return err
	}
	if opts.Engine != nil && opts.Export.AllowForeignContent && !opts.Engine.ForeignContent() {
		printWarning("%s cannot draw rich labels; raster output falls back to plain text", opts.Engine.Name())
	}
	if err := os.MkdirAll(flags.output, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	for i := range diagrams {
		d := diagrams[i]
		name := flags.name
		if name == "" {
			name = d.Title()
		}
		if err := c.exportDiagram(ctx, runner, d, name, flags.output, opts); err != nil {
			return err
		}
	}
	prog.done(fmt.Sprintf("Exported %d diagram(s)", len(diagrams)))
	return nil
}

func (c *CLI) exportDiagram(ctx context.Context, runner *pipeline.Runner, d *scene.Diagram, name, dir string, opts pipeline.Options) error {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Exporting %s...", d.Title()))
	spinner.Start()
	res, err := runner.Execute(ctx, d, opts)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Export of %s failed", d.Title()))
		return err
	}
	spinner.Stop()

	var written []string
	for _, f := range opts.Formats {
		path := filepath.Join(dir, export.Filename(name, export.Kind(f)))
		if err := os.WriteFile(path, res.Artifacts[f], 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		written = append(written, path)
	}

	printSuccess("Exported %s", d.Title())
	printStats(res.Stats.Shapes, res.Stats.Edges, res.Stats.Overlays, res.CacheInfo.AllHit)
	for _, p := range written {
		printFile(p)
	}
	return nil
}

// exportOptions merges the config file with the flags the user set.
func (c *CLI) exportOptions(cmd *cobra.Command, flags exportFlags) (pipeline.Options, error) {
	cfg := c.conf()
	changed := cmd.Flags().Changed

	opts := pipeline.Options{
		Formats:   parseFormats(flags.formats),
		Export:    cfg.ExportOptions(),
		Raster:    cfg.RasterOptions(),
		Tolerance: cfg.Route.Tolerance,
		ViewScale: flags.viewScale,
		Hide:      flags.hide,
		Refresh:   flags.refresh,
		Logger:    c.Logger,
	}
	if changed("scale") {
		opts.Export.Scale = flags.scale
	}
	if changed("border") {
		opts.Export.Border = flags.border
	}
	if changed("foreign") {
		opts.Export.AllowForeignContent = flags.foreign
	}
	if changed("background") {
		opts.Export.Background = flags.background
		opts.Raster.Background = flags.background
	}
	if changed("quality") {
		opts.Raster.Quality = flags.quality
	}
	if changed("tolerance") {
		opts.Tolerance = flags.tolerance
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}

	if opts.NeedsEngine() {
		rc := *cfg
		if flags.engine != "" {
			rc.Raster.Engine = flags.engine
		}
		eng, err := rc.Engine()
		if err != nil {
			return opts, err
		}
		opts.Engine = eng
	}
	return opts, nil
}

// readScene loads a scene file, or stdin when input is "-".
func readScene(stdin io.Reader, input string) (*scene.Document, error) {
	if input == "-" {
		return scene.Load(stdin)
	}
	return scene.LoadFile(input)
}

// selectDiagrams applies --diagram, --all and --interactive.
func selectDiagrams(doc *scene.Document, flags exportFlags) ([]*scene.Diagram, error) {
	switch {
	case flags.all:
		out := make([]*scene.Diagram, len(doc.Diagrams))
		for i := range doc.Diagrams {
			out[i] = &doc.Diagrams[i]
		}
		return out, nil
	case flags.interactive:
		d, err := pickDiagram(doc)
		if err != nil {
			return nil, err
		}
		return []*scene.Diagram{d}, nil
	}
	d, err := doc.Diagram(flags.diagram)
	if err != nil {
		return nil, err
	}
	return []*scene.Diagram{d}, nil
}
