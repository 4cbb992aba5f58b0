package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/geom"
	"github.com/matzehuels/procdraw/pkg/overlay"
	"github.com/matzehuels/procdraw/pkg/route"
)

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var (
		name      string
		scale     float64
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:   "route <request.json|->",
		Short: "Route one edge and print its points",
		Long: `Route one edge from a JSON request and print the resulting points.

The request carries the terminal boxes, the edge's absolute points (first
and last may be null for floating ends) and its routing hints:

  {"source": {"x": 0, "y": 0, "width": 100, "height": 60},
   "target": {"x": 200, "y": 0, "width": 100, "height": 60},
   "hints": [{"x": 150, "y": 30}]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req route.Request
			if err := readJSON(cmd.InOrStdin(), args[0], &req); err != nil {
				return err
			}
			if cmd.Flags().Changed("scale") {
				req.Scale = scale
			}
			if cmd.Flags().Changed("tolerance") {
				req.Tolerance = tolerance
			}
			if name == "" {
				name = args[0]
			}

			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer runner.Close()

			path, err := runner.Route(cmd.Context(), name, req)
			if err != nil {
				return err
			}
			if path == nil {
				path = route.Path{}
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Points route.Path `json:"points"`
			}{path})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "edge name reported to hooks and logs")
	cmd.Flags().Float64Var(&scale, "scale", 0, "view scale (overrides the request)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "merge tolerance (overrides the request)")

	return cmd
}

// overlayCommand creates the overlay command.
func (c *CLI) overlayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overlay <request.json|->",
		Short: "Resolve where an overlay badge is drawn",
		Long: `Resolve an overlay badge against its owner's geometry.

The request holds the overlay and the geometry of the shape or edge it is
attached to:

  {"overlay": {"owner": "shape", "horizontal_align": "right",
               "vertical_align": "top", "width": 16, "height": 16},
   "geometry": {"box": {"x": 0, "y": 0, "width": 100, "height": 60}}}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req struct {
				Overlay  overlay.Overlay  `json:"overlay"`
				Geometry overlay.Geometry `json:"geometry"`
			}
			if err := readJSON(cmd.InOrStdin(), args[0], &req); err != nil {
				return err
			}
			o := req.Overlay.WithDefaults()
			if err := errors.ValidateNonNegative("overlay.width", o.Width); err != nil {
				return err
			}
			if err := errors.ValidateNonNegative("overlay.height", o.Height); err != nil {
				return err
			}

			out := struct {
				Anchor   *geom.Point `json:"anchor"`
				Box      geom.Box    `json:"box"`
				Anchored bool        `json:"anchored"`
			}{Box: overlay.Resolve(o, req.Geometry)}
			if p, ok := overlay.Anchor(o, req.Geometry); ok {
				out.Anchor, out.Anchored = &p, true
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

// readJSON decodes a request file, or stdin when input is "-".
func readJSON(stdin io.Reader, input string, v any) error {
	r := stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			if os.IsNotExist(err) {
				return errors.Wrap(errors.ErrCodeNotFound, err, "request file %s", input)
			}
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "open request")
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
