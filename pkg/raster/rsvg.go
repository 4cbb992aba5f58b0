package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"

	"github.com/matzehuels/procdraw/pkg/errors"
)

// Rsvg decodes SVG with the rsvg-convert tool from librsvg.
// librsvg ignores foreignObject content.
type Rsvg struct {
	// Path to the binary. Defaults to rsvg-convert on $PATH.
	Path string

	// Zoom scales the output. Zero means the natural size.
	Zoom float64
}

func (*Rsvg) Name() string         { return "rsvg" }
func (*Rsvg) ForeignContent() bool { return false }

// Decode runs rsvg-convert with svg on stdin and decodes its PNG output.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func (r *Rsvg) Decode(ctx context.Context, svg []byte) (image.Image, error) {
	bin := r.Path
	if bin == "" {
		bin = "rsvg-convert"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupported, err,
			"raster export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	args := []string{"-f", "png"}
	if r.Zoom > 0 {
		args = append(args, "-z", fmt.Sprintf("%.2f", r.Zoom))
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, strings.TrimSpace(errBuf.String()))
	}
	return png.Decode(&out)
}
