package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/chromedp/chromedp"
)

// Chrome decodes SVG by loading it in headless Chrome and screenshotting the
// root element. Chrome draws foreignObject content.
type Chrome struct {
	// ExecPath overrides the browser binary.
	ExecPath string

	// NoSandbox disables the Chrome sandbox, needed in most containers.
	NoSandbox bool
}

func (*Chrome) Name() string         { return "chrome" }
func (*Chrome) ForeignContent() bool { return true }

// Decode starts a browser for the duration of the call. Each call gets its
// own browser, so concurrent decodes do not share state.
func (c *Chrome) Decode(ctx context.Context, svg []byte) (image.Image, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	if c.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	dataURI := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
	var shot []byte
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(dataURI),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.Screenshot(`svg`, &shot, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("chromedp: %w", err)
	}
	if len(shot) == 0 {
		return nil, fmt.Errorf("chromedp: empty screenshot")
	}
	return png.Decode(bytes.NewReader(shot))
}
