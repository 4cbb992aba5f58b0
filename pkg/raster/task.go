package raster

import (
	"context"
	stderrors "errors"
	"image"
	"time"

	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/observability"
)

// Task is a rasterization running in the background.
type Task struct {
	done   chan struct{}
	cancel context.CancelFunc
	img    *Image
	err    error
}

// Start begins rasterizing svg with e. The task stops when ctx is done,
// when opts.Timeout expires or when Cancel is called.
func Start(ctx context.Context, e Engine, svg []byte, opts Options) *Task {
	opts = opts.withDefaults()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	t := &Task{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(t.done)
		defer cancel()
		start := time.Now()
		t.img, t.err = run(ctx, e, svg, opts)
		w, h := 0, 0
		if t.img != nil {
			w, h = t.img.Width, t.img.Height
		}
		observability.Export().OnRasterComplete(ctx, e.Name(), w, h, time.Since(start), t.err)
	}()
	return t
}

// Wait blocks until the task finishes.
func (t *Task) Wait() (*Image, error) {
	<-t.done
	return t.img, t.err
}

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel stops the task. Wait then returns a cancellation error unless the
// image was already finished.
func (t *Task) Cancel() { t.cancel() }

type decoded struct {
	img image.Image
	err error
}

func run(ctx context.Context, e Engine, svg []byte, opts Options) (*Image, error) {
	ch := make(chan decoded, 1)
	go func() {
		img, err := e.Decode(ctx, svg)
		ch <- decoded{img, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctxError(ctx, e)
	case d := <-ch:
		if d.err != nil {
			if ctx.Err() != nil {
				return nil, ctxError(ctx, e)
			}
			return nil, errors.Wrap(errors.ErrCodeRaster, d.err, "%s could not decode the document", e.Name())
		}
		if d.img == nil {
			return nil, errors.New(errors.ErrCodeRaster, "%s returned no image", e.Name())
		}
		return Finish(d.img, opts)
	}
}

func ctxError(ctx context.Context, e Engine) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "%s rasterization timed out", e.Name())
	}
	return errors.Wrap(errors.ErrCodeRaster, ctx.Err(), "%s rasterization cancelled", e.Name())
}
