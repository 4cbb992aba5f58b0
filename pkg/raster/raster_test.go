package raster

import (
	"bytes"
	"context"
	stderrors "errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/procdraw/pkg/errors"
)

// fakeEngine returns a solid image of a fixed size.
type fakeEngine struct {
	w, h    int
	delay   time.Duration
	err     error
	foreign bool
	calls   int
	mu      sync.Mutex
}

func (f *fakeEngine) Name() string         { return "fake" }
func (f *fakeEngine) ForeignContent() bool { return f.foreign }

func (f *fakeEngine) Decode(ctx context.Context, _ []byte) (image.Image, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, f.w, f.h))
	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	return img, nil
}

// stuckEngine ignores its context.
type stuckEngine struct{ release chan struct{} }

func (stuckEngine) Name() string         { return "stuck" }
func (stuckEngine) ForeignContent() bool { return false }
func (s stuckEngine) Decode(context.Context, []byte) (image.Image, error) {
	<-s.release
	return nil, nil
}

func TestRasterizePNG(t *testing.T) {
	img, err := Rasterize(context.Background(), &fakeEngine{w: 150, h: 100}, []byte("<svg/>"), Options{})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if img.Format != PNG || img.Width != 150 || img.Height != 100 {
		t.Errorf("got %s %dx%d, want png 150x100", img.Format, img.Width, img.Height)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 150 || b.Dy() != 100 {
		t.Errorf("encoded size = %v", b)
	}
}

func TestRasterizeJPEG(t *testing.T) {
	img, err := Rasterize(context.Background(), &fakeEngine{w: 20, h: 10}, nil, Options{Format: JPEG, Quality: 80})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(img.Data)); err != nil {
		t.Fatalf("jpeg.Decode: %v", err)
	}
	if !strings.HasPrefix(img.DataURI(), "data:image/jpeg;base64,") {
		t.Errorf("DataURI prefix = %q", img.DataURI()[:30])
	}
}

func TestFinishOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 25, 15))
	img, err := Finish(src, Options{})
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if img.Width != 20 || img.Height != 10 {
		t.Errorf("size = %dx%d, want 20x10", img.Width, img.Height)
	}
}

func TestFinishEmpty(t *testing.T) {
	_, err := Finish(image.NewRGBA(image.Rect(0, 0, 0, 0)), Options{})
	if !errors.Is(err, errors.ErrCodeRaster) {
		t.Errorf("Finish(empty) = %v, want RASTER_FAILED", err)
	}
}

func TestRasterizeDecodeError(t *testing.T) {
	_, err := Rasterize(context.Background(), &fakeEngine{err: stderrors.New("bad svg")}, nil, Options{})
	if !errors.Is(err, errors.ErrCodeRaster) {
		t.Errorf("err = %v, want RASTER_FAILED", err)
	}
}

func TestRasterizeTimeout(t *testing.T) {
	e := &fakeEngine{w: 1, h: 1, delay: time.Second}
	_, err := Rasterize(context.Background(), e, nil, Options{Timeout: 20 * time.Millisecond})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("err = %v, want TIMEOUT", err)
	}
}

func TestRasterizeTimeoutIgnoringContext(t *testing.T) {
	e := stuckEngine{release: make(chan struct{})}
	defer close(e.release)
	_, err := Rasterize(context.Background(), e, nil, Options{Timeout: 20 * time.Millisecond})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("err = %v, want TIMEOUT", err)
	}
}

func TestTaskCancel(t *testing.T) {
	task := Start(context.Background(), &fakeEngine{w: 1, h: 1, delay: time.Second}, nil, Options{})
	task.Cancel()
	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not stop after Cancel")
	}
	if _, err := task.Wait(); !errors.Is(err, errors.ErrCodeRaster) {
		t.Errorf("err = %v, want RASTER_FAILED", err)
	}
}

func TestConcurrentRasterize(t *testing.T) {
	e := &fakeEngine{w: 8, h: 8}
	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Rasterize(context.Background(), e, nil, Options{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
	if e.calls != 10 {
		t.Errorf("calls = %d, want 10", e.calls)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": PNG, "PNG": PNG, "jpg": JPEG, "jpeg": JPEG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("svg"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(svg) = %v", err)
	}
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine("rsvg")
	if err != nil || e.Name() != "rsvg" || e.ForeignContent() {
		t.Errorf("NewEngine(rsvg) = %v, %v", e, err)
	}
	e, err = NewEngine("chrome")
	if err != nil || e.Name() != "chrome" || !e.ForeignContent() {
		t.Errorf("NewEngine(chrome) = %v, %v", e, err)
	}
	if _, err := NewEngine("gimp"); !errors.Is(err, errors.ErrCodeInvalidEngine) {
		t.Errorf("NewEngine(gimp) = %v", err)
	}
}
