package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/procdraw/pkg/cache"
	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/export"
	"github.com/matzehuels/procdraw/pkg/geom"
	"github.com/matzehuels/procdraw/pkg/observability"
	"github.com/matzehuels/procdraw/pkg/raster"
	"github.com/matzehuels/procdraw/pkg/route"
	"github.com/matzehuels/procdraw/pkg/scene"
)

// Runner executes exports with caching. It holds no per-run state, so one
// Runner can serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long artifacts stay cached (default cache.TTLArtifact).
	TTL time.Duration
}

// NewRunner creates a runner. A nil keyer means DefaultKeyer and a nil
// cache disables caching.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute exports d in every format of opts.
func (r *Runner) Execute(ctx context.Context, d *scene.Diagram, opts Options) (*Result, error) {
	if d == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no diagram to export")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.NeedsEngine() && opts.Engine == nil {
		eng, err := raster.NewEngine("rsvg")
		if err != nil {
			return nil, err
		}
		opts.Engine = eng
	}

	res := &Result{
		RequestID: uuid.NewString(),
		Diagram:   d.ID,
		Artifacts: make(map[string][]byte, len(opts.Formats)),
	}
	logger := opts.Logger.With("request", res.RequestID, "diagram", d.ID)

	start := time.Now()
	observability.Export().OnExportStart(ctx, d.ID, opts.Formats)
	err := r.execute(ctx, d, opts, res, logger)
	observability.Export().OnExportComplete(ctx, d.ID, opts.Formats, time.Since(start), err)
	if err != nil {
		logger.Debug("export failed", "err", err)
		return nil, err
	}
	logger.Debug("export finished", "formats", opts.Formats, "cached", res.CacheInfo.Hits, "elapsed", time.Since(start))
	return res, nil
}

func (r *Runner) execute(ctx context.Context, d *scene.Diagram, opts Options, res *Result, logger *log.Logger) error {
	hash, err := cache.HashJSON(struct {
		Diagram   *scene.Diagram `json:"diagram"`
		Tolerance float64        `json:"tolerance"`
		ViewScale float64        `json:"view_scale"`
		Hide      []string       `json:"hide,omitempty"`
	}{d, opts.Tolerance, opts.ViewScale, opts.Hide})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "hash diagram")
	}
	res.DiagramHash = hash

	var missing []string
	for _, f := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(f))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				res.Artifacts[f] = data
				res.CacheInfo.Hits = append(res.CacheInfo.Hits, f)
				continue
			} else if err != nil {
				logger.Warn("cache read failed", "format", f, "err", err)
			}
		}
		missing = append(missing, f)
	}
	res.Stats.Shapes, res.Stats.Edges, res.Stats.Overlays = len(d.Shapes), len(d.Edges), len(d.Overlays)
	if len(missing) == 0 {
		res.CacheInfo.AllHit = true
		return nil
	}

	layoutStart := time.Now()
	painter := scene.NewPainter(ctx, d, scene.PainterOptions{
		Tolerance: opts.Tolerance,
		Scale:     opts.ViewScale,
		Logger:    logger,
	})
	for _, cell := range opts.Hide {
		if d.Shape(cell) == nil && d.Edge(cell) == nil {
			logger.Warn("hidden cell not in diagram", "cell", cell)
			continue
		}
		painter.Unload(cell)
	}
	bounds := painter.Bounds()
	res.Stats.Overlays = len(painter.Badges())
	res.Stats.LayoutTime = time.Since(layoutStart)

	eopts := opts.Export
	eopts.Logger = logger
	frame := export.ComputeFrame(bounds, opts.ViewScale, eopts)
	res.Stats.Width, res.Stats.Height = frame.Width, frame.Height

	paintStart := time.Now()
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "export cancelled")
	}
	// Formats are independent; painting only reads the laid out scene.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range missing {
		g.Go(func() error {
			data, err := r.render(gctx, painter, bounds, f, opts, eopts)
			if err != nil {
				return err
			}
			mu.Lock()
			res.Artifacts[f] = data
			mu.Unlock()

			key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(f))
			if err := r.Cache.Set(gctx, key, data, r.ttl()); err != nil {
				logger.Warn("cache write failed", "format", f, "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	res.Stats.PaintTime = time.Since(paintStart)
	return nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLArtifact
}

func (r *Runner) render(ctx context.Context, p *scene.Painter, bounds geom.Box, format string, opts Options, eopts export.Options) ([]byte, error) {
	if format == FormatSVG {
		doc, err := export.Vector(p.Paint, bounds, opts.ViewScale, eopts)
		if err != nil {
			return nil, err
		}
		return doc.Data, nil
	}
	rf, err := raster.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	ropts := opts.Raster
	ropts.Format = rf
	img, err := export.Raster(ctx, opts.Engine, p.Paint, bounds, opts.ViewScale, eopts, ropts)
	if err != nil {
		return nil, err
	}
	return img.Data, nil
}

// Route computes a single orthogonal route and reports it to the route
// hooks under the given name.
func (r *Runner) Route(ctx context.Context, name string, req route.Request) (route.Path, error) {
	if req.Scale < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scale must not be negative")
	}
	if req.Tolerance < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "tolerance must not be negative")
	}
	if req.Source != nil && (req.Source.Width < 0 || req.Source.Height < 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "source box has negative size")
	}
	if req.Target != nil && (req.Target.Width < 0 || req.Target.Height < 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "target box has negative size")
	}
	path := route.Route(req)
	observability.Route().OnRoute(ctx, name, len(req.Hints), len(path))
	return path, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
