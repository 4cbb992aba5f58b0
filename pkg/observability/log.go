package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// logger. The CLI registers it when running verbosely.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

func (h *LogHooks) OnExportStart(_ context.Context, diagram string, formats []string) {
	h.Logger.Debug("export start", "diagram", diagram, "formats", formats)
}

func (h *LogHooks) OnExportComplete(_ context.Context, diagram string, formats []string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("export failed", "diagram", diagram, "elapsed", d, "err", err)
		return
	}
	h.Logger.Debug("export done", "diagram", diagram, "formats", formats, "elapsed", d)
}

func (h *LogHooks) OnRasterComplete(_ context.Context, engine string, w, hgt int, d time.Duration, err error) {
	h.Logger.Debug("raster", "engine", engine, "size", [2]int{w, hgt}, "elapsed", d, "err", err)
}

func (h *LogHooks) OnRoute(_ context.Context, edge string, hints, points int) {
	h.Logger.Debug("route", "edge", edge, "hints", hints, "points", points)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.Logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.Logger.Debug("response", "method", method, "path", path, "status", status, "elapsed", d)
}

// Install registers h for every hook category.
func (h *LogHooks) Install() {
	SetExportHooks(h)
	SetRouteHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}
