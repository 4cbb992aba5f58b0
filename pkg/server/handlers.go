package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/procdraw/pkg/buildinfo"
	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/export"
	"github.com/matzehuels/procdraw/pkg/geom"
	"github.com/matzehuels/procdraw/pkg/overlay"
	"github.com/matzehuels/procdraw/pkg/pipeline"
	"github.com/matzehuels/procdraw/pkg/route"
	"github.com/matzehuels/procdraw/pkg/scene"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

type routeRequest struct {
	route.Request
	Name string `json:"name,omitempty"`
}

type routeResponse struct {
	Points route.Path `json:"points"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	name := req.Name
	if name == "" {
		name = middleware.GetReqID(r.Context())
	}
	path, err := s.runner.Route(r.Context(), name, req.Request)
	if err != nil {
		writeError(w, err)
		return
	}
	if path == nil {
		path = route.Path{}
	}
	writeJSON(w, http.StatusOK, routeResponse{Points: path})
}

type overlayRequest struct {
	Overlay  overlay.Overlay  `json:"overlay"`
	Geometry overlay.Geometry `json:"geometry"`
}

type overlayResponse struct {
	Anchor   *geom.Point `json:"anchor"`
	Box      geom.Box    `json:"box"`
	Anchored bool        `json:"anchored"`
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	var req overlayRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o := req.Overlay.WithDefaults()
	if err := errors.ValidateNonNegative("overlay.width", o.Width); err != nil {
		writeError(w, err)
		return
	}
	if err := errors.ValidateNonNegative("overlay.height", o.Height); err != nil {
		writeError(w, err)
		return
	}
	resp := overlayResponse{Box: overlay.Resolve(o, req.Geometry)}
	if p, ok := overlay.Anchor(o, req.Geometry); ok {
		resp.Anchor, resp.Anchored = &p, true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := pipeline.NormalizeFormat(q.Get("format"))
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := errors.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	download := q.Get("download")
	if download != "" {
		if err := errors.ValidateFilename(download); err != nil {
			writeError(w, err)
			return
		}
	}

	doc, err := scene.Load(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := doc.Diagram(q.Get("diagram"))
	if err != nil {
		writeError(w, err)
		return
	}

	opts, err := s.exportOptions(q.Get("scale"), q.Get("border"))
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{format}
	if hide := q.Get("hide"); hide != "" {
		opts.Hide = strings.Split(hide, ",")
	}

	res, err := s.runner.Execute(r.Context(), d, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	data := res.Artifacts[format]
	kind := export.Kind(format)

	w.Header().Set("X-Request-Id", res.RequestID)
	w.Header().Set("X-Cache", cacheStatus(res))
	if download != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(download, kind)+`"`)
	}
	if q.Get("encoding") == "datauri" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(export.DataURI(kind, data)))
		return
	}
	w.Header().Set("Content-Type", kind.MIMEType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// exportOptions starts from the server defaults and applies the optional
// scale and border query parameters.
func (s *Server) exportOptions(scale, border string) (pipeline.Options, error) {
	opts := pipeline.Options{
		Export:    s.cfg.Export,
		Raster:    s.cfg.Raster,
		Engine:    s.cfg.Engine,
		Tolerance: s.cfg.Tolerance,
	}
	if opts.Export == (export.Options{}) {
		opts.Export = export.DefaultOptions()
	}
	if scale != "" {
		v, err := strconv.ParseFloat(scale, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid scale %q", scale)
		}
		opts.Export.Scale = v
	}
	if border != "" {
		v, err := strconv.ParseFloat(border, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid border %q", border)
		}
		opts.Export.Border = v
	}
	return opts, nil
}

func cacheStatus(res *pipeline.Result) string {
	if res.CacheInfo.AllHit {
		return "HIT"
	}
	return "MISS"
}
