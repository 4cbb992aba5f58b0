// Package pkg provides the core libraries for procdraw process diagram export.
//
// # Overview
//
// Procdraw takes process diagrams whose shapes already carry their geometry,
// routes the connecting edges orthogonally, places overlay badges and exports
// the result as SVG, PNG or JPEG. The pkg directory is organized into three
// areas:
//
//  1. Geometry and layout: [geom], [route], [overlay]
//  2. Output: [export], [raster], [scene]
//  3. Orchestration and infrastructure: [pipeline], [cache], [config],
//     [server], [observability], [errors], [buildinfo]
//
// # Architecture
//
// The typical data flow through procdraw:
//
//	scene document (JSON)
//	         ↓
//	    [scene] package (validate, route edges, place badges)
//	         ↓
//	    [export] package (frame, vector document)
//	         ↓
//	    [raster] package (rsvg or headless Chrome, PNG/JPEG encoding)
//	         ↓
//	    SVG/PNG/JPEG output
//
// [pipeline] ties these steps together with artifact caching; the CLI and
// the HTTP API both call it.
//
// # Quick Start
//
//	doc, _ := scene.LoadFile("order.json")
//	d, _ := doc.Diagram("")
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, d, pipeline.Options{
//	    Formats: []string{"svg", "png"},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("order.svg", res.Artifacts["svg"], 0o644)
//
// Routing one edge without a scene:
//
//	path := route.Route(route.Request{
//	    Source: &geom.Box{X: 0, Y: 0, Width: 100, Height: 60},
//	    Target: &geom.Box{X: 200, Y: 0, Width: 100, Height: 60},
//	})
//
// # Main Packages
//
// [route] computes orthogonal polylines between terminal boxes from fixed
// waypoints and user hints, with floating ends resolved on the terminal.
//
// [overlay] places badges relative to a shape's box or an edge's points and
// keeps a per-cell registry.
//
// [export] turns painted diagrams into standalone SVG documents, data URIs and
// download names.
//
// [raster] converts SVG to bitmaps through rsvg-convert or headless Chrome.
//
// [cache] stores artifacts on disk, in Redis or in MongoDB.
//
// [server] exposes routing, overlay placement and export over HTTP.
package pkg
