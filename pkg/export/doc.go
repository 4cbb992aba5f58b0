// Package export re-paints a diagram into a standalone SVG document and,
// through a raster engine, into PNG or JPEG.
//
// The caller supplies a [PaintFunc]. Vector sizes an output frame from the
// diagram bounds, hands the paint function a fresh [Surface] that is already
// translated and scaled into that frame, and wraps whatever it draws in an
// SVG root with explicit pixel dimensions.
//
// # Labels
//
// Labels that fit their box are drawn as SVG text. Labels that overflow are
// reduced to plain text and truncated with [Truncate]. Rich (HTML) labels
// are embedded verbatim as foreignObject only when the export allows foreign
// content and the markup is well-formed; [Raster] switches foreign content
// off for engines that cannot draw it. Truncation never fails an export: a
// label that cannot be processed is dropped with a warning.
//
// # Downloads
//
// [DataURI] and [Filename] prepare payloads for browsers and HTTP clients.
package export
