package export

import (
	"encoding/base64"
	"path/filepath"
	"strings"
	"unicode"
)

// Kind identifies an exported payload.
type Kind string

const (
	KindSVG  Kind = "svg"
	KindPNG  Kind = "png"
	KindJPEG Kind = "jpeg"
)

// MIMEType returns the media type for k.
func (k Kind) MIMEType() string {
	switch k {
	case KindPNG:
		return "image/png"
	case KindJPEG:
		return "image/jpeg"
	default:
		return "image/svg+xml"
	}
}

// Ext returns the file extension for k, including the dot.
func (k Kind) Ext() string {
	if k == KindJPEG {
		return ".jpg"
	}
	if k == "" {
		return ".svg"
	}
	return "." + string(k)
}

// DataURI embeds payload in a data URI. Vector payloads are percent-encoded
// so they stay readable; raster payloads are base64-encoded.
func DataURI(kind Kind, payload []byte) string {
	if kind == KindSVG || kind == "" {
		return "data:image/svg+xml;charset=utf-8," + encodeURIComponent(payload)
	}
	return "data:" + kind.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(b []byte) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(b) * 3 / 2)
	for _, c := range b {
		if c < 0x80 && (c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			strings.IndexByte("-_.!~*'()", c) >= 0) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

// Filename derives a safe download name for kind from name. Path components
// are stripped, unsafe characters become dashes and the extension is forced
// to match kind. An empty result falls back to "diagram".
func Filename(name string, kind Kind) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var sb strings.Builder
	dash := false
	for _, r := range base {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.') {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(sb.String(), "-.")
	if out == "" {
		out = "diagram"
	}
	return out + kind.Ext()
}
