package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Formats accepted by the exporter.
var validFormats = map[string]bool{"svg": true, "png": true, "jpeg": true, "jpg": true}

// Raster engines that can be selected by name.
var validEngines = map[string]bool{"rsvg": true, "chrome": true}

// ValidateFormat checks that format names a supported output format.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !validFormats[strings.ToLower(format)] {
		return New(ErrCodeInvalidFormat, "unsupported format: %q (want svg, png or jpeg)", format)
	}
	return nil
}

// ValidateEngine checks that name selects a known raster engine.
func ValidateEngine(name string) error {
	if !validEngines[strings.ToLower(name)] {
		return New(ErrCodeInvalidEngine, "unknown raster engine: %q (want rsvg or chrome)", name)
	}
	return nil
}

// ValidatePositive rejects zero, negative and non-finite values.
func ValidatePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return New(ErrCodeInvalidInput, "%s must be a positive number, got %v", field, v)
	}
	return nil
}

// ValidateNonNegative rejects negative and non-finite values.
func ValidateNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return New(ErrCodeInvalidInput, "%s must not be negative, got %v", field, v)
	}
	return nil
}

// filenameRegex matches download names: a basename of safe characters.
var filenameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]*$`)

// ValidateFilename validates a download filename.
// It must be a plain basename without path components or control characters.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidPath, "filename too long (max 255 characters)")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}
	if !filenameRegex.MatchString(name) {
		return New(ErrCodeInvalidPath, "invalid filename: %q", name)
	}
	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	return nil
}
