package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"PNG", false},
		{"jpeg", false},
		{"jpg", false},
		{"", true},
		{"pdf", true},
		{"gif", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidFormat) {
				t.Errorf("ValidateFormat(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateEngine(t *testing.T) {
	for _, name := range []string{"rsvg", "chrome", "Chrome"} {
		if err := ValidateEngine(name); err != nil {
			t.Errorf("ValidateEngine(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "inkscape"} {
		if err := ValidateEngine(name); !Is(err, ErrCodeInvalidEngine) {
			t.Errorf("ValidateEngine(%q) = %v, want INVALID_ENGINE", name, err)
		}
	}
}

func TestValidateNumbers(t *testing.T) {
	if err := ValidatePositive("scale", 1.5); err != nil {
		t.Errorf("ValidatePositive(1.5) = %v", err)
	}
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := ValidatePositive("scale", v); !Is(err, ErrCodeInvalidInput) {
			t.Errorf("ValidatePositive(%v) = %v, want INVALID_INPUT", v, err)
		}
	}
	if err := ValidateNonNegative("border", 0); err != nil {
		t.Errorf("ValidateNonNegative(0) = %v", err)
	}
	if err := ValidateNonNegative("border", -0.1); err == nil {
		t.Error("ValidateNonNegative(-0.1) = nil")
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "diagram.svg", false},
		{"spaces", "order process.png", false},
		{"dashes", "flow_v1-2.jpeg", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"slash", "a/b.svg", true},
		{"backslash", "a\\b.svg", true},
		{"hidden", ".svg", true},
		{"quote", "a\"b.svg", true},
		{"newline", "a\nb.svg", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "out/diagram.svg", false},
		{"valid filename only", "scene.json", false},
		{"valid with dots", "v1.2.3/flow.png", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidFormat,
		ErrCodeInvalidEngine,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeTimeout,
		ErrCodeRaster,
		ErrCodePaint,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
