package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/procdraw/pkg/cache"
	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/raster"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	opts := cfg.ExportOptions()
	if opts.Scale != 1 || opts.Border != 10 || !opts.Crisp || opts.AllowForeignContent {
		t.Errorf("ExportOptions() = %+v", opts)
	}
	ropts := cfg.RasterOptions()
	if ropts.Format != raster.PNG || ropts.Timeout != 30*time.Second || ropts.Quality != 90 {
		t.Errorf("RasterOptions() = %+v", ropts)
	}
	if cfg.Cache.TTL.Duration != cache.TTLArtifact {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[export]
scale = 2
foreign_content = true

[raster]
engine = "chrome"
format = "jpg"
timeout = "5s"
quality = 75

[route]
tolerance = 2.5

[cache]
backend = "redis"
redis_addr = "cache:6379"

[server]
addr = ":9000"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Export.Scale != 2 || !cfg.Export.ForeignContent {
		t.Errorf("export = %+v", cfg.Export)
	}
	if cfg.Export.Border != 10 || !cfg.Export.Crisp {
		t.Errorf("unset export keys lost defaults: %+v", cfg.Export)
	}
	ropts := cfg.RasterOptions()
	if ropts.Format != raster.JPEG || ropts.Timeout != 5*time.Second || ropts.Quality != 75 {
		t.Errorf("RasterOptions() = %+v", ropts)
	}
	if cfg.Route.Tolerance != 2.5 {
		t.Errorf("tolerance = %v", cfg.Route.Tolerance)
	}
	copts := cfg.CacheOptions()
	if copts.Backend != cache.BackendRedis || copts.Redis.Addr != "cache:6379" {
		t.Errorf("CacheOptions() = %+v", copts)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}

	eng, err := cfg.Engine()
	if err != nil {
		t.Fatalf("Engine: %v", err)
	}
	if eng.Name() != "chrome" || !eng.ForeignContent() {
		t.Errorf("Engine() = %s", eng.Name())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		code errors.Code
	}{
		{"Syntax", "[export\nscale = 1", errors.ErrCodeInvalidFormat},
		{"BadDuration", "[raster]\ntimeout = \"soon\"", errors.ErrCodeInvalidFormat},
		{"UnknownKey", "[export]\nzoom = 2", errors.ErrCodeInvalidInput},
		{"NegativeScale", "[export]\nscale = -1", errors.ErrCodeInvalidInput},
		{"NegativeBorder", "[export]\nborder = -5", errors.ErrCodeInvalidInput},
		{"Engine", "[raster]\nengine = \"inkscape\"", errors.ErrCodeInvalidEngine},
		{"Format", "[raster]\nformat = \"gif\"", errors.ErrCodeInvalidFormat},
		{"Quality", "[raster]\nquality = 101", errors.ErrCodeInvalidInput},
		{"Tolerance", "[route]\ntolerance = 0", errors.ErrCodeInvalidInput},
		{"Backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Parse() code = %q (%v), want %q", got, err, tt.code)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("[raster]\nrsvg_path = \"/opt/bin/rsvg-convert\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q", cfg.Path)
	}
	eng, err := cfg.Engine()
	if err != nil {
		t.Fatal(err)
	}
	if r, ok := eng.(*raster.Rsvg); !ok || r.Path != "/opt/bin/rsvg-convert" {
		t.Errorf("Engine() = %#v", eng)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load(explicit missing) = %v, want NOT_FOUND", err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(default missing) = %v", err)
	}
	if cfg.Path != "" || cfg.Export.Scale != 1 {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadExample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", FileName))
	if err != nil {
		t.Fatalf("Load(example) = %v", err)
	}
	if cfg.Cache.TTL.Duration != 168*time.Hour || cfg.Server.Addr != ":8080" {
		t.Errorf("example config = %+v", cfg)
	}
}
