// Package config loads procdraw.toml.
//
// Every key is optional; missing keys keep the values from [Default].
// Command-line flags are applied on top by the CLI.
//
//	[export]
//	scale = 2
//	border = 10
//	crisp = true
//	foreign_content = false
//
//	[raster]
//	engine = "rsvg"        # or "chrome"
//	format = "png"
//	timeout = "30s"
//	quality = 90
//
//	[route]
//	tolerance = 1
//
//	[cache]
//	backend = "file"       # file, redis, mongo, none
//	ttl = "168h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/procdraw/pkg/cache"
	"github.com/matzehuels/procdraw/pkg/errors"
	"github.com/matzehuels/procdraw/pkg/export"
	"github.com/matzehuels/procdraw/pkg/raster"
	"github.com/matzehuels/procdraw/pkg/route"
)

// FileName is the config file looked up in the user config directory.
const FileName = "procdraw.toml"

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Export struct {
	Scale          float64 `toml:"scale"`
	Border         float64 `toml:"border"`
	Crisp          bool    `toml:"crisp"`
	ForeignContent bool    `toml:"foreign_content"`
	Background     string  `toml:"background"`
}

type Raster struct {
	Engine     string   `toml:"engine"`
	Format     string   `toml:"format"`
	Timeout    Duration `toml:"timeout"`
	Quality    int      `toml:"quality"`
	Background string   `toml:"background"`
	RsvgPath   string   `toml:"rsvg_path"`
	ChromePath string   `toml:"chrome_path"`
}

type Route struct {
	Tolerance float64 `toml:"tolerance"`
}

type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
}

type Server struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

// Config is the parsed configuration file.
type Config struct {
	Export Export `toml:"export"`
	Raster Raster `toml:"raster"`
	Route  Route  `toml:"route"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Export: Export{
			Scale:  export.DefaultScale,
			Border: export.DefaultBorder,
			Crisp:  true,
		},
		Raster: Raster{
			Engine:  "rsvg",
			Format:  string(raster.PNG),
			Timeout: Duration{raster.DefaultTimeout},
			Quality: raster.DefaultJPEGQuality,
		},
		Route: Route{Tolerance: route.DefaultTolerance},
		Cache: Cache{
			Backend:   cache.BackendFile,
			TTL:       Duration{cache.TTLArtifact},
			RedisAddr: "localhost:6379",
			MongoURI:  "mongodb://localhost:27017",
		},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  Duration{30 * time.Second},
			MaxBodyBytes: 10 << 20,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/procdraw/procdraw.toml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "procdraw", FileName), nil
}

// Load reads path over the defaults. An empty path means DefaultPath, which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
// Unknown keys are rejected so typos do not pass silently.
func Parse(text string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if err := c.ExportOptions().Validate(); err != nil {
		return err
	}
	if err := errors.ValidateEngine(c.Raster.Engine); err != nil {
		return err
	}
	if _, err := raster.ParseFormat(c.Raster.Format); err != nil {
		return err
	}
	if c.Raster.Quality < 1 || c.Raster.Quality > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "raster.quality must be 1-100, got %d", c.Raster.Quality)
	}
	if err := errors.ValidatePositive("route.tolerance", c.Route.Tolerance); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendMongo, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// ExportOptions converts the [export] section.
func (c *Config) ExportOptions() export.Options {
	return export.Options{
		Scale:               c.Export.Scale,
		Border:              c.Export.Border,
		Crisp:               c.Export.Crisp,
		AllowForeignContent: c.Export.ForeignContent,
		Background:          c.Export.Background,
	}
}

// RasterOptions converts the [raster] section. Format errors are caught by
// Validate, so an invalid format yields PNG here.
func (c *Config) RasterOptions() raster.Options {
	f, err := raster.ParseFormat(c.Raster.Format)
	if err != nil {
		f = raster.PNG
	}
	return raster.Options{
		Format:     f,
		Timeout:    c.Raster.Timeout.Duration,
		Quality:    c.Raster.Quality,
		Background: c.Raster.Background,
	}
}

// Engine builds the configured raster engine.
func (c *Config) Engine() (raster.Engine, error) {
	eng, err := raster.NewEngine(c.Raster.Engine)
	if err != nil {
		return nil, err
	}
	switch e := eng.(type) {
	case *raster.Rsvg:
		if c.Raster.RsvgPath != "" {
			e.Path = c.Raster.RsvgPath
		}
	case *raster.Chrome:
		e.ExecPath = c.Raster.ChromePath
	}
	return eng, nil
}

// CacheOptions converts the [cache] section.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   "procdraw:",
		},
		Mongo: cache.MongoConfig{
			URI:      c.Cache.MongoURI,
			Database: c.Cache.MongoDatabase,
		},
	}
}
