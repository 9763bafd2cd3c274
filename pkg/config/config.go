// Package config loads justified settings from TOML, YAML or JSON files.
//
// Every field has a default, so an empty file (or none at all) is a valid
// configuration. Values read from a file are layered over [Default]; command
// line flags are layered over the file by the CLI.
//
//	# justified.toml
//	gap = 12
//	max_per_row = 6
//	policy = "before"
//
//	[[breakpoints]]
//	min_width = 0
//	row_height = 150
//	gap = 8
//
//	[[breakpoints]]
//	min_width = 1200
//	row_height = 240
//	gap = 16
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
// When row_height is set, the breakpoint table is ignored and every container
// width packs to that single target height.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/justified/pkg/breakpoint"
	"github.com/matzehuels/justified/pkg/errors"
	"github.com/matzehuels/justified/pkg/justify"
)

// FileName is the base name looked up by [Discover].
const FileName = "justified"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete set of tunables.
type Config struct {
	// Breakpoints maps container widths to row height and gap.
	Breakpoints breakpoint.Table `json:"breakpoints,omitempty" toml:"breakpoints" yaml:"breakpoints,omitempty"`
	// RowHeight, when positive, replaces Breakpoints with a fixed table.
	RowHeight float64 `json:"row_height,omitempty" toml:"row_height" yaml:"row_height,omitempty"`
	// Gap is the spacing used with RowHeight.
	Gap float64 `json:"gap,omitempty" toml:"gap" yaml:"gap,omitempty"`

	MaxPerRow int    `json:"max_per_row,omitempty" toml:"max_per_row" yaml:"max_per_row,omitempty"`
	Policy    string `json:"policy,omitempty" toml:"policy" yaml:"policy,omitempty"`
	// GrowthCap bounds how far a row may stretch from the target height.
	// Zero disables the cap.
	GrowthCap float64 `json:"growth_cap,omitempty" toml:"growth_cap" yaml:"growth_cap,omitempty"`
	// FallbackRatio is used for images whose size cannot be read.
	FallbackRatio float64 `json:"fallback_ratio,omitempty" toml:"fallback_ratio" yaml:"fallback_ratio,omitempty"`

	Cache  CacheConfig  `json:"cache" toml:"cache" yaml:"cache"`
	Server ServerConfig `json:"server" toml:"server" yaml:"server"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend string `json:"backend,omitempty" toml:"backend" yaml:"backend,omitempty"`
	// Dir overrides the file cache location (default: XDG cache dir).
	Dir           string `json:"dir,omitempty" toml:"dir" yaml:"dir,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty" toml:"redis_addr" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" toml:"redis_password" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" toml:"redis_db" yaml:"redis_db,omitempty"`
	RedisPrefix   string `json:"redis_prefix,omitempty" toml:"redis_prefix" yaml:"redis_prefix,omitempty"`
	// Scope namespaces every cache key, so deployments sharing one backend
	// do not see each other's entries.
	Scope string `json:"scope,omitempty" toml:"scope" yaml:"scope,omitempty"`
	// TTL overrides the per-stage expiry when non-zero.
	TTL Duration `json:"ttl,omitempty" toml:"ttl" yaml:"ttl,omitempty"`
}

// ServerConfig configures `justified serve` and the preview UI.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" toml:"addr" yaml:"addr,omitempty"`
	// RequestTimeout bounds a single layout request.
	RequestTimeout Duration `json:"request_timeout,omitempty" toml:"request_timeout" yaml:"request_timeout,omitempty"`
	// MaxItems caps the number of items per request.
	MaxItems int `json:"max_items,omitempty" toml:"max_items" yaml:"max_items,omitempty"`
	// Debounce delays re-layout after a resize.
	Debounce Duration `json:"debounce,omitempty" toml:"debounce" yaml:"debounce,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Breakpoints: slices.Clone(breakpoint.Default),
		Policy:      justify.FlushBefore.String(),
		// Size of an 800x600 frame.
		FallbackRatio: 800.0 / 600.0,
		Cache: CacheConfig{
			Backend:     BackendFile,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "justified:",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: Duration(30 * time.Second),
			MaxItems:       10000,
			Debounce:       Duration(150 * time.Millisecond),
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the file at path over [Default] and validates the result.
// An empty path returns the defaults. The decoder is picked by extension:
// .toml, .yaml/.yml or .json.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := Decode(data, Format(path), &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Format returns the decoder name for a config file path.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "toml"
	}
}

// Decode unmarshals data in the given format into cfg. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func Decode(data []byte, format string, cfg *Config) error {
	// A file that sets breakpoints replaces the default table rather than
	// merging into it index by index.
	prev := cfg.Breakpoints
	cfg.Breakpoints = nil

	var err error
	switch format {
	case "toml":
		var md toml.MetaData
		md, err = toml.Decode(string(data), cfg)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown key %q", undecoded[0].String())
			}
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(cfg); err == io.EOF {
			err = nil
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config format %q", format)
	}
	if err != nil {
		cfg.Breakpoints = prev
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", format)
	}
	if cfg.Breakpoints == nil {
		cfg.Breakpoints = prev
	}
	return nil
}

// Discover returns the first config file found in dir, then in the user
// config directory ($XDG_CONFIG_HOME/justified or ~/.config/justified).
// It returns "" when none exists.
func Discover(dir string) string {
	var dirs []string
	if dir != "" {
		dirs = append(dirs, dir)
	}
	if d, err := userConfigDir(); err == nil {
		dirs = append(dirs, d)
	}
	for _, d := range dirs {
		for _, ext := range []string{".toml", ".yaml", ".yml", ".json"} {
			path := filepath.Join(d, FileName+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

func userConfigDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", FileName), nil
}

// =============================================================================
// Validation and derived values
// =============================================================================

// Validate checks every field. All failures are INVALID_CONFIG.
func (c Config) Validate() error {
	if _, err := c.Table(); err != nil {
		return err
	}
	if _, err := justify.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if c.MaxPerRow < 0 {
		return invalid("max_per_row must not be negative, got %d", c.MaxPerRow)
	}
	if c.GrowthCap != 0 && !(c.GrowthCap >= 1) {
		return invalid("growth_cap must be 0 (off) or at least 1, got %v", c.GrowthCap)
	}
	if err := errors.ValidatePositive("fallback_ratio", c.FallbackRatio); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone, "":
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return invalid("cache.redis_addr is required for the redis backend")
		}
	default:
		return invalid("unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 || c.Cache.RedisDB < 0 {
		return invalid("cache.ttl and cache.redis_db must not be negative")
	}

	if c.Server.MaxItems < 0 || c.Server.RequestTimeout < 0 || c.Server.Debounce < 0 {
		return invalid("server limits must not be negative")
	}
	return nil
}

// Table returns the effective breakpoint table: a fixed table when RowHeight
// is set, otherwise Breakpoints sorted by min width.
func (c Config) Table() (breakpoint.Table, error) {
	if c.RowHeight != 0 {
		if err := errors.ValidatePositive("row_height", c.RowHeight); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
		}
		if err := errors.ValidateNonNegative("gap", c.Gap); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
		}
		return breakpoint.Fixed(c.RowHeight, c.Gap), nil
	}
	return breakpoint.New(c.Breakpoints...)
}

// PackOptions converts the packing fields to [justify.Option] values.
// Call Validate first; an unparsable policy falls back to flush-before.
func (c Config) PackOptions() []justify.Option {
	policy, _ := justify.ParsePolicy(c.Policy)
	opts := []justify.Option{justify.WithPolicy(policy)}
	if c.MaxPerRow > 0 {
		opts = append(opts, justify.WithMaxPerRow(c.MaxPerRow))
	}
	if c.GrowthCap > 0 {
		opts = append(opts, justify.WithGrowthCap(c.GrowthCap))
	}
	return opts
}

// Encode writes the config in the given format.
func (c Config) Encode(format string) ([]byte, error) {
	switch format {
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "yaml":
		return yaml.Marshal(c)
	case "json":
		return json.MarshalIndent(c, "", "  ")
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config format %q", format)
	}
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}

// =============================================================================
// Duration
// =============================================================================

// Duration is a time.Duration written as a Go duration string ("150ms",
// "168h") in every config format.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
