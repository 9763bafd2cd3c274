package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/justified/pkg/breakpoint"
	"github.com/matzehuels/justified/pkg/errors"
	"github.com/matzehuels/justified/pkg/justify"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
	table, err := cfg.Table()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(table, breakpoint.Default) {
		t.Errorf("Table() = %v, want default table", table)
	}

	cfg.Breakpoints[0].RowHeight = 1
	if breakpoint.Default[0].RowHeight == 1 {
		t.Error("Default() must not share the package-level table")
	}
}

func TestLoadFormats(t *testing.T) {
	want := breakpoint.Table{
		{MinWidth: 0, RowHeight: 120, Gap: 4},
		{MinWidth: 900, RowHeight: 220, Gap: 10},
	}

	tests := []struct {
		name    string
		content string
	}{
		{"justified.toml", `
max_per_row = 5
policy = "after"
growth_cap = 1.5

[[breakpoints]]
min_width = 900
row_height = 220
gap = 10

[[breakpoints]]
min_width = 0
row_height = 120
gap = 4

[cache]
backend = "redis"
ttl = "1h"

[server]
debounce = "250ms"
`},
		{"justified.yaml", `
max_per_row: 5
policy: after
growth_cap: 1.5
breakpoints:
  - {min_width: 900, row_height: 220, gap: 10}
  - {min_width: 0, row_height: 120, gap: 4}
cache:
  backend: redis
  ttl: 1h
server:
  debounce: 250ms
`},
		{"justified.json", `{
  "max_per_row": 5,
  "policy": "after",
  "growth_cap": 1.5,
  "breakpoints": [
    {"min_width": 900, "row_height": 220, "gap": 10},
    {"min_width": 0, "row_height": 120, "gap": 4}
  ],
  "cache": {"backend": "redis", "ttl": "1h"},
  "server": {"debounce": "250ms"}
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.name, tt.content))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			table, err := cfg.Table()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(table, want) {
				t.Errorf("Table() = %v, want %v", table, want)
			}
			if cfg.MaxPerRow != 5 || cfg.Policy != "after" || cfg.GrowthCap != 1.5 {
				t.Errorf("packing = %d/%s/%v", cfg.MaxPerRow, cfg.Policy, cfg.GrowthCap)
			}
			if cfg.Cache.Backend != BackendRedis || cfg.Cache.TTL.Std() != time.Hour {
				t.Errorf("cache = %+v", cfg.Cache)
			}
			// Unset keys keep their defaults.
			if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Server.Addr != ":8080" {
				t.Errorf("defaults lost: %+v / %+v", cfg.Cache, cfg.Server)
			}
			if cfg.Server.Debounce.Std() != 250*time.Millisecond {
				t.Errorf("debounce = %v", cfg.Server.Debounce.Std())
			}
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	for _, name := range []string{"c.toml", "c.yaml"} {
		cfg, err := Load(writeFile(t, name, ""))
		if err != nil {
			t.Fatalf("%s: Load() error: %v", name, err)
		}
		if !reflect.DeepEqual(cfg, Default()) {
			t.Errorf("%s: got %+v, want defaults", name, cfg)
		}
	}
	cfg, err := Load("")
	if err != nil || !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load(\"\") = %+v, %v", cfg, err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    errors.Code
	}{
		{"unknown toml key", "c.toml", "rowheight = 200", errors.ErrCodeInvalidConfig},
		{"unknown yaml key", "c.yaml", "rowheight: 200", errors.ErrCodeInvalidConfig},
		{"unknown json key", "c.json", `{"rowheight": 200}`, errors.ErrCodeInvalidConfig},
		{"malformed", "c.toml", "gap = ", errors.ErrCodeInvalidConfig},
		{"bad duration", "c.toml", "[server]\ndebounce = \"soon\"", errors.ErrCodeInvalidConfig},
		{"bad policy", "c.toml", `policy = "sideways"`, errors.ErrCodeInvalidConfig},
		{"duplicate breakpoint", "c.yaml", "breakpoints: [{min_width: 0, row_height: 100}, {min_width: 0, row_height: 200}]", errors.ErrCodeInvalidConfig},
		{"empty table", "c.json", `{"breakpoints": []}`, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: got %v, want FILE_NOT_FOUND", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative max per row", func(c *Config) { c.MaxPerRow = -1 }},
		{"growth cap below one", func(c *Config) { c.GrowthCap = 0.5 }},
		{"zero fallback", func(c *Config) { c.FallbackRatio = 0 }},
		{"negative row height", func(c *Config) { c.RowHeight = -10 }},
		{"negative fixed gap", func(c *Config) { c.RowHeight = 100; c.Gap = -1 }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = BackendRedis; c.Cache.RedisAddr = "" }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = Duration(-time.Second) }},
		{"negative max items", func(c *Config) { c.Server.MaxItems = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestFixedRowHeight(t *testing.T) {
	cfg := Default()
	cfg.RowHeight = 180
	cfg.Gap = 6
	table, err := cfg.Table()
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []float64{0, 500, 5000} {
		if h, g := table.Resolve(w); h != 180 || g != 6 {
			t.Errorf("Resolve(%v) = %v, %v, want 180, 6", w, h, g)
		}
	}
}

func TestPackOptions(t *testing.T) {
	cfg := Default()
	cfg.MaxPerRow = 1
	cfg.Policy = "after"

	items := []justify.Item{{ID: "a", Ratio: 1}, {ID: "b", Ratio: 1}}
	l, err := justify.Pack(items, 1000, 100, 0, cfg.PackOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	if l.Len() != 2 {
		t.Errorf("got %d rows, want 2 with max_per_row=1", l.Len())
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.MaxPerRow = 7
	cfg.Cache.TTL = Duration(90 * time.Minute)

	for _, format := range []string{"toml", "yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			data, err := cfg.Encode(format)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			got := Default()
			if err := Decode(data, format, &got); err != nil {
				t.Fatalf("Decode() error: %v\n%s", err, data)
			}
			if !reflect.DeepEqual(got, cfg) {
				t.Errorf("round trip = %+v, want %+v", got, cfg)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	for path, want := range map[string]string{
		"a.toml": "toml", "a.YML": "yaml", "a.yaml": "yaml", "a.json": "json", "noext": "toml",
	} {
		if got := Format(path); got != want {
			t.Errorf("Format(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestDiscover(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	if got := Discover(dir); got != "" {
		t.Errorf("Discover() = %q, want none", got)
	}
	yamlPath := filepath.Join(dir, "justified.yaml")
	if err := os.WriteFile(yamlPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Discover(dir); got != yamlPath {
		t.Errorf("Discover() = %q, want %q", got, yamlPath)
	}
	tomlPath := filepath.Join(dir, "justified.toml")
	if err := os.WriteFile(tomlPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Discover(dir); got != tomlPath {
		t.Errorf("Discover() = %q, want toml first", got)
	}
}
