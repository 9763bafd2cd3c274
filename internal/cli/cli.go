// Package cli implements the justified command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/justified/pkg/buildinfo"
	"github.com/matzehuels/justified/pkg/cache"
	"github.com/matzehuels/justified/pkg/config"
	"github.com/matzehuels/justified/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "justified"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is the loaded configuration. Commands layer their flags on top.
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Justified packs image galleries into rows of equal height",
		Long: `Justified packs an ordered list of images into rows that fill the container
width exactly while keeping every image's aspect ratio, like the photo grids of
Flickr or Google Photos. Row height and gap follow a breakpoint table keyed by
container width.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./justified.{toml,yaml,json} or ~/.config/justified/)")

	// Register all subcommands
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.breakpointsCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the --config file, or the first discovered one. Without
// either, the defaults stay in place.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		path = config.Discover(".")
	}
	if path == "" {
		return nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", path, "backend", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, c.keyer(), c.Logger), nil
}

// keyer returns the cache keyer, scoped when the config names a scope.
func (c *CLI) keyer() cache.Keyer {
	if scope := c.Config.Cache.Scope; scope != "" {
		return cache.NewScopedKeyer(nil, scope+":")
	}
	return nil
}

// newCache opens the configured backend. An unusable file cache degrades to
// no caching; an unreachable Redis is an error because it was asked for
// explicitly.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return c.cacheDisabled("--no-cache"), nil
	}
	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return c.cacheDisabled("backend " + config.BackendNone), nil
	case config.BackendRedis:
		var rc *cache.RedisCache
		err := cache.RetryWithBackoff(ctx, func() error {
			var err error
			rc, err = cache.NewRedisCache(ctx, cache.RedisOptions{
				Addr:     c.Config.Cache.RedisAddr,
				Password: c.Config.Cache.RedisPassword,
				DB:       c.Config.Cache.RedisDB,
				Prefix:   c.Config.Cache.RedisPrefix,
			})
			if err != nil {
				c.Logger.Debug("redis not ready", "addr", c.Config.Cache.RedisAddr, "err", err)
				return cache.Retryable(err)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return rc, nil
	}

	dir, err := c.cacheDir()
	if err != nil {
		return c.cacheDisabled(err.Error()), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return c.cacheDisabled(err.Error()), nil
	}
	return fc, nil
}

func (c *CLI) cacheDisabled(reason string) *cache.NullCache {
	c.Logger.Debug("cache disabled", "reason", reason)
	return cache.NewNullCache(reason)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/justified/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags holds the packing flags shared by layout, render, breakpoints
// and preview. Only flags set on the command line override the config.
type layoutFlags struct {
	width     float64
	rowHeight float64
	gap       float64
	maxPerRow int
	policy    string
	growthCap float64
	fallback  float64
}

func (f *layoutFlags) register(cmd *cobra.Command, widthDefault float64) {
	fs := cmd.Flags()
	fs.Float64VarP(&f.width, "width", "w", widthDefault, "container width in pixels")
	fs.Float64Var(&f.rowHeight, "row-height", 0, "fixed target row height, ignoring breakpoints")
	fs.Float64Var(&f.gap, "gap", 0, "gap between items and rows (with --row-height)")
	fs.IntVar(&f.maxPerRow, "max-per-row", 0, "maximum items per row (0: unlimited)")
	fs.StringVar(&f.policy, "policy", "", "overflow policy: before (default), after")
	fs.Float64Var(&f.growthCap, "growth-cap", 0, "maximum row height as a multiple of the target (0: off)")
	fs.Float64Var(&f.fallback, "fallback-ratio", 0, "aspect ratio for items of unknown size")
	_ = cmd.RegisterFlagCompletionFunc("policy", completePolicies)
}

// options layers the changed flags over the loaded configuration.
func (c *CLI) options(cmd *cobra.Command, f layoutFlags) pipeline.Options {
	opts := pipeline.FromConfig(c.Config)
	opts.Width = f.width
	opts.Logger = c.Logger

	fs := cmd.Flags()
	if fs.Changed("row-height") {
		opts.RowHeight = f.rowHeight
	}
	if fs.Changed("gap") {
		opts.Gap = f.gap
	}
	if fs.Changed("max-per-row") {
		opts.MaxPerRow = f.maxPerRow
	}
	if fs.Changed("policy") {
		opts.Policy = f.policy
	}
	if fs.Changed("growth-cap") {
		opts.GrowthCap = f.growthCap
	}
	if fs.Changed("fallback-ratio") {
		opts.FallbackRatio = f.fallback
	}
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	formats := parts[:0]
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			formats = append(formats, p)
		}
	}
	return formats
}
