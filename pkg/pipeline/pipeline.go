// Package pipeline provides the probe → layout → render pipeline for justified.
//
// This package implements the complete pipeline used by the CLI commands, the
// preview UI and the HTTP endpoint. By centralizing this logic, every entry
// point packs the same manifest into the same rows.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Resolve: Determine every item's aspect ratio, probing image headers for
//     entries without an explicit size
//  2. Layout: Pack the items into justified rows for the container width
//  3. Render: Generate output in various formats (SVG, HTML, PNG, PDF, JSON)
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage's output is cached under a key derived from its inputs.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Width:   1024,
//	    Formats: []string{"html"},
//	}
//	result, err := runner.Execute(ctx, manifest, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	html := result.Artifacts["html"]
//
// Run individual stages:
//
//	// Resolve only
//	items, fallback, err := runner.Resolve(ctx, manifest, opts)
//
//	// Layout with known ratios
//	layout, err := runner.Layout(ctx, items, opts)
//
//	// Render an existing layout
//	artifacts, err := runner.Render(ctx, layout, manifest, opts)
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/justified/pkg/breakpoint"
	"github.com/matzehuels/justified/pkg/cache"
	"github.com/matzehuels/justified/pkg/config"
	"github.com/matzehuels/justified/pkg/errors"
	"github.com/matzehuels/justified/pkg/imagemeta"
	"github.com/matzehuels/justified/pkg/justify"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, Preview and Server
// =============================================================================

const (
	// DefaultWidth is the default container width in pixels.
	DefaultWidth = 1200.0

	// DefaultScale is the default PNG pixel density.
	DefaultScale = 1.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatHTML = "html"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatHTML: true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Width       float64          `json:"width,omitempty"`
	Breakpoints breakpoint.Table `json:"breakpoints,omitempty"`
	RowHeight   float64          `json:"row_height,omitempty"` // Fixed target height, overrides Breakpoints
	Gap         float64          `json:"gap,omitempty"`        // Gap used with RowHeight
	MaxPerRow   int              `json:"max_per_row,omitempty"`
	Policy      string           `json:"policy,omitempty"`
	GrowthCap   float64          `json:"growth_cap,omitempty"`

	// Resolve options
	FallbackRatio float64 `json:"fallback_ratio,omitempty"`
	Refresh       bool    `json:"refresh,omitempty"` // Bypass cached layouts and artifacts

	// Render options
	Formats []string `json:"formats,omitempty"`
	Title   string   `json:"title,omitempty"`
	Labels  bool     `json:"labels,omitempty"`
	Images  bool     `json:"images,omitempty"` // Reference (SVG/HTML) or draw (PNG) the actual images
	Scale   float64  `json:"scale,omitempty"`
	Strict  bool     `json:"strict,omitempty"` // Fail PNG rendering on unreadable images

	// Runtime options (not serialized)
	Logger   *log.Logger   `json:"-"`
	TTL      time.Duration `json:"-"` // Overrides per-stage cache TTLs when non-zero
	Fallback []string      `json:"-"` // Item IDs recorded as fallback in JSON output

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// FromConfig builds pipeline options from a loaded configuration.
func FromConfig(cfg config.Config) Options {
	return Options{
		Breakpoints:   slices.Clone(cfg.Breakpoints),
		RowHeight:     cfg.RowHeight,
		Gap:           cfg.Gap,
		MaxPerRow:     cfg.MaxPerRow,
		Policy:        cfg.Policy,
		GrowthCap:     cfg.GrowthCap,
		FallbackRatio: cfg.FallbackRatio,
		TTL:           cfg.Cache.TTL.Std(),
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Items is the packer input, in manifest order.
	Items []justify.Item

	// Fallback lists the IDs of items laid out with the fallback ratio.
	Fallback []string

	// Layout is the packed layout.
	Layout justify.Layout

	// LayoutHash is the content hash of the layout.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ItemCount   int
	RowCount    int
	ProbedCount int
	ResolveTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ProbeHits int  // Number of image headers served from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, html, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if len(o.Breakpoints) == 0 && o.RowHeight == 0 {
		o.Breakpoints = slices.Clone(breakpoint.Default)
	}
	if o.Policy == "" {
		o.Policy = justify.FlushBefore.String()
	}
	if o.FallbackRatio == 0 {
		o.FallbackRatio = imagemeta.DefaultFallbackRatio
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := errors.ValidatePositive("container width", o.Width); err != nil {
		return err
	}
	if err := errors.ValidatePositive("fallback ratio", o.FallbackRatio); err != nil {
		return err
	}
	if _, err := o.Table(); err != nil {
		return err
	}
	if _, err := o.policy(); err != nil {
		return err
	}
	if o.MaxPerRow < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max per row must not be negative, got %d", o.MaxPerRow)
	}
	if o.GrowthCap != 0 && !(o.GrowthCap >= 1) {
		return errors.New(errors.ErrCodeInvalidInput, "growth cap must be 0 (off) or at least 1, got %v", o.GrowthCap)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := errors.ValidatePositive("scale", o.Scale); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// Table returns the breakpoint table in effect: a fixed table when RowHeight
// is set, otherwise Breakpoints.
func (o *Options) Table() (breakpoint.Table, error) {
	if o.RowHeight != 0 {
		if err := errors.ValidatePositive("row height", o.RowHeight); err != nil {
			return nil, err
		}
		if err := errors.ValidateNonNegative("gap", o.Gap); err != nil {
			return nil, err
		}
		return breakpoint.Fixed(o.RowHeight, o.Gap), nil
	}
	return breakpoint.New(o.Breakpoints...)
}

// PackOptions converts the packing fields to [justify.Option] values.
func (o *Options) PackOptions() []justify.Option {
	policy, _ := o.policy()
	opts := []justify.Option{justify.WithPolicy(policy)}
	if o.MaxPerRow > 0 {
		opts = append(opts, justify.WithMaxPerRow(o.MaxPerRow))
	}
	if o.GrowthCap > 0 {
		opts = append(opts, justify.WithGrowthCap(o.GrowthCap))
	}
	return opts
}

func (o *Options) policy() (justify.Policy, error) {
	return justify.ParsePolicy(o.Policy)
}

// LayoutKeyOpts returns cache key options for layout computation. The row
// height and gap resolved for Width stand in for the breakpoint table.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	opts := cache.LayoutKeyOpts{
		Width:     o.Width,
		MaxPerRow: o.MaxPerRow,
		Policy:    o.Policy,
		GrowthCap: o.GrowthCap,
	}
	if table, err := o.Table(); err == nil {
		opts.RowHeight, opts.Gap = table.Resolve(o.Width)
	}
	return opts
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Title:  o.Title,
		Labels: o.Labels,
		Images: o.Images,
		Scale:  o.Scale,
	}
}

func (o *Options) ttl(stage time.Duration) time.Duration {
	if o.TTL > 0 {
		return o.TTL
	}
	return stage
}
