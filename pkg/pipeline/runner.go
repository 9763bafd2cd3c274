package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/justified/pkg/cache"
	"github.com/matzehuels/justified/pkg/gallery"
	"github.com/matzehuels/justified/pkg/imagemeta"
	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the preview UI and the HTTP endpoint all use it to avoid
// duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache("no cache configured")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Resolution is the outcome of the resolve stage.
type Resolution struct {
	Items     []justify.Item
	Fallback  []string // IDs laid out with the fallback ratio, in manifest order
	Probed    int      // Number of image headers read
	CacheHits int      // Probes served from cache
}

// Execute runs the complete resolve → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, m gallery.Manifest, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Resolve
	resolveStart := time.Now()
	res, err := r.ResolveWithCacheInfo(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Items = res.Items
	result.Fallback = res.Fallback
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Stats.ItemCount = len(res.Items)
	result.Stats.ProbedCount = res.Probed
	result.CacheInfo.ProbeHits = res.CacheHits

	r.Logger.Info("resolved items",
		"items", len(res.Items),
		"probed", res.Probed,
		"fallback", len(res.Fallback),
		"duration", result.Stats.ResolveTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	layout, layoutHit, err := r.LayoutWithCacheInfo(ctx, res.Items, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.RowCount = len(layout.Rows)
	result.CacheInfo.LayoutHit = layoutHit
	result.LayoutHash, _ = cache.HashJSON(layout)

	r.Logger.Info("computed layout",
		"rows", len(layout.Rows),
		"row_height", layout.RowHeight,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	opts.Fallback = res.Fallback
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, layout, m, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ResolveWithCacheInfo determines every item's aspect ratio. Explicit ratios
// and sizes from the manifest are used as-is; entries with a file path are
// probed; anything else gets the fallback ratio. Per-item failures never fail
// the stage.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, m gallery.Manifest, opts Options) (res Resolution, err error) {
	r.applyLogger(&opts)
	opts.SetLayoutDefaults()
	if err := m.Validate(); err != nil {
		return Resolution{}, err
	}

	start := time.Now()
	observability.Pipeline().OnResolveStart(ctx, len(m.Items))
	defer func() {
		observability.Pipeline().OnResolveComplete(ctx, len(m.Items), len(res.Fallback), time.Since(start), err)
	}()

	items := make([]justify.Item, len(m.Items))
	missing := make([]bool, len(m.Items))
	var paths []string
	var slots []int
	for i, e := range m.Items {
		items[i].ID = e.ID
		if ratio, ok := e.AspectRatio(); ok {
			items[i].Ratio = ratio
			continue
		}
		if p := m.Resolve(e); p != "" {
			paths = append(paths, p)
			slots = append(slots, i)
			continue
		}
		items[i].Ratio = opts.FallbackRatio
		missing[i] = true
		opts.Logger.Warn("using fallback ratio", "id", e.ID, "reason", "no size and no path")
	}

	if len(paths) > 0 {
		prober := imagemeta.NewProber(r.Cache, r.Keyer, opts.Logger)
		prober.Fallback = opts.FallbackRatio
		results, err := prober.ProbeAll(ctx, paths)
		if err != nil {
			return Resolution{}, err
		}
		for j, pr := range results {
			i := slots[j]
			items[i].Ratio = pr.Ratio
			missing[i] = pr.Fallback
			if pr.Cached {
				res.CacheHits++
				observability.Cache().OnCacheHit(ctx, "probe")
			} else {
				observability.Cache().OnCacheMiss(ctx, "probe")
			}
		}
		res.Probed = len(paths)
	}

	for i, miss := range missing {
		if miss {
			res.Fallback = append(res.Fallback, items[i].ID)
		}
	}
	res.Items = items
	return res, nil
}

// Resolve is a convenience wrapper that calls ResolveWithCacheInfo and
// returns only the items and fallback IDs.
func (r *Runner) Resolve(ctx context.Context, m gallery.Manifest, opts Options) ([]justify.Item, []string, error) {
	res, err := r.ResolveWithCacheInfo(ctx, m, opts)
	return res.Items, res.Fallback, err
}

// LayoutWithCacheInfo packs items with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, items []justify.Item, opts Options) (l justify.Layout, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return justify.Layout{}, false, err
	}

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, opts.Width, len(items))
	defer func() {
		observability.Pipeline().OnLayoutComplete(ctx, opts.Width, len(l.Rows), time.Since(start), err)
	}()

	// Compute cache key
	itemsHash, err := cache.HashJSON(items)
	if err != nil {
		return justify.Layout{}, false, err
	}
	cacheKey := r.Keyer.LayoutKey(itemsHash, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached justify.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	// Generate layout
	layout, err := ComputeLayout(items, opts)
	if err != nil {
		return justify.Layout{}, false, err
	}

	// Cache the result
	if data, err := json.Marshal(layout); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, opts.ttl(cache.TTLLayout)); err != nil {
			opts.Logger.Debug("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return layout, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, items []justify.Item, opts Options) (justify.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, items, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l justify.Layout, m gallery.Manifest, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	// Compute cache key from everything the output depends on
	renderHash, err := cache.HashJSON(struct {
		Layout   justify.Layout
		Sources  map[string]string
		Fallback []string
	}{l, sources(m), opts.Fallback})
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}

	// Try to get all formats from cache
	if !opts.Refresh {
		artifacts = make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(renderHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	// Render all formats
	rendered, err := Render(ctx, l, m, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(renderHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, opts.ttl(cache.TTLArtifact)); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l justify.Layout, m gallery.Manifest, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, m, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
