package imagemeta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/justified/pkg/cache"
	"github.com/matzehuels/justified/pkg/errors"
)

// Prober resolves image sizes with caching.
type Prober struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Concurrency bounds parallel probes in ProbeAll (default: GOMAXPROCS*2).
	Concurrency int
	// Fallback is the ratio substituted for unreadable files
	// (default: DefaultFallbackRatio).
	Fallback float64
}

// NewProber creates a prober. A nil cache disables caching; a nil keyer uses
// the default keyer; a nil logger discards log output.
func NewProber(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Prober {
	if c == nil {
		c = cache.NewNullCache("no cache configured")
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Prober{Cache: c, Keyer: keyer, Logger: logger}
}

// Result is the outcome of probing one file.
type Result struct {
	Path string
	Size Size
	// Ratio is Size.Ratio(), or the fallback ratio when Fallback is set.
	Ratio    float64
	Fallback bool
	Cached   bool
	// Err explains why the fallback was used.
	Err error
}

// Probe reads the header of the image at path.
func (p *Prober) Probe(ctx context.Context, path string) (Size, bool, error) {
	if err := ctx.Err(); err != nil {
		return Size{}, false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Size{}, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "probe %s", path)
		}
		return Size{}, false, errors.Wrap(errors.ErrCodeMissingRatio, err, "probe %s", path)
	}
	if info.IsDir() {
		return Size{}, false, errors.New(errors.ErrCodeInvalidPath, "probe %s: is a directory", path)
	}

	key := p.Keyer.ProbeKey(path, cache.ProbeKeyOpts{Size: info.Size(), ModTime: info.ModTime()})
	if data, hit, err := p.Cache.Get(ctx, key); err == nil && hit {
		var s Size
		if json.Unmarshal(data, &s) == nil && s.Valid() {
			return s, true, nil
		}
	} else if err != nil {
		p.Logger.Debug("probe cache unavailable", "path", path, "err", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return Size{}, false, errors.Wrap(errors.ErrCodeMissingRatio, err, "probe %s", path)
	}
	defer f.Close()

	s, err := DecodeConfig(f)
	if err != nil {
		return Size{}, false, fmt.Errorf("probe %s: %w", path, err)
	}

	if data, err := json.Marshal(s); err == nil {
		if err := p.Cache.Set(ctx, key, data, cache.TTLProbe); err != nil {
			p.Logger.Debug("probe cache write failed", "path", path, "err", err)
		}
	}
	return s, false, nil
}

// ProbeAll probes paths concurrently and returns one result per path, in
// input order. Per-file failures are reported in Result.Err with the
// fallback ratio substituted; the returned error is non-nil only when ctx is
// cancelled.
func (p *Prober) ProbeAll(ctx context.Context, paths []string) ([]Result, error) {
	start := time.Now()
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for i, path := range paths {
		g.Go(func() error {
			s, cached, err := p.Probe(gctx, path)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = p.result(path, s, cached, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var hits, fallbacks int
	for _, r := range results {
		if r.Cached {
			hits++
		}
		if r.Fallback {
			fallbacks++
			p.Logger.Warn("using fallback ratio", "path", r.Path, "ratio", r.Ratio, "reason", errors.UserMessage(r.Err))
		}
	}
	p.Logger.Debug("probed images", "count", len(paths), "cached", hits, "fallback", fallbacks, "duration", time.Since(start))
	return results, nil
}

func (p *Prober) result(path string, s Size, cached bool, err error) Result {
	if err == nil {
		return Result{Path: path, Size: s, Ratio: s.Ratio(), Cached: cached}
	}
	if !errors.Is(err, errors.ErrCodeMissingRatio) {
		err = errors.Wrap(errors.ErrCodeMissingRatio, err, "size of %s unknown", path)
	}
	return Result{Path: path, Ratio: p.fallback(), Fallback: true, Err: err}
}

func (p *Prober) concurrency() int {
	if p.Concurrency > 0 {
		return p.Concurrency
	}
	return runtime.GOMAXPROCS(0) * 2
}

func (p *Prober) fallback() float64 {
	if p.Fallback > 0 {
		return p.Fallback
	}
	return DefaultFallbackRatio
}
