package gallery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/justified/pkg/errors"
)

// imageExtensions lists the file types a scan picks up.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsImage reports whether name has an image file extension (case-insensitive).
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ScanOption configures [ScanDir].
type ScanOption func(*scanConfig)

type scanConfig struct {
	recursive bool
	hidden    bool
	title     string
}

// WithRecursive descends into subdirectories.
func WithRecursive() ScanOption { return func(c *scanConfig) { c.recursive = true } }

// WithHidden includes dot-files and dot-directories.
func WithHidden() ScanOption { return func(c *scanConfig) { c.hidden = true } }

// WithScanTitle sets the manifest title (default: the directory name).
func WithScanTitle(title string) ScanOption { return func(c *scanConfig) { c.title = title } }

// ScanDir builds a manifest from the images in dir, ordered by relative path.
// Entry paths are relative to dir, which becomes the manifest root. IDs are
// base names, made unique with a " (n)" suffix when names repeat across
// subdirectories. Sizes are left empty for the prober to fill.
func ScanDir(dir string, opts ...ScanOption) (Manifest, error) {
	cfg := scanConfig{title: filepath.Base(filepath.Clean(dir))}
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "scan %s", dir)
		}
		return Manifest{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return Manifest{}, errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		hidden := strings.HasPrefix(d.Name(), ".")
		if d.IsDir() {
			if !cfg.recursive || (hidden && !cfg.hidden) {
				return filepath.SkipDir
			}
			return nil
		}
		if (hidden && !cfg.hidden) || !d.Type().IsRegular() || !IsImage(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return Manifest{}, fmt.Errorf("scan %s: %w", dir, err)
	}
	slices.Sort(paths)

	m := Manifest{Title: cfg.title, Root: dir, Items: make([]Entry, 0, len(paths))}
	taken := make(map[string]bool, len(paths))
	for _, p := range paths {
		id := UniqueID(filepath.Base(p), taken)
		taken[id] = true
		m.Items = append(m.Items, Entry{ID: id, Path: filepath.FromSlash(p)})
	}
	return m, nil
}

// UniqueID returns name, or name with a " (n)" suffix before its extension,
// choosing the smallest n that is not in taken: "a.jpg", "a (1).jpg", ...
func UniqueID(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}
