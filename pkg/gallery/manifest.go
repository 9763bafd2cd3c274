package gallery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/matzehuels/justified/pkg/errors"
	"github.com/matzehuels/justified/pkg/justify"
)

// Entry is one gallery item.
type Entry struct {
	ID     string  `json:"id"`
	Path   string  `json:"path,omitempty"`
	URL    string  `json:"url,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Ratio  float64 `json:"ratio,omitempty"`
}

// AspectRatio returns the entry's intrinsic aspect ratio. An explicit Ratio
// wins over Width/Height. ok is false when neither is known.
func (e Entry) AspectRatio() (ratio float64, ok bool) {
	if e.Ratio > 0 && !math.IsInf(e.Ratio, 0) {
		return e.Ratio, true
	}
	if e.Width > 0 && e.Height > 0 {
		return float64(e.Width) / float64(e.Height), true
	}
	return 0, false
}

// Manifest is an ordered gallery.
type Manifest struct {
	Title string `json:"title,omitempty"`
	// Root is the directory entry paths are relative to. Empty means the
	// directory containing the manifest file (or the working directory).
	Root  string  `json:"root,omitempty"`
	Items []Entry `json:"items"`
}

// Validate checks IDs and explicit sizes. Items without a known ratio are
// valid: they are probed or given the fallback ratio later.
func (m Manifest) Validate() error {
	seen := make(map[string]int, len(m.Items))
	for i, e := range m.Items {
		if err := errors.ValidateID(e.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "item %d", i)
		}
		if j, dup := seen[e.ID]; dup {
			return errors.New(errors.ErrCodeInvalidManifest, "item %d: duplicate id %q (first used by item %d)", i, e.ID, j)
		}
		seen[e.ID] = i
		if e.Width < 0 || e.Height < 0 {
			return errors.New(errors.ErrCodeInvalidManifest, "item %q: negative size %dx%d", e.ID, e.Width, e.Height)
		}
		if e.Ratio < 0 || math.IsNaN(e.Ratio) || math.IsInf(e.Ratio, 0) {
			return errors.New(errors.ErrCodeInvalidManifest, "item %q: invalid ratio %v", e.ID, e.Ratio)
		}
	}
	return nil
}

// Resolve returns the filesystem path of an entry's image, joined with Root
// unless it is absolute. It returns "" for entries without a path.
func (m Manifest) Resolve(e Entry) string {
	if e.Path == "" {
		return ""
	}
	if filepath.IsAbs(e.Path) || m.Root == "" {
		return e.Path
	}
	return filepath.Join(m.Root, e.Path)
}

// Source returns a lookup from item ID to image location: the entry's URL
// when set, otherwise its resolved path.
func (m Manifest) Source() func(id string) string {
	byID := make(map[string]string, len(m.Items))
	for _, e := range m.Items {
		if e.URL != "" {
			byID[e.ID] = e.URL
		} else {
			byID[e.ID] = m.Resolve(e)
		}
	}
	return func(id string) string { return byID[id] }
}

// Paths returns the resolved file path of every entry that has one, keyed by ID.
func (m Manifest) Paths() map[string]string {
	paths := make(map[string]string, len(m.Items))
	for _, e := range m.Items {
		if p := m.Resolve(e); p != "" {
			paths[e.ID] = p
		}
	}
	return paths
}

// PackItems converts the manifest to packer input. Entries whose ratio is not
// known get fallback and are reported in missing.
func (m Manifest) PackItems(fallback float64) (items []justify.Item, missing []string) {
	items = make([]justify.Item, len(m.Items))
	for i, e := range m.Items {
		r, ok := e.AspectRatio()
		if !ok {
			r = fallback
			missing = append(missing, e.ID)
		}
		items[i] = justify.Item{ID: e.ID, Ratio: r}
	}
	return items, missing
}

// =============================================================================
// Manifest Serialization API
// =============================================================================

// MarshalManifest converts a manifest to indented JSON bytes.
func MarshalManifest(m Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteManifest(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteManifest writes m as JSON to w.
func WriteManifest(m Manifest, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteManifestFile writes m to a JSON file.
// The file is created with 0644 permissions.
func WriteManifestFile(m Manifest, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteManifest(m, f)
}

// ReadManifest decodes and validates a JSON manifest.
func ReadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return Manifest{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest")
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// ReadManifestFile reads a manifest from disk. A relative Root, or an empty
// one, is interpreted relative to the manifest's directory.
func ReadManifestFile(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open manifest %s", path)
		}
		return Manifest{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := ReadManifest(f)
	if err != nil {
		return Manifest{}, err
	}
	if !filepath.IsAbs(m.Root) {
		m.Root = filepath.Join(filepath.Dir(path), m.Root)
	}
	return m, nil
}
