package gallery

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/matzehuels/justified/pkg/errors"
	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/render"
)

// DocumentVersion is the current layout document format version.
const DocumentVersion = 1

// Document is the serialized form of a layout pass.
type Document struct {
	Version int    `json:"version"`
	Title   string `json:"title,omitempty"`

	// Packing parameters
	ContainerWidth float64 `json:"container_width"`
	RowHeight      float64 `json:"row_height"`
	Gap            float64 `json:"gap"`
	MaxPerRow      int     `json:"max_per_row,omitempty"`
	Policy         string  `json:"policy,omitempty"`
	GrowthCap      float64 `json:"growth_cap,omitempty"`

	// Frame dimensions, including gaps
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Rows  []DocumentRow `json:"rows"`
	Cells []render.Cell `json:"cells"`

	// Fallback lists items laid out with the fallback ratio because their
	// intrinsic size could not be determined.
	Fallback []string          `json:"fallback,omitempty"`
	Sources  map[string]string `json:"sources,omitempty"`
}

// DocumentRow summarizes one row of a document.
type DocumentRow struct {
	Y      float64 `json:"y"`
	Height int     `json:"height"`
	Count  int     `json:"count"`
	Final  bool    `json:"final,omitempty"`
}

// DocumentOption configures [NewDocument].
type DocumentOption func(*Document)

// WithDocumentTitle sets the document title.
func WithDocumentTitle(title string) DocumentOption {
	return func(d *Document) { d.Title = title }
}

// WithPacking records the packing options used to build the layout.
func WithPacking(maxPerRow int, policy justify.Policy, growthCap float64) DocumentOption {
	return func(d *Document) {
		d.MaxPerRow = maxPerRow
		d.Policy = policy.String()
		d.GrowthCap = growthCap
	}
}

// WithFallback records which items used the fallback ratio.
func WithFallback(ids []string) DocumentOption {
	return func(d *Document) { d.Fallback = ids }
}

// WithSources records image locations by item ID.
func WithSources(sources map[string]string) DocumentOption {
	return func(d *Document) { d.Sources = sources }
}

// NewDocument places l and wraps it for serialization.
func NewDocument(l justify.Layout, opts ...DocumentOption) Document {
	f := render.Place(l)
	d := Document{
		Version:        DocumentVersion,
		ContainerWidth: l.ContainerWidth,
		RowHeight:      l.RowHeight,
		Gap:            l.Gap,
		Width:          f.Width,
		Height:         f.Height,
		Rows:           make([]DocumentRow, len(l.Rows)),
		Cells:          f.Cells,
	}
	var y float64
	for i, r := range l.Rows {
		d.Rows[i] = DocumentRow{Y: y, Height: r.Height, Count: r.Len(), Final: r.Final}
		y += float64(r.Height) + l.Gap
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Layout rebuilds the packed layout from the document's cells.
func (d Document) Layout() justify.Layout {
	l := justify.Layout{
		ContainerWidth: d.ContainerWidth,
		RowHeight:      d.RowHeight,
		Gap:            d.Gap,
		Rows:           make([]justify.Row, len(d.Rows)),
	}
	for i, r := range d.Rows {
		l.Rows[i] = justify.Row{Height: r.Height, Final: r.Final, Cells: make([]justify.Cell, 0, r.Count)}
	}
	cells := slices.Clone(d.Cells)
	slices.SortStableFunc(cells, func(a, b render.Cell) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Index, b.Index))
	})
	for _, c := range cells {
		if c.Row < 0 || c.Row >= len(l.Rows) {
			continue
		}
		l.Rows[c.Row].Cells = append(l.Rows[c.Row].Cells, justify.Cell{
			Item:   justify.Item{ID: c.ID, Ratio: c.Ratio},
			Width:  c.Width,
			Height: c.Height,
		})
	}
	return l
}

// Validate checks the structural consistency of a decoded document.
func (d Document) Validate() error {
	if d.Version != DocumentVersion {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported layout version %d (want %d)", d.Version, DocumentVersion)
	}
	if err := errors.ValidatePositive("container width", d.ContainerWidth); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "layout document")
	}
	counts := make([]int, len(d.Rows))
	for _, c := range d.Cells {
		if c.Row < 0 || c.Row >= len(d.Rows) {
			return errors.New(errors.ErrCodeInvalidFormat, "cell %q references row %d of %d", c.ID, c.Row, len(d.Rows))
		}
		if c.Width < 0 || c.Height < 0 {
			return errors.New(errors.ErrCodeInvalidFormat, "cell %q has negative size", c.ID)
		}
		counts[c.Row]++
	}
	for i, r := range d.Rows {
		if counts[i] != r.Count {
			return errors.New(errors.ErrCodeInvalidFormat, "row %d lists %d cells, found %d", i, r.Count, counts[i])
		}
	}
	return nil
}

// =============================================================================
// Layout Document Serialization API
// =============================================================================

// MarshalLayout serializes a document to pretty-printed JSON bytes.
func MarshalLayout(d Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalLayout deserializes and validates a document.
func UnmarshalLayout(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if err := d.Validate(); err != nil {
		return Document{}, err
	}
	return d, nil
}

// WriteLayoutFile writes a document to a JSON file.
func WriteLayoutFile(d Document, path string) error {
	data, err := MarshalLayout(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadLayoutFile reads a document from a JSON file.
func ReadLayoutFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read layout %s", path)
		}
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
