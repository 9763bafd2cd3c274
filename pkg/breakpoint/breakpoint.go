// Package breakpoint maps a container width to a target row height and gap.
//
// A [Table] is an ordered set of width thresholds. Each [Breakpoint] applies
// when the container is at least MinWidth wide; the highest matching
// threshold wins:
//
//	rowHeight, gap := breakpoint.Default.Resolve(1024) // 200, 12
//
// Tables are configuration, not constants. Use [New] to build a validated
// table from user input, or [Fixed] for a single target height that ignores
// the container width entirely.
package breakpoint

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/justified/pkg/errors"
)

// Breakpoint is one row of a [Table].
type Breakpoint struct {
	MinWidth  float64 `json:"min_width" toml:"min_width" yaml:"min_width"`
	RowHeight float64 `json:"row_height" toml:"row_height" yaml:"row_height"`
	Gap       float64 `json:"gap" toml:"gap" yaml:"gap"`
}

// String formats the breakpoint for logs and CLI output.
func (b Breakpoint) String() string {
	return fmt.Sprintf(">=%g: row %g, gap %g", b.MinWidth, b.RowHeight, b.Gap)
}

// Table is an ordered list of breakpoints, ascending by MinWidth.
type Table []Breakpoint

// Default mirrors the mobile / tablet / desktop buckets of the gallery view.
var Default = Table{
	{MinWidth: 0, RowHeight: 150, Gap: 8},
	{MinWidth: 768, RowHeight: 200, Gap: 12},
	{MinWidth: 1200, RowHeight: 240, Gap: 16},
}

// New validates entries and returns them as a table sorted by MinWidth.
// The input slice is not modified.
func New(entries ...Breakpoint) (Table, error) {
	t := slices.Clone(Table(entries))
	slices.SortStableFunc(t, func(a, b Breakpoint) int {
		return cmp.Compare(a.MinWidth, b.MinWidth)
	})
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Fixed returns a single-bucket table: every width resolves to rowHeight and gap.
func Fixed(rowHeight, gap float64) Table {
	return Table{{MinWidth: 0, RowHeight: rowHeight, Gap: gap}}
}

// Validate reports whether the table can be resolved against.
func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "breakpoint table is empty")
	}
	seen := make(map[float64]bool, len(t))
	for i, b := range t {
		if !finite(b.MinWidth) || b.MinWidth < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "breakpoint %d: min_width must be a non-negative number, got %v", i, b.MinWidth)
		}
		if !finite(b.RowHeight) || b.RowHeight <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "breakpoint %d: row_height must be positive, got %v", i, b.RowHeight)
		}
		if !finite(b.Gap) || b.Gap < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "breakpoint %d: gap must not be negative, got %v", i, b.Gap)
		}
		if seen[b.MinWidth] {
			return errors.New(errors.ErrCodeInvalidConfig, "breakpoint %d: duplicate min_width %v", i, b.MinWidth)
		}
		seen[b.MinWidth] = true
	}
	return nil
}

// Lookup returns the breakpoint that applies to width: the entry with the
// highest MinWidth not above width. Widths below every threshold fall back to
// the lowest entry. Lookup does not require t to be sorted.
//
// Lookup panics on an empty table.
func (t Table) Lookup(width float64) Breakpoint {
	best := -1
	lowest := 0
	for i, b := range t {
		if b.MinWidth < t[lowest].MinWidth {
			lowest = i
		}
		if b.MinWidth <= width && (best < 0 || b.MinWidth > t[best].MinWidth) {
			best = i
		}
	}
	if best < 0 {
		return t[lowest]
	}
	return t[best]
}

// Resolve returns the target row height and inter-item gap for width.
func (t Table) Resolve(width float64) (rowHeight, gap float64) {
	b := t.Lookup(width)
	return b.RowHeight, b.Gap
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
