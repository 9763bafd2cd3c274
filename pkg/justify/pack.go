package justify

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/justified/pkg/breakpoint"
	"github.com/matzehuels/justified/pkg/errors"
)

// Pack partitions items into justified rows for a container of the given
// width. rowHeight is the target height every row is scaled around and gap is
// the space between neighbouring items (and between rows when rendered).
//
// The returned layout preserves item order: concatenating the rows yields
// items exactly. Every interior row scaled to fill spans width to the nearest
// pixel; each of its cells stays within one pixel of height*ratio plus a
// share of the height rounding error, which matters only for panoramas. The
// final row, if any, is rendered at rowHeight and may be narrower.
func Pack(items []Item, width, rowHeight, gap float64, opts ...Option) (Layout, error) {
	o := newOptions(opts)
	if err := validate(items, width, rowHeight, gap, o); err != nil {
		return Layout{}, err
	}

	l := Layout{ContainerWidth: width, RowHeight: rowHeight, Gap: gap}
	if len(items) == 0 {
		return l, nil
	}

	p := packer{width: width, rowHeight: rowHeight, gap: gap, opts: o}
	rows, err := p.run(items)
	if err != nil {
		return Layout{}, err
	}
	l.Rows = rows
	return l, nil
}

// PackResponsive resolves the target row height and gap for width from table,
// then calls [Pack].
func PackResponsive(items []Item, width float64, table breakpoint.Table, opts ...Option) (Layout, error) {
	if err := errors.ValidatePositive("container width", width); err != nil {
		return Layout{}, err
	}
	if err := table.Validate(); err != nil {
		return Layout{}, err
	}
	rowHeight, gap := table.Resolve(width)
	return Pack(items, width, rowHeight, gap, opts...)
}

func validate(items []Item, width, rowHeight, gap float64, o options) error {
	if err := errors.ValidatePositive("container width", width); err != nil {
		return err
	}
	if err := errors.ValidatePositive("row height", rowHeight); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("gap", gap); err != nil {
		return err
	}
	if width > MaxDimension || rowHeight > MaxDimension || gap > MaxDimension {
		return errors.New(errors.ErrCodeInvalidInput, "width, row height and gap must not exceed %d, got %v, %v, %v", MaxDimension, width, rowHeight, gap)
	}
	if err := o.validate(); err != nil {
		return err
	}
	for i, it := range items {
		if err := errors.ValidatePositive(itemLabel(i, it), it.Ratio); err != nil {
			return err
		}
		// The item must be at least half a pixel wide at the target height
		// and must not outgrow the integer range.
		if w := rowHeight * it.Ratio; w < 0.5 || w > MaxDimension {
			return errors.New(errors.ErrCodeInvalidInput, "%s %v is out of range: %vpx wide at row height %v", itemLabel(i, it), it.Ratio, w, rowHeight)
		}
	}
	return nil
}

func itemLabel(i int, it Item) string {
	if it.ID == "" {
		return fmt.Sprintf("item %d ratio", i)
	}
	return fmt.Sprintf("item %d (%s) ratio", i, it.ID)
}

type packer struct {
	width, rowHeight, gap float64
	opts                  options
}

func (p packer) run(items []Item) ([]Row, error) {
	var (
		rows  []Row
		start int
		sum   float64
	)
	for i, it := range items {
		n := i - start
		switch p.opts.policy {
		case FlushAfter:
			sum += it.Ratio
			if p.overflows(sum, n+1) || p.opts.full(n+1) {
				row, err := p.close(items[start:i+1], sum, false)
				if err != nil {
					return nil, err
				}
				rows = append(rows, row)
				start, sum = i+1, 0
			}
		default:
			if n > 0 && (p.overflows(sum+it.Ratio, n+1) || p.opts.full(n)) {
				row, err := p.close(items[start:i], sum, false)
				if err != nil {
					return nil, err
				}
				rows = append(rows, row)
				start, sum = i, 0
			}
			sum += it.Ratio
		}
	}
	if start < len(items) {
		row, err := p.close(items[start:], sum, true)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// overflows reports whether a row of k items with ratio sum s would reach the
// container width at the target row height.
func (p packer) overflows(s float64, k int) bool {
	return s*p.rowHeight+p.gap*float64(k-1) >= p.width
}

// close builds a row from items. Interior rows are scaled to fill the
// container; the final row keeps the target height. A row scaled to fill
// that would be less than half a pixel tall is rejected.
func (p packer) close(items []Item, sum float64, final bool) (Row, error) {
	k := len(items)
	span := p.width - p.gap*float64(k-1)
	fill := span / sum

	h, justified := p.rowHeight, false
	switch {
	case final:
		if p.opts.growthCap > 0 && fill > 0 && fill < h {
			h = fill
		}
	case p.opts.growthCap > 0:
		h = clamp(fill, p.rowHeight/p.opts.growthCap, p.rowHeight*p.opts.growthCap)
		justified = h == fill
	default:
		h, justified = fill, true
	}
	if justified && fill < 0.5 {
		return Row{}, errors.New(errors.ErrCodeInvalidInput, "row starting at %q is too wide for the container: fill height %v", items[0].ID, fill)
	}

	height := max(1, int(math.Round(h)))
	row := Row{Cells: make([]Cell, k), Height: height, Final: final}
	for i, it := range items {
		row.Cells[i] = Cell{Item: it, Width: int(math.Round(float64(height) * it.Ratio)), Height: height}
	}
	if justified {
		distribute(row.Cells, span)
	}
	return row, nil
}

// distribute adjusts cell widths so their sum lands on span. Cells first
// move between the floor and ceiling of height*ratio, furthest from the
// rounding boundary first. Whatever is left, which comes from rounding the
// row height and is at most half the row's ratio sum, is then spread one unit
// at a time over the widest cells. Ties keep row order.
func distribute(cells []Cell, span float64) {
	total := 0
	for _, c := range cells {
		total += c.Width
	}
	residual := int(math.Round(span)) - total
	if residual == 0 {
		return
	}

	step := 1
	if residual < 0 {
		step, residual = -1, -residual
	}

	type candidate struct {
		index int
		slack float64
	}
	var cands []candidate
	for i, c := range cells {
		exact := float64(c.Height) * c.Ratio
		// slack is how far the cell was rounded against step's direction.
		slack := (exact - float64(c.Width)) * float64(step)
		if slack > 0 {
			cands = append(cands, candidate{i, slack})
		}
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(b.slack, a.slack)
	})
	for _, c := range cands[:min(residual, len(cands))] {
		cells[c.index].Width += step
	}
	residual -= min(residual, len(cands))

	order := make([]int, len(cells))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(cells[b].Ratio, cells[a].Ratio)
	})
	for residual > 0 {
		moved := false
		for _, i := range order {
			if residual == 0 {
				break
			}
			if cells[i].Width+step < 1 {
				continue
			}
			cells[i].Width += step
			residual--
			moved = true
		}
		if !moved {
			return
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
