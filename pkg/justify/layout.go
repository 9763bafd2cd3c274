package justify

// Item is one entry to be packed: a stable identifier and its intrinsic
// aspect ratio (width / height).
type Item struct {
	ID    string  `json:"id"`
	Ratio float64 `json:"ratio"`
}

// Cell is an item with its display dimensions.
type Cell struct {
	Item
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Row is a contiguous run of cells sharing one display height.
type Row struct {
	Cells  []Cell `json:"cells"`
	Height int    `json:"height"`
	Final  bool   `json:"final,omitempty"`
}

// Len returns the number of cells in the row.
func (r Row) Len() int { return len(r.Cells) }

// RatioSum returns the sum of the aspect ratios of the row's items.
func (r Row) RatioSum() float64 {
	var s float64
	for _, c := range r.Cells {
		s += c.Ratio
	}
	return s
}

// Width returns the rendered width of the row: cell widths plus gap between
// neighbouring cells.
func (r Row) Width(gap float64) float64 {
	if len(r.Cells) == 0 {
		return 0
	}
	var w int
	for _, c := range r.Cells {
		w += c.Width
	}
	return float64(w) + gap*float64(len(r.Cells)-1)
}

// Layout is the result of a packing pass.
type Layout struct {
	ContainerWidth float64 `json:"container_width"`
	RowHeight      float64 `json:"row_height"`
	Gap            float64 `json:"gap"`
	Rows           []Row   `json:"rows"`
}

// Len returns the total number of cells across all rows.
func (l Layout) Len() int {
	n := 0
	for _, r := range l.Rows {
		n += len(r.Cells)
	}
	return n
}

// Items flattens the layout back into the packed items, in order.
func (l Layout) Items() []Item {
	items := make([]Item, 0, l.Len())
	for _, r := range l.Rows {
		for _, c := range r.Cells {
			items = append(items, c.Item)
		}
	}
	return items
}

// Height returns the total height of the layout, including the gap between
// consecutive rows.
func (l Layout) Height() float64 {
	if len(l.Rows) == 0 {
		return 0
	}
	var h int
	for _, r := range l.Rows {
		h += r.Height
	}
	return float64(h) + l.Gap*float64(len(l.Rows)-1)
}

// FinalRow returns the final row, if the layout has one.
func (l Layout) FinalRow() (Row, bool) {
	if n := len(l.Rows); n > 0 && l.Rows[n-1].Final {
		return l.Rows[n-1], true
	}
	return Row{}, false
}
