package render

import (
	"github.com/matzehuels/justified/pkg/justify"
)

// Cell is one item placed at an absolute position. X and Y are the top-left
// corner, measured from the top-left of the frame.
type Cell struct {
	ID     string  `json:"id"`
	Ratio  float64 `json:"ratio"`
	Row    int     `json:"row"`
	Index  int     `json:"index"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Final  bool    `json:"final,omitempty"`
}

// Right returns the x coordinate of the cell's right edge.
func (c Cell) Right() float64 { return c.X + float64(c.Width) }

// Bottom returns the y coordinate of the cell's bottom edge.
func (c Cell) Bottom() float64 { return c.Y + float64(c.Height) }

// Frame is a placed layout.
type Frame struct {
	// Width is the container width, or the widest row when a lone oversized
	// item runs past the container.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Gap    float64 `json:"gap"`
	Rows   int     `json:"rows"`
	Cells  []Cell  `json:"cells"`
}

// Place assigns absolute positions to every cell of l, inserting l.Gap
// between neighbouring items and between consecutive rows.
func Place(l justify.Layout) Frame {
	f := Frame{
		Width: l.ContainerWidth,
		Gap:   l.Gap,
		Rows:  len(l.Rows),
		Cells: make([]Cell, 0, l.Len()),
	}

	var y float64
	for ri, row := range l.Rows {
		if ri > 0 {
			y += l.Gap
		}
		var x float64
		for ci, c := range row.Cells {
			if ci > 0 {
				x += l.Gap
			}
			f.Cells = append(f.Cells, Cell{
				ID:     c.ID,
				Ratio:  c.Ratio,
				Row:    ri,
				Index:  ci,
				X:      x,
				Y:      y,
				Width:  c.Width,
				Height: c.Height,
				Final:  row.Final,
			})
			x += float64(c.Width)
		}
		f.Width = max(f.Width, x)
		y += float64(row.Height)
	}
	f.Height = y
	return f
}
