package render

import (
	"fmt"

	"github.com/matzehuels/justified/pkg/justify"
)

// Surface receives placed cells. Implementations translate each cell into
// their own drawing primitive (an <image>, a flex child, a raster blit).
type Surface interface {
	// Begin is called once with the frame dimensions before any cell.
	Begin(width, height float64) error
	// Place draws a single cell.
	Place(c Cell) error
	// End is called once after the last cell.
	End() error
}

// Apply places l and feeds the result to s. The first error returned by the
// surface stops the walk.
func Apply(l justify.Layout, s Surface) error {
	return ApplyFrame(Place(l), s)
}

// ApplyFrame feeds an already placed frame to s.
func ApplyFrame(f Frame, s Surface) error {
	if err := s.Begin(f.Width, f.Height); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, c := range f.Cells {
		if err := s.Place(c); err != nil {
			return fmt.Errorf("place %s: %w", c.ID, err)
		}
	}
	if err := s.End(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	return nil
}
