package pipeline

import (
	"github.com/matzehuels/justified/pkg/justify"
)

// =============================================================================
// Layout Generation
// =============================================================================

// ComputeLayout packs items for the container width in opts. The row height
// and gap come from the breakpoint table (or the fixed RowHeight); the
// returned layout records the values used.
//
// ComputeLayout does not apply defaults; call opts.ValidateForLayout first.
func ComputeLayout(items []justify.Item, opts Options) (justify.Layout, error) {
	table, err := opts.Table()
	if err != nil {
		return justify.Layout{}, err
	}
	return justify.PackResponsive(items, opts.Width, table, opts.PackOptions()...)
}
