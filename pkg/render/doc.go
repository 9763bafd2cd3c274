// Package render turns a packed [justify.Layout] into absolutely positioned
// cells and drives rendering surfaces with them.
//
// # Overview
//
// The packer only decides row membership and display sizes. This package
// adds the spacing the caller is responsible for: gap between neighbouring
// items in a row and between consecutive rows. The result is a [Frame] of
// [Cell] values with x/y offsets, ready to be drawn.
//
//	frame := render.Place(layout)
//	for _, c := range frame.Cells {
//	    fmt.Println(c.ID, c.X, c.Y, c.Width, c.Height)
//	}
//
// # Surfaces
//
// A [Surface] is anything that can place an item at a given rectangle: an SVG
// document, an HTML page, a raster canvas. [Apply] walks the frame in row
// order and feeds each cell to the surface between Begin and End calls.
// The output formats in [sink] are all built on this interface.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg := sink.RenderSVG(layout)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [justify.Layout]: github.com/matzehuels/justified/pkg/justify.Layout
// [sink]: github.com/matzehuels/justified/pkg/render/sink
package render
