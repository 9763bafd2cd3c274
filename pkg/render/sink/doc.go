// Package sink provides output format renderers for justified layouts.
//
// # Overview
//
// A "sink" transforms a packed [justify.Layout] into a final output format.
// Every sink is a [render.Surface] driven by [render.Apply], so all formats
// share the same placement: gap between items and between rows, cells in row
// order. This package provides renderers for:
//
//   - SVG: standalone vector document, images or colored placeholders
//   - HTML: static page of flex rows, images cropped with object-fit: cover
//   - JSON: layout document for external tools and re-rendering
//   - PNG: raster contact sheet drawn in-process
//   - PDF: print-ready output (requires rsvg-convert)
//
// # SVG Output
//
//	svg := sink.RenderSVG(layout,
//	    sink.WithSource(manifest.Source()),
//	    sink.WithLabels(),
//	)
//
// Images are embedded by reference and cropped to cover their cell
// (preserveAspectRatio="xMidYMid slice"). Items without a source are drawn
// as rectangles in a color derived from their ID.
//
// # PNG Output
//
// [RenderPNG] draws the contact sheet with gg. With [WithImages], each image
// is decoded, cover-cropped and Lanczos-resampled to its cell:
//
//	png, err := sink.RenderPNG(layout,
//	    sink.WithImages(sink.OpenFile(manifest.Source())),
//	    sink.WithScale(2),
//	)
//
// # PDF Output
//
// [RenderPDF] renders SVG first, then converts via [render.ToPDF]. This
// requires librsvg to be installed:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// [justify.Layout]: github.com/matzehuels/justified/pkg/justify.Layout
// [render.Surface]: github.com/matzehuels/justified/pkg/render.Surface
// [render.Apply]: github.com/matzehuels/justified/pkg/render.Apply
// [render.ToPDF]: github.com/matzehuels/justified/pkg/render.ToPDF
package sink
