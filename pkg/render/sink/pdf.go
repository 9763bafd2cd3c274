package sink

import (
	"context"

	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/render"
)

// PDFOption configures PDF rendering.
type PDFOption func(*pdfRenderer)

type pdfRenderer struct {
	ctx     context.Context
	svgOpts []SVGOption
}

// WithPDFSVGOptions passes options through to the underlying SVG renderer.
func WithPDFSVGOptions(opts ...SVGOption) PDFOption {
	return func(r *pdfRenderer) { r.svgOpts = opts }
}

// WithPDFContext bounds the external converter by ctx.
func WithPDFContext(ctx context.Context) PDFOption {
	return func(r *pdfRenderer) { r.ctx = ctx }
}

// RenderPDF renders the layout as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(l justify.Layout, opts ...PDFOption) ([]byte, error) {
	r := pdfRenderer{ctx: context.Background()}
	for _, opt := range opts {
		opt(&r)
	}
	svg := RenderSVG(l, r.svgOpts...)
	return render.ToPDFContext(r.ctx, svg)
}
