package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/render"
)

const cellInteractionCSS = `
    .cell { transition: opacity 0.2s ease; }
    .cell:hover { opacity: 0.85; }
    .cell-label { font-family: sans-serif; fill: #ffffff; pointer-events: none; }`

// SourceFunc maps an item ID to the path or URL of its image. An empty
// result renders a placeholder for that item.
type SourceFunc func(id string) string

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	source     SourceFunc
	labels     bool
	background string
}

// WithSource embeds images: each cell becomes an <image> cropped to cover its
// box. Without a source every cell is drawn as a colored placeholder.
func WithSource(fn SourceFunc) SVGOption { return func(r *svgRenderer) { r.source = fn } }

// WithLabels draws each item's ID on top of its cell.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithBackground fills the frame with a CSS color before drawing cells.
func WithBackground(color string) SVGOption {
	return func(r *svgRenderer) { r.background = color }
}

// RenderSVG renders the layout as a standalone SVG document.
func RenderSVG(l justify.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	s := &svgSurface{r: r}
	// svgSurface never fails
	_ = render.Apply(l, s)
	return s.buf.Bytes()
}

type svgSurface struct {
	r   svgRenderer
	buf bytes.Buffer
}

func (s *svgSurface) Begin(width, height float64) error {
	fmt.Fprintf(&s.buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&s.buf, "  <style>%s\n  </style>\n", cellInteractionCSS)
	if s.r.background != "" {
		fmt.Fprintf(&s.buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escape(s.r.background))
	}
	return nil
}

func (s *svgSurface) Place(c render.Cell) error {
	id := escape(c.ID)
	fmt.Fprintf(&s.buf, `  <g class="cell" id="cell-%s" data-row="%d">`+"\n", id, c.Row)

	var href string
	if s.r.source != nil {
		href = s.r.source(c.ID)
	}
	if href != "" {
		// slice is SVG's object-fit: cover
		fmt.Fprintf(&s.buf, `    <image href="%s" x="%.1f" y="%.1f" width="%d" height="%d" preserveAspectRatio="xMidYMid slice"/>`+"\n",
			escape(href), c.X, c.Y, c.Width, c.Height)
	} else {
		fmt.Fprintf(&s.buf, `    <rect x="%.1f" y="%.1f" width="%d" height="%d" fill="%s"/>`+"\n",
			c.X, c.Y, c.Width, c.Height, hexColor(placeholderColor(c.ID)))
	}

	if s.r.labels {
		size := fontSizeFor(float64(c.Width), float64(c.Height), len(c.ID))
		label := truncateLabel(c.ID, float64(c.Width), size)
		fmt.Fprintf(&s.buf, `    <text class="cell-label" x="%.1f" y="%.1f" font-size="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			c.X+float64(c.Width)/2, c.Y+float64(c.Height)/2, size, escape(label))
	}
	s.buf.WriteString("  </g>\n")
	return nil
}

func (s *svgSurface) End() error {
	s.buf.WriteString("</svg>\n")
	return nil
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
