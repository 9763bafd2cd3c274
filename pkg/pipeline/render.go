package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/justified/pkg/gallery"
	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/render/sink"
)

// Render generates output artifacts in the requested formats.
//
// Image locations come from the manifest: SVG and HTML reference them when
// opts.Images is set, and PNG draws the files themselves. JSON always records
// them.
func Render(ctx context.Context, l justify.Layout, m gallery.Manifest, opts Options) (map[string][]byte, error) {
	svgOpts := buildSVGOptions(m, opts)
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(l, svgOpts...)
		case FormatHTML:
			data, err = sink.RenderHTML(l, buildHTMLOptions(m, opts)...)
		case FormatPNG:
			data, err = sink.RenderPNG(l, buildPNGOptions(m, opts)...)
		case FormatPDF:
			data, err = sink.RenderPDF(l, sink.WithPDFContext(ctx), sink.WithPDFSVGOptions(svgOpts...))
		case FormatJSON:
			data, err = sink.RenderJSON(l, buildJSONOptions(m, opts)...)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// buildSVGOptions constructs SVG rendering options.
func buildSVGOptions(m gallery.Manifest, opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.Labels {
		svgOpts = append(svgOpts, sink.WithLabels())
	}
	if opts.Images {
		svgOpts = append(svgOpts, sink.WithSource(m.Source()))
	}
	return svgOpts
}

func buildHTMLOptions(m gallery.Manifest, opts Options) []sink.HTMLOption {
	var htmlOpts []sink.HTMLOption
	if t := title(m, opts); t != "" {
		htmlOpts = append(htmlOpts, sink.WithTitle(t))
	}
	if opts.Images {
		htmlOpts = append(htmlOpts, sink.WithHTMLSource(m.Source()))
	}
	return htmlOpts
}

func buildPNGOptions(m gallery.Manifest, opts Options) []sink.PNGOption {
	pngOpts := []sink.PNGOption{sink.WithScale(opts.Scale)}
	if opts.Labels {
		pngOpts = append(pngOpts, sink.WithPNGLabels())
	}
	if opts.Images {
		paths := m.Paths()
		pngOpts = append(pngOpts, sink.WithImages(sink.OpenFile(func(id string) string { return paths[id] })))
	}
	if opts.Strict {
		pngOpts = append(pngOpts, sink.WithStrict())
	}
	return pngOpts
}

func buildJSONOptions(m gallery.Manifest, opts Options) []sink.JSONOption {
	policy, _ := opts.policy()
	jsonOpts := []sink.JSONOption{
		gallery.WithPacking(opts.MaxPerRow, policy, opts.GrowthCap),
		gallery.WithFallback(opts.Fallback),
	}
	if t := title(m, opts); t != "" {
		jsonOpts = append(jsonOpts, gallery.WithDocumentTitle(t))
	}
	if src := sources(m); len(src) > 0 {
		jsonOpts = append(jsonOpts, gallery.WithSources(src))
	}
	return jsonOpts
}

// title prefers the explicit title over the manifest's.
func title(m gallery.Manifest, opts Options) string {
	if opts.Title != "" {
		return opts.Title
	}
	return m.Title
}

// sources maps item IDs to image locations, omitting items without one.
func sources(m gallery.Manifest) map[string]string {
	src := m.Source()
	out := make(map[string]string, len(m.Items))
	for _, e := range m.Items {
		if s := src(e.ID); s != "" {
			out[e.ID] = s
		}
	}
	return out
}
