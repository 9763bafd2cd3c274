// Package pkg provides the core libraries for justified row-packing layouts.
//
// # Overview
//
// justified arranges items of known aspect ratio into rows that exactly fill
// a container width, each row scaled to its own height, the way photo
// galleries lay out thumbnails. The pkg directory is organized into:
//
//  1. [breakpoint] - Container width to target row height and gap
//  2. [justify] - The row packer
//  3. [gallery] - Manifests, directory scans and layout documents
//  4. [imagemeta] - Intrinsic image sizes from file headers
//  5. [render] and [render/sink] - Cell placement and SVG/HTML/PNG/PDF/JSON output
//  6. [pipeline] - Orchestration (resolve → layout → render) with caching
//  7. [cache], [config], [errors], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	Directory / manifest
//	         ↓
//	    [gallery] package (entries with paths or sizes)
//	         ↓
//	    [imagemeta] package (aspect ratios)
//	         ↓
//	    [breakpoint] + [justify] packages (rows)
//	         ↓
//	    [render/sink] package (SVG/HTML/PNG/PDF/JSON)
//
// # Quick Start
//
// Pack a handful of items into a 1000px container:
//
//	import "github.com/matzehuels/justified/pkg/justify"
//
//	items := []justify.Item{
//	    {ID: "a", Ratio: 1.5},
//	    {ID: "b", Ratio: 1.0},
//	    {ID: "c", Ratio: 2.0},
//	}
//	l, err := justify.Pack(items, 1000, 200, 16)
//	for _, row := range l.Rows {
//	    for _, c := range row.Cells {
//	        fmt.Println(c.ID, c.Width, c.Height)
//	    }
//	}
//
// Or resolve the row height from the container width:
//
//	l, err := justify.PackResponsive(items, 1024, breakpoint.Default)
//
// Run the whole pipeline over a directory of images:
//
//	m, _ := gallery.ScanDir("photos")
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, m, pipeline.Options{
//	    Width:   1200,
//	    Formats: []string{"html"},
//	})
//
// [breakpoint]: github.com/matzehuels/justified/pkg/breakpoint
// [justify]: github.com/matzehuels/justified/pkg/justify
// [gallery]: github.com/matzehuels/justified/pkg/gallery
// [imagemeta]: github.com/matzehuels/justified/pkg/imagemeta
// [render]: github.com/matzehuels/justified/pkg/render
// [render/sink]: github.com/matzehuels/justified/pkg/render/sink
// [pipeline]: github.com/matzehuels/justified/pkg/pipeline
// [cache]: github.com/matzehuels/justified/pkg/cache
// [config]: github.com/matzehuels/justified/pkg/config
// [errors]: github.com/matzehuels/justified/pkg/errors
// [observability]: github.com/matzehuels/justified/pkg/observability
package pkg
