package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/justified/pkg/gallery"
	"github.com/matzehuels/justified/pkg/pipeline"
)

// renderCommand creates the render command for generating gallery output.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		refresh    bool
		flags      layoutFlags
		render     pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [gallery.json|layout.json|dir]",
		Short: "Render a gallery to SVG, HTML, PNG, PDF or JSON",
		Long: `Render a gallery to SVG, HTML, PNG, PDF or JSON.

The input is a manifest, a directory of images, or a layout.json document
produced by 'layout'. Manifests and directories are packed first; a layout
document is rendered as-is and the packing flags are ignored.

With --images, SVG and HTML reference the actual image files and PNG draws
them as cover-cropped thumbnails. Without it, every cell is a colored
placeholder.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, flags)
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			opts.Refresh = refresh
			opts.Title = render.Title
			opts.Labels = render.Labels
			opts.Images = render.Images
			opts.Scale = render.Scale
			opts.Strict = render.Strict
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached output exists")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), html, png, pdf, json (comma-separated)")
	cmd.Flags().StringVar(&render.Title, "title", "", "document title (default: gallery title)")
	cmd.Flags().BoolVar(&render.Labels, "labels", false, "label every cell with its item ID")
	cmd.Flags().BoolVar(&render.Images, "images", false, "reference (SVG, HTML) or draw (PNG) the actual images")
	cmd.Flags().Float64Var(&render.Scale, "scale", pipeline.DefaultScale, "PNG pixel density")
	cmd.Flags().BoolVar(&render.Strict, "strict", false, "fail PNG rendering on unreadable images")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	// Layout flags
	flags.register(cmd, pipeline.DefaultWidth)

	return cmd
}

// runRender packs the input if needed, renders every format and writes the files.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	in, err := loadInput(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", plural(len(in.Manifest.Items), "item")))
	spinner.Start()

	var (
		artifacts map[string][]byte
		cacheHit  bool
		rows      int
		fallback  []string
	)
	if doc := in.Document; doc != nil {
		layoutFromDocument(*doc, &opts)
		l := doc.Layout()
		artifacts, cacheHit, err = runner.RenderWithCacheInfo(ctx, l, in.Manifest, opts)
		rows, fallback = len(l.Rows), doc.Fallback
	} else {
		var result *pipeline.Result
		result, err = runner.Execute(ctx, in.Manifest, opts)
		if result != nil {
			artifacts, cacheHit = result.Artifacts, result.CacheInfo.RenderHit
			rows, fallback = result.Stats.RowCount, result.Fallback
		}
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		cacheHit:  cacheHit,
		items:     len(in.Manifest.Items),
		rows:      rows,
	}); err != nil {
		return err
	}
	printFallback(fallback)
	return nil
}

// layoutFromDocument copies the packing parameters recorded in a document
// onto opts, so the rendered JSON describes the layout it came from.
func layoutFromDocument(d gallery.Document, opts *pipeline.Options) {
	opts.Width = d.ContainerWidth
	opts.Breakpoints = nil
	opts.RowHeight = d.RowHeight
	opts.Gap = d.Gap
	opts.MaxPerRow = d.MaxPerRow
	opts.Policy = d.Policy
	opts.GrowthCap = d.GrowthCap
	opts.Fallback = d.Fallback
	if opts.Title == "" {
		opts.Title = d.Title
	}
}

// =============================================================================
// Output
// =============================================================================

// artifactWriteParams describes rendered output to write to disk.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	cacheHit  bool
	items     int
	rows      int
}

// writeArtifacts writes each format next to the input (or under the output
// base path) and prints the written files.
func writeArtifacts(p artifactWriteParams) error {
	base := basePath(p.input, p.output, p.formats)
	single := len(p.formats) == 1

	var written []string
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := outputPath(base, p.output, format, single)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	printSuccess("Rendered %s", plural(len(written), "file"))
	for _, path := range written {
		printFile(path)
	}
	printStats(p.items, p.rows, p.cacheHit)
	return nil
}
