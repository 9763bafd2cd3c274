package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/justified/pkg/pipeline"
)

// layoutCommand creates the layout command for packing a gallery into rows.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [gallery.json|dir]",
		Short: "Pack a gallery into justified rows",
		Long: `Pack a gallery into justified rows.

The layout command takes a manifest (produced by 'scan') or a directory of
images, resolves every item's aspect ratio and packs the items into rows for
the given container width. Row height and gap come from the breakpoint table
unless --row-height is set.

The output is a layout.json document (same format as 'render -f json') with
absolute cell positions. It can be rendered to SVG/HTML/PNG/PDF with 'render'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd, flags)
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached layout exists")
	flags.register(cmd, pipeline.DefaultWidth)

	return cmd
}

// runLayout loads the gallery, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	in, err := loadInput(input)
	if err != nil {
		return err
	}
	if in.Document != nil {
		return fmt.Errorf("%s is already a layout; pass the manifest or image directory instead", input)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Formats = []string{pipeline.FormatJSON}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Packing %s...", plural(len(in.Manifest.Items), "item")))
	spinner.Start()

	result, err := runner.Execute(ctx, in.Manifest, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := outputPath(basePath(input, output, opts.Formats), output, pipeline.FormatJSON, true)
	if err := os.WriteFile(outputPath, result.Artifacts[pipeline.FormatJSON], 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.ItemCount, result.Stats.RowCount, result.CacheInfo.LayoutHit)
	printFallback(result.Fallback)
	printNewline()
	printNextStep("Render", appName+" render -f html "+outputPath)

	return nil
}
