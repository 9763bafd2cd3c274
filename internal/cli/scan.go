package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/justified/pkg/gallery"
	"github.com/matzehuels/justified/pkg/imagemeta"
)

// scanOpts holds the flags of the scan command.
type scanOpts struct {
	output    string
	title     string
	recursive bool
	hidden    bool
	probe     bool
	noCache   bool
}

// scanCommand creates the scan command for building a manifest from a directory.
func (c *CLI) scanCommand() *cobra.Command {
	var opts scanOpts

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Build a gallery manifest from a directory of images",
		Long: `Build a gallery manifest from a directory of images.

The scan command lists the images in a directory (jpg, png, gif, webp, bmp,
tiff) ordered by file name and writes them to a manifest. IDs are file names,
made unique with a " (n)" suffix when names repeat in subdirectories.

With --probe, each image's header is read and its pixel size recorded, so
later layout runs do not need to touch the files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScan(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <dir>/gallery.json)")
	cmd.Flags().StringVar(&opts.title, "title", "", "gallery title (default: directory name)")
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "include subdirectories")
	cmd.Flags().BoolVar(&opts.hidden, "hidden", false, "include hidden files and directories")
	cmd.Flags().BoolVar(&opts.probe, "probe", false, "record image sizes in the manifest")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// runScan scans dir, optionally probes sizes, and writes the manifest.
func (c *CLI) runScan(ctx context.Context, dir string, opts scanOpts) error {
	logger := loggerFromContext(ctx)

	scanOpts := []gallery.ScanOption{}
	if opts.recursive {
		scanOpts = append(scanOpts, gallery.WithRecursive())
	}
	if opts.hidden {
		scanOpts = append(scanOpts, gallery.WithHidden())
	}
	if opts.title != "" {
		scanOpts = append(scanOpts, gallery.WithScanTitle(opts.title))
	}

	m, err := gallery.ScanDir(dir, scanOpts...)
	if err != nil {
		return err
	}
	logger.Debug("scanned directory", "dir", dir, "images", len(m.Items))

	var fallback []string
	if opts.probe && len(m.Items) > 0 {
		fallback, err = c.probeManifest(ctx, &m, opts.noCache)
		if err != nil {
			return err
		}
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = filepath.Join(dir, "gallery.json")
	}
	if m.Root, err = relativeRoot(dir, outputPath); err != nil {
		return err
	}

	if err := gallery.WriteManifestFile(m, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Scanned %s", plural(len(m.Items), "image"))
	printFile(outputPath)
	printFallback(fallback)
	printNewline()
	printNextStep("Layout", appName+" layout "+outputPath)

	return nil
}

// probeManifest records the pixel size of every entry. Unreadable images are
// left without a size and returned.
func (c *CLI) probeManifest(ctx context.Context, m *gallery.Manifest, noCache bool) ([]string, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	paths := make([]string, len(m.Items))
	for i, e := range m.Items {
		paths[i] = m.Resolve(e)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Probing %s...", plural(len(paths), "image")))
	spinner.Start()
	prog := newProgress(c.Logger)

	prober := imagemeta.NewProber(store, c.keyer(), c.Logger)
	results, err := prober.ProbeAll(ctx, paths)
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("probe images: %w", err)
	}

	var fallback []string
	for i, r := range results {
		if r.Fallback {
			fallback = append(fallback, m.Items[i].ID)
			continue
		}
		m.Items[i].Width = r.Size.Width
		m.Items[i].Height = r.Size.Height
	}
	prog.done("Probed %s", plural(len(paths), "image"))
	return fallback, nil
}

// relativeRoot expresses dir relative to the directory of the manifest file.
func relativeRoot(dir, manifestPath string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absOut, err := filepath.Abs(filepath.Dir(manifestPath))
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absOut, absDir)
	if err != nil {
		return absDir, nil
	}
	if rel == "." {
		return "", nil
	}
	return rel, nil
}
