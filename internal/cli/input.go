package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/justified/pkg/gallery"
	"github.com/matzehuels/justified/pkg/pipeline"
)

// input is what a command was pointed at: a gallery manifest (read from a
// file or scanned from a directory), optionally with a layout document that
// was already computed.
type input struct {
	Manifest gallery.Manifest
	Document *gallery.Document
}

// loadInput reads a directory, a manifest file or a layout document.
func loadInput(path string) (input, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		m, err := gallery.ScanDir(path)
		if err != nil {
			return input{}, err
		}
		return input{Manifest: m}, nil
	}

	if isLayoutDocument(path) {
		doc, err := gallery.ReadLayoutFile(path)
		if err != nil {
			return input{}, fmt.Errorf("load layout %s: %w", path, err)
		}
		return input{Manifest: documentManifest(doc), Document: &doc}, nil
	}

	m, err := gallery.ReadManifestFile(path)
	if err != nil {
		return input{}, fmt.Errorf("load manifest %s: %w", path, err)
	}
	return input{Manifest: m}, nil
}

// isLayoutDocument reports whether the JSON file at path carries layout cells.
// Unreadable files report false and fail later with a better message.
func isLayoutDocument(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var probe struct {
		Cells json.RawMessage `json:"cells"`
	}
	return json.Unmarshal(data, &probe) == nil && probe.Cells != nil
}

// documentManifest rebuilds a manifest from a document's cells and sources,
// so images can be referenced again when re-rendering.
func documentManifest(d gallery.Document) gallery.Manifest {
	m := gallery.Manifest{Title: d.Title}
	for _, item := range d.Layout().Items() {
		e := gallery.Entry{ID: item.ID, Ratio: item.Ratio}
		if src := d.Sources[item.ID]; strings.Contains(src, "://") {
			e.URL = src
		} else {
			e.Path = src
		}
		m.Items = append(m.Items, e)
	}
	return m
}

// =============================================================================
// Output Paths
// =============================================================================

// basePath returns the path outputs are named after, without extension.
func basePath(input, output string, formats []string) string {
	if output != "" {
		if len(formats) > 1 {
			ext := strings.TrimPrefix(filepath.Ext(output), ".")
			if pipeline.ValidFormats[ext] {
				return strings.TrimSuffix(output, "."+ext)
			}
		}
		return output
	}
	base := filepath.Clean(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, ".layout")
}

// outputPath returns the file a format is written to. A single format with an
// explicit output goes exactly there.
func outputPath(base, output, format string, single bool) string {
	if single && output != "" {
		return output
	}
	if format == pipeline.FormatJSON {
		return base + ".layout.json"
	}
	return base + "." + format
}
