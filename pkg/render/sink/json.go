package sink

import (
	"github.com/matzehuels/justified/pkg/gallery"
	"github.com/matzehuels/justified/pkg/justify"
)

// JSONOption configures [RenderJSON].
type JSONOption = gallery.DocumentOption

// RenderJSON exports the layout as a [gallery.Document]: packing parameters
// plus every cell with its absolute position. The output can be read back
// with [gallery.UnmarshalLayout] and rendered again in another format.
//
// [gallery.Document]: github.com/matzehuels/justified/pkg/gallery.Document
// [gallery.UnmarshalLayout]: github.com/matzehuels/justified/pkg/gallery.UnmarshalLayout
func RenderJSON(l justify.Layout, opts ...JSONOption) ([]byte, error) {
	return gallery.MarshalLayout(gallery.NewDocument(l, opts...))
}
