// Package gallery provides the file formats around a layout pass: the input
// manifest listing gallery items and the layout document written as output.
//
// # Manifest
//
// A [Manifest] is an ordered list of entries. Each entry names an item and
// where its image lives, and optionally carries its intrinsic size:
//
//	{
//	  "title": "Holiday",
//	  "root": "photos",
//	  "items": [
//	    {"id": "beach.jpg", "path": "beach.jpg", "width": 1600, "height": 1067},
//	    {"id": "pano", "path": "pano.webp", "ratio": 4.2},
//	    {"id": "unknown.png", "path": "unknown.png"}
//	  ]
//	}
//
// Entries without a ratio or size are resolved by probing the image file
// (see package imagemeta). [ScanDir] builds a manifest from a directory of
// images, ordered by file name, giving each file a unique ID.
//
// # Layout Document
//
// A [Document] is the serialized result of a layout pass: the packing
// parameters plus every cell with its absolute position. Documents round-trip
// through [MarshalLayout] and [UnmarshalLayout] so a layout computed once can
// be rendered again in any format:
//
//	doc := gallery.NewDocument(layout, gallery.WithDocumentTitle("Holiday"))
//	gallery.WriteLayoutFile(doc, "layout.json")
//
//	doc, _ = gallery.ReadLayoutFile("layout.json")
//	svg := sink.RenderSVG(doc.Layout())
package gallery
