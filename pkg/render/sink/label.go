package sink

import (
	"fmt"
	"hash/fnv"
	"image/color"
)

const (
	fontHeightRatio = 0.6
	fontWidthRatio  = 0.85
	fontCharWidth   = 0.55
	fontSizeMin     = 8.0
	fontSizeMax     = 24.0
)

func fontSizeFor(availWidth, availHeight float64, textLen int) float64 {
	n := max(1, textLen)
	byHeight := availHeight * fontHeightRatio
	byWidth := (availWidth * fontWidthRatio) / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
}

// truncateLabel shortens label so it fits a cell of width w at fontSize.
func truncateLabel(label string, w, fontSize float64) string {
	maxChars := max(3, int(w*fontWidthRatio/(fontSize*fontCharWidth)))
	if len(label) <= maxChars {
		return label
	}
	return label[:maxChars-2] + ".."
}

// placeholder palette: muted tones that keep white labels readable.
var palette = []color.RGBA{
	{0x5b, 0x6c, 0x8f, 0xff},
	{0x6f, 0x8f, 0x72, 0xff},
	{0x9a, 0x6b, 0x5b, 0xff},
	{0x7d, 0x6b, 0x91, 0xff},
	{0x5f, 0x8a, 0x8b, 0xff},
	{0x8c, 0x7a, 0x4f, 0xff},
	{0x8b, 0x5f, 0x7a, 0xff},
	{0x4f, 0x74, 0x7d, 0xff},
}

// placeholderColor picks a stable palette color for an item ID.
func placeholderColor(id string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(id))
	return palette[h.Sum32()%uint32(len(palette))]
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// PlaceholderHex returns the placeholder color drawn for an item, as "#rrggbb".
// The terminal preview uses it so cells match the rendered files.
func PlaceholderHex(id string) string {
	return hexColor(placeholderColor(id))
}
