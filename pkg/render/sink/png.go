package sink

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/justified/pkg/errors"
	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/render"
)

// maxPNGPixels bounds the canvas so a huge layout cannot exhaust memory.
const maxPNGPixels = 64 << 20

// ImageFunc loads the image for an item ID. Returning (nil, nil) draws a
// placeholder for that item.
type ImageFunc func(id string) (image.Image, error)

// OpenFile returns an [ImageFunc] that reads images from the paths returned by
// source, honouring EXIF orientation.
func OpenFile(source SourceFunc) ImageFunc {
	return func(id string) (image.Image, error) {
		path := source(id)
		if path == "" {
			return nil, nil
		}
		return imaging.Open(path, imaging.AutoOrientation(true))
	}
}

// PNGOption configures [RenderPNG].
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	images     ImageFunc
	scale      float64
	labels     bool
	strict     bool
	background color.Color
}

// WithImages draws each item's image cover-cropped into its cell.
func WithImages(fn ImageFunc) PNGOption { return func(r *pngRenderer) { r.images = fn } }

// WithScale sets the PNG scale factor (default 1.0).
func WithScale(s float64) PNGOption { return func(r *pngRenderer) { r.scale = s } }

// WithPNGLabels draws each item's ID on top of its cell.
func WithPNGLabels() PNGOption { return func(r *pngRenderer) { r.labels = true } }

// WithStrict makes image load failures fatal. By default a failed image is
// drawn as a placeholder.
func WithStrict() PNGOption { return func(r *pngRenderer) { r.strict = true } }

// WithPNGBackground sets the canvas color (default white).
func WithPNGBackground(c color.Color) PNGOption {
	return func(r *pngRenderer) { r.background = c }
}

// RenderPNG rasterizes the layout into a contact sheet. Unlike the SVG-based
// converters this needs no external tools.
func RenderPNG(l justify.Layout, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1.0, background: color.White}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 || math.IsNaN(r.scale) || math.IsInf(r.scale, 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %v", r.scale)
	}

	s := &pngSurface{r: r}
	if err := render.Apply(l, s); err != nil {
		return nil, err
	}
	return s.out.Bytes(), nil
}

type pngSurface struct {
	r   pngRenderer
	dc  *gg.Context
	out bytes.Buffer
}

func (s *pngSurface) px(v float64) int {
	return int(math.Round(v * s.r.scale))
}

func (s *pngSurface) Begin(width, height float64) error {
	// Sized in float64 so a huge layout cannot wrap the pixel count.
	fw := max(1, math.Round(width*s.r.scale))
	fh := max(1, math.Round(height*s.r.scale))
	if math.IsNaN(fw) || math.IsNaN(fh) || fw > maxPNGPixels/fh {
		return errors.New(errors.ErrCodeInvalidInput, "png canvas %vx%v exceeds %d pixels; lower the scale", fw, fh, maxPNGPixels)
	}
	s.dc = gg.NewContext(int(fw), int(fh))
	s.dc.SetColor(s.r.background)
	s.dc.Clear()
	return nil
}

func (s *pngSurface) Place(c render.Cell) error {
	x, y := s.px(c.X), s.px(c.Y)
	w, h := s.px(float64(c.Width)), s.px(float64(c.Height))
	if w <= 0 || h <= 0 {
		return nil
	}

	var img image.Image
	if s.r.images != nil {
		var err error
		img, err = s.r.images(c.ID)
		if err != nil && s.r.strict {
			return err
		}
	}

	if img != nil {
		s.dc.DrawImage(imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos), x, y)
	} else {
		s.dc.SetColor(placeholderColor(c.ID))
		s.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
		s.dc.Fill()
	}

	if s.r.labels {
		label := c.ID
		if tw, _ := s.dc.MeasureString(label); tw > float64(w) {
			label = truncateLabel(label, float64(w), fontSizeMin)
		}
		s.dc.SetRGB(1, 1, 1)
		s.dc.DrawStringAnchored(label, float64(x)+float64(w)/2, float64(y)+float64(h)/2, 0.5, 0.5)
	}
	return nil
}

func (s *pngSurface) End() error {
	return s.dc.EncodePNG(&s.out)
}
