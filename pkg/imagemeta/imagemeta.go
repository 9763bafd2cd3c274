// Package imagemeta resolves the intrinsic size of image files.
//
// Layout needs every item's aspect ratio before a pass can start. The
// [Prober] reads only image headers (no pixel decoding), caches the result
// keyed by path, file size and modification time, and probes many files
// concurrently:
//
//	p := imagemeta.NewProber(c, nil, logger)
//	results, err := p.ProbeAll(ctx, paths)
//	for _, r := range results {
//	    if r.Fallback {
//	        logger.Warn("size unknown", "path", r.Path, "err", r.Err)
//	    }
//	    use(r.Ratio)
//	}
//
// A file that cannot be read or decoded never fails the batch: its result
// carries a MISSING_RATIO error and the fallback ratio (4:3 by default), so
// the layout can proceed with every item accounted for.
//
// Supported formats: JPEG, PNG, GIF, WebP, BMP and TIFF.
package imagemeta

import (
	"bufio"
	"fmt"
	"image"
	"io"

	// Registered decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/justified/pkg/errors"
)

// DefaultFallbackRatio is the ratio used for items whose size is unknown,
// the aspect of an 800x600 frame.
const DefaultFallbackRatio = 800.0 / 600.0

// Size is an image's intrinsic pixel size.
type Size struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format,omitempty"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool { return s.Width > 0 && s.Height > 0 }

// Ratio returns width / height, or 0 for an invalid size.
func (s Size) Ratio() float64 {
	if !s.Valid() {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DecodeConfig reads an image header from r.
func DecodeConfig(r io.Reader) (Size, error) {
	cfg, format, err := image.DecodeConfig(bufio.NewReader(r))
	if err != nil {
		return Size{}, errors.Wrap(errors.ErrCodeMissingRatio, err, "decode image header")
	}
	s := Size{Width: cfg.Width, Height: cfg.Height, Format: format}
	if !s.Valid() {
		return Size{}, errors.New(errors.ErrCodeMissingRatio, "image reports empty size %s", s)
	}
	return s, nil
}
