package imagemeta

import (
	"bytes"
	"context"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/matzehuels/justified/pkg/cache"
	"github.com/matzehuels/justified/pkg/errors"
)

func writeImage(t *testing.T, path string, w, h int, encode func(io.Writer, image.Image) error) {
	t.Helper()
	var buf bytes.Buffer
	if err := encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func encodePNG(w io.Writer, m image.Image) error  { return png.Encode(w, m) }
func encodeJPEG(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) }
func encodeGIF(w io.Writer, m image.Image) error  { return gif.Encode(w, m, nil) }
func encodeBMP(w io.Writer, m image.Image) error  { return bmp.Encode(w, m) }
func encodeTIFF(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }

func TestDecodeConfig(t *testing.T) {
	tests := []struct {
		format string
		encode func(io.Writer, image.Image) error
	}{
		{"png", encodePNG},
		{"jpeg", encodeJPEG},
		{"gif", encodeGIF},
		{"bmp", encodeBMP},
		{"tiff", encodeTIFF},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.encode(&buf, image.NewRGBA(image.Rect(0, 0, 48, 32))); err != nil {
				t.Fatal(err)
			}
			s, err := DecodeConfig(&buf)
			if err != nil {
				t.Fatalf("DecodeConfig() error: %v", err)
			}
			if s.Width != 48 || s.Height != 32 || s.Format != tt.format {
				t.Errorf("DecodeConfig() = %+v, want 48x32 %s", s, tt.format)
			}
			if s.Ratio() != 1.5 {
				t.Errorf("Ratio() = %v, want 1.5", s.Ratio())
			}
		})
	}
}

func TestDecodeConfigInvalid(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader("definitely not an image"))
	if !errors.Is(err, errors.ErrCodeMissingRatio) {
		t.Errorf("got %v, want MISSING_RATIO", err)
	}
}

func TestSize(t *testing.T) {
	if (Size{}).Ratio() != 0 || (Size{}).Valid() {
		t.Error("zero size must be invalid with ratio 0")
	}
	if got := (Size{Width: 1600, Height: 900}).String(); got != "1600x900" {
		t.Errorf("String() = %q", got)
	}
}

func TestProbeCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writeImage(t, path, 300, 200, encodePNG)

	fc, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	p := NewProber(fc, nil, nil)
	ctx := context.Background()

	s, cached, err := p.Probe(ctx, path)
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if cached {
		t.Error("first probe should not be cached")
	}
	if s.Width != 300 || s.Height != 200 {
		t.Errorf("Probe() = %v, want 300x200", s)
	}

	s, cached, err = p.Probe(ctx, path)
	if err != nil || !cached || s.Width != 300 {
		t.Errorf("second Probe() = %v, cached %v, err %v", s, cached, err)
	}
}

func TestProbeErrors(t *testing.T) {
	dir := t.TempDir()
	p := NewProber(nil, nil, nil)
	ctx := context.Background()

	if _, _, err := p.Probe(ctx, filepath.Join(dir, "missing.jpg")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: got %v, want FILE_NOT_FOUND", err)
	}
	if _, _, err := p.Probe(ctx, dir); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("directory: got %v, want INVALID_PATH", err)
	}
	bad := filepath.Join(dir, "bad.jpg")
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Probe(ctx, bad); !errors.Is(err, errors.ErrCodeMissingRatio) {
		t.Errorf("corrupt file: got %v, want MISSING_RATIO", err)
	}
}

func TestProbeAll(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, size := range [][2]int{{400, 200}, {0, 0}, {100, 200}, {-1, -1}, {90, 90}} {
		path := filepath.Join(dir, string(rune('a'+i))+".png")
		switch {
		case size[0] > 0:
			writeImage(t, path, size[0], size[1], encodePNG)
		case size[0] == 0:
			_ = os.WriteFile(path, []byte("corrupt"), 0o644)
		}
		// size -1: file is never created
		paths = append(paths, path)
	}

	p := NewProber(nil, nil, nil)
	p.Concurrency = 2
	p.Fallback = 1.25

	results, err := p.ProbeAll(context.Background(), paths)
	if err != nil {
		t.Fatalf("ProbeAll() error: %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}

	want := []struct {
		ratio    float64
		fallback bool
	}{
		{2, false}, {1.25, true}, {0.5, false}, {1.25, true}, {1, false},
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d path = %s, want input order", i, r.Path)
		}
		if r.Ratio != want[i].ratio || r.Fallback != want[i].fallback {
			t.Errorf("result %d = ratio %v fallback %v, want %v %v", i, r.Ratio, r.Fallback, want[i].ratio, want[i].fallback)
		}
		if r.Fallback && !errors.Is(r.Err, errors.ErrCodeMissingRatio) {
			t.Errorf("result %d error = %v, want MISSING_RATIO", i, r.Err)
		}
		if !r.Fallback && r.Err != nil {
			t.Errorf("result %d unexpected error %v", i, r.Err)
		}
	}
}

func TestProbeAllDefaultFallback(t *testing.T) {
	p := NewProber(nil, nil, nil)
	results, err := p.ProbeAll(context.Background(), []string{filepath.Join(t.TempDir(), "nope.png")})
	if err != nil {
		t.Fatalf("ProbeAll() error: %v", err)
	}
	if results[0].Ratio != DefaultFallbackRatio {
		t.Errorf("Ratio = %v, want %v", results[0].Ratio, DefaultFallbackRatio)
	}
}

func TestProbeAllCancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writeImage(t, path, 10, 10, encodePNG)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProber(nil, nil, nil)
	if _, err := p.ProbeAll(ctx, []string{path, path}); err == nil {
		t.Error("expected context error")
	}
}
