package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/mandel"
)

// gradientSource is a deterministic Source for tests.
type gradientSource struct {
	w, h int
}

func (g gradientSource) Width() int  { return g.w }
func (g gradientSource) Height() int { return g.h }

func (g gradientSource) At(x, y int) mandel.RGB {
	return mandel.RGB{R: float32(x) / float32(g.w), G: float32(y) / float32(g.h), B: 0.5}
}

func (g gradientSource) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.w, g.h))
	for y := range g.h {
		for x := range g.w {
			c := g.At(x, y).RGBA8()
			img.SetRGBA(x, y, color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]})
		}
	}
	return img
}

// =============================================================================
// Format Tests
// =============================================================================

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out.png", FormatPNG, false},
		{"OUT.PNG", FormatPNG, false},
		{"dir/out.tif", FormatTIFF, false},
		{"out.tiff", FormatTIFF, false},
		{"out.bmp", FormatBMP, false},
		{"field.rgbf.zst", FormatRaw, false},
		{"out.zst", 0, true},
		{"out.jpg", 0, true},
		{"noext", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("FormatFromPath(%q) error = %v, want ErrUnsupportedFormat", tt.path, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("FormatFromPath(%q) = %v, %v, want %v", tt.path, got, err, tt.want)
			}
		})
	}
}

// =============================================================================
// Encode Tests
// =============================================================================

func TestEncodeDecodes(t *testing.T) {
	src := gradientSource{w: 12, h: 9}.Image()

	tests := []struct {
		format Format
		decode func(io.Reader) (image.Image, error)
	}{
		{FormatPNG, png.Decode},
		{FormatTIFF, tiff.Decode},
		{FormatBMP, bmp.Decode},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, src, tt.format); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			img, err := tt.decode(&buf)
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if img.Bounds() != src.Bounds() {
				t.Fatalf("bounds = %v, want %v", img.Bounds(), src.Bounds())
			}
			for _, p := range []image.Point{{0, 0}, {11, 8}, {5, 4}} {
				want := color.RGBAModel.Convert(src.At(p.X, p.Y))
				got := color.RGBAModel.Convert(img.At(p.X, p.Y))
				if got != want {
					t.Errorf("pixel %v = %v, want %v", p, got, want)
				}
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), FormatRaw); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Encode(raw) error = %v, want ErrUnsupportedFormat", err)
	}
	if err := Encode(&buf, image.NewRGBA(image.Rectangle{}), FormatPNG); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Encode(empty) error = %v, want ErrEmptyImage", err)
	}
}

// =============================================================================
// Scale And HUD Tests
// =============================================================================

func TestScale(t *testing.T) {
	src := gradientSource{w: 200, h: 100}.Image()

	tests := []struct {
		width      int
		wantW      int
		wantH      int
		wantSameAs bool
	}{
		{0, 200, 100, true},
		{200, 200, 100, true},
		{100, 100, 50, false},
		{400, 400, 200, false},
		{1, 1, 1, false},
	}

	for _, tt := range tests {
		got := Scale(src, tt.width)
		if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
			t.Errorf("Scale(%d) size = %v, want %dx%d", tt.width, got.Bounds().Size(), tt.wantW, tt.wantH)
		}
		if (got == src) != tt.wantSameAs {
			t.Errorf("Scale(%d) returned source = %v, want %v", tt.width, got == src, tt.wantSameAs)
		}
	}
}

func TestDrawHUD(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	DrawHUD(img, []string{"threads: 8", "frame 3: 12.5 ms"})

	if c := img.RGBAAt(1, 1); c.R == 255 {
		t.Errorf("backdrop pixel = %v, want darkened", c)
	}
	if c := img.RGBAAt(299, 99); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel outside HUD = %v, want untouched", c)
	}

	before := append([]byte(nil), img.Pix...)
	DrawHUD(img, nil)
	if !bytes.Equal(before, img.Pix) {
		t.Error("DrawHUD(nil) modified the image")
	}
}

func TestFormatTelemetry(t *testing.T) {
	r := mandel.FrameReport{
		Generation:  1234,
		Tiles:       8,
		SliceHeight: 75,
		Elapsed:     12500 * time.Microsecond,
		Viewport:    mandel.DefaultViewport,
	}

	lines := FormatTelemetry(r, 960, 600)
	out := strings.Join(lines, "\n")
	for _, want := range []string{"threads: 8", "slice 75", "1,234", "12.5 ms", "576,000"} {
		if !strings.Contains(out, want) {
			t.Errorf("telemetry missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "faults") {
		t.Error("fault line present without faults")
	}

	r.Faults = 2
	if lines := FormatTelemetry(r, 960, 600); !strings.Contains(lines[len(lines)-1], "faults: 2") {
		t.Errorf("last line = %q, want fault count", lines[len(lines)-1])
	}
}

func TestShotName(t *testing.T) {
	id := uuid.MustParse("0123abcd-0000-4000-8000-000000000000")
	got := ShotName(mandel.FrameReport{Generation: 1234, ID: id}, ".png")
	if want := "mandel-001234-0123abcd.png"; got != want {
		t.Errorf("ShotName() = %q, want %q", got, want)
	}
}

// =============================================================================
// Raw Tests
// =============================================================================

func TestRawRoundTrip(t *testing.T) {
	src := gradientSource{w: 33, h: 17}

	var buf bytes.Buffer
	if err := WriteRaw(&buf, src); err != nil {
		t.Fatalf("WriteRaw() error = %v", err)
	}
	got, err := ReadRaw(&buf)
	if err != nil {
		t.Fatalf("ReadRaw() error = %v", err)
	}
	if got.Width() != 33 || got.Height() != 17 {
		t.Fatalf("size = %dx%d, want 33x17", got.Width(), got.Height())
	}
	for y := range 17 {
		for x := range 33 {
			if got.At(x, y) != src.At(x, y) {
				t.Fatalf("At(%d, %d) = %v, want %v", x, y, got.At(x, y), src.At(x, y))
			}
		}
	}
	if got.At(-1, 0) != (mandel.RGB{}) {
		t.Error("out-of-range At should return zero")
	}
}

func TestReadRawRejectsGarbage(t *testing.T) {
	if _, err := ReadRaw(bytes.NewReader([]byte("not zstd at all"))); err == nil {
		t.Error("ReadRaw() accepted garbage")
	}

	compress := func(data []byte) *bytes.Buffer {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatal(err)
		}
		enc.Write(data)
		enc.Close()
		return &buf
	}

	size := []byte{4, 0, 0, 0, 4, 0, 0, 0}
	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", append([]byte("NOTMAGIC"), size...)},
		{"short header", []byte("MANDRGBF")},
		{"missing rows", append([]byte("MANDRGBF"), size...)},
		{"zero size", append([]byte("MANDRGBF"), make([]byte, 8)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadRaw(compress(tt.data)); !errors.Is(err, ErrBadRaw) {
				t.Errorf("ReadRaw() error = %v, want ErrBadRaw", err)
			}
		})
	}
}

func TestWriteRawEmpty(t *testing.T) {
	if err := WriteRaw(io.Discard, gradientSource{}); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("WriteRaw(empty) error = %v, want ErrEmptyImage", err)
	}
}

// =============================================================================
// Save Tests
// =============================================================================

func TestSave(t *testing.T) {
	dir := t.TempDir()
	src := gradientSource{w: 64, h: 40}

	t.Run("png scaled with hud", func(t *testing.T) {
		path := filepath.Join(dir, "shot.png")
		if err := Save(path, src, Options{Width: 32, HUD: []string{"x"}}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		cfg, err := png.DecodeConfig(f)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Width != 32 || cfg.Height != 20 {
			t.Errorf("saved size = %dx%d, want 32x20", cfg.Width, cfg.Height)
		}
	})

	t.Run("raw", func(t *testing.T) {
		path := filepath.Join(dir, "field"+RawExt)
		if err := Save(path, src, Options{Width: 10}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		got, err := ReadRaw(f)
		if err != nil {
			t.Fatal(err)
		}
		if got.Width() != 64 {
			t.Errorf("raw width = %d, want unscaled 64", got.Width())
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if err := Save(filepath.Join(dir, "x.gif"), src, Options{}); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Save(.gif) error = %v, want ErrUnsupportedFormat", err)
		}
	})

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".mandel-") {
			t.Errorf("temporary file %s left behind", e.Name())
		}
	}
}
