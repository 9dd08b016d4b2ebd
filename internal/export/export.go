package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/gogpu/mandel"
)

// Export errors.
var (
	// ErrUnsupportedFormat is returned for an unknown file extension.
	ErrUnsupportedFormat = errors.New("export: unsupported format")

	// ErrEmptyImage is returned when there is nothing to encode.
	ErrEmptyImage = errors.New("export: empty image")
)

// Format is an output file format.
type Format int

const (
	FormatPNG Format = iota
	FormatTIFF
	FormatBMP
	// FormatRaw is the zstd-compressed float raster.
	FormatRaw
)

// RawExt is the file extension of FormatRaw.
const RawExt = ".rgbf.zst"

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatTIFF:
		return "tiff"
	case FormatBMP:
		return "bmp"
	case FormatRaw:
		return "rgbf.zst"
	default:
		return "unknown"
	}
}

// FormatFromPath selects the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, RawExt) {
		return FormatRaw, nil
	}
	switch filepath.Ext(lower) {
	case ".png":
		return FormatPNG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".bmp":
		return FormatBMP, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Encode writes img to w in an image format.
func Encode(w io.Writer, img image.Image, f Format) error {
	if img == nil || img.Bounds().Empty() {
		return ErrEmptyImage
	}

	var err error
	switch f {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case FormatBMP:
		err = bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: cannot encode %s as an image", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return fmt.Errorf("export: encode %s: %w", f, err)
	}
	return nil
}

// Scale resizes img to width pixels, keeping the aspect ratio, with
// Catmull-Rom filtering. A non-positive width or the current width returns
// img unchanged.
func Scale(img *image.RGBA, width int) *image.RGBA {
	b := img.Bounds()
	if width <= 0 || width == b.Dx() || b.Empty() {
		return img
	}
	height := max(b.Dy()*width/b.Dx(), 1)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Source is what Save reads from. *mandel.Engine implements it.
type Source interface {
	Field
	Image() *image.RGBA
}

// Options control Save.
type Options struct {
	// Width rescales image formats to this width. Zero keeps the raster
	// size.
	Width int

	// HUD lines are drawn over image formats.
	HUD []string
}

// Save writes a snapshot of src to path in the format selected by its
// extension. The file is written to a temporary name in the same
// directory and renamed into place.
func Save(path string, src Source, opts Options) (err error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".mandel-*")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if f == FormatRaw {
		err = WriteRaw(tmp, src)
	} else {
		img := Scale(src.Image(), opts.Width)
		if len(opts.HUD) > 0 {
			DrawHUD(img, opts.HUD)
		}
		err = Encode(tmp, img, f)
	}
	if err != nil {
		return err
	}

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	mandel.Logger().Info("export: saved", slog.String("path", path), slog.String("format", f.String()))
	return nil
}
