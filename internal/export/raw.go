package export

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/mandel"
)

// rawMagic starts every raw stream, before compression.
var rawMagic = [8]byte{'M', 'A', 'N', 'D', 'R', 'G', 'B', 'F'}

// maxRawPixels bounds the raster size accepted by ReadRaw.
const maxRawPixels = 1 << 28

// ErrBadRaw is returned when a raw stream is malformed.
var ErrBadRaw = errors.New("export: malformed raw raster")

// Field is a readable float raster.
type Field interface {
	Width() int
	Height() int
	At(x, y int) mandel.RGB
}

// RawField is a raster decoded by ReadRaw.
type RawField struct {
	width, height int
	pix           []mandel.RGB
}

// Width returns the raster width.
func (f *RawField) Width() int { return f.width }

// Height returns the raster height.
func (f *RawField) Height() int { return f.height }

// At returns the pixel at (x, y), or the zero pixel when out of range.
func (f *RawField) At(x, y int) mandel.RGB {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return mandel.RGB{}
	}
	return f.pix[y*f.width+x]
}

// WriteRaw writes f to w as a zstd stream of the magic, the width and
// height as little-endian uint32 and then R, G, B float32 triples in
// row-major order.
func WriteRaw(w io.Writer, f Field) error {
	width, height := f.Width(), f.Height()
	if width <= 0 || height <= 0 {
		return ErrEmptyImage
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("export: zstd encode: %w", err)
	}

	var hdr [16]byte
	copy(hdr[:8], rawMagic[:])
	binary.LittleEndian.PutUint32(hdr[8:], uint32(width))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(height))
	if _, err := enc.Write(hdr[:]); err != nil {
		_ = enc.Close()
		return fmt.Errorf("export: zstd encode: %w", err)
	}

	row := make([]byte, width*12)
	for y := range height {
		for x := range width {
			p := f.At(x, y)
			binary.LittleEndian.PutUint32(row[x*12:], math.Float32bits(p.R))
			binary.LittleEndian.PutUint32(row[x*12+4:], math.Float32bits(p.G))
			binary.LittleEndian.PutUint32(row[x*12+8:], math.Float32bits(p.B))
		}
		if _, err := enc.Write(row); err != nil {
			_ = enc.Close()
			return fmt.Errorf("export: zstd encode: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("export: zstd encode: %w", err)
	}
	return nil
}

// ReadRaw decodes a stream written by WriteRaw.
func ReadRaw(r io.Reader) (*RawField, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("export: zstd decode: %w", err)
	}
	defer dec.Close()

	var hdr [16]byte
	if _, err := io.ReadFull(dec, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrBadRaw, err)
	}
	if [8]byte(hdr[:8]) != rawMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadRaw)
	}
	width := int(binary.LittleEndian.Uint32(hdr[8:]))
	height := int(binary.LittleEndian.Uint32(hdr[12:]))
	if width <= 0 || height <= 0 || width*height > maxRawPixels {
		return nil, fmt.Errorf("%w: size %dx%d", ErrBadRaw, width, height)
	}

	f := &RawField{width: width, height: height, pix: make([]mandel.RGB, width*height)}
	row := make([]byte, width*12)
	for y := range height {
		if _, err := io.ReadFull(dec, row); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrBadRaw, y, err)
		}
		for x := range width {
			f.pix[y*width+x] = mandel.RGB{
				R: math.Float32frombits(binary.LittleEndian.Uint32(row[x*12:])),
				G: math.Float32frombits(binary.LittleEndian.Uint32(row[x*12+4:])),
				B: math.Float32frombits(binary.LittleEndian.Uint32(row[x*12+8:])),
			}
		}
	}
	return f, nil
}
