package parallel

// Pixel is a color with normalized red, green and blue channels in [0, 1].
type Pixel struct {
	R, G, B float32
}

// RGBA8 converts the pixel to 8-bit channels with opaque alpha.
func (p Pixel) RGBA8() [4]byte {
	return [4]byte{to8(p.R), to8(p.G), to8(p.B), 255}
}

func to8(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return byte(v*255 + 0.5)
	}
}

// Raster is the shared pixel store.
//
// Dimensions are fixed at creation and the backing slice is never
// reallocated. Pixels are stored row-major.
//
// Thread safety: Raster does no locking. Callers hold the lock returned by
// TileGrid.LockFor for the rows they touch.
type Raster struct {
	width  int
	height int
	pix    []Pixel
}

// NewRaster creates a zeroed raster. Returns nil if width or height is not
// positive.
func NewRaster(width, height int) *Raster {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &Raster{
		width:  width,
		height: height,
		pix:    make([]Pixel, width*height),
	}
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int {
	return r.width
}

// Height returns the raster height in pixels.
func (r *Raster) Height() int {
	return r.height
}

// Set stores p at (x, y). Out-of-range coordinates are ignored.
func (r *Raster) Set(x, y int, p Pixel) {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	r.pix[y*r.width+x] = p
}

// At returns the pixel at (x, y), or the zero pixel when out of range.
func (r *Raster) At(x, y int) Pixel {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return Pixel{}
	}
	return r.pix[y*r.width+x]
}

// Row returns the pixels of row y. The slice aliases the raster.
func (r *Raster) Row(y int) []Pixel {
	if y < 0 || y >= r.height {
		return nil
	}
	return r.pix[y*r.width : (y+1)*r.width]
}

// ClearRows zeroes rows [start, end), clamped to the raster.
func (r *Raster) ClearRows(start, end int) {
	start = max(start, 0)
	end = min(end, r.height)
	if start >= end {
		return
	}
	clear(r.pix[start*r.width : end*r.width])
}

// CopyRowsRGBA writes rows [start, end) into dst as 8-bit RGBA.
// stride is the number of bytes per row in dst (typically width * 4).
// Rows that do not fit in dst are skipped.
func (r *Raster) CopyRowsRGBA(dst []byte, stride, start, end int) {
	start = max(start, 0)
	end = min(end, r.height)
	rowBytes := min(r.width*4, stride)
	for y := start; y < end; y++ {
		off := y * stride
		if off+rowBytes > len(dst) {
			return
		}
		row := r.pix[y*r.width : (y+1)*r.width]
		for x := 0; x < rowBytes/4; x++ {
			c := row[x].RGBA8()
			i := off + x*4
			dst[i] = c[0]
			dst[i+1] = c[1]
			dst[i+2] = c[2]
			dst[i+3] = c[3]
		}
	}
}
