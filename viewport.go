package mandel

// CursorBoxScale is the half-size of the zoom box around the cursor, as a
// fraction of the raster width and height.
const CursorBoxScale = 0.01

// Viewport is the region of the complex plane mapped onto the raster.
//
// Left and Right bound the real axis at the first and last column, Top and
// Bottom bound the imaginary axis at the first and last row. Inverted or
// degenerate boxes are legal and simply flip or collapse the image.
type Viewport struct {
	Left, Right, Top, Bottom float64
}

// DefaultViewport is the canonical full view of the Mandelbrot set.
var DefaultViewport = Viewport{Left: -2.0, Right: 1.0, Top: 1.125, Bottom: -1.125}

// PixelToPlane maps raster coordinates (x, y) of a w x h raster to a point
// of the complex plane. (0, 0) maps to (Left, Top) and (w, h) to
// (Right, Bottom).
func (v Viewport) PixelToPlane(x, y float64, w, h int) complex128 {
	re := v.Left + x*(v.Right-v.Left)/float64(w)
	im := v.Top + y*(v.Bottom-v.Top)/float64(h)
	return complex(re, im)
}

// PlaneToPixel is the inverse of PixelToPlane. A degenerate axis maps every
// point to coordinate 0.
func (v Viewport) PlaneToPixel(c complex128, w, h int) (x, y float64) {
	if dx := v.Right - v.Left; dx != 0 {
		x = (real(c) - v.Left) * float64(w) / dx
	}
	if dy := v.Bottom - v.Top; dy != 0 {
		y = (imag(c) - v.Top) * float64(h) / dy
	}
	return x, y
}

// Sub returns the viewport covering the screen rectangle with corners
// (x0, y0) and (x1, y1) of a w x h raster displaying v.
func (v Viewport) Sub(x0, y0, x1, y1 float64, w, h int) Viewport {
	tl := v.PixelToPlane(x0, y0, w, h)
	br := v.PixelToPlane(x1, y1, w, h)
	return Viewport{Left: real(tl), Right: real(br), Top: imag(tl), Bottom: imag(br)}
}

// ZoomBox returns the viewport of the box centered on pixel (px, py) with
// half-size CursorBoxScale of the raster in each direction.
func (v Viewport) ZoomBox(px, py float64, w, h int) Viewport {
	hw := float64(w) * CursorBoxScale
	hh := float64(h) * CursorBoxScale
	return v.Sub(px-hw, py-hh, px+hw, py+hh, w, h)
}

// Center returns the point of the plane at the middle of the viewport.
func (v Viewport) Center() complex128 {
	return complex((v.Left+v.Right)/2, (v.Top+v.Bottom)/2)
}
