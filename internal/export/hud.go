package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/mandel"
)

// HUD layout in pixels.
const (
	hudPad        = 4
	hudLineHeight = 15
)

var hudBackdrop = color.RGBA{A: 160}

// DrawHUD draws lines of text in the top-left corner of dst over a
// translucent backdrop.
func DrawHUD(dst draw.Image, lines []string) {
	if len(lines) == 0 {
		return
	}
	face := basicfont.Face7x13
	origin := dst.Bounds().Min

	meas := &font.Drawer{Face: face}
	width := 0
	for _, l := range lines {
		width = max(width, meas.MeasureString(l).Ceil())
	}

	box := image.Rect(0, 0, width+2*hudPad, len(lines)*hudLineHeight+2*hudPad).
		Add(origin).Intersect(dst.Bounds())
	draw.Draw(dst, box, image.NewUniform(hudBackdrop), image.Point{}, draw.Over)

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(color.White), Face: face}
	for i, l := range lines {
		d.Dot = fixed.P(origin.X+hudPad, origin.Y+hudPad+(i+1)*hudLineHeight-3)
		d.DrawString(l)
	}
}

// printer formats numbers with thousands separators.
var printer = message.NewPrinter(language.English)

// FormatTelemetry returns the HUD lines describing a frame of a
// width x height raster.
func FormatTelemetry(r mandel.FrameReport, width, height int) []string {
	ms := float64(r.Elapsed) / float64(time.Millisecond)
	lines := []string{
		printer.Sprintf("threads: %d (slice %d rows)", r.Tiles, r.SliceHeight),
		printer.Sprintf("frame %d: %.1f ms", r.Generation, ms),
		printer.Sprintf("pixels: %d", width*height),
		printer.Sprintf("re [%.6g, %.6g]  im [%.6g, %.6g]",
			r.Viewport.Left, r.Viewport.Right, r.Viewport.Bottom, r.Viewport.Top),
	}
	if r.Faults > 0 {
		lines = append(lines, printer.Sprintf("faults: %d", r.Faults))
	}
	return lines
}

// ShotName returns a file name for a screenshot of frame r.
func ShotName(r mandel.FrameReport, ext string) string {
	id := r.ID.String()
	return fmt.Sprintf("mandel-%06d-%s%s", r.Generation, id[:8], ext)
}
