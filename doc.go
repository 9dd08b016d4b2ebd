// Package mandel computes the Mandelbrot set interactively on a
// tile-parallel CPU engine.
//
// # Overview
//
// An Engine owns a fixed-size raster and recomputes it whenever the
// viewport or the degree of parallelism changes. The raster height is split
// into horizontal tiles; each tile is computed by its own worker and
// guarded by its own lock, so a presentation loop can copy the raster while
// workers are still writing it.
//
// # Quick Start
//
//	e, err := mandel.New(mandel.WithSize(960, 600), mandel.WithTileCount(8))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go e.Run(ctx)
//	defer e.Close()
//
//	e.WaitSettled(ctx)
//	img := e.Image()
//
// # Frames
//
// A frame clears the raster, dispatches one worker per tile and joins them.
// SetViewport, ZoomIn, ResetViewport and SetTileCount invalidate the running
// frame: every worker returns after at most one more pixel and a new frame
// starts from scratch. When a frame completes with no pending change the
// engine parks without using CPU until the next change.
//
// # Coordinate System
//
// Pixel (0, 0) maps to (Left, Top) of the viewport and pixel
// (Width, Height) to (Right, Bottom). Inverted viewports are legal and flip
// the image.
//
// # Colors
//
// Points that escape after n iterations are shaded (q, 0, q) with
// q = n / MaxIterations. Points that never escape are white.
package mandel

// Version information
const (
	// Version is the current version of the module.
	Version = "0.1.0"
)
