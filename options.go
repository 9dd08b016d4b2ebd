package mandel

import "github.com/gogpu/mandel/internal/parallel"

// Default engine configuration.
const (
	// DefaultWidth is the default raster width in pixels.
	DefaultWidth = 960

	// DefaultHeight is the default raster height in pixels.
	DefaultHeight = 600

	// DefaultMaxTiles bounds the tile count and the number of live workers.
	DefaultMaxTiles = 100
)

// Remainder policies for rows left over when the height is not divisible
// by the tile count.
const (
	// RemainderDrop leaves the last H mod n rows uncovered by any tile.
	// They stay at the background color until a partition covers them.
	RemainderDrop = parallel.RemainderDrop

	// RemainderExtendLast gives the remainder rows to the last tile.
	RemainderExtendLast = parallel.RemainderExtendLast
)

// RemainderPolicy selects how remainder rows are handled.
type RemainderPolicy = parallel.Remainder

// EngineOption configures an Engine during creation.
//
// Example:
//
//	e, err := mandel.New(
//	    mandel.WithSize(1280, 800),
//	    mandel.WithTileCount(8),
//	    mandel.WithRemainder(mandel.RemainderExtendLast),
//	)
type EngineOption func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	width     int
	height    int
	maxTiles  int
	tiles     int
	maxIter   int
	evaluator Evaluator
	remainder RemainderPolicy
	viewport  Viewport
	onFrame   func(FrameReport)
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		width:     DefaultWidth,
		height:    DefaultHeight,
		tiles:     1,
		maxIter:   MaxIterations,
		remainder: RemainderDrop,
		viewport:  DefaultViewport,
	}
}

// WithSize sets the raster dimensions. The raster is allocated once and
// never resized.
func WithSize(width, height int) EngineOption {
	return func(o *engineOptions) {
		o.width = width
		o.height = height
	}
}

// WithMaxTiles sets the upper bound accepted by SetTileCount. It must not
// exceed the raster height. Zero selects DefaultMaxTiles, lowered to the
// height for short rasters.
func WithMaxTiles(n int) EngineOption {
	return func(o *engineOptions) {
		o.maxTiles = n
	}
}

// WithTileCount sets the initial tile count.
func WithTileCount(n int) EngineOption {
	return func(o *engineOptions) {
		o.tiles = n
	}
}

// WithMaxIterations sets the iteration cap of the default evaluator.
// It has no effect when WithEvaluator is used.
func WithMaxIterations(n int) EngineOption {
	return func(o *engineOptions) {
		o.maxIter = n
	}
}

// WithEvaluator replaces the escape-time evaluator.
func WithEvaluator(e Evaluator) EngineOption {
	return func(o *engineOptions) {
		o.evaluator = e
	}
}

// WithRemainder sets the remainder row policy.
func WithRemainder(p RemainderPolicy) EngineOption {
	return func(o *engineOptions) {
		o.remainder = p
	}
}

// WithViewport sets the initial viewport.
func WithViewport(v Viewport) EngineOption {
	return func(o *engineOptions) {
		o.viewport = v
	}
}

// WithFrameHook registers fn to receive a report for every completed,
// non-abandoned frame. fn runs on the driving goroutine before the engine
// parks and should return quickly.
func WithFrameHook(fn func(FrameReport)) EngineOption {
	return func(o *engineOptions) {
		o.onFrame = fn
	}
}
