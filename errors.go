package mandel

import "errors"

// Engine errors.
var (
	// ErrInvalidTileCount is returned when a tile count is outside
	// [1, MaxTiles]. The engine state is left unchanged.
	ErrInvalidTileCount = errors.New("mandel: invalid tile count")

	// ErrInvalidSize is returned when the raster size or the tile limit
	// cannot form a valid partition.
	ErrInvalidSize = errors.New("mandel: invalid raster size")

	// ErrClosed is returned by operations on a closed Engine.
	ErrClosed = errors.New("mandel: engine closed")

	// ErrRunning is returned when Run is called while the driving loop is
	// already running.
	ErrRunning = errors.New("mandel: engine already running")
)
