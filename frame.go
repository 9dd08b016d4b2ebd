package mandel

import (
	"time"

	"github.com/google/uuid"
)

// FrameReport describes one completed frame.
type FrameReport struct {
	// Generation counts frames started by the engine, including abandoned
	// ones. It is strictly increasing.
	Generation uint64

	// ID uniquely identifies the frame across engines and runs.
	ID uuid.UUID

	// Viewport is the viewport the frame was computed for.
	Viewport Viewport

	// Tiles is the tile count of the frame.
	Tiles int

	// SliceHeight is the nominal tile height in rows.
	SliceHeight int

	// Elapsed is the wall-clock time from frame start to worker join.
	Elapsed time.Duration

	// Faults is the number of tiles that panicked. Their unwritten rows keep
	// the background color.
	Faults int

	// CompletedTiles is the number of tiles that computed every row.
	CompletedTiles int
}

// Stats holds cumulative engine counters.
type Stats struct {
	// Frames is the number of completed frames.
	Frames uint64

	// Abandoned is the number of frames cut short by an invalidation.
	Abandoned uint64

	// Faults is the number of recovered worker panics.
	Faults uint64
}
