// Package parallel provides the tile-partitioned compute infrastructure for
// the Mandelbrot engine.
//
// The raster is divided into horizontal bands ("tiles") of whole rows. Each
// band is computed by one worker and owns the mutex that guards every pixel
// in its row range. Key pieces:
//
//   - Raster: the shared pixel store, fixed size, overwritten in place
//   - TileGrid: partition of the raster height into bands
//   - WorkerPool: long-lived goroutines that run one band each per frame
//   - Dispatcher: clears the raster and runs a frame across the pool
//   - DirtyRegion: lock-free bitmap of rows changed since the last read
//
// Thread safety: Raster has no locking of its own. Writers and readers must
// hold the lock returned by TileGrid.LockFor for the row they touch.
package parallel

import "sync"

// Tile is a contiguous band of raster rows [StartRow, EndRow).
//
// The embedded mutex guards all pixels in the band. Workers hold it only for
// the store of a single pixel; readers hold it while copying the band.
type Tile struct {
	// Index is the band position in the grid (0-based, top to bottom).
	Index int

	// StartRow is the first row covered by the band.
	StartRow int

	// EndRow is one past the last row covered by the band.
	EndRow int

	mu sync.Mutex
}

// Rows returns the number of rows in the band.
func (t *Tile) Rows() int {
	return t.EndRow - t.StartRow
}

// Contains returns true if row y belongs to this band.
func (t *Tile) Contains(y int) bool {
	return y >= t.StartRow && y < t.EndRow
}

// Lock acquires the band lock.
func (t *Tile) Lock() { t.mu.Lock() }

// Unlock releases the band lock.
func (t *Tile) Unlock() { t.mu.Unlock() }
