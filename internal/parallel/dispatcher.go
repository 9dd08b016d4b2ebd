package parallel

import (
	"fmt"
	"sync"
)

// Job describes the work of one frame.
type Job struct {
	// Shade computes the pixel at (x, y). It is called concurrently from
	// every band and must not touch shared state.
	Shade func(x, y int) Pixel

	// Stale reports whether the frame has been invalidated. Workers poll it
	// before every pixel, so an invalidated band stops after at most one
	// more pixel evaluation.
	Stale func() bool
}

// Fault records a panic recovered from a band.
type Fault struct {
	// Tile is the index of the band that failed.
	Tile int

	// Row is the row being computed when the panic happened.
	Row int

	// Value is the recovered panic value.
	Value any
}

// Error implements the error interface.
func (f Fault) Error() string {
	return fmt.Sprintf("parallel: tile %d faulted at row %d: %v", f.Tile, f.Row, f.Value)
}

// FrameResult summarizes a dispatched frame after all bands joined.
type FrameResult struct {
	// Completed is the number of bands that computed every row.
	Completed int

	// Abandoned is the number of bands that stopped on invalidation.
	Abandoned int

	// Faults lists bands that panicked. Their remaining rows stay unwritten.
	Faults []Fault
}

// tileResult is written by exactly one worker and read after the join.
type tileResult struct {
	completed bool
	abandoned bool
	fault     *Fault
}

// Dispatcher runs frames over a raster using a WorkerPool.
//
// Thread safety: Clear and Dispatch must not run concurrently with each
// other; they are called from the single driving goroutine. Readers may
// access the raster at any time under the grid's locks.
type Dispatcher struct {
	raster *Raster
	dirty  *DirtyRegion
}

// NewDispatcher creates a dispatcher writing into raster and marking changed
// rows in dirty. dirty may be nil.
func NewDispatcher(raster *Raster, dirty *DirtyRegion) *Dispatcher {
	return &Dispatcher{raster: raster, dirty: dirty}
}

// Raster returns the pixel store.
func (d *Dispatcher) Raster() *Raster {
	return d.raster
}

// Clear zeroes the whole raster in parallel, each band under its own lock.
// Uncovered remainder rows are cleared under the grid's spare lock.
func (d *Dispatcher) Clear(pool *WorkerPool, grid *TileGrid) {
	tiles := grid.AllTiles()

	work := make([]func(), len(tiles))
	for i, tile := range tiles {
		t := tile
		work[i] = func() {
			t.Lock()
			defer t.Unlock()
			d.raster.ClearRows(t.StartRow, t.EndRow)
		}
	}
	pool.ExecuteAll(work)

	if start, end := grid.Uncovered(); start < end {
		l := grid.LockFor(start)
		l.Lock()
		d.raster.ClearRows(start, end)
		l.Unlock()
	}

	d.markAll()
}

// Dispatch runs job over every band of grid and blocks until all bands have
// returned, whether they completed, stopped on invalidation or faulted.
func (d *Dispatcher) Dispatch(pool *WorkerPool, grid *TileGrid, job Job) FrameResult {
	tiles := grid.AllTiles()
	results := make([]tileResult, len(tiles))

	work := make([]func(), len(tiles))
	for i, tile := range tiles {
		t := tile
		r := &results[i]
		work[i] = func() {
			d.runTile(t, job, r)
		}
	}
	pool.ExecuteAll(work)

	var res FrameResult
	for i := range results {
		switch r := &results[i]; {
		case r.fault != nil:
			res.Faults = append(res.Faults, *r.fault)
		case r.abandoned:
			res.Abandoned++
		case r.completed:
			res.Completed++
		}
	}
	return res
}

// runTile computes one band top to bottom.
func (d *Dispatcher) runTile(t *Tile, job Job, res *tileResult) {
	width := d.raster.Width()
	row, partial := t.StartRow, false

	defer func() {
		if partial {
			d.mark(row)
		}
		if v := recover(); v != nil {
			res.fault = &Fault{Tile: t.Index, Row: row, Value: v}
		}
	}()

	for ; row < t.EndRow; row++ {
		for x := 0; x < width; x++ {
			if job.Stale() {
				res.abandoned = true
				return
			}
			p := job.Shade(x, row)
			d.store(t, x, row, p)
			partial = true
		}
		d.mark(row)
		partial = false
	}
	res.completed = true
}

// store writes one pixel under the band lock.
func (d *Dispatcher) store(t *Tile, x, y int, p Pixel) {
	t.Lock()
	defer t.Unlock()
	d.raster.Set(x, y, p)
}

func (d *Dispatcher) mark(y int) {
	if d.dirty != nil {
		d.dirty.Mark(y)
	}
}

func (d *Dispatcher) markAll() {
	if d.dirty != nil {
		d.dirty.MarkAll()
	}
}

// CopyRGBA copies the whole raster into dst (8-bit RGBA, stride bytes per
// row), holding each band's lock while copying its rows.
func CopyRGBA(raster *Raster, grid *TileGrid, dst []byte, stride int) {
	for _, t := range grid.AllTiles() {
		t.Lock()
		raster.CopyRowsRGBA(dst, stride, t.StartRow, t.EndRow)
		t.Unlock()
	}
	if start, end := grid.Uncovered(); start < end {
		copyLocked(grid.LockFor(start), raster, dst, stride, start, end)
	}
}

// CopyRowsRGBA copies only the listed rows into dst, each under the lock
// that guards it.
func CopyRowsRGBA(raster *Raster, grid *TileGrid, dst []byte, stride int, rows []int) {
	for _, y := range rows {
		copyLocked(grid.LockFor(y), raster, dst, stride, y, y+1)
	}
}

func copyLocked(l sync.Locker, raster *Raster, dst []byte, stride, start, end int) {
	l.Lock()
	defer l.Unlock()
	raster.CopyRowsRGBA(dst, stride, start, end)
}
