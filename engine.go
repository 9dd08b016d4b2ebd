package mandel

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/mandel/internal/parallel"
)

// Engine computes the escape-time raster of a viewport with a variable
// number of parallel tiles.
//
// A single driving goroutine (Run) repeatedly clears the raster, dispatches
// one worker per tile and joins them. When a frame completes with no pending
// change the loop parks until SetViewport, SetTileCount or Close wakes it.
// A change while a frame is running makes every worker return after at most
// one more pixel, and a fresh frame starts.
//
// Snapshot, SnapshotDirty and At may be called from any goroutine while the
// loop runs. Each tile is copied under its lock, so a copied pixel is never
// torn, but a snapshot may mix rows of an older frame with rows of the
// current one.
//
// Engine implements io.Closer.
type Engine struct {
	width     int
	height    int
	maxTiles  int
	eval      Evaluator
	remainder RemainderPolicy
	onFrame   func(FrameReport)

	gate *gate

	vpMu     sync.Mutex
	viewport Viewport

	// partMu guards the requested tile count and its slice height.
	partMu sync.Mutex
	tiles  int
	slice  int

	// gridMu excludes snapshot readers while the loop swaps the grid.
	// The grid is only replaced between frames.
	gridMu sync.RWMutex
	grid   *parallel.TileGrid

	// pool is owned by the driving goroutine.
	pool *parallel.WorkerPool

	raster   *parallel.Raster
	dirty    *parallel.DirtyRegion
	dispatch *parallel.Dispatcher

	generation atomic.Uint64
	frames     atomic.Uint64
	abandoned  atomic.Uint64
	faults     atomic.Uint64

	lastMu  sync.Mutex
	last    FrameReport
	hasLast bool

	runMu   sync.Mutex
	running bool
	closed  bool
	loopEnd chan struct{}
}

// Ensure Engine implements io.Closer
var _ io.Closer = (*Engine)(nil)

// New creates an engine. The raster is allocated immediately and stays at
// the background color until Run computes the first frame.
//
// New returns ErrInvalidSize if the raster is empty or MaxTiles cannot
// partition its height, and ErrInvalidTileCount if the initial tile count
// is outside [1, MaxTiles].
func New(opts ...EngineOption) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.width, o.height)
	}
	if o.maxTiles == 0 {
		o.maxTiles = min(DefaultMaxTiles, o.height)
	}
	if o.maxTiles < 1 || o.maxTiles > o.height {
		return nil, fmt.Errorf("%w: max tiles %d for height %d", ErrInvalidSize, o.maxTiles, o.height)
	}
	if o.tiles < 1 || o.tiles > o.maxTiles {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidTileCount, o.tiles, o.maxTiles)
	}

	eval := o.evaluator
	if eval == nil {
		eval = EscapeEvaluator{MaxIter: o.maxIter}
	}

	raster := parallel.NewRaster(o.width, o.height)
	dirty := parallel.NewDirtyRegion(o.height)

	return &Engine{
		width:     o.width,
		height:    o.height,
		maxTiles:  o.maxTiles,
		eval:      eval,
		remainder: o.remainder,
		onFrame:   o.onFrame,
		gate:      newGate(),
		viewport:  o.viewport,
		tiles:     o.tiles,
		slice:     o.height / o.tiles,
		grid:      parallel.NewTileGrid(o.height, o.tiles, o.remainder),
		raster:    raster,
		dirty:     dirty,
		dispatch:  parallel.NewDispatcher(raster, dirty),
	}, nil
}

// Width returns the raster width in pixels.
func (e *Engine) Width() int { return e.width }

// Height returns the raster height in pixels.
func (e *Engine) Height() int { return e.height }

// MaxTiles returns the largest accepted tile count.
func (e *Engine) MaxTiles() int { return e.maxTiles }

// Remainder returns the remainder row policy.
func (e *Engine) Remainder() RemainderPolicy { return e.remainder }

// State returns the phase of the driving loop.
func (e *Engine) State() State { return e.gate.State() }

// Run drives frames until Close is called or ctx is done, then stops the
// workers and returns. Run returns ctx.Err() when stopped by ctx, nil when
// stopped by Close, ErrClosed if the engine is already closed and
// ErrRunning if another Run is active.
//
// Cancelling ctx closes the engine.
func (e *Engine) Run(ctx context.Context) error {
	e.runMu.Lock()
	switch {
	case e.closed:
		e.runMu.Unlock()
		return ErrClosed
	case e.running:
		e.runMu.Unlock()
		return ErrRunning
	}
	e.running = true
	e.loopEnd = make(chan struct{})
	loopEnd := e.loopEnd
	e.runMu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = e.Close() })
	defer stop()

	func() {
		defer close(loopEnd)
		defer e.closePool()
		e.loop()
	}()

	return ctx.Err()
}

// Close stops the driving loop and waits for it and every worker to
// return. Close is idempotent and safe to call from any goroutine other
// than a frame hook.
func (e *Engine) Close() error {
	e.runMu.Lock()
	e.closed = true
	loopEnd := e.loopEnd
	e.runMu.Unlock()

	e.gate.shutdown()
	if loopEnd != nil {
		<-loopEnd
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.closed
}

// loop is the driving loop.
func (e *Engine) loop() {
	for e.gate.begin() {
		if !e.runFrame() {
			continue
		}
		if !e.gate.park() {
			return
		}
	}
}

// runFrame computes one frame. It returns false if the frame was
// invalidated before it completed.
func (e *Engine) runFrame() bool {
	log := Logger()

	vp := e.Viewport()
	tiles, slice := e.partition()
	grid := e.prepare(tiles)
	gen := e.generation.Add(1)

	log.Debug("mandel: frame start",
		slog.Uint64("generation", gen),
		slog.Int("tiles", tiles),
		slog.Int("slice", slice))

	start := time.Now()
	e.dispatch.Clear(e.pool, grid)
	res := e.dispatch.Dispatch(e.pool, grid, parallel.Job{
		Shade: e.shader(vp),
		Stale: e.gate.Stale,
	})
	elapsed := time.Since(start)

	for _, f := range res.Faults {
		e.faults.Add(1)
		log.Error("mandel: worker fault",
			slog.Uint64("generation", gen),
			slog.Int("tile", f.Tile),
			slog.Int("row", f.Row),
			slog.Any("value", f.Value))
	}

	if res.Abandoned > 0 || e.gate.Stale() {
		e.abandoned.Add(1)
		log.Debug("mandel: frame abandoned",
			slog.Uint64("generation", gen),
			slog.Int("abandoned_tiles", res.Abandoned),
			slog.Duration("elapsed", elapsed))
		return false
	}

	report := FrameReport{
		Generation:     gen,
		ID:             uuid.New(),
		Viewport:       vp,
		Tiles:          tiles,
		SliceHeight:    slice,
		Elapsed:        elapsed,
		Faults:         len(res.Faults),
		CompletedTiles: res.Completed,
	}

	e.lastMu.Lock()
	e.last, e.hasLast = report, true
	e.lastMu.Unlock()
	e.frames.Add(1)

	log.Info("mandel: frame done",
		slog.Uint64("generation", gen),
		slog.Int("tiles", tiles),
		slog.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000),
		slog.Int("faults", report.Faults))

	if e.onFrame != nil {
		e.onFrame(report)
	}
	return true
}

// prepare makes the grid and the pool match tiles. Runs between frames, so
// no worker holds the old grid.
func (e *Engine) prepare(tiles int) *parallel.TileGrid {
	e.gridMu.Lock()
	if e.grid.TileCount() != tiles {
		e.grid = parallel.NewTileGrid(e.height, tiles, e.remainder)
		Logger().Debug("mandel: partition rebuilt",
			slog.Int("tiles", tiles),
			slog.Int("slice", e.grid.SliceHeight()))
	}
	grid := e.grid
	e.gridMu.Unlock()

	if e.pool == nil || e.pool.Workers() != tiles {
		e.closePool()
		e.pool = parallel.NewWorkerPool(tiles, parallel.WithFaultHandler(func(v any) {
			e.faults.Add(1)
			Logger().Error("mandel: worker fault", slog.Any("value", v))
		}))
	}
	return grid
}

func (e *Engine) closePool() {
	if e.pool != nil {
		e.pool.Close()
		e.pool = nil
	}
}

// shader returns the per-pixel function of a frame. vp is captured by
// value; workers never re-read the viewport.
func (e *Engine) shader(vp Viewport) func(x, y int) RGB {
	w, h, eval := e.width, e.height, e.eval
	return func(x, y int) RGB {
		return eval.Evaluate(vp.PixelToPlane(float64(x), float64(y), w, h))
	}
}

// ============================================================================
// Viewport
// ============================================================================

// Viewport returns the current viewport.
func (e *Engine) Viewport() Viewport {
	e.vpMu.Lock()
	defer e.vpMu.Unlock()
	return e.viewport
}

// SetViewport replaces the viewport and invalidates the running frame.
func (e *Engine) SetViewport(v Viewport) error {
	if e.isClosed() {
		return ErrClosed
	}
	e.vpMu.Lock()
	e.viewport = v
	e.vpMu.Unlock()

	Logger().Debug("mandel: viewport set",
		slog.Float64("left", v.Left),
		slog.Float64("right", v.Right),
		slog.Float64("top", v.Top),
		slog.Float64("bottom", v.Bottom))
	e.gate.Raise()
	return nil
}

// ResetViewport restores DefaultViewport.
func (e *Engine) ResetViewport() error {
	return e.SetViewport(DefaultViewport)
}

// ZoomIn sets the viewport to the screen rectangle with corners (x0, y0)
// and (x1, y1), in raster pixels of the current viewport.
func (e *Engine) ZoomIn(x0, y0, x1, y1 float64) error {
	if e.isClosed() {
		return ErrClosed
	}
	e.vpMu.Lock()
	v := e.viewport.Sub(x0, y0, x1, y1, e.width, e.height)
	e.vpMu.Unlock()
	return e.SetViewport(v)
}

// ZoomAt zooms into the cursor box centered on raster pixel (px, py).
func (e *Engine) ZoomAt(px, py float64) error {
	hw := float64(e.width) * CursorBoxScale
	hh := float64(e.height) * CursorBoxScale
	return e.ZoomIn(px-hw, py-hh, px+hw, py+hh)
}

// ============================================================================
// Parallelism
// ============================================================================

// TileCount returns the requested tile count. It may differ from the count
// of the running frame until the next frame starts.
func (e *Engine) TileCount() int {
	tiles, _ := e.partition()
	return tiles
}

func (e *Engine) partition() (tiles, slice int) {
	e.partMu.Lock()
	defer e.partMu.Unlock()
	return e.tiles, e.slice
}

// SetTileCount changes the number of tiles and invalidates the running
// frame. It returns the effective tile count: n on success, the unchanged
// count on error.
//
// Counts outside [1, MaxTiles] are rejected with ErrInvalidTileCount.
func (e *Engine) SetTileCount(n int) (int, error) {
	if e.isClosed() {
		return e.TileCount(), ErrClosed
	}
	if n < 1 || n > e.maxTiles {
		cur := e.TileCount()
		Logger().Warn("mandel: tile count rejected",
			slog.Int("requested", n),
			slog.Int("max", e.maxTiles),
			slog.Int("current", cur))
		return cur, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidTileCount, n, e.maxTiles)
	}

	e.partMu.Lock()
	e.tiles = n
	e.slice = e.height / n
	e.partMu.Unlock()

	Logger().Info("mandel: tile count set", slog.Int("tiles", n), slog.Int("slice", e.height/n))
	e.gate.Raise()
	return n, nil
}

// ============================================================================
// Snapshots
// ============================================================================

// Snapshot copies the whole raster into dst as 8-bit RGBA, locking each
// tile while copying its rows. dst must be at least Width x Height.
func (e *Engine) Snapshot(dst *image.RGBA) error {
	pix, err := e.target(dst)
	if err != nil {
		return err
	}

	e.gridMu.RLock()
	defer e.gridMu.RUnlock()
	parallel.CopyRGBA(e.raster, e.grid, pix, dst.Stride)
	return nil
}

// SnapshotDirty copies into dst only the rows changed since the previous
// call and returns them in ascending order. dst must hold the result of the
// previous calls; the first call after New returns every row written so far.
//
// SnapshotDirty supports a single reader.
func (e *Engine) SnapshotDirty(dst *image.RGBA) ([]int, error) {
	pix, err := e.target(dst)
	if err != nil {
		return nil, err
	}

	rows := e.dirty.GetAndClear()
	if len(rows) == 0 {
		return nil, nil
	}

	e.gridMu.RLock()
	defer e.gridMu.RUnlock()
	parallel.CopyRowsRGBA(e.raster, e.grid, pix, dst.Stride, rows)
	return rows, nil
}

// Image returns a new image holding a snapshot of the raster.
func (e *Engine) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
	_ = e.Snapshot(img)
	return img
}

func (e *Engine) target(dst *image.RGBA) ([]byte, error) {
	if dst == nil {
		return nil, fmt.Errorf("%w: nil destination", ErrInvalidSize)
	}
	b := dst.Bounds()
	if b.Dx() < e.width || b.Dy() < e.height {
		return nil, fmt.Errorf("%w: destination %dx%d smaller than %dx%d",
			ErrInvalidSize, b.Dx(), b.Dy(), e.width, e.height)
	}
	return dst.Pix[dst.PixOffset(b.Min.X, b.Min.Y):], nil
}

// At returns the pixel at (x, y) under the lock of its tile. Out-of-range
// coordinates return the background color.
func (e *Engine) At(x, y int) RGB {
	e.gridMu.RLock()
	defer e.gridMu.RUnlock()

	l := e.grid.LockFor(y)
	l.Lock()
	defer l.Unlock()
	return e.raster.At(x, y)
}

// ============================================================================
// Telemetry
// ============================================================================

// LastFrame returns the report of the most recent completed frame.
// ok is false until a frame completes.
func (e *Engine) LastFrame() (r FrameReport, ok bool) {
	e.lastMu.Lock()
	defer e.lastMu.Unlock()
	return e.last, e.hasLast
}

// Stats returns cumulative counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Frames:    e.frames.Load(),
		Abandoned: e.abandoned.Load(),
		Faults:    e.faults.Load(),
	}
}

// WaitSettled blocks until the engine has completed a frame with no pending
// change. It returns ctx.Err() if ctx is done first and ErrClosed if the
// engine is closed.
func (e *Engine) WaitSettled(ctx context.Context) error {
	ch := e.gate.settledCh()
	if ch == nil {
		return ErrClosed
	}
	select {
	case <-ch:
		return nil
	case <-e.gate.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
