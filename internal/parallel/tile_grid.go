package parallel

import "sync"

// Remainder selects what happens to the last H mod n rows when the raster
// height is not divisible by the tile count.
type Remainder int

const (
	// RemainderDrop leaves the remainder rows outside every band. They are
	// cleared at frame start but never computed.
	RemainderDrop Remainder = iota

	// RemainderExtendLast assigns the remainder rows to the last band.
	RemainderExtendLast
)

// String returns the policy name.
func (r Remainder) String() string {
	switch r {
	case RemainderDrop:
		return "drop"
	case RemainderExtendLast:
		return "extend-last"
	default:
		return "unknown"
	}
}

// TileGrid partitions the raster height into equal horizontal bands.
//
// Band i covers rows [i*slice, (i+1)*slice) where slice = height / count.
// A grid is immutable once built; a tile count change builds a new grid.
//
// Thread safety: the partition is read-only. Band locks are used
// concurrently by workers and readers.
type TileGrid struct {
	// tiles holds the bands in row order.
	tiles []*Tile

	// height is the raster height in pixels.
	height int

	// slice is the nominal band height (height / len(tiles)).
	slice int

	// covered is one past the last row owned by a band.
	covered int

	// spare guards the uncovered remainder rows.
	spare sync.Mutex

	policy Remainder
}

// NewTileGrid creates a grid of count bands over height rows.
// Returns nil if height or count is not positive or count exceeds height.
func NewTileGrid(height, count int, policy Remainder) *TileGrid {
	if height <= 0 || count <= 0 || count > height {
		return nil
	}

	slice := height / count
	g := &TileGrid{
		tiles:  make([]*Tile, count),
		height: height,
		slice:  slice,
		policy: policy,
	}

	for i := range count {
		g.tiles[i] = &Tile{
			Index:    i,
			StartRow: i * slice,
			EndRow:   (i + 1) * slice,
		}
	}
	if policy == RemainderExtendLast {
		g.tiles[count-1].EndRow = height
	}
	g.covered = g.tiles[count-1].EndRow

	return g
}

// TileCount returns the number of bands.
func (g *TileGrid) TileCount() int {
	return len(g.tiles)
}

// SliceHeight returns the nominal band height.
func (g *TileGrid) SliceHeight() int {
	return g.slice
}

// Height returns the raster height the grid was built for.
func (g *TileGrid) Height() int {
	return g.height
}

// Policy returns the remainder policy of the grid.
func (g *TileGrid) Policy() Remainder {
	return g.policy
}

// Tile returns band i, or nil if i is out of range.
func (g *TileGrid) Tile(i int) *Tile {
	if i < 0 || i >= len(g.tiles) {
		return nil
	}
	return g.tiles[i]
}

// AllTiles returns all bands. The returned slice should not be modified.
func (g *TileGrid) AllTiles() []*Tile {
	return g.tiles
}

// TileForRow returns the band owning row y, or nil if the row is uncovered
// or out of range.
func (g *TileGrid) TileForRow(y int) *Tile {
	if y < 0 || y >= g.covered {
		return nil
	}
	i := y / g.slice
	if i >= len(g.tiles) {
		i = len(g.tiles) - 1
	}
	return g.tiles[i]
}

// Uncovered returns the row range [start, end) not owned by any band.
// start == end when every row is covered.
func (g *TileGrid) Uncovered() (start, end int) {
	return g.covered, g.height
}

// LockFor returns the lock guarding row y: the owning band's lock, or the
// grid's spare lock for uncovered rows.
func (g *TileGrid) LockFor(y int) sync.Locker {
	if t := g.TileForRow(y); t != nil {
		return t
	}
	return &g.spare
}

// ForEach calls fn for each band in row order.
func (g *TileGrid) ForEach(fn func(t *Tile)) {
	for _, t := range g.tiles {
		fn(t)
	}
}
