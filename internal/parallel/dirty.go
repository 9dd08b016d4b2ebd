package parallel

import (
	"math/bits"
	"sync/atomic"
)

// DirtyRegion tracks which raster rows changed using an atomic bitmap.
// It provides lock-free, thread-safe operations for concurrent access.
//
// The bitmap uses one bit per row, packed into uint64 words (64 rows per
// word). Workers mark rows as they finish them and the frame clear marks
// every row; the presentation reader drains the set to copy only changed
// rows.
type DirtyRegion struct {
	// words is the atomic bitmap where each bit represents a row.
	// Word index = row / 64, bit position = row % 64.
	words []atomic.Uint64

	// size is the number of tracked rows.
	size int
}

// NewDirtyRegion creates a tracker for size rows. All rows start clean.
// Returns nil if size is not positive.
func NewDirtyRegion(size int) *DirtyRegion {
	if size <= 0 {
		return nil
	}
	return &DirtyRegion{
		words: make([]atomic.Uint64, (size+63)/64),
		size:  size,
	}
}

// Mark marks row i as dirty. Out-of-range rows are ignored.
func (d *DirtyRegion) Mark(i int) {
	if i < 0 || i >= d.size {
		return
	}
	d.words[i/64].Or(1 << (i & 63))
}

// MarkRange marks rows [start, end) as dirty.
func (d *DirtyRegion) MarkRange(start, end int) {
	start = max(start, 0)
	end = min(end, d.size)
	for i := start; i < end; i++ {
		d.Mark(i)
	}
}

// MarkAll marks every row as dirty.
func (d *DirtyRegion) MarkAll() {
	full := d.size / 64
	remainder := d.size % 64

	for i := 0; i < full; i++ {
		d.words[i].Store(^uint64(0))
	}
	if remainder > 0 {
		d.words[full].Store((uint64(1) << remainder) - 1)
	}
}

// Clear marks every row as clean.
func (d *DirtyRegion) Clear() {
	for i := range d.words {
		d.words[i].Store(0)
	}
}

// IsDirty returns true if row i is dirty. Returns false when out of range.
func (d *DirtyRegion) IsDirty(i int) bool {
	if i < 0 || i >= d.size {
		return false
	}
	return d.words[i/64].Load()&(1<<(i&63)) != 0
}

// IsEmpty returns true if no row is dirty.
func (d *DirtyRegion) IsEmpty() bool {
	for i := range d.words {
		if d.words[i].Load() != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of dirty rows.
func (d *DirtyRegion) Count() int {
	count := 0
	for i := range d.words {
		count += bits.OnesCount64(d.words[i].Load())
	}
	return count
}

// GetAndClear atomically retrieves the dirty rows in ascending order and
// clears them. A row marked concurrently is either returned now or left
// for the next call, never lost.
func (d *DirtyRegion) GetAndClear() []int {
	var dirty []int
	for wi := range d.words {
		word := d.words[wi].Swap(0)
		for word != 0 {
			b := bits.TrailingZeros64(word)
			dirty = append(dirty, wi*64+b)
			word &^= 1 << b
		}
	}
	return dirty
}

// ForEachDirty calls fn for each dirty row without clearing the flags.
func (d *DirtyRegion) ForEachDirty(fn func(i int)) {
	if fn == nil {
		return
	}
	for wi := range d.words {
		word := d.words[wi].Load()
		for word != 0 {
			b := bits.TrailingZeros64(word)
			fn(wi*64 + b)
			word &^= 1 << b
		}
	}
}

// Size returns the number of tracked rows.
func (d *DirtyRegion) Size() int {
	return d.size
}
