package parallel

import (
	"strconv"
	"testing"
)

func BenchmarkDispatcher_Dispatch_960x600(b *testing.B) {
	for _, tiles := range []int{1, 4, 16} {
		b.Run(strconv.Itoa(tiles), func(b *testing.B) {
			d := NewDispatcher(NewRaster(960, 600), NewDirtyRegion(600))
			pool := NewWorkerPool(tiles)
			defer pool.Close()
			grid := NewTileGrid(600, tiles, RemainderExtendLast)
			job := Job{Shade: gradient, Stale: never}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				d.Dispatch(pool, grid, job)
			}
		})
	}
}

func BenchmarkDispatcher_Clear_960x600(b *testing.B) {
	d := NewDispatcher(NewRaster(960, 600), NewDirtyRegion(600))
	pool := NewWorkerPool(8)
	defer pool.Close()
	grid := NewTileGrid(600, 8, RemainderDrop)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Clear(pool, grid)
	}
}

func BenchmarkCopyRGBA_960x600(b *testing.B) {
	raster := NewRaster(960, 600)
	grid := NewTileGrid(600, 8, RemainderDrop)
	dst := make([]byte, 960*600*4)

	b.SetBytes(int64(len(dst)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CopyRGBA(raster, grid, dst, 960*4)
	}
}

func BenchmarkDirtyRegion_GetAndClear_600(b *testing.B) {
	dr := NewDirtyRegion(600)
	for i := 0; i < b.N; i++ {
		dr.MarkAll()
		_ = dr.GetAndClear()
	}
}
