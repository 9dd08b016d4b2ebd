package main

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/internal/export"
)

var cursorColor = color.RGBA{R: 255, A: 255}

var digitKeys = [...]ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// game presents the engine's raster in a window and turns input into
// engine calls. ebiten calls Update and Draw on one goroutine.
type game struct {
	engine  *mandel.Engine
	shotDir string

	// frame mirrors the raster; only dirty rows are copied into it.
	frame  *image.RGBA
	canvas *ebiten.Image

	// message is the result of the last user action.
	message string

	done atomic.Bool
}

func newGame(e *mandel.Engine, shotDir string) *game {
	w, h := e.Width(), e.Height()
	return &game{
		engine:  e,
		shotDir: shotDir,
		frame:   image.NewRGBA(image.Rect(0, 0, w, h)),
		canvas:  ebiten.NewImage(w, h),
		message: fmt.Sprintf("threads: %d", e.TileCount()),
	}
}

// quit makes the next Update end the game.
func (g *game) quit() {
	g.done.Store(true)
}

func (g *game) Update() error {
	if g.done.Load() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		x, y := ebiten.CursorPosition()
		g.report("zoom", g.engine.ZoomAt(float64(x), float64(y)))
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight):
		g.report("reset", g.engine.ResetViewport())
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		g.setThreads(g.engine.TileCount() + 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		g.setThreads(g.engine.TileCount() - 1)
	}
	for i, k := range digitKeys {
		if inpututil.IsKeyJustPressed(k) {
			g.setThreads(digitThreads(i+1, ebiten.IsKeyPressed(ebiten.KeyShift)))
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.screenshot()
	}
	return nil
}

// digitThreads maps a digit key to a thread count.
func digitThreads(d int, shift bool) int {
	if shift {
		return d * 10
	}
	return d
}

func (g *game) setThreads(n int) {
	got, err := g.engine.SetTileCount(n)
	if err != nil {
		g.message = fmt.Sprintf("threads: %d (%v)", got, err)
		return
	}
	g.message = fmt.Sprintf("threads: %d", got)
}

func (g *game) report(action string, err error) {
	if err != nil {
		g.message = fmt.Sprintf("%s: %v", action, err)
	}
}

func (g *game) screenshot() {
	r, ok := g.engine.LastFrame()
	if !ok {
		g.message = "screenshot: no frame yet"
		return
	}
	path := filepath.Join(g.shotDir, export.ShotName(r, ".png"))
	hud := export.FormatTelemetry(r, g.engine.Width(), g.engine.Height())
	if err := export.Save(path, g.engine, export.Options{HUD: hud}); err != nil {
		mandel.Logger().Error("mandelview: screenshot failed", slog.Any("error", err))
		g.message = fmt.Sprintf("screenshot: %v", err)
		return
	}
	g.message = "saved " + path
}

func (g *game) Draw(screen *ebiten.Image) {
	rows, err := g.engine.SnapshotDirty(g.frame)
	if err == nil && len(rows) > 0 {
		g.canvas.WritePixels(g.frame.Pix)
	}
	screen.DrawImage(g.canvas, &ebiten.DrawImageOptions{})

	x, y := ebiten.CursorPosition()
	hw := float32(g.engine.Width()) * mandel.CursorBoxScale
	hh := float32(g.engine.Height()) * mandel.CursorBoxScale
	vector.StrokeRect(screen, float32(x)-hw, float32(y)-hh, 2*hw, 2*hh, 1, cursorColor, false)

	ebitenutil.DebugPrint(screen, g.status())
}

func (g *game) status() string {
	lines := []string{g.message, "state: " + g.engine.State().String()}
	if r, ok := g.engine.LastFrame(); ok {
		lines = append(lines, export.FormatTelemetry(r, g.engine.Width(), g.engine.Height())[1:]...)
	}
	return strings.Join(lines, "\n")
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.engine.Width(), g.engine.Height()
}
