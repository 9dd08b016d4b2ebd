// Command mandelview is an interactive Mandelbrot viewer.
//
// Left click zooms into the box around the cursor, right click resets the
// view. Up and Down change the number of worker threads by one, digits set
// it directly (times ten with Shift). S saves a screenshot, Esc quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mandelview:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	cfg.Register(flag.CommandLine)
	shotDir := flag.String("shot-dir", ".", "directory for screenshots")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return err
	}
	mandel.SetLogger(cfg.Logger())

	if err := cfg.ResolveThreads(os.Stdin, os.Stdout); err != nil {
		return err
	}
	fmt.Println("Please wait...")

	engine, err := mandel.New(cfg.EngineOptions()...)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, mandel.ErrClosed) {
			mandel.Logger().Error("mandelview: engine stopped", slog.Any("error", err))
		}
	}()

	game := newGame(engine, *shotDir)
	context.AfterFunc(ctx, game.quit)

	ebiten.SetWindowSize(engine.Width(), engine.Height())
	ebiten.SetWindowTitle("Mandelbrot")
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("window: %w", err)
	}

	fmt.Println("Done.")
	return nil
}
