// Command mandelrender renders one Mandelbrot frame without a window and
// writes it to a file.
//
// The output format is chosen from the extension of -out: .png, .tif,
// .tiff, .bmp or .rgbf.zst for the lossless float raster.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/internal/config"
	"github.com/gogpu/mandel/internal/export"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "mandelrender:", err)
		os.Exit(1)
	}
}

// options are the flags of mandelrender beyond the shared engine ones.
type options struct {
	viewport   mandel.Viewport
	out        string
	scaleWidth int
	hud        bool
	timeout    time.Duration
}

func run(args []string, stderr io.Writer) error {
	cfg := config.Default()
	opts := options{viewport: mandel.DefaultViewport}

	fs := flag.NewFlagSet("mandelrender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.Register(fs)
	fs.Float64Var(&opts.viewport.Left, "left", opts.viewport.Left, "real part at the left edge")
	fs.Float64Var(&opts.viewport.Right, "right", opts.viewport.Right, "real part at the right edge")
	fs.Float64Var(&opts.viewport.Top, "top", opts.viewport.Top, "imaginary part at the top edge")
	fs.Float64Var(&opts.viewport.Bottom, "bottom", opts.viewport.Bottom, "imaginary part at the bottom edge")
	fs.StringVar(&opts.out, "out", "mandel.png", "output file")
	fs.IntVar(&opts.scaleWidth, "scale-width", 0, "rescale image output to this width (0 = raster size)")
	fs.BoolVar(&opts.hud, "hud", false, "draw frame telemetry on image output")
	fs.DurationVar(&opts.timeout, "timeout", time.Minute, "give up if the frame takes longer")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.Threads == 0 {
		cfg.Threads = min(runtime.GOMAXPROCS(0), cfg.MaxThreads)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := export.FormatFromPath(opts.out); err != nil {
		return err
	}
	mandel.SetLogger(config.NewLogger(stderr, cfg.LogLevel))

	return render(cfg, opts)
}

func render(cfg config.Config, opts options) error {
	engine, err := mandel.New(append(cfg.EngineOptions(), mandel.WithViewport(opts.viewport))...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- engine.Run(context.Background()) }()
	defer func() {
		engine.Close()
		<-runErr
	}()

	if err := engine.WaitSettled(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("frame not finished after %v", opts.timeout)
		}
		return err
	}

	r, _ := engine.LastFrame()
	var save export.Options
	save.Width = opts.scaleWidth
	if opts.hud {
		save.HUD = export.FormatTelemetry(r, engine.Width(), engine.Height())
	}
	if err := export.Save(opts.out, engine, save); err != nil {
		return err
	}

	mandel.Logger().Info("mandelrender: done",
		slog.String("out", opts.out),
		slog.Int("threads", r.Tiles),
		slog.Duration("elapsed", r.Elapsed))
	return nil
}
