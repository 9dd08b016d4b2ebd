// Package config holds the command-line configuration shared by the
// mandel commands.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/mandel"
)

// Config errors.
var (
	// ErrInvalid is wrapped by every validation error.
	ErrInvalid = errors.New("config: invalid value")

	// ErrNoInput is returned by PromptTiles when the input ends before a
	// valid tile count was read.
	ErrNoInput = errors.New("config: no valid tile count read")
)

// Config is the engine configuration of a command.
type Config struct {
	Threads        int
	Width          int
	Height         int
	MaxThreads     int
	Iterations     int
	CoverRemainder bool
	LogLevel       string
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Width:          mandel.DefaultWidth,
		Height:         mandel.DefaultHeight,
		MaxThreads:     mandel.DefaultMaxTiles,
		Iterations:     mandel.MaxIterations,
		CoverRemainder: true,
		LogLevel:       "info",
	}
}

// Register binds the configuration to flags of fs. Current field values
// are the flag defaults.
func (c *Config) Register(fs *flag.FlagSet) {
	fs.IntVar(&c.Threads, "threads", c.Threads, "number of worker threads (0 = ask on stdin)")
	fs.IntVar(&c.Width, "width", c.Width, "raster width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "raster height in pixels")
	fs.IntVar(&c.MaxThreads, "max-threads", c.MaxThreads, "upper bound for the thread count")
	fs.IntVar(&c.Iterations, "iterations", c.Iterations, "escape iteration cap")
	fs.BoolVar(&c.CoverRemainder, "cover-remainder", c.CoverRemainder,
		"assign leftover rows to the last thread instead of leaving them blank")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
}

// Validate checks the configuration. A zero Threads is valid and means the
// count is asked for interactively.
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	case c.MaxThreads < 1 || c.MaxThreads > c.Height:
		return fmt.Errorf("%w: max threads %d not in [1, %d]", ErrInvalid, c.MaxThreads, c.Height)
	case c.Threads < 0 || c.Threads > c.MaxThreads:
		return fmt.Errorf("%w: threads %d not in [1, %d]", ErrInvalid, c.Threads, c.MaxThreads)
	case c.Iterations < 1:
		return fmt.Errorf("%w: iterations %d", ErrInvalid, c.Iterations)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// PromptTiles asks for a thread count on w and reads answers from r until
// one is in [1, limit]. It returns ErrNoInput when r is exhausted first.
func PromptTiles(r io.Reader, w io.Writer, limit int) (int, error) {
	sc := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "# of threads: ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, fmt.Errorf("config: read threads: %w", err)
			}
			return 0, ErrNoInput
		}

		n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err == nil && n >= 1 && n <= limit {
			return n, nil
		}
		fmt.Fprintf(w, "please enter a whole number between 1 and %d\n", limit)
	}
}

// ResolveThreads fills in Threads by prompting when it is zero.
func (c *Config) ResolveThreads(r io.Reader, w io.Writer) error {
	if c.Threads != 0 {
		return nil
	}
	n, err := PromptTiles(r, w, c.MaxThreads)
	if err != nil {
		return err
	}
	c.Threads = n
	return nil
}

// EngineOptions returns the engine options described by the configuration.
func (c *Config) EngineOptions() []mandel.EngineOption {
	remainder := mandel.RemainderDrop
	if c.CoverRemainder {
		remainder = mandel.RemainderExtendLast
	}
	threads := c.Threads
	if threads == 0 {
		threads = 1
	}
	return []mandel.EngineOption{
		mandel.WithSize(c.Width, c.Height),
		mandel.WithMaxTiles(c.MaxThreads),
		mandel.WithTileCount(threads),
		mandel.WithMaxIterations(c.Iterations),
		mandel.WithRemainder(remainder),
	}
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, s)
	}
	return l, nil
}

// Logger returns a text logger on stderr at the configured level.
func (c *Config) Logger() *slog.Logger {
	return NewLogger(os.Stderr, c.LogLevel)
}

// NewLogger returns a text logger writing to w. Unknown levels fall back
// to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	l, err := ParseLevel(level)
	if err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
