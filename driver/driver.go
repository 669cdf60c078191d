// Package driver runs the per-frame loop: it pulls a frame from a capture
// source, converts it to a glyph grid and pushes the text to a display at a
// fixed rate.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wbrown/mosaic"
	"github.com/wbrown/mosaic/capture"
	"github.com/wbrown/mosaic/display"
	"github.com/wbrown/mosaic/imageutil"
)

// Stats counts frames handled by a Driver.
type Stats struct {
	Frames      int64
	Skipped     int64
	LastConvert time.Duration
}

// Driver owns the refresh loop and the emoji mode toggle.
type Driver struct {
	src  capture.Source
	disp display.Display
	conv *mosaic.Converter
	cfg  Config
	log  *slog.Logger

	emoji       atomic.Bool
	frames      atomic.Int64
	skipped     atomic.Int64
	lastConvert atomic.Int64
}

// Option is a functional option for configuring a Driver.
type Option func(*Driver)

// WithLogger sets the logger used to report skipped frames.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		d.log = l
	}
}

// WithConverter replaces the converter built from the config.
func WithConverter(c *mosaic.Converter) Option {
	return func(d *Driver) {
		d.conv = c
	}
}

// New creates a Driver reading from src and writing to disp. When
// cfg.Mirror is set, src is wrapped with a horizontal flip.
func New(src capture.Source, disp display.Display, cfg Config, opts ...Option) (*Driver, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %v", errs)
	}
	d := &Driver{
		src:  capture.Filtered(src, capture.NewFilter(capture.FilterOptions{Mirror: cfg.Mirror})),
		disp: disp,
		cfg:  cfg,
	}
	d.emoji.Store(cfg.EmojiMode)
	for _, opt := range opts {
		opt(d)
	}
	if d.conv == nil {
		d.conv = mosaic.NewConverter(cfg.ConverterOptions()...)
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	return d, nil
}

// EmojiMode reports whether the emoji palette is active.
func (d *Driver) EmojiMode() bool {
	return d.emoji.Load()
}

// SetEmojiMode selects the emoji palette (true) or the ASCII ramp (false)
// starting with the next frame.
func (d *Driver) SetEmojiMode(on bool) {
	d.emoji.Store(on)
}

// ToggleMode flips between ASCII and emoji mode and returns the new mode.
func (d *Driver) ToggleMode() bool {
	for {
		old := d.emoji.Load()
		if d.emoji.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Stats returns a snapshot of the frame counters.
func (d *Driver) Stats() Stats {
	return Stats{
		Frames:      d.frames.Load(),
		Skipped:     d.skipped.Load(),
		LastConvert: time.Duration(d.lastConvert.Load()),
	}
}

// Run renders frames at cfg.FPS until the context is cancelled, the source
// ends, or cfg.MaxFrames frames were shown. A frame that cannot be read,
// converted or shown is logged and skipped. Reaching the end of the
// source or the frame limit returns nil.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(d.cfg.FPS))
	defer ticker.Stop()

	for {
		if err := d.step(ctx); err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				d.log.Info("source ended", "frames", d.frames.Load())
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			d.skipped.Add(1)
			d.log.Warn("skipping frame", "err", err)
		}
		if d.cfg.MaxFrames > 0 && d.frames.Load() >= int64(d.cfg.MaxFrames) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// step reads, converts and shows one frame.
func (d *Driver) step(ctx context.Context) error {
	frame, err := d.src.Read(ctx)
	if err != nil {
		return err
	}
	if d.cfg.ScaleWidth > 0 && frame.Width > d.cfg.ScaleWidth {
		frame = downscale(frame, d.cfg.ScaleWidth)
	}

	emoji := d.emoji.Load()
	blockSize := d.cfg.BlockSize
	if d.cfg.Columns > 0 {
		blockSize = d.conv.BlockSizeForColumns(frame.Width, d.cfg.Columns, emoji)
	}

	start := time.Now()
	grid, err := d.conv.ConvertGrid(frame.Pix, frame.Width, frame.Height, blockSize, emoji)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	d.lastConvert.Store(int64(time.Since(start)))

	text := grid.String()
	if d.cfg.Color {
		text = grid.ANSI()
	}
	if err := d.disp.Show(text); err != nil {
		return fmt.Errorf("show frame: %w", err)
	}
	d.frames.Add(1)
	return nil
}

func downscale(frame capture.Frame, width int) capture.Frame {
	img := imageutil.WrapPix(frame.Pix, frame.Width, frame.Height)
	resized := imageutil.ResizeToWidth(img, width, imageutil.InterpolationLinear)
	return capture.Frame{Pix: resized.Pix, Width: resized.Width(), Height: resized.Height()}
}
