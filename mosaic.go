// Package mosaic converts RGBA video frames into grids of text glyphs,
// either an ASCII brightness ramp or emoji, one glyph per square block of
// pixels.
//
// A conversion is a pure function of its inputs: the frame is split into
// blocks, each block is reduced to its mean color and luminance, and the
// summary is quantized to an index into the active palette.
package mosaic

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the block edge length used by the camera driver when
// none is configured.
const DefaultBlockSize = 16

var (
	// ErrInvalidDimensions is returned when width, height or block size is
	// negative, or the block size is zero.
	ErrInvalidDimensions = errors.New("mosaic: invalid dimensions")

	// ErrBufferSizeMismatch is returned when the pixel buffer length is not
	// width*height*4.
	ErrBufferSizeMismatch = errors.New("mosaic: buffer size mismatch")

	// ErrPaletteUninitialized is returned when the selected palette has no
	// glyphs.
	ErrPaletteUninitialized = errors.New("mosaic: palette not initialized")
)

// Converter turns pixel buffers into glyph grids. A Converter is immutable
// once built and safe for concurrent use.
type Converter struct {
	ascii      Palette
	emoji      Palette
	workers    int
	saturation float64
}

// Option is a functional option for configuring a Converter.
type Option func(*Converter)

// NewConverter creates a Converter with the given options. By default it
// uses DefaultASCIIRamp for ASCII mode, moon phase buckets for emoji mode,
// a single worker and no saturation adjustment.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		ascii:      asciiRampPalette,
		emoji:      emojiBucketsPalette,
		workers:    1,
		saturation: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithWorkers sets how many block rows are summarized concurrently. Values
// below 2 convert on the calling goroutine.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		c.workers = n
	}
}

// WithSaturation scales the HSL saturation of every block's mean color
// before it is mapped to a glyph. 1 leaves colors untouched.
func WithSaturation(factor float64) Option {
	return func(c *Converter) {
		if factor >= 0 {
			c.saturation = factor
		}
	}
}

// WithASCIIRamp replaces the ASCII mode palette with the runes of ramp,
// darkest-looking first.
func WithASCIIRamp(ramp string) Option {
	return func(c *Converter) {
		c.ascii = NewASCIIPalette(ramp)
	}
}

// WithEmojiPalette selects the built-in palette used in emoji mode.
func WithEmojiPalette(kind PaletteKind) Option {
	return func(c *Converter) {
		p, err := builtinPalette(kind)
		if err != nil {
			// Leave the palette empty so Convert reports it.
			p = Palette{Kind: kind}
		}
		c.emoji = p
	}
}

var defaultConverter = NewConverter()

// Convert renders an RGBA pixel buffer as a glyph grid using the default
// palettes. pixels holds width*height pixels of 4 bytes each, row-major.
// The result has ceil(height/blockSize) newline-separated lines of
// ceil(width/blockSize) glyphs, with no trailing newline.
func Convert(pixels []byte, width, height, blockSize int, emojiMode bool) (string, error) {
	return defaultConverter.Convert(pixels, width, height, blockSize, emojiMode)
}

// Convert renders an RGBA pixel buffer as a glyph grid string. See the
// package level Convert for the format.
func (c *Converter) Convert(pixels []byte, width, height, blockSize int, emojiMode bool) (string, error) {
	g, err := c.ConvertGrid(pixels, width, height, blockSize, emojiMode)
	if err != nil {
		return "", err
	}
	return g.String(), nil
}

// ConvertGrid is like Convert but returns the grid with per-cell levels and
// colors.
func (c *Converter) ConvertGrid(pixels []byte, width, height, blockSize int, emojiMode bool) (*Grid, error) {
	if err := validateFrame(len(pixels), width, height, blockSize); err != nil {
		return nil, err
	}
	return c.build(pixels, width*4, width, height, blockSize, emojiMode)
}

// ConvertImage converts an RGBA image. Sub-images are supported; only the
// pixels inside img.Bounds() are sampled.
func (c *Converter) ConvertImage(img *image.RGBA, blockSize int, emojiMode bool) (*Grid, error) {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidDimensions, blockSize)
	}
	return c.build(img.Pix, img.Stride, width, height, blockSize, emojiMode)
}

func validateFrame(size, width, height, blockSize int) error {
	if width < 0 || height < 0 || blockSize <= 0 {
		return fmt.Errorf("%w: %dx%d with block size %d",
			ErrInvalidDimensions, width, height, blockSize)
	}
	if want := width * height * 4; size != want {
		return fmt.Errorf("%w: buffer is %d bytes, %dx%d RGBA needs %d",
			ErrBufferSizeMismatch, size, width, height, want)
	}
	return nil
}

// palette selects the active palette once per call.
func (c *Converter) palette(emojiMode bool) Palette {
	if emojiMode {
		return c.emoji
	}
	return c.ascii
}

func (c *Converter) build(pix []byte, stride, width, height, blockSize int, emojiMode bool) (*Grid, error) {
	p := c.palette(emojiMode)
	if err := p.validate(); err != nil {
		return nil, err
	}

	layout := Partition(width, height, blockSize)
	g := newGrid(layout, p)

	fillRow := func(row int) {
		base := row * layout.Cols
		for col := 0; col < layout.Cols; col++ {
			s := Summarize(pix, stride, layout.Bounds(row, col))
			g.Cells[base+col] = c.cell(p, s)
		}
	}

	if c.workers > 1 && layout.Rows > 1 {
		var eg errgroup.Group
		eg.SetLimit(c.workers)
		for row := 0; row < layout.Rows; row++ {
			row := row
			eg.Go(func() error {
				fillRow(row)
				return nil
			})
		}
		// Rows write disjoint cells and never fail.
		_ = eg.Wait()
	} else {
		for row := 0; row < layout.Rows; row++ {
			fillRow(row)
		}
	}
	return g, nil
}

// cell maps one block summary to its glyph.
func (c *Converter) cell(p Palette, s Summary) Cell {
	if c.saturation != 1 {
		mean := s.Mean.saturate(c.saturation)
		level := p.levelForColor(mean)
		return Cell{Glyph: p.Glyph(level), Level: level, Color: mean}
	}
	level := p.Level(s)
	return Cell{Glyph: p.Glyph(level), Level: level, Color: s.Mean}
}
