// Package capture provides frame sources that feed RGBA pixel buffers to
// the mosaic driver.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/wbrown/mosaic/imageutil"
)

// ErrEndOfStream is returned by Source.Read when no more frames will be
// produced.
var ErrEndOfStream = errors.New("capture: end of stream")

// Frame is one captured picture as a tightly packed RGBA buffer of
// Width*Height*4 bytes, row-major.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// FrameFromImage copies any image into a Frame.
func FrameFromImage(img image.Image) Frame {
	if src, ok := img.(*image.RGBA); ok {
		if packed := (&imageutil.RGBAImage{RGBA: src}); packed.Packed() {
			pix := make([]byte, len(src.Pix))
			copy(pix, src.Pix)
			return Frame{Pix: pix, Width: packed.Width(), Height: packed.Height()}
		}
	}
	rgba := imageutil.RGBAImageFromImage(img)
	return Frame{Pix: rgba.Pix, Width: rgba.Width(), Height: rgba.Height()}
}

// Image wraps the frame's buffer as an *image.RGBA without copying.
func (f Frame) Image() *image.RGBA {
	return imageutil.WrapPix(f.Pix, f.Width, f.Height).RGBA
}

// Source produces frames. Read blocks until a frame is available, the
// context is done, or the source is exhausted.
type Source interface {
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// Still is a Source that returns the same picture on every read. It is used
// to convert image files and to exercise the driver without a camera.
type Still struct {
	frame     Frame
	remaining int
}

// NewStill returns a Source serving img. repeat limits the number of reads
// before ErrEndOfStream; zero or less repeats forever.
func NewStill(img image.Image, repeat int) *Still {
	remaining := repeat
	if remaining <= 0 {
		remaining = -1
	}
	return &Still{frame: FrameFromImage(img), remaining: remaining}
}

// OpenStill loads an image file as a Still source.
func OpenStill(path string, repeat int) (*Still, error) {
	img, err := imageutil.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("open still %s: %w", path, err)
	}
	return NewStill(img.RGBA, repeat), nil
}

// Read returns a copy of the still frame so callers may modify it.
func (s *Still) Read(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.remaining == 0 {
		return Frame{}, ErrEndOfStream
	}
	if s.remaining > 0 {
		s.remaining--
	}
	pix := make([]byte, len(s.frame.Pix))
	copy(pix, s.frame.Pix)
	return Frame{Pix: pix, Width: s.frame.Width, Height: s.frame.Height}, nil
}

// Close is a no-op.
func (s *Still) Close() error {
	return nil
}
