package capture

import (
	"context"
	"image"

	"github.com/disintegration/gift"
)

// FilterOptions describes adjustments applied to every captured frame
// before conversion.
type FilterOptions struct {
	// Mirror flips frames horizontally so a front camera behaves like a
	// mirror.
	Mirror bool
	// Contrast in percent, -100 to 100. Zero leaves contrast unchanged.
	Contrast float32
	// Brightness in percent, -100 to 100. Zero leaves brightness unchanged.
	Brightness float32
}

// Filter applies a gift filter chain to frames.
type Filter struct {
	g *gift.GIFT
}

// NewFilter builds a Filter from opts. It returns nil when opts request no
// adjustment.
func NewFilter(opts FilterOptions) *Filter {
	g := gift.New()
	if opts.Mirror {
		g.Add(gift.FlipHorizontal())
	}
	if opts.Contrast != 0 {
		g.Add(gift.Contrast(opts.Contrast))
	}
	if opts.Brightness != 0 {
		g.Add(gift.Brightness(opts.Brightness))
	}
	if len(g.Filters) == 0 {
		return nil
	}
	return &Filter{g: g}
}

// Apply returns a new frame with the filter chain applied. A nil Filter
// returns the frame unchanged.
func (f *Filter) Apply(frame Frame) Frame {
	if f == nil {
		return frame
	}
	src := frame.Image()
	dst := image.NewRGBA(f.g.Bounds(src.Bounds()))
	f.g.Draw(dst, src)
	return Frame{Pix: dst.Pix, Width: dst.Rect.Dx(), Height: dst.Rect.Dy()}
}

type filtered struct {
	Source
	filter *Filter
}

// Filtered wraps src so every frame it returns passes through filter. A nil
// filter returns src itself.
func Filtered(src Source, filter *Filter) Source {
	if filter == nil {
		return src
	}
	return &filtered{Source: src, filter: filter}
}

func (s *filtered) Read(ctx context.Context) (Frame, error) {
	frame, err := s.Source.Read(ctx)
	if err != nil {
		return Frame{}, err
	}
	return s.filter.Apply(frame), nil
}
