package mosaic

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// BT.601 luma weights scaled by 1000 so block sums can be quantized with
// integer math. They match the weights used by imageutil and OpenCV's
// COLOR_BGR2GRAY.
const (
	lumaR     = 299
	lumaG     = 587
	lumaB     = 114
	lumaScale = lumaR + lumaG + lumaB
)

// RGB represents a color in the RGB color space with 8-bit channels,
// where each channel ranges from 0 to 255.
type RGB struct {
	R, G, B uint8
}

// Luma returns the perceptual brightness of the color in [0, 255] using
// the BT.601 weighting 0.299*R + 0.587*G + 0.114*B.
func (c RGB) Luma() float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// ToColor converts RGB to an opaque color.RGBA.
func (c RGB) ToColor() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// distanceSquared returns the squared Euclidean distance between two
// colors in RGB space. The square root is skipped since it is only used
// for ordering.
func (c RGB) distanceSquared(other RGB) int {
	dr := int(c.R) - int(other.R)
	dg := int(c.G) - int(other.G)
	db := int(c.B) - int(other.B)
	return dr*dr + dg*dg + db*db
}

// saturate scales the HSL saturation of the color by factor, clamping the
// result to 1. Hue and lightness are preserved.
func (c RGB) saturate(factor float64) RGB {
	if factor == 1 {
		return c
	}
	col := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
	h, s, l := col.Hsl()
	s = math.Max(0, math.Min(1, s*factor))
	r, g, b := colorful.Hsl(h, s, l).Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}
