// Package imageutil provides pure Go image helpers for moving frames
// between decoders, capture sources and the mosaic converter.
package imageutil

import (
	"image"
	"image/color"
	"image/draw"
)

// RGB represents a color in the RGB color space with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// ToColor converts RGB to color.RGBA for use with standard library.
func (rgb RGB) ToColor() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// RGBAImage wraps image.RGBA with convenience methods for pixel access.
type RGBAImage struct {
	*image.RGBA
}

// NewRGBAImage creates a new RGBAImage with the specified dimensions.
func NewRGBAImage(width, height int) *RGBAImage {
	return &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// WrapPix wraps a tightly packed RGBA buffer of width x height pixels
// without copying it. The caller keeps ownership of pix.
func WrapPix(pix []byte, width, height int) *RGBAImage {
	return &RGBAImage{
		RGBA: &image.RGBA{
			Pix:    pix,
			Stride: width * 4,
			Rect:   image.Rect(0, 0, width, height),
		},
	}
}

// RGBAImageFromImage converts any image.Image to an RGBAImage anchored at
// the origin with a tightly packed buffer.
func RGBAImageFromImage(img image.Image) *RGBAImage {
	bounds := img.Bounds()
	rgba := NewRGBAImage(bounds.Dx(), bounds.Dy())
	draw.Draw(rgba.RGBA, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// Width returns the image width.
func (img *RGBAImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *RGBAImage) Height() int {
	return img.Bounds().Dy()
}

// Packed reports whether the pixel buffer is exactly Width*Height*4 bytes
// with no row padding, as the mosaic converter expects.
func (img *RGBAImage) Packed() bool {
	return img.Rect.Min == (image.Point{}) &&
		img.Stride == img.Width()*4 &&
		len(img.Pix) == img.Width()*img.Height()*4
}

// GetRGB returns the RGB value at (x, y).
func (img *RGBAImage) GetRGB(x, y int) RGB {
	c := img.RGBAAt(x, y)
	return RGB{R: c.R, G: c.G, B: c.B}
}

// SetRGB sets the RGB value at (x, y).
func (img *RGBAImage) SetRGB(x, y int, c RGB) {
	img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
}
