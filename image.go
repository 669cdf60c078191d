package mosaic

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/wbrown/mosaic/imageutil"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderOptions controls how a Grid is rasterized for PNG previews.
type RenderOptions struct {
	// Face draws ASCII glyphs. Nil uses basicfont.Face7x13.
	Face font.Face
	// Background fills every cell before the glyph is drawn.
	Background RGB
	// ColorGlyphs draws ASCII glyphs in their block color instead of white.
	ColorGlyphs bool
}

// LoadFontFace loads a TrueType font from path at the given point size.
func LoadFontFace(path string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	ttf, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// cellSize returns the pixel size of one monospace character cell.
func cellSize(face font.Face) (width, height, ascent int) {
	metrics := face.Metrics()
	width = font.MeasureString(face, "M").Ceil()
	height = metrics.Height.Ceil()
	ascent = metrics.Ascent.Ceil()
	return max(width, 1), max(height, 1), ascent
}

// RenderGrid rasterizes a grid. ASCII palettes are drawn as text with the
// font face. Emoji palettes cannot be drawn with a bitmap font, so each
// cell is filled with the palette swatch of its level instead, two
// character cells wide as on a terminal.
func RenderGrid(g *Grid, opts RenderOptions) *image.RGBA {
	face := opts.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	cw, ch, ascent := cellSize(face)
	textMode := g.Palette.Kind == ASCIIRamp
	if !textMode {
		cw *= 2
	}

	img := image.NewRGBA(image.Rect(0, 0, g.Cols*cw, g.Rows*ch))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background.ToColor()),
		image.Point{}, draw.Src)

	drawer := &font.Drawer{Dst: img, Face: face}
	white := image.NewUniform(RGB{255, 255, 255}.ToColor())

	for row := 0; row < g.Rows; row++ {
		for col, cell := range g.Row(row) {
			x, y := col*cw, row*ch
			if !textMode {
				swatch := g.Palette.Swatch(cell.Level)
				draw.Draw(img, image.Rect(x, y, x+cw, y+ch),
					image.NewUniform(swatch.ToColor()), image.Point{}, draw.Src)
				continue
			}
			drawer.Src = white
			if opts.ColorGlyphs {
				drawer.Src = image.NewUniform(cell.Color.ToColor())
			}
			drawer.Dot = fixed.P(x, y+ascent)
			drawer.DrawString(cell.Glyph)
		}
	}
	return img
}

// SaveGridPNG renders a grid with RenderGrid and writes it to a PNG file.
func SaveGridPNG(g *Grid, path string, opts RenderOptions) error {
	return imageutil.SavePNG(RenderGrid(g, opts), path)
}
