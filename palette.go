package mosaic

import (
	"fmt"
	"strings"
)

// PaletteKind selects one of the glyph palettes.
type PaletteKind int

const (
	// ASCIIRamp maps block luminance onto a ramp of ASCII characters.
	ASCIIRamp PaletteKind = iota
	// EmojiBuckets maps block luminance onto moon phase emoji.
	EmojiBuckets
	// ColorSquares picks the colored square emoji closest to the block
	// color.
	ColorSquares
	// ColorFaces picks the emoji whose theme color is closest to the block
	// color.
	ColorFaces
)

// DefaultASCIIRamp is ordered from the glyph with the least ink to the one
// with the most, so on a light-on-dark terminal index 0 looks darkest.
const DefaultASCIIRamp = " .:-=+*#%@"

// referenceColors are the theme colors shared by the color-matched emoji
// palettes, in palette order: red, orange, yellow, green, blue, purple,
// brown, black, white.
var referenceColors = []RGB{
	{255, 119, 99},
	{255, 155, 59},
	{243, 191, 63},
	{131, 211, 19},
	{0, 235, 219},
	{63, 191, 255},
	{134, 74, 43},
	{0, 0, 0},
	{255, 255, 255},
}

var (
	asciiRampPalette = NewASCIIPalette(DefaultASCIIRamp)

	emojiBucketsPalette = Palette{
		Kind:    EmojiBuckets,
		Symbols: []string{"🌑", "🌘", "🌗", "🌖", "🌕"},
	}

	colorSquaresPalette = Palette{
		Kind:    ColorSquares,
		Symbols: []string{"🟥", "🟧", "🟨", "🟩", "🟦", "🟪", "🟫", "⬛", "⬜"},
		Colors:  referenceColors,
	}

	colorFacesPalette = Palette{
		Kind:    ColorFaces,
		Symbols: []string{"😡", "🍊", "⭐", "🤢", "🥶", "😈", "💩", "👾", "👻"},
		Colors:  referenceColors,
	}

	paletteNames = map[string]PaletteKind{
		"ascii":   ASCIIRamp,
		"moons":   EmojiBuckets,
		"squares": ColorSquares,
		"faces":   ColorFaces,
	}
)

// String returns the name accepted by ParsePaletteKind.
func (k PaletteKind) String() string {
	switch k {
	case ASCIIRamp:
		return "ascii"
	case EmojiBuckets:
		return "moons"
	case ColorSquares:
		return "squares"
	case ColorFaces:
		return "faces"
	}
	return fmt.Sprintf("PaletteKind(%d)", int(k))
}

// ParsePaletteKind returns the palette kind for a name: ascii, moons,
// squares or faces.
func ParsePaletteKind(name string) (PaletteKind, error) {
	kind, ok := paletteNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown palette %q, options are ascii, moons, squares or faces", name)
	}
	return kind, nil
}

// Palette is an ordered sequence of glyphs indexed by quantization level.
// Luminance palettes leave Colors empty. Color-matched palettes carry one
// reference color per symbol and select the nearest one.
type Palette struct {
	Kind    PaletteKind
	Symbols []string
	Colors  []RGB
}

// NewASCIIPalette builds a luminance palette with one glyph per rune of
// ramp, darkest-looking first.
func NewASCIIPalette(ramp string) Palette {
	symbols := make([]string, 0, len(ramp))
	for _, r := range ramp {
		symbols = append(symbols, string(r))
	}
	return Palette{Kind: ASCIIRamp, Symbols: symbols}
}

// BuiltinPalette returns a copy of the built-in palette for kind.
func BuiltinPalette(kind PaletteKind) (Palette, error) {
	p, err := builtinPalette(kind)
	if err != nil {
		return Palette{}, err
	}
	return Palette{
		Kind:    p.Kind,
		Symbols: append([]string(nil), p.Symbols...),
		Colors:  append([]RGB(nil), p.Colors...),
	}, nil
}

func builtinPalette(kind PaletteKind) (Palette, error) {
	switch kind {
	case ASCIIRamp:
		return asciiRampPalette, nil
	case EmojiBuckets:
		return emojiBucketsPalette, nil
	case ColorSquares:
		return colorSquaresPalette, nil
	case ColorFaces:
		return colorFacesPalette, nil
	}
	return Palette{}, fmt.Errorf("%w: unknown palette kind %d",
		ErrPaletteUninitialized, int(kind))
}

// Len returns the number of quantization levels.
func (p Palette) Len() int {
	return len(p.Symbols)
}

// colorMatched reports whether the palette selects glyphs by nearest color
// rather than by luminance.
func (p Palette) colorMatched() bool {
	return len(p.Colors) > 0
}

func (p Palette) validate() error {
	if len(p.Symbols) == 0 {
		return fmt.Errorf("%w: %s palette has no symbols",
			ErrPaletteUninitialized, p.Kind)
	}
	if p.colorMatched() && len(p.Colors) != len(p.Symbols) {
		return fmt.Errorf("%w: %s palette has %d symbols but %d colors",
			ErrPaletteUninitialized, p.Kind, len(p.Symbols), len(p.Colors))
	}
	return nil
}

// Glyph returns the symbol for a quantization level, clamping out of range
// levels to the nearest end of the palette.
func (p Palette) Glyph(level int) string {
	return p.Symbols[clampLevel(level, len(p.Symbols))]
}

// Level maps a block summary to a palette index.
func (p Palette) Level(s Summary) int {
	if p.colorMatched() {
		return nearestColor(s.Mean, p.Colors)
	}
	return s.level(len(p.Symbols))
}

// levelForColor maps a single color to a palette index. It is used when the
// block mean has been adjusted and no longer matches the raw sums.
func (p Palette) levelForColor(c RGB) int {
	if p.colorMatched() {
		return nearestColor(c, p.Colors)
	}
	levels := len(p.Symbols)
	if levels <= 0 {
		return 0
	}
	num := (lumaR*uint64(c.R) + lumaG*uint64(c.G) + lumaB*uint64(c.B)) * uint64(levels)
	return clampLevel(int(num/(lumaScale*256)), levels)
}

// Swatch returns a representative color for a level, used when a glyph
// cannot be drawn with a bitmap font. Luminance palettes return a gray.
func (p Palette) Swatch(level int) RGB {
	level = clampLevel(level, len(p.Symbols))
	if p.colorMatched() {
		return p.Colors[level]
	}
	if len(p.Symbols) < 2 {
		return RGB{255, 255, 255}
	}
	v := uint8(level * 255 / (len(p.Symbols) - 1))
	return RGB{v, v, v}
}

// QuantizeLuma returns floor(luma / 256 * levels) clamped to
// [0, levels-1]. A value on a bucket boundary belongs to the bucket that
// starts there, and luma 255 maps to the last level.
func QuantizeLuma(luma float64, levels int) int {
	if levels <= 0 {
		return 0
	}
	return clampLevel(int(luma/256*float64(levels)), levels)
}

func clampLevel(level, levels int) int {
	if level < 0 {
		return 0
	}
	if level > levels-1 {
		return levels - 1
	}
	return level
}

// nearestColor returns the index of the color in colors closest to c.
// The first of several equally close colors wins.
func nearestColor(c RGB, colors []RGB) int {
	best, bestDist := 0, -1
	for i, candidate := range colors {
		d := c.distanceSquared(candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
