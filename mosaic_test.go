package mosaic

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/wbrown/mosaic/imageutil"
)

// solidFrame returns a width x height RGBA buffer filled with one color.
func solidFrame(width, height int, c RGB) []byte {
	pix := make([]byte, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = 255
	}
	return pix
}

func randomFrame(width, height int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	pix := make([]byte, width*height*4)
	rng.Read(pix)
	return pix
}

func TestConvertUniformFrames(t *testing.T) {
	tests := []struct {
		name  string
		color RGB
		emoji bool
		want  string
	}{
		{"black ascii", RGB{0, 0, 0}, false, "  \n  "},
		{"white ascii", RGB{255, 255, 255}, false, "@@\n@@"},
		{"black emoji", RGB{0, 0, 0}, true, "🌑🌑\n🌑🌑"},
		{"white emoji", RGB{255, 255, 255}, true, "🌕🌕\n🌕🌕"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(solidFrame(32, 32, tt.color), 32, 32, 16, tt.emoji)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestConvertEdgeBlocks(t *testing.T) {
	got, err := Convert(solidFrame(17, 17, RGB{128, 128, 128}), 17, 17, 16, false)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), got)
	}
	for i, line := range lines {
		if n := utf8.RuneCountInString(line); n != 2 {
			t.Errorf("Line %d: expected 2 glyphs, got %d", i, n)
		}
	}
	// The 1 pixel edge blocks share the gray of the full block.
	if lines[0] != lines[1] || lines[0][0] != lines[0][1] {
		t.Errorf("Expected a uniform grid, got %q", got)
	}
}

func TestConvertGridShape(t *testing.T) {
	tests := []struct {
		width, height, block int
	}{
		{1, 1, 1},
		{1, 1, 16},
		{16, 16, 16},
		{33, 7, 8},
		{640, 480, 16},
		{100, 3, 7},
		{5, 50, 3},
	}

	for _, tt := range tests {
		pix := randomFrame(tt.width, tt.height, int64(tt.width*tt.height))
		wantRows := (tt.height + tt.block - 1) / tt.block
		wantCols := (tt.width + tt.block - 1) / tt.block
		for _, emoji := range []bool{false, true} {
			got, err := Convert(pix, tt.width, tt.height, tt.block, emoji)
			if err != nil {
				t.Fatalf("%dx%d/%d: %v", tt.width, tt.height, tt.block, err)
			}
			if strings.HasSuffix(got, "\n") {
				t.Errorf("%dx%d/%d: unexpected trailing newline", tt.width, tt.height, tt.block)
			}
			lines := strings.Split(got, "\n")
			if len(lines) != wantRows {
				t.Errorf("%dx%d/%d emoji=%v: expected %d rows, got %d",
					tt.width, tt.height, tt.block, emoji, wantRows, len(lines))
			}
			for _, line := range lines {
				if n := utf8.RuneCountInString(line); n != wantCols {
					t.Errorf("%dx%d/%d emoji=%v: expected %d glyphs per row, got %d",
						tt.width, tt.height, tt.block, emoji, wantCols, n)
					break
				}
			}
		}
	}
}

func TestConvertDeterministic(t *testing.T) {
	pix := randomFrame(123, 77, 42)
	first, err := Convert(pix, 123, 77, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		again, err := Convert(pix, 123, 77, 10, false)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("Expected identical output on run %d", i)
		}
	}
}

func TestConvertDoesNotModifyInput(t *testing.T) {
	pix := randomFrame(40, 30, 7)
	orig := append([]byte(nil), pix...)
	if _, err := Convert(pix, 40, 30, 8, true); err != nil {
		t.Fatal(err)
	}
	for i := range pix {
		if pix[i] != orig[i] {
			t.Fatalf("Input modified at byte %d", i)
		}
	}
}

func TestConvertParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	pix := randomFrame(320, 240, 99)
	sequential := NewConverter()
	parallel := NewConverter(WithWorkers(8))
	for _, emoji := range []bool{false, true} {
		want, err := sequential.Convert(pix, 320, 240, 12, emoji)
		if err != nil {
			t.Fatal(err)
		}
		got, err := parallel.Convert(pix, 320, 240, 12, emoji)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("emoji=%v: parallel output differs from sequential", emoji)
		}
	}
}

func TestASCIIMonotonic(t *testing.T) {
	conv := NewConverter()
	prev := -1
	for v := 0; v < 256; v++ {
		g, err := conv.ConvertGrid(solidFrame(1, 1, RGB{uint8(v), uint8(v), uint8(v)}), 1, 1, 1, false)
		if err != nil {
			t.Fatal(err)
		}
		level := g.At(0, 0).Level
		if level < prev {
			t.Fatalf("Gray %d: level %d is below level %d of a darker gray", v, level, prev)
		}
		prev = level
	}
	if prev != len(DefaultASCIIRamp)-1 {
		t.Errorf("Expected white to reach the last level, got %d", prev)
	}

	// Brightness ordering holds for colored blocks too.
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		a := RGB{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
		b := RGB{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
		if a.Luma() > b.Luma() {
			a, b = b, a
		}
		ga, _ := conv.ConvertGrid(solidFrame(1, 1, a), 1, 1, 1, false)
		gb, _ := conv.ConvertGrid(solidFrame(1, 1, b), 1, 1, 1, false)
		if ga.At(0, 0).Level > gb.At(0, 0).Level {
			t.Fatalf("%v (luma %.2f) maps above %v (luma %.2f)", a, a.Luma(), b, b.Luma())
		}
	}
}

func TestModeSwitchUsesDisjointPalettes(t *testing.T) {
	pix := randomFrame(64, 64, 11)
	ascii, err := Convert(pix, 64, 64, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	emoji, err := Convert(pix, 64, 64, 4, true)
	if err != nil {
		t.Fatal(err)
	}
	if ascii == emoji {
		t.Fatal("Expected different output for the two modes")
	}

	moons := emojiBucketsPalette.Symbols
	for _, r := range strings.ReplaceAll(ascii, "\n", "") {
		if !strings.ContainsRune(DefaultASCIIRamp, r) {
			t.Errorf("ASCII output contains %q outside the ramp", r)
		}
	}
	for _, r := range strings.ReplaceAll(emoji, "\n", "") {
		found := false
		for _, m := range moons {
			if string(r) == m {
				found = true
			}
		}
		if !found {
			t.Errorf("Emoji output contains %q outside the moon palette", r)
		}
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name                 string
		size                 int
		width, height, block int
		want                 error
	}{
		{"one byte short", 32*32*4 - 1, 32, 32, 16, ErrBufferSizeMismatch},
		{"one byte long", 32*32*4 + 1, 32, 32, 16, ErrBufferSizeMismatch},
		{"empty buffer", 0, 4, 4, 2, ErrBufferSizeMismatch},
		{"negative width", 0, -1, 4, 4, ErrInvalidDimensions},
		{"negative height", 0, 4, -1, 4, ErrInvalidDimensions},
		{"zero block", 64, 4, 4, 0, ErrInvalidDimensions},
		{"negative block", 64, 4, 4, -2, ErrInvalidDimensions},
		{"dimensions checked first", 3, 4, 4, 0, ErrInvalidDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(make([]byte, tt.size), tt.width, tt.height, tt.block, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if got != "" {
				t.Errorf("Expected no partial output, got %q", got)
			}
		})
	}
}

func TestConvertEmptyFrame(t *testing.T) {
	for _, dims := range [][2]int{{0, 0}, {0, 10}, {10, 0}} {
		got, err := Convert(nil, dims[0], dims[1], 16, true)
		if err != nil {
			t.Errorf("%dx%d: unexpected error %v", dims[0], dims[1], err)
		}
		if got != "" {
			t.Errorf("%dx%d: expected empty output, got %q", dims[0], dims[1], got)
		}
	}
}

func TestPaletteUninitialized(t *testing.T) {
	conv := NewConverter(WithASCIIRamp(""))
	pix := solidFrame(8, 8, RGB{})

	if _, err := conv.Convert(pix, 8, 8, 4, false); !errors.Is(err, ErrPaletteUninitialized) {
		t.Errorf("Expected ErrPaletteUninitialized, got %v", err)
	}
	// The emoji palette is still intact.
	if _, err := conv.Convert(pix, 8, 8, 4, true); err != nil {
		t.Errorf("Expected emoji mode to work, got %v", err)
	}
	// Buffer errors are reported before palette errors.
	if _, err := conv.Convert(pix[:10], 8, 8, 4, false); !errors.Is(err, ErrBufferSizeMismatch) {
		t.Errorf("Expected ErrBufferSizeMismatch, got %v", err)
	}

	conv = NewConverter(WithEmojiPalette(PaletteKind(42)))
	if _, err := conv.Convert(pix, 8, 8, 4, true); !errors.Is(err, ErrPaletteUninitialized) {
		t.Errorf("Expected ErrPaletteUninitialized for an unknown palette, got %v", err)
	}
}

func TestColorPalettes(t *testing.T) {
	tests := []struct {
		kind  PaletteKind
		color RGB
		want  string
	}{
		{ColorSquares, RGB{0, 0, 0}, "⬛"},
		{ColorSquares, RGB{255, 255, 255}, "⬜"},
		{ColorSquares, RGB{255, 119, 99}, "🟥"},
		{ColorSquares, RGB{0, 235, 219}, "🟦"},
		{ColorFaces, RGB{134, 74, 43}, "💩"},
		{ColorFaces, RGB{243, 191, 63}, "⭐"},
	}

	for _, tt := range tests {
		conv := NewConverter(WithEmojiPalette(tt.kind))
		got, err := conv.Convert(solidFrame(4, 4, tt.color), 4, 4, 4, true)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s %v: expected %q, got %q", tt.kind, tt.color, tt.want, got)
		}
	}
}

func TestSaturation(t *testing.T) {
	gray := solidFrame(4, 4, RGB{90, 90, 90})
	plain, _ := NewConverter().ConvertGrid(gray, 4, 4, 4, false)
	boosted, _ := NewConverter(WithSaturation(2)).ConvertGrid(gray, 4, 4, 4, false)
	if plain.At(0, 0) != boosted.At(0, 0) {
		t.Errorf("Expected gray to be unaffected, got %+v and %+v", plain.At(0, 0), boosted.At(0, 0))
	}

	dull := solidFrame(4, 4, RGB{140, 100, 90})
	g, err := NewConverter(WithSaturation(3)).ConvertGrid(dull, 4, 4, 4, true)
	if err != nil {
		t.Fatal(err)
	}
	c := g.At(0, 0).Color
	if spread := int(c.R) - int(c.B); spread <= 50 {
		t.Errorf("Expected saturation to widen the channel spread, got %v", c)
	}

	// Negative factors are ignored.
	conv := NewConverter(WithSaturation(-1))
	if conv.saturation != 1 {
		t.Errorf("Expected saturation 1, got %v", conv.saturation)
	}
}

func TestConvertImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			c := color.RGBA{A: 255}
			if x >= 16 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}

	conv := NewConverter()
	g, err := conv.ConvertImage(img, 16, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.String(); got != " @\n @" {
		t.Errorf("Expected %q, got %q", " @\n @", got)
	}

	sub := img.SubImage(image.Rect(16, 0, 32, 16)).(*image.RGBA)
	g, err = conv.ConvertImage(sub, 16, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.String(); got != "@" {
		t.Errorf("Expected sub-image to convert to %q, got %q", "@", got)
	}

	if _, err := conv.ConvertImage(img, 0, false); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Expected ErrInvalidDimensions, got %v", err)
	}
}

func TestConvertPatterns(t *testing.T) {
	board := imageutil.CreateCheckerboardImage(32, 32, 16)
	got, err := Convert(board.Pix, 32, 32, 16, false)
	if err != nil {
		t.Fatal(err)
	}
	if got != "@ \n @" {
		t.Errorf("Expected checkerboard %q, got %q", "@ \n @", got)
	}

	ramp := imageutil.CreateVerticalGradientImage(16, 64)
	g, err := NewConverter().ConvertGrid(ramp.Pix, 16, 64, 16, false)
	if err != nil {
		t.Fatal(err)
	}
	for row := 1; row < g.Rows; row++ {
		if g.At(row, 0).Level < g.At(row-1, 0).Level {
			t.Errorf("Row %d is darker than row %d", row, row-1)
		}
	}
	if g.At(0, 0).Level >= g.At(g.Rows-1, 0).Level {
		t.Errorf("Expected the gradient to span several levels, got %q", g.String())
	}
}
