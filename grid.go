package mosaic

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	ESC = "\u001b"
)

// Cell is one glyph of a Grid together with the quantization level and the
// block color it was chosen from.
type Cell struct {
	Glyph string
	Level int
	Color RGB
}

// Grid is the result of a conversion: Rows x Cols cells stored row-major.
type Grid struct {
	Rows    int
	Cols    int
	Cells   []Cell
	Palette Palette
}

func newGrid(l Layout, p Palette) *Grid {
	return &Grid{
		Rows:    l.Rows,
		Cols:    l.Cols,
		Cells:   make([]Cell, l.Blocks()),
		Palette: p,
	}
}

// At returns the cell at (row, col).
func (g *Grid) At(row, col int) Cell {
	return g.Cells[row*g.Cols+col]
}

// Row returns the cells of one row. The slice aliases the grid.
func (g *Grid) Row(row int) []Cell {
	return g.Cells[row*g.Cols : (row+1)*g.Cols]
}

// String serializes the grid as rows of concatenated glyphs joined by a
// single newline, with no trailing newline. An empty grid is "".
func (g *Grid) String() string {
	if g.Rows == 0 || g.Cols == 0 {
		return ""
	}
	var sb strings.Builder
	// Emoji glyphs are 4 bytes; ASCII glyphs are 1.
	glyphBytes := 1
	if len(g.Cells) > 0 {
		glyphBytes = len(g.Cells[0].Glyph)
	}
	sb.Grow(g.Rows*(g.Cols*glyphBytes+1) - 1)
	for row := 0; row < g.Rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for _, cell := range g.Row(row) {
			sb.WriteString(cell.Glyph)
		}
	}
	return sb.String()
}

// Lines returns the serialized rows of the grid.
func (g *Grid) Lines() []string {
	lines := make([]string, g.Rows)
	var sb strings.Builder
	for row := range lines {
		sb.Reset()
		for _, cell := range g.Row(row) {
			sb.WriteString(cell.Glyph)
		}
		lines[row] = sb.String()
	}
	return lines
}

// Width returns the number of terminal columns the widest row occupies.
// Emoji usually take two columns per glyph.
func (g *Grid) Width() int {
	width := 0
	for _, line := range g.Lines() {
		width = max(width, runewidth.StringWidth(line))
	}
	return width
}

// ANSI serializes the grid like String, but sets a 24-bit foreground color
// for each run of cells sharing a block color. Every row ends with a reset
// so colors never bleed into the next line.
func (g *Grid) ANSI() string {
	if g.Rows == 0 || g.Cols == 0 {
		return ""
	}
	var sb strings.Builder
	for row := 0; row < g.Rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		cells := g.Row(row)
		start := 0
		for i := 1; i <= len(cells); i++ {
			if i < len(cells) && cells[i].Color == cells[start].Color {
				continue
			}
			writeANSIRun(&sb, cells[start].Color, cells[start:i])
			start = i
		}
		sb.WriteString(ESC + "[0m")
	}
	return sb.String()
}

// writeANSIRun writes one truecolor escape followed by the glyphs of a run
// of cells sharing that color.
func writeANSIRun(sb *strings.Builder, c RGB, run []Cell) {
	sb.WriteString(ESC)
	sb.WriteString("[38;2;")
	sb.WriteString(strconv.Itoa(int(c.R)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(c.G)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(c.B)))
	sb.WriteByte('m')
	for _, cell := range run {
		sb.WriteString(cell.Glyph)
	}
}

// BlockSizeForColumns returns the smallest block size for which a frame of
// the given pixel width converts to a grid no wider than columns terminal
// cells, using the default palettes.
func BlockSizeForColumns(width, columns int, emojiMode bool) int {
	return defaultConverter.BlockSizeForColumns(width, columns, emojiMode)
}

// BlockSizeForColumns returns the smallest block size for which a frame of
// the given pixel width fits in columns terminal cells with the palette
// selected by emojiMode.
func (c *Converter) BlockSizeForColumns(width, columns int, emojiMode bool) int {
	p := c.palette(emojiMode)
	glyphWidth := 1
	for _, s := range p.Symbols {
		glyphWidth = max(glyphWidth, runewidth.StringWidth(s))
	}
	cells := max(1, columns/glyphWidth)
	if width <= 0 {
		return 1
	}
	return max(1, (width+cells-1)/cells)
}
