package mosaic

import "image"

// Layout describes how a frame is divided into square sampling blocks.
// Blocks on the right and bottom edges are clipped to the frame and may be
// smaller than BlockSize in either direction.
type Layout struct {
	Width     int
	Height    int
	BlockSize int
	Rows      int
	Cols      int
}

// Partition computes the block layout for a width x height frame using
// blockSize x blockSize blocks. The grid has ceil(height/blockSize) rows and
// ceil(width/blockSize) columns. A frame with a non-positive dimension or
// block size has no blocks.
func Partition(width, height, blockSize int) Layout {
	l := Layout{Width: width, Height: height, BlockSize: blockSize}
	if width <= 0 || height <= 0 || blockSize <= 0 {
		return l
	}
	l.Rows = (height + blockSize - 1) / blockSize
	l.Cols = (width + blockSize - 1) / blockSize
	return l
}

// Blocks returns the total number of blocks in the layout.
func (l Layout) Blocks() int {
	return l.Rows * l.Cols
}

// Bounds returns the pixel rectangle covered by block (row, col).
func (l Layout) Bounds(row, col int) image.Rectangle {
	x0, y0 := col*l.BlockSize, row*l.BlockSize
	return image.Rect(
		x0, y0,
		min(x0+l.BlockSize, l.Width),
		min(y0+l.BlockSize, l.Height),
	)
}

// Summary is the reduction of every pixel of one block to a representative
// color. Sums are kept so quantization can be done exactly in integers.
type Summary struct {
	Mean   RGB
	Luma   float64
	Pixels int

	sumR, sumG, sumB uint64
}

// Summarize averages the red, green and blue channels of the pixels of an
// RGBA buffer inside bounds. stride is the number of bytes per buffer row.
// Alpha is ignored. An empty rectangle yields a zero Summary.
func Summarize(pix []byte, stride int, bounds image.Rectangle) Summary {
	var sr, sg, sb uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := pix[y*stride+bounds.Min.X*4 : y*stride+bounds.Max.X*4]
		for i := 0; i+3 < len(row); i += 4 {
			sr += uint64(row[i])
			sg += uint64(row[i+1])
			sb += uint64(row[i+2])
		}
	}

	n := bounds.Dx() * bounds.Dy()
	if n <= 0 {
		return Summary{}
	}
	count := uint64(n)
	return Summary{
		Mean: RGB{
			R: uint8(sr / count),
			G: uint8(sg / count),
			B: uint8(sb / count),
		},
		Luma:   (0.299*float64(sr) + 0.587*float64(sg) + 0.114*float64(sb)) / float64(n),
		Pixels: n,
		sumR:   sr,
		sumG:   sg,
		sumB:   sb,
	}
}

// level returns floor(Luma / 256 * levels) clamped to [0, levels-1],
// computed from the channel sums so the result does not depend on
// floating-point rounding.
func (s Summary) level(levels int) int {
	if s.Pixels == 0 || levels <= 0 {
		return 0
	}
	num := (lumaR*s.sumR + lumaG*s.sumG + lumaB*s.sumB) * uint64(levels)
	den := uint64(lumaScale) * uint64(s.Pixels) * 256
	return clampLevel(int(num/den), levels)
}
