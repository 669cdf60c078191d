// Package display presents converted glyph grids.
package display

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	ESC = "\u001b"

	clearScreen = ESC + "[2J"
	cursorHome  = ESC + "[H"
	clearToEnd  = ESC + "[J"
	hideCursor  = ESC + "[?25l"
	showCursor  = ESC + "[?25h"
)

// Display accepts one rendered frame at a time.
type Display interface {
	Show(text string) error
}

// Terminal writes frames to a terminal or any other writer. On a TTY each
// frame redraws the screen in place; otherwise frames are written one
// after another separated by a blank line.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	tty    bool
	frames int
}

// NewTerminal returns a Terminal writing to w. Redrawing in place is
// enabled when w is a file attached to a terminal.
func NewTerminal(w io.Writer) *Terminal {
	t := &Terminal{w: w}
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		t.tty = isTerminal(f.Fd())
	}
	return t
}

// Stdout returns a Terminal on standard output that understands ANSI
// escapes on every platform.
func Stdout() *Terminal {
	return &Terminal{
		w:   colorable.NewColorableStdout(),
		tty: isTerminal(os.Stdout.Fd()),
	}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Show writes one frame.
func (t *Terminal) Show(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	switch {
	case t.tty && t.frames == 0:
		_, err = fmt.Fprint(t.w, hideCursor+clearScreen+cursorHome+text+clearToEnd)
	case t.tty:
		_, err = fmt.Fprint(t.w, cursorHome+text+clearToEnd)
	case t.frames == 0:
		_, err = fmt.Fprint(t.w, text+"\n")
	default:
		_, err = fmt.Fprint(t.w, "\n"+text+"\n")
	}
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	t.frames++
	return nil
}

// Close restores the cursor on a TTY.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tty && t.frames > 0 {
		_, err := fmt.Fprint(t.w, ESC+"[0m"+showCursor+"\n")
		return err
	}
	return nil
}

// Buffer is a Display that keeps the most recent frame in memory.
type Buffer struct {
	mu     sync.Mutex
	last   string
	frames int
}

// Show records text as the latest frame.
func (b *Buffer) Show(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = text
	b.frames++
	return nil
}

// Last returns the most recent frame.
func (b *Buffer) Last() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Frames returns how many frames were shown.
func (b *Buffer) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}
