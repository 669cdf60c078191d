package display

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTerminalNonTTY(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	if err := term.Show("ab\ncd"); err != nil {
		t.Fatal(err)
	}
	if err := term.Show("ef\ngh"); err != nil {
		t.Fatal(err)
	}

	expected := "ab\ncd\n\nef\ngh\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
	if strings.Contains(buf.String(), ESC) {
		t.Error("Non-terminal output should not contain escape sequences")
	}
	if err := term.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestTerminalRegularFileIsNotTTY(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "frames.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	term := NewTerminal(f)
	if term.tty {
		t.Error("A regular file should not be detected as a terminal")
	}
}

func TestTerminalTTYRedraw(t *testing.T) {
	var buf bytes.Buffer
	term := &Terminal{w: &buf, tty: true}

	term.Show("x")
	first := buf.String()
	if !strings.HasPrefix(first, hideCursor+clearScreen+cursorHome) {
		t.Errorf("First frame should clear the screen, got %q", first)
	}

	buf.Reset()
	term.Show("y")
	if buf.String() != cursorHome+"y"+clearToEnd {
		t.Errorf("Later frames should redraw from home, got %q", buf.String())
	}

	buf.Reset()
	term.Close()
	if !strings.Contains(buf.String(), showCursor) {
		t.Errorf("Close should restore the cursor, got %q", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestTerminalWriteError(t *testing.T) {
	term := NewTerminal(failingWriter{})
	if err := term.Show("x"); err == nil {
		t.Error("Expected write error to be returned")
	}
}

func TestBuffer(t *testing.T) {
	var b Buffer
	b.Show("one")
	b.Show("two")
	if b.Last() != "two" {
		t.Errorf("Expected last frame %q, got %q", "two", b.Last())
	}
	if b.Frames() != 2 {
		t.Errorf("Expected 2 frames, got %d", b.Frames())
	}
}
