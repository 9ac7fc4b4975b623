package zscreen

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// TermSink renders the two-window model onto an ANSI terminal: the upper
// window occupies the top rows with absolute positioning, the status line
// is a reverse-video bar on row one, and the lower window scrolls below.
type TermSink struct {
	in     *bufio.Reader
	out    io.Writer
	cols   int
	upper  int
	window Window
}

func NewTermSink(in io.Reader, out io.Writer, cols int) *TermSink {
	if cols <= 0 {
		cols = 80
	}
	return &TermSink{in: bufio.NewReader(in), out: out, cols: cols}
}

func (t *TermSink) WriteText(w Window, text string) {
	fmt.Fprint(t.out, text)
}

func (t *TermSink) SplitWindow(height int) {
	t.upper = height
}

func (t *TermSink) SetWindow(w Window) {
	t.window = w
	if w == Upper {
		fmt.Fprint(t.out, "\x1b7") // save cursor before absolute moves
	} else {
		fmt.Fprint(t.out, "\x1b8")
	}
}

func (t *TermSink) SetCursor(row, col int) {
	fmt.Fprintf(t.out, "\x1b[%d;%dH", row, col)
}

func (t *TermSink) EraseWindow(w Window) {
	fmt.Fprint(t.out, "\x1b[2J\x1b[H")
}

// ShowStatus draws the reverse-video status bar on row one and puts the
// cursor back where it was.
func (t *TermSink) ShowStatus(location string, score, turns int) {
	right := fmt.Sprintf("Score: %d  Turns: %d ", score, turns)
	left := " " + location
	pad := t.cols - len(left) - len(right)
	if pad < 1 {
		pad = 1
	}
	line := left + strings.Repeat(" ", pad) + right
	if len(line) > t.cols {
		line = line[:t.cols]
	}
	fmt.Fprintf(t.out, "\x1b7\x1b[1;1H\x1b[7m%s\x1b[0m\x1b8", line)
}

func (t *TermSink) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := t.in.ReadString('\n')
	if err != nil && (line == "" || err != io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
