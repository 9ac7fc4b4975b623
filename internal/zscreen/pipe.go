package zscreen

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// PipeSink linearizes the operation stream for line-buffered drivers with
// no terminal control: lower-window text passes through unchanged, cursor
// and window positioning are ignored, and the status line degrades to a
// re-printed "Location  Score: N  Turns: N" summary so drivers can key on
// it between turns.
type PipeSink struct {
	in         *bufio.Reader
	out        io.Writer
	ShowBanner bool
}

func NewPipeSink(in io.Reader, out io.Writer) *PipeSink {
	return &PipeSink{in: bufio.NewReader(in), out: out, ShowBanner: true}
}

// WriteText passes lower-window text through. Upper-window text depends
// on cursor positioning and is dropped; the status banner carries the
// information instead.
func (p *PipeSink) WriteText(w Window, text string) {
	if w == Lower {
		fmt.Fprint(p.out, text)
	}
}

func (p *PipeSink) SplitWindow(height int)  {}
func (p *PipeSink) SetWindow(w Window)      {}
func (p *PipeSink) SetCursor(row, col int)  {}
func (p *PipeSink) EraseWindow(w Window)    {}

func (p *PipeSink) ShowStatus(location string, score, turns int) {
	if !p.ShowBanner {
		return
	}
	fmt.Fprintf(p.out, "%-40s Score: %d  Turns: %d\n", location, score, turns)
}

// ReadLine reads one newline-terminated command. io.EOF signals that the
// driver closed the input stream.
func (p *PipeSink) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && (line == "" || err != io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
