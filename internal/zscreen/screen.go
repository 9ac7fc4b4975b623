// Package zscreen models the interpreter's logical output surface: an
// upper window with absolute cursor positioning for status displays and a
// scrolling lower window for the text stream. The core emits logical
// operations against a Sink; concrete sinks render them to a terminal,
// linearize them to a pipe, or record them for tests.
package zscreen

import "context"

// Window identifies one of the two logical output regions.
type Window int

const (
	Lower Window = 0
	Upper Window = 1

	// All addresses both windows in erase operations.
	All Window = -1
)

// Sink consumes the logical screen operation stream. Implementations must
// never mutate interpreter state; ReadLine is the interpreter's only
// suspension point and blocks until a full line is available.
type Sink interface {
	WriteText(w Window, text string)
	SplitWindow(height int)
	SetWindow(w Window)
	SetCursor(row, col int)
	EraseWindow(w Window)
	ShowStatus(location string, score, turns int)
	ReadLine(ctx context.Context) (string, error)
}

// Screen tracks window state and forwards operations to its sink.
type Screen struct {
	sink        Sink
	current     Window
	upperHeight int
}

func New(sink Sink) *Screen {
	return &Screen{sink: sink}
}

// Current returns the selected output window.
func (s *Screen) Current() Window { return s.current }

// UpperHeight returns the split height of the upper window, 0 when unsplit.
func (s *Screen) UpperHeight() int { return s.upperHeight }

// Write sends text to the currently selected window.
func (s *Screen) Write(text string) {
	s.sink.WriteText(s.current, text)
}

// SplitWindow resizes the upper window. Height 0 removes the split and
// reselects the lower window.
func (s *Screen) SplitWindow(height int) {
	if height < 0 {
		height = 0
	}
	s.upperHeight = height
	s.sink.SplitWindow(height)
	if height == 0 && s.current == Upper {
		s.SetWindow(Lower)
	}
}

// SetWindow selects the output window. Selecting the upper window homes
// its cursor, per the version-3 model.
func (s *Screen) SetWindow(w Window) {
	s.current = w
	s.sink.SetWindow(w)
	if w == Upper {
		s.sink.SetCursor(1, 1)
	}
}

// SetCursor positions the upper-window cursor (1-based row and column).
func (s *Screen) SetCursor(row, col int) {
	s.sink.SetCursor(row, col)
}

// EraseWindow clears a window.
func (s *Screen) EraseWindow(w Window) {
	s.sink.EraseWindow(w)
}

// ShowStatus renders the status line: current location plus score and
// turn count.
func (s *Screen) ShowStatus(location string, score, turns int) {
	s.sink.ShowStatus(location, score, turns)
}

// ReadLine suspends for one line of player input.
func (s *Screen) ReadLine(ctx context.Context) (string, error) {
	return s.sink.ReadLine(ctx)
}
