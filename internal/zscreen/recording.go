package zscreen

import (
	"context"
	"io"
)

// OpKind tags one recorded logical operation.
type OpKind int

const (
	OpWrite OpKind = iota
	OpSplit
	OpSetWindow
	OpSetCursor
	OpErase
	OpStatus
	OpRead
)

// Op is one captured screen operation.
type Op struct {
	Kind     OpKind
	Window   Window
	Text     string
	Row, Col int
	Height   int
	Location string
	Score    int
	Turns    int
}

// RecordingSink captures the logical operation stream and serves input
// from a scripted list. Used by tests and by embedders that drive the
// machine programmatically.
type RecordingSink struct {
	Ops    []Op
	Inputs []string
	next   int
}

func NewRecordingSink(inputs ...string) *RecordingSink {
	return &RecordingSink{Inputs: inputs}
}

func (r *RecordingSink) WriteText(w Window, text string) {
	r.Ops = append(r.Ops, Op{Kind: OpWrite, Window: w, Text: text})
}

func (r *RecordingSink) SplitWindow(height int) {
	r.Ops = append(r.Ops, Op{Kind: OpSplit, Height: height})
}

func (r *RecordingSink) SetWindow(w Window) {
	r.Ops = append(r.Ops, Op{Kind: OpSetWindow, Window: w})
}

func (r *RecordingSink) SetCursor(row, col int) {
	r.Ops = append(r.Ops, Op{Kind: OpSetCursor, Row: row, Col: col})
}

func (r *RecordingSink) EraseWindow(w Window) {
	r.Ops = append(r.Ops, Op{Kind: OpErase, Window: w})
}

func (r *RecordingSink) ShowStatus(location string, score, turns int) {
	r.Ops = append(r.Ops, Op{Kind: OpStatus, Location: location, Score: score, Turns: turns})
}

// ReadLine pops the next scripted input; io.EOF once the script runs out.
func (r *RecordingSink) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.next >= len(r.Inputs) {
		return "", io.EOF
	}
	line := r.Inputs[r.next]
	r.next++
	r.Ops = append(r.Ops, Op{Kind: OpRead, Text: line})
	return line, nil
}

// Text concatenates all lower-window writes, for assertions on visible
// output.
func (r *RecordingSink) Text() string {
	var out []byte
	for _, op := range r.Ops {
		if op.Kind == OpWrite && op.Window == Lower {
			out = append(out, op.Text...)
		}
	}
	return string(out)
}
