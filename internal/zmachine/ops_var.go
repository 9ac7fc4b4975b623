package zmachine

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/grue/fic/internal/zscreen"
	"github.com/grue/fic/internal/ztext"
)

func opVCall(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	return m.callRoutine(vals[0], vals[1:])
}

func opVStoreW(m *Machine, vals []uint16) error {
	if err := need(vals, 3); err != nil {
		return err
	}
	return m.mem.SetWord(uint32(vals[0])+2*uint32(vals[1]), vals[2])
}

func opVStoreB(m *Machine, vals []uint16) error {
	if err := need(vals, 3); err != nil {
		return err
	}
	return m.mem.SetByte(uint32(vals[0])+uint32(vals[1]), byte(vals[2]))
}

func opVPutProp(m *Machine, vals []uint16) error {
	if err := need(vals, 3); err != nil {
		return err
	}
	return m.objects.SetProp(vals[0], vals[1], vals[2])
}

// sread redraws the status line, suspends for one line of input, and
// fills the text and parse buffers. End of input is a clean shutdown:
// the machine halts without error, mid-instruction.
func opVSread(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	if err := m.refreshStatus(); err != nil {
		return err
	}

	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	m.state = AwaitingInput
	line, err := m.screen.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			m.state = Halted
			return nil
		}
		m.state = Halted
		return err
	}
	m.state = Running

	line = strings.ToLower(line)
	if err := m.fillTextBuffer(uint32(vals[0]), &line); err != nil {
		return err
	}
	return m.fillParseBuffer(uint32(vals[1]), line)
}

// fillTextBuffer stores the line as zero-terminated ZSCII starting at
// buf+1, truncated to the capacity in buf+0. The line is truncated in
// place so tokenization sees what was stored.
func (m *Machine) fillTextBuffer(buf uint32, line *string) error {
	capacity, err := m.mem.Byte(buf)
	if err != nil {
		return err
	}
	if capacity > 0 && len(*line) > int(capacity)-1 {
		*line = (*line)[:capacity-1]
	}
	for i := 0; i < len(*line); i++ {
		if err := m.mem.SetByte(buf+1+uint32(i), (*line)[i]); err != nil {
			return err
		}
	}
	return m.mem.SetByte(buf+1+uint32(len(*line)), 0)
}

// fillParseBuffer tokenizes the line and writes one 4-byte record per
// token: dictionary address, length, and position within the text
// buffer. Unknown words record address zero.
func (m *Machine) fillParseBuffer(buf uint32, line string) error {
	maxTokens, err := m.mem.Byte(buf)
	if err != nil {
		return err
	}
	tokens := m.dict.Tokenize(line)
	if len(tokens) > int(maxTokens) {
		tokens = tokens[:maxTokens]
	}
	if err := m.mem.SetByte(buf+1, byte(len(tokens))); err != nil {
		return err
	}
	for i, tok := range tokens {
		addr, err := m.dict.Lookup(tok.Text)
		if err != nil {
			return err
		}
		rec := buf + 2 + 4*uint32(i)
		if err := m.mem.SetWord(rec, addr); err != nil {
			return err
		}
		if err := m.mem.SetByte(rec+2, byte(tok.Length)); err != nil {
			return err
		}
		if err := m.mem.SetByte(rec+3, byte(tok.Start+1)); err != nil {
			return err
		}
	}
	return nil
}

func opVPrintChar(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	m.screen.Write(ztext.ZSCII(vals[0]))
	return nil
}

func opVPrintNum(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	m.screen.Write(strconv.Itoa(int(int16(vals[0]))))
	return nil
}

// random with a positive range stores a uniform pick in 1..n. A negative
// argument reseeds the generator with its magnitude, zero reseeds from
// the clock; both store zero.
func opVRandom(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	n := int16(vals[0])
	switch {
	case n > 0:
		return m.storeVar(dst, uint16(m.rng.Intn(int(n))+1))
	case n < 0:
		m.reseed(int64(-n))
	default:
		m.reseed(0)
	}
	return m.storeVar(dst, 0)
}

func opVPush(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	m.topFrame().push(vals[0])
	return nil
}

// pull pops the stack into a named variable; a named variable 0 puts
// the value straight back on top.
func opVPull(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	v, err := m.topFrame().pop()
	if err != nil {
		return err
	}
	return m.storeVarInPlace(byte(vals[0]), v)
}

func opVSplitWindow(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	m.screen.SplitWindow(int(vals[0]))
	return nil
}

func opVSetWindow(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	m.screen.SetWindow(zscreen.Window(vals[0]))
	return nil
}

// Stream selection and sound are accepted and ignored; the interpreter
// drives exactly one output channel.
func opVNopStream(m *Machine, vals []uint16) error { return nil }

func opVNopSound(m *Machine, vals []uint16) error { return nil }
