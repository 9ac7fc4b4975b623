package zmachine

import (
	"fmt"
	"strings"
)

// Disassemble renders n instructions starting at addr, one per line.
// It shares the executor's decoder and metadata tables, so anything the
// machine can run it can print. Decoding stops early at the first
// undecodable byte, with the error appended as the final line.
func (m *Machine) Disassemble(addr uint32, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		line, next, err := m.disasmOne(addr)
		if err != nil {
			fmt.Fprintf(&sb, "0x%05X: <%s>\n", addr, err.Error())
			break
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
		addr = next
	}
	return sb.String()
}

func (m *Machine) disasmOne(addr uint32) (string, uint32, error) {
	in, err := m.decodeInstruction(addr)
	if err != nil {
		return "", 0, err
	}
	info := lookupInfo(in)

	var sb strings.Builder
	fmt.Fprintf(&sb, "0x%05X: %-15s", in.addr, opName(in))
	for _, op := range in.ops {
		sb.WriteByte(' ')
		sb.WriteString(renderOperand(op))
	}
	p := in.next

	if info.store {
		dst, err := m.mem.Byte(p)
		if err != nil {
			return "", 0, err
		}
		p++
		fmt.Fprintf(&sb, " -> %s", varName(dst))
	}
	if info.branch {
		spec, err := m.readBranchSpec(p)
		if err != nil {
			return "", 0, err
		}
		p = spec.next
		sense := "?"
		if !spec.onTrue {
			sense = "?~"
		}
		switch spec.offset {
		case 0:
			fmt.Fprintf(&sb, " %srfalse", sense)
		case 1:
			fmt.Fprintf(&sb, " %srtrue", sense)
		default:
			target := uint32(int64(spec.next) + int64(spec.offset) - 2)
			fmt.Fprintf(&sb, " %s0x%05X", sense, target)
		}
	}
	if info.text {
		s, next, err := m.dec.Decode(p)
		if err != nil {
			return "", 0, err
		}
		p = next
		fmt.Fprintf(&sb, " %q", s)
	}
	return sb.String(), p, nil
}

func renderOperand(op operand) string {
	switch op.kind {
	case operandLarge:
		return fmt.Sprintf("#%04x", op.raw)
	case operandVariable:
		return varName(byte(op.raw))
	default:
		return fmt.Sprintf("#%02x", op.raw)
	}
}

func varName(v byte) string {
	switch {
	case v == 0:
		return "sp"
	case v < 16:
		return fmt.Sprintf("L%02d", v-1)
	default:
		return fmt.Sprintf("G%02d", v-16)
	}
}
