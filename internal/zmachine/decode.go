package zmachine

import "fmt"

// Operand type tags, two bits each.
const (
	operandLarge    = 0x0
	operandSmall    = 0x1
	operandVariable = 0x2
	operandOmitted  = 0x3
)

// opCount selects the dispatch table an instruction belongs to.
type opCount int

const (
	count0OP opCount = iota
	count1OP
	count2OP
	countVAR
)

// operand is one decoded operand descriptor. Variable operands are
// resolved at execution time so decoding stays side-effect free (the
// disassembler shares it).
type operand struct {
	kind byte
	raw  uint16
}

// instruction is the normalized record produced by decoding: opcode
// identity, operand descriptors, and the address just past the operands.
// Store targets, branch specifications and literal text are consumed from
// that address by the handler (or by the disassembler, via the metadata
// tables).
type instruction struct {
	addr   uint32
	opcode byte
	count  opCount
	num    byte
	ops    []operand
	next   uint32
}

// decodeInstruction reads the instruction at addr: the form from the top
// bits of the opcode byte, then the declared operands. It does not touch
// machine state.
func (m *Machine) decodeInstruction(addr uint32) (instruction, error) {
	op, err := m.mem.Byte(addr)
	if err != nil {
		return instruction{}, err
	}
	in := instruction{addr: addr, opcode: op}
	p := addr + 1

	switch {
	case op>>6 == 0x3:
		// Variable form: bit 5 selects 2OP or VAR count, one type byte
		// declares up to four operands.
		in.num = op & 0x1F
		if op&0x20 == 0 {
			in.count = count2OP
		} else {
			in.count = countVAR
		}
		types, err := m.mem.Byte(p)
		if err != nil {
			return instruction{}, err
		}
		p++
		for shift := 6; shift >= 0; shift -= 2 {
			kind := types >> shift & 0x3
			if kind == operandOmitted {
				break
			}
			p, err = m.readOperand(kind, p, &in)
			if err != nil {
				return instruction{}, err
			}
		}

	case op>>6 == 0x2:
		// Short form: bits 4-5 are the operand type; type 3 means 0OP.
		in.num = op & 0x0F
		kind := op >> 4 & 0x3
		if kind == operandOmitted {
			in.count = count0OP
		} else {
			in.count = count1OP
			p, err = m.readOperand(kind, p, &in)
			if err != nil {
				return instruction{}, err
			}
		}

	default:
		// Long form: always 2OP; bits 6 and 5 pick small constant or
		// variable for each operand.
		in.count = count2OP
		in.num = op & 0x1F
		for _, bit := range []byte{0x40, 0x20} {
			kind := byte(operandSmall)
			if op&bit != 0 {
				kind = operandVariable
			}
			p, err = m.readOperand(kind, p, &in)
			if err != nil {
				return instruction{}, err
			}
		}
	}

	in.next = p
	return in, nil
}

func (m *Machine) readOperand(kind byte, p uint32, in *instruction) (uint32, error) {
	switch kind {
	case operandLarge:
		w, err := m.mem.Word(p)
		if err != nil {
			return 0, err
		}
		in.ops = append(in.ops, operand{kind: kind, raw: w})
		return p + 2, nil
	case operandSmall, operandVariable:
		b, err := m.mem.Byte(p)
		if err != nil {
			return 0, err
		}
		in.ops = append(in.ops, operand{kind: kind, raw: uint16(b)})
		return p + 1, nil
	default:
		return 0, fmt.Errorf("%w: operand type %d", ErrIllegalOpcode, kind)
	}
}

// resolveOperands produces operand values in declaration order. Variable
// operands read their variable now; a stack operand pops.
func (m *Machine) resolveOperands(ops []operand) ([]uint16, error) {
	vals := make([]uint16, len(ops))
	for i, op := range ops {
		if op.kind == operandVariable {
			v, err := m.loadVar(byte(op.raw))
			if err != nil {
				return nil, err
			}
			vals[i] = v
		} else {
			vals[i] = op.raw
		}
	}
	return vals, nil
}

// branchSpec is a decoded branch specification.
type branchSpec struct {
	onTrue bool
	offset int16
	next   uint32
}

// readBranchSpec decodes the one- or two-byte branch specification at
// addr without applying it.
func (m *Machine) readBranchSpec(addr uint32) (branchSpec, error) {
	b1, err := m.mem.Byte(addr)
	if err != nil {
		return branchSpec{}, err
	}
	spec := branchSpec{onTrue: b1&0x80 != 0}

	if b1&0x40 != 0 {
		// Single byte, unsigned 6-bit offset.
		spec.offset = int16(b1 & 0x3F)
		spec.next = addr + 1
		return spec, nil
	}

	// Two bytes, signed 14-bit offset.
	b2, err := m.mem.Byte(addr + 1)
	if err != nil {
		return branchSpec{}, err
	}
	raw := uint16(b1&0x3F)<<8 | uint16(b2)
	if raw&0x2000 != 0 {
		raw |= 0xC000
	}
	spec.offset = int16(raw)
	spec.next = addr + 2
	return spec, nil
}

// takeBranch consumes the branch specification at the program counter and
// applies it: offsets 0 and 1 mean "return false/true from the current
// routine"; anything else jumps to (address after branch data) + offset
// - 2 when the condition matches the branch sense.
func (m *Machine) takeBranch(cond bool) error {
	spec, err := m.readBranchSpec(m.pc)
	if err != nil {
		return err
	}
	m.pc = spec.next

	if cond != spec.onTrue {
		return nil
	}
	switch spec.offset {
	case 0:
		return m.returnFromRoutine(0)
	case 1:
		return m.returnFromRoutine(1)
	default:
		m.pc = uint32(int64(m.pc) + int64(spec.offset) - 2)
		return nil
	}
}
