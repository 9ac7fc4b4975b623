package zmachine

import "fmt"

// The comparison opcodes operate on signed 16-bit values; bit patterns
// are reinterpreted at the point of comparison.

func op2JE(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	eq := false
	for _, v := range vals[1:] {
		if v == vals[0] {
			eq = true
			break
		}
	}
	return m.takeBranch(eq)
}

func op2JL(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	return m.takeBranch(int16(vals[0]) < int16(vals[1]))
}

func op2JG(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	return m.takeBranch(int16(vals[0]) > int16(vals[1]))
}

func op2DecChk(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	next, err := m.addToVar(vals[0], -1)
	if err != nil {
		return err
	}
	return m.takeBranch(int16(next) < int16(vals[1]))
}

func op2IncChk(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	next, err := m.addToVar(vals[0], 1)
	if err != nil {
		return err
	}
	return m.takeBranch(int16(next) > int16(vals[1]))
}

func op2Jin(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	parent, err := m.objects.Parent(vals[0])
	if err != nil {
		return err
	}
	return m.takeBranch(parent == vals[1])
}

func op2Test(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	return m.takeBranch(vals[0]&vals[1] == vals[1])
}

func op2Or(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	return m.storeVar(dst, vals[0]|vals[1])
}

func op2And(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	return m.storeVar(dst, vals[0]&vals[1])
}

func op2TestAttr(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	set, err := m.objects.Attr(vals[0], vals[1])
	if err != nil {
		return err
	}
	return m.takeBranch(set)
}

func op2SetAttr(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	return m.objects.SetAttr(vals[0], vals[1])
}

func op2ClearAttr(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	return m.objects.ClearAttr(vals[0], vals[1])
}

// store writes through the variable named by the first operand; a named
// variable 0 replaces the stack top rather than pushing.
func op2Store(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	return m.storeVarInPlace(byte(vals[0]), vals[1])
}

func op2InsertObj(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	return m.objects.Insert(vals[0], vals[1])
}

func op2LoadW(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	w, err := m.mem.Word(uint32(vals[0]) + 2*uint32(vals[1]))
	if err != nil {
		return err
	}
	return m.storeVar(dst, w)
}

func op2LoadB(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	b, err := m.mem.Byte(uint32(vals[0]) + uint32(vals[1]))
	if err != nil {
		return err
	}
	return m.storeVar(dst, uint16(b))
}

func op2GetProp(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	v, err := m.objects.Prop(vals[0], vals[1])
	if err != nil {
		return err
	}
	return m.storeVar(dst, v)
}

func op2GetPropAddr(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	addr, err := m.objects.PropAddr(vals[0], vals[1])
	if err != nil {
		return err
	}
	return m.storeVar(dst, addr)
}

func op2GetNextProp(m *Machine, vals []uint16) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	n, err := m.objects.NextProp(vals[0], vals[1])
	if err != nil {
		return err
	}
	return m.storeVar(dst, n)
}

func op2Add(m *Machine, vals []uint16) error {
	return m.storeArith(vals, func(a, b int16) (int16, error) {
		return a + b, nil
	})
}

func op2Sub(m *Machine, vals []uint16) error {
	return m.storeArith(vals, func(a, b int16) (int16, error) {
		return a - b, nil
	})
}

func op2Mul(m *Machine, vals []uint16) error {
	return m.storeArith(vals, func(a, b int16) (int16, error) {
		return a * b, nil
	})
}

func op2Div(m *Machine, vals []uint16) error {
	return m.storeArith(vals, divide)
}

func op2Mod(m *Machine, vals []uint16) error {
	return m.storeArith(vals, remainder)
}

// storeArith factors the shared shape of the five arithmetic opcodes:
// two signed operands, one store target.
func (m *Machine) storeArith(vals []uint16, f func(a, b int16) (int16, error)) error {
	if err := need(vals, 2); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	r, err := f(int16(vals[0]), int16(vals[1]))
	if err != nil {
		return err
	}
	return m.storeVar(dst, uint16(r))
}

// divide truncates toward zero. The -32768/-1 case overflows int16 in
// Go; the machine wraps it to -32768 like the two's-complement hardware
// the format assumes.
func divide(a, b int16) (int16, error) {
	if b == 0 {
		return 0, fmt.Errorf("%w: %d / 0", ErrDivisionByZero, a)
	}
	if a == -32768 && b == -1 {
		return -32768, nil
	}
	return a / b, nil
}

func remainder(a, b int16) (int16, error) {
	if b == 0 {
		return 0, fmt.Errorf("%w: %d mod 0", ErrDivisionByZero, a)
	}
	if a == -32768 && b == -1 {
		return 0, nil
	}
	return a % b, nil
}
