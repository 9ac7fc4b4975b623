package zmachine

import "github.com/grue/fic/internal/zmem"

func op1JZ(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	return m.takeBranch(vals[0] == 0)
}

// get_sibling and get_child both store the relation and then branch on
// it being nonzero.
func op1GetSibling(m *Machine, vals []uint16) error {
	return m.storeRelationAndBranch(vals, m.objects.Sibling)
}

func op1GetChild(m *Machine, vals []uint16) error {
	return m.storeRelationAndBranch(vals, m.objects.Child)
}

func (m *Machine) storeRelationAndBranch(vals []uint16, rel func(uint16) (uint16, error)) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	obj, err := rel(vals[0])
	if err != nil {
		return err
	}
	if err := m.storeVar(dst, obj); err != nil {
		return err
	}
	return m.takeBranch(obj != 0)
}

func op1GetParent(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	parent, err := m.objects.Parent(vals[0])
	if err != nil {
		return err
	}
	return m.storeVar(dst, parent)
}

func op1GetPropLen(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	n, err := m.objects.PropLen(vals[0])
	if err != nil {
		return err
	}
	return m.storeVar(dst, n)
}

func op1Inc(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	_, err := m.addToVar(vals[0], 1)
	return err
}

func op1Dec(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	_, err := m.addToVar(vals[0], -1)
	return err
}

func op1PrintAddr(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	s, _, err := m.dec.Decode(uint32(vals[0]))
	if err != nil {
		return err
	}
	m.screen.Write(s)
	return nil
}

func op1RemoveObj(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	return m.objects.Remove(vals[0])
}

func op1PrintObj(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	name, err := m.objects.Name(vals[0])
	if err != nil {
		return err
	}
	m.screen.Write(name)
	return nil
}

func op1Ret(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	return m.returnFromRoutine(vals[0])
}

// jump takes a signed offset relative to the address after the operand,
// minus two, same as a branch target. It is an unconditional transfer,
// not a branch instruction.
func op1Jump(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	m.pc = uint32(int64(m.pc) + int64(int16(vals[0])) - 2)
	return nil
}

func op1PrintPAddr(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	s, _, err := m.dec.Decode(zmem.PackedAddr(vals[0]))
	if err != nil {
		return err
	}
	m.screen.Write(s)
	return nil
}

// load reads the named variable without popping when it names the stack.
func op1Load(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	v, err := m.loadVarInPlace(byte(vals[0]))
	if err != nil {
		return err
	}
	return m.storeVar(dst, v)
}

func op1Not(m *Machine, vals []uint16) error {
	if err := need(vals, 1); err != nil {
		return err
	}
	dst, err := m.readStoreVar()
	if err != nil {
		return err
	}
	return m.storeVar(dst, ^vals[0])
}
